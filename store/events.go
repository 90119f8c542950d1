package store

import (
	"context"
	"errors"
	"log"

	"chorely/batch"
	"chorely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventStore struct {
	coll *mongo.Collection
}

func NewEventStore(coll *mongo.Collection) *EventStore {
	return &EventStore{coll: coll}
}

func (s *EventStore) Insert(ctx context.Context, event *models.Event) (primitive.ObjectID, error) {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, event)
	return event.ID, err
}

func (s *EventStore) Fetch(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FetchForParticipant returns events whose participant set contains id,
// ordered by scheduledTime ascending.
func (s *EventStore) FetchForParticipant(ctx context.Context, id primitive.ObjectID) ([]models.Event, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledTime", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"participants": id}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeEvents(ctx, cursor), nil
}

// FetchForParticipantBetween narrows FetchForParticipant to a
// [from, to) scheduledTime window.
func (s *EventStore) FetchForParticipantBetween(ctx context.Context, id primitive.ObjectID, from, to int64) ([]models.Event, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledTime", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{
		"participants":  id,
		"scheduledTime": bson.M{"$gte": from, "$lt": to},
	}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeEvents(ctx, cursor), nil
}

// FetchByCreators returns events created by any of the given users. The
// creator set is partitioned into $in chunks; chunk results carry no global
// order, so the merge re-sorts by scheduledTime.
func (s *EventStore) FetchByCreators(ctx context.Context, creatorIDs []primitive.ObjectID) ([]models.Event, error) {
	var chunkResults [][]models.Event
	for _, chunk := range batch.Chunk(creatorIDs, batch.MaxInValues) {
		cursor, err := s.coll.Find(ctx, bson.M{"creatorId": bson.M{"$in": chunk}})
		if err != nil {
			return nil, err
		}
		chunkResults = append(chunkResults, decodeEvents(ctx, cursor))
	}

	return batch.MergeSorted(chunkResults, func(a, b models.Event) bool {
		return a.ScheduledTime < b.ScheduledTime
	}), nil
}

// Join adds userID to the participant set. Reports whether the set actually
// changed; re-joining is a no-op, not an error.
func (s *EventStore) Join(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": eventID},
		bson.M{"$addToSet": bson.M{"participants": userID}})
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, models.ErrNotFound
	}
	return result.ModifiedCount > 0, nil
}

// Leave removes userID from the participant set. Removing a non-member is
// a no-op.
func (s *EventStore) Leave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": eventID},
		bson.M{"$pull": bson.M{"participants": userID}})
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, models.ErrNotFound
	}
	return result.ModifiedCount > 0, nil
}

// Complete flips the monotone completed flag. The filter keys on
// completed=false so the transition fires at most once; completing an
// already-completed event reports false with no error.
func (s *EventStore) Complete(ctx context.Context, eventID primitive.ObjectID) (bool, error) {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": eventID, "completed": false},
		bson.M{"$set": bson.M{"completed": true}})
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		// Either missing or already completed; tell them apart.
		count, err := s.coll.CountDocuments(ctx, bson.M{"_id": eventID})
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, models.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func decodeEvents(ctx context.Context, cursor *mongo.Cursor) []models.Event {
	defer cursor.Close(ctx)

	var events []models.Event
	for cursor.Next(ctx) {
		var event models.Event
		if err := cursor.Decode(&event); err != nil {
			log.Printf("[EventStore] Dropping undecodable event document: %v", errors.Join(models.ErrDecode, err))
			continue
		}
		events = append(events, event)
	}
	return events
}
