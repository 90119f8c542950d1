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
)

// Firestore-style sentinel closing the half-open prefix range for
// starts-with searches on fullName.
const prefixSentinel = ""

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(coll *mongo.Collection) *UserStore {
	return &UserStore{coll: coll}
}

func (s *UserStore) Fetch(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FetchByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserStore) Insert(ctx context.Context, user *models.User) error {
	_, err := s.coll.InsertOne(ctx, user)
	return err
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetFields applies a $set of the given fields to one profile document.
func (s *UserStore) SetFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	if len(fields) == 0 {
		return nil
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AdjustCounter applies an atomic $inc to one of the task counters. The
// increment happens at the storage layer so concurrent adjustments from
// multiple sessions never read-modify-write each other.
func (s *UserStore) AdjustCounter(ctx context.Context, id primitive.ObjectID, counter string, delta int) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{counter: delta}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AdjustTaskCounters moves both task counters in one atomic write, the
// shape the complete saga needs (pending down, completed up together).
func (s *UserStore) AdjustTaskCounters(ctx context.Context, id primitive.ObjectID, pendingDelta, completedDelta int) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{
		"pendingTasksCount":   pendingDelta,
		"completedTasksCount": completedDelta,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// AddFriend adds friendID to the friends set. $addToSet makes re-adding a
// no-op rather than an error.
func (s *UserStore) AddFriend(ctx context.Context, id, friendID primitive.ObjectID) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"friends": friendID}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *UserStore) RemoveFriend(ctx context.Context, id, friendID primitive.ObjectID) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"friends": friendID}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Resolve looks up profiles for an id set, partitioning into $in queries of
// at most batch.MaxInValues ids. Missing or malformed documents are dropped
// from the result, never surfaced as errors.
func (s *UserStore) Resolve(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var users []models.User
	for _, chunk := range batch.Chunk(ids, batch.MaxInValues) {
		cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": chunk}})
		if err != nil {
			return nil, err
		}
		users = append(users, decodeUsers(ctx, cursor)...)
	}
	return users, nil
}

// Search unions three independent lookups: fullName prefix, exact email,
// exact phone. Results are de-duplicated by id; filtering out the searcher
// and existing friends is the caller's job.
func (s *UserStore) Search(ctx context.Context, query string) ([]models.User, error) {
	filters := []bson.M{
		{"fullName": bson.M{"$gte": query, "$lt": query + prefixSentinel}},
		{"email": query},
		{"phoneNumber": query},
	}

	var results []models.User
	for _, filter := range filters {
		cursor, err := s.coll.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		results = append(results, decodeUsers(ctx, cursor)...)
	}

	return batch.DedupeBy(results, func(u models.User) primitive.ObjectID { return u.ID }), nil
}

// decodeUsers drains a cursor one document at a time so that a single
// malformed record is skipped instead of failing the whole batch.
func decodeUsers(ctx context.Context, cursor *mongo.Cursor) []models.User {
	defer cursor.Close(ctx)

	var users []models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			log.Printf("[UserStore] Dropping undecodable user document: %v", errors.Join(models.ErrDecode, err))
			continue
		}
		users = append(users, user)
	}
	return users
}
