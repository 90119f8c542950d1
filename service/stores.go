package service

import (
	"context"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Counter field names on the users collection. Adjusted only through
// storage-layer increments, never read-modify-write.
const (
	CounterPending   = "pendingTasksCount"
	CounterCompleted = "completedTasksCount"
)

type UsersStore interface {
	Fetch(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FetchByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	AdjustCounter(ctx context.Context, id primitive.ObjectID, counter string, delta int) error
	AdjustTaskCounters(ctx context.Context, id primitive.ObjectID, pendingDelta, completedDelta int) error
	AddFriend(ctx context.Context, id, friendID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, id, friendID primitive.ObjectID) error
	Resolve(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Search(ctx context.Context, query string) ([]models.User, error)
}

type EventsStore interface {
	Insert(ctx context.Context, event *models.Event) (primitive.ObjectID, error)
	Fetch(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	FetchForParticipant(ctx context.Context, id primitive.ObjectID) ([]models.Event, error)
	FetchForParticipantBetween(ctx context.Context, id primitive.ObjectID, from, to int64) ([]models.Event, error)
	FetchByCreators(ctx context.Context, creatorIDs []primitive.ObjectID) ([]models.Event, error)
	Join(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
	Leave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
	Complete(ctx context.Context, eventID primitive.ObjectID) (bool, error)
}
