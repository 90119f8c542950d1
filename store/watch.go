package store

import (
	"context"
	"log"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Watch is a live subscription to document changes, the server-side analog
// of the snapshot listeners the mobile clients held. Decoded documents are
// delivered from a single goroutine on Updates with last-value-wins
// semantics: a slow consumer sees the newest state, not a backlog. A watch
// is torn down explicitly via Stop; there is no retry once the underlying
// stream fails.
type Watch[T any] struct {
	updates chan T
	errs    chan error
	cancel  context.CancelFunc
}

func (w *Watch[T]) Updates() <-chan T { return w.updates }

// Errs delivers at most one terminal stream error.
func (w *Watch[T]) Errs() <-chan error { return w.errs }

func (w *Watch[T]) Stop() { w.cancel() }

// WatchUser subscribes to changes of a single profile document.
func (s *UserStore) WatchUser(ctx context.Context, id primitive.ObjectID) (*Watch[models.User], error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"documentKey._id": id}}},
	}
	return openWatch[models.User](ctx, s.coll, pipeline, "user")
}

// WatchEvents subscribes to all event-collection changes. Relevance
// filtering (own events vs. friends' events) happens in the sync layer,
// which already caches the friend list.
func (s *EventStore) WatchEvents(ctx context.Context) (*Watch[models.Event], error) {
	return openWatch[models.Event](ctx, s.coll, mongo.Pipeline{}, "event")
}

func openWatch[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, kind string) (*Watch[T], error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watch[T]{
		updates: make(chan T, 1),
		errs:    make(chan error, 1),
		cancel:  cancel,
	}

	go func() {
		defer stream.Close(context.Background())
		defer close(w.updates)

		for stream.Next(watchCtx) {
			var change struct {
				FullDocument T `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				log.Printf("[Watch] Dropping undecodable %s change: %v", kind, err)
				continue
			}
			offer(w.updates, change.FullDocument)
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			w.errs <- err
		}
	}()

	return w, nil
}

// offer replaces any undelivered value so the consumer always gets the
// latest document.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
