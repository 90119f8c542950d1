package sync

import (
	"context"
	"log"

	"chorely/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Start opens the change-stream watches for one user and runs a Session
// over them on its own goroutine. The returned stop function tears down
// the watches and the loop; it is the only way the subscription ends short
// of a stream failure, which is logged once and not retried.
func Start(ctx context.Context, users *store.UserStore, events *store.EventStore, userID primitive.ObjectID, publish func(Snapshot)) (func(), error) {
	sessionCtx, cancel := context.WithCancel(ctx)

	userWatch, err := users.WatchUser(sessionCtx, userID)
	if err != nil {
		cancel()
		return nil, err
	}
	eventWatch, err := events.WatchEvents(sessionCtx)
	if err != nil {
		userWatch.Stop()
		cancel()
		return nil, err
	}

	session := &Session{
		UserID:  userID,
		Users:   users,
		Events:  events,
		Publish: publish,
	}

	go func() {
		if err := session.Run(sessionCtx, userWatch.Updates(), eventWatch.Updates()); err != nil && sessionCtx.Err() == nil {
			log.Printf("[Sync] Session for %s ended: %v", userID.Hex(), err)
		}
	}()
	go func() {
		select {
		case err := <-userWatch.Errs():
			log.Printf("[Sync] Profile watch for %s failed: %v", userID.Hex(), err)
		case err := <-eventWatch.Errs():
			log.Printf("[Sync] Event watch for %s failed: %v", userID.Hex(), err)
		case <-sessionCtx.Done():
		}
	}()

	return func() {
		userWatch.Stop()
		eventWatch.Stop()
		cancel()
	}, nil
}
