// Package sync keeps a per-user live view (profile, friends, own and
// friends' events, today's progress) consistent with the multi-writer
// store. Watch deliveries from any number of subscriptions funnel into one
// dispatch goroutine that owns all cached state — the server-side analog
// of the single UI-affinity queue the mobile clients relied on. There are
// no locks: goroutine confinement is the only safety mechanism.
package sync

import (
	"context"
	"sort"
	"time"

	"chorely/models"
	"chorely/stats"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileSource interface {
	Fetch(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Resolve(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type EventSource interface {
	FetchForParticipant(ctx context.Context, id primitive.ObjectID) ([]models.Event, error)
	FetchByCreators(ctx context.Context, creatorIDs []primitive.ObjectID) ([]models.Event, error)
}

// Snapshot is the consistent view published after every accepted update.
// Event lists hold active (uncompleted) events, scheduledTime ascending.
type Snapshot struct {
	Profile      models.User    `json:"profile"`
	Friends      []models.User  `json:"friends"`
	OwnEvents    []models.Event `json:"ownEvents"`
	FriendEvents []models.Event `json:"friendEvents"`
	TodayRatio   float64        `json:"todayRatio"`
}

// Session is one user's sync loop. Construct, then call Run on a dedicated
// goroutine; Publish is invoked from that goroutine only.
type Session struct {
	UserID  primitive.ObjectID
	Users   ProfileSource
	Events  EventSource
	Publish func(Snapshot)
	Now     func() time.Time

	profile      models.User
	friends      []models.User
	ownEvents    map[primitive.ObjectID]models.Event
	friendEvents map[primitive.ObjectID]models.Event
}

// Run performs the initial load, publishes, then applies profile and event
// updates as they arrive — in arbitrary interleaving — republishing a
// recomputed snapshot after each. It returns when ctx ends or both update
// channels are closed. All state mutation happens on this goroutine.
func (s *Session) Run(ctx context.Context, profileUpdates <-chan models.User, eventUpdates <-chan models.Event) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	s.ownEvents = make(map[primitive.ObjectID]models.Event)
	s.friendEvents = make(map[primitive.ObjectID]models.Event)

	if err := s.load(ctx); err != nil {
		return err
	}
	s.publish()

	for profileUpdates != nil || eventUpdates != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case profile, ok := <-profileUpdates:
			if !ok {
				profileUpdates = nil
				continue
			}
			s.applyProfile(ctx, profile)
			s.publish()

		case event, ok := <-eventUpdates:
			if !ok {
				eventUpdates = nil
				continue
			}
			s.applyEvent(event)
			s.publish()
		}
	}
	return nil
}

func (s *Session) load(ctx context.Context) error {
	profile, err := s.Users.Fetch(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.profile = *profile

	if err := s.reloadFriends(ctx); err != nil {
		return err
	}

	own, err := s.Events.FetchForParticipant(ctx, s.UserID)
	if err != nil {
		return err
	}
	for _, e := range own {
		s.ownEvents[e.ID] = e
	}
	return nil
}

// reloadFriends re-resolves friend profiles and refetches their events.
// Unresolvable friends drop out of the snapshot, matching batch reads
// everywhere else.
func (s *Session) reloadFriends(ctx context.Context) error {
	s.friends = nil
	s.friendEvents = make(map[primitive.ObjectID]models.Event)
	if len(s.profile.Friends) == 0 {
		return nil
	}

	friends, err := s.Users.Resolve(ctx, s.profile.Friends)
	if err != nil {
		return err
	}
	s.friends = friends

	events, err := s.Events.FetchByCreators(ctx, s.profile.Friends)
	if err != nil {
		return err
	}
	for _, e := range events {
		s.friendEvents[e.ID] = e
	}
	return nil
}

func (s *Session) applyProfile(ctx context.Context, profile models.User) {
	friendsChanged := !sameIDSet(s.profile.Friends, profile.Friends)
	s.profile = profile
	if !friendsChanged {
		return
	}
	// Friend list changed under us: re-resolve. A failed reload surfaces
	// once via stale data and is not retried.
	_ = s.reloadFriends(ctx)
}

// applyEvent folds one changed event document into the caches. Membership
// decides placement: events the user left disappear from the own list,
// events by non-friends are ignored.
func (s *Session) applyEvent(event models.Event) {
	if event.HasParticipant(s.UserID) {
		s.ownEvents[event.ID] = event
	} else {
		delete(s.ownEvents, event.ID)
	}

	if s.isFriend(event.CreatorID) {
		s.friendEvents[event.ID] = event
	} else {
		delete(s.friendEvents, event.ID)
	}
}

func (s *Session) isFriend(id primitive.ObjectID) bool {
	for _, f := range s.profile.Friends {
		if f == id {
			return true
		}
	}
	return false
}

func (s *Session) publish() {
	if s.Publish == nil {
		return
	}
	s.Publish(Snapshot{
		Profile:      s.profile,
		Friends:      s.friends,
		OwnEvents:    activeSorted(s.ownEvents),
		FriendEvents: activeSorted(s.friendEvents),
		TodayRatio:   s.todayRatio(),
	})
}

// todayRatio recomputes completed/total over the user's events scheduled
// on the current calendar day, completed ones included.
func (s *Session) todayRatio() float64 {
	now := s.Now()
	total, completed := 0, 0
	for _, e := range s.ownEvents {
		if !stats.SameDay(now, time.Unix(e.ScheduledTime, 0)) {
			continue
		}
		total++
		if e.Completed {
			completed++
		}
	}
	return stats.CompletionRatio(completed, total)
}

func activeSorted(events map[primitive.ObjectID]models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if !e.Completed {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime < out[j].ScheduledTime
	})
	return out
}

func sameIDSet(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[primitive.ObjectID]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
