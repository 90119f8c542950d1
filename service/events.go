package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrCounterDrift marks a partially failed complete saga: the event was
// marked completed but the counter adjustment did not land, so the
// profile's task counters may lag until some later adjustment. Accepted
// inconsistency; there is no compensating write.
var ErrCounterDrift = errors.New("event completed but task counters were not adjusted")

// Geocoder turns coordinates into a human-readable place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// EventsService owns chore-event CRUD, participation, and the completion
// saga that pairs the monotone completed flag with the profile counters.
type EventsService struct {
	Events EventsStore
	Users  UsersStore

	// Geocode is optional; when nil or failing, events are created with an
	// empty location name rather than failing the create.
	Geocode Geocoder

	Now func() time.Time
}

type CreateEventInput struct {
	Title         string
	Description   string
	ScheduledTime int64
	Latitude      *float64
	Longitude     *float64
}

// Create stores a new event with the creator auto-joined as the only
// participant and bumps the creator's pending counter.
func (s *EventsService) Create(ctx context.Context, creatorID primitive.ObjectID, in CreateEventInput) (*models.Event, error) {
	if in.Title == "" {
		return nil, models.NewValidationError(map[string]string{"title": "required"})
	}

	var locationName string
	if s.Geocode != nil && in.Latitude != nil && in.Longitude != nil {
		name, err := s.Geocode.ReverseGeocode(ctx, *in.Latitude, *in.Longitude)
		if err != nil {
			log.Printf("[CreateEvent] Reverse geocoding failed, saving without location: %v", err)
		} else {
			locationName = name
		}
	}

	event := &models.Event{
		Title:         in.Title,
		Description:   in.Description,
		CreatorID:     creatorID,
		ScheduledTime: in.ScheduledTime,
		CreatedAt:     s.now().Unix(),
		Participants:  []primitive.ObjectID{creatorID},
		Completed:     false,
		LocationName:  locationName,
	}

	id, err := s.Events.Insert(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id

	if err := s.Users.AdjustCounter(ctx, creatorID, CounterPending, 1); err != nil {
		log.Printf("[CreateEvent] Pending counter not adjusted for %s: %v", creatorID.Hex(), err)
	}
	return event, nil
}

// Mine returns the caller's active events, scheduledTime ascending.
func (s *EventsService) Mine(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	events, err := s.Events.FetchForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return active(events), nil
}

// FriendsEvents returns active events created by any of the caller's
// friends, merged across chunked creator queries and re-sorted by
// scheduledTime.
func (s *EventsService) FriendsEvents(ctx context.Context, userID primitive.ObjectID) ([]models.Event, error) {
	user, err := s.Users.Fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Friends) == 0 {
		return []models.Event{}, nil
	}
	events, err := s.Events.FetchByCreators(ctx, user.Friends)
	if err != nil {
		return nil, err
	}
	return active(events), nil
}

// OnDay returns the caller's events scheduled within the calendar day
// containing day, in day's time zone.
func (s *EventsService) OnDay(ctx context.Context, userID primitive.ObjectID, day time.Time) ([]models.Event, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	events, err := s.Events.FetchForParticipantBetween(ctx, userID, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Join adds the user to the participant set; the pending counter moves only
// when the set actually changed, so re-joining never double-counts.
func (s *EventsService) Join(ctx context.Context, eventID, userID primitive.ObjectID) error {
	added, err := s.Events.Join(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	if err := s.Users.AdjustCounter(ctx, userID, CounterPending, 1); err != nil {
		log.Printf("[JoinEvent] Pending counter not adjusted for %s: %v", userID.Hex(), err)
	}
	return nil
}

// Leave removes the user from the participant set. Removing a non-member
// is a no-op and moves no counter.
func (s *EventsService) Leave(ctx context.Context, eventID, userID primitive.ObjectID) error {
	removed, err := s.Events.Leave(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	if err := s.Users.AdjustCounter(ctx, userID, CounterPending, -1); err != nil {
		log.Printf("[LeaveEvent] Pending counter not adjusted for %s: %v", userID.Hex(), err)
	}
	return nil
}

// Complete runs the two-step completion saga: flip the event's monotone
// completed flag, then move the acting participant's counters
// (pending -1, completed +1) in one atomic increment. The two writes are
// not transactional; when step 2 fails the event stays completed and the
// drift is reported via ErrCounterDrift.
func (s *EventsService) Complete(ctx context.Context, eventID, userID primitive.ObjectID) error {
	event, err := s.Events.Fetch(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.HasParticipant(userID) {
		return models.NewValidationError(map[string]string{"eventId": "not a participant"})
	}

	changed, err := s.Events.Complete(ctx, eventID)
	if err != nil {
		return err
	}
	if !changed {
		// Already completed; the transition is terminal and fired elsewhere.
		return nil
	}

	if err := s.Users.AdjustTaskCounters(ctx, userID, -1, +1); err != nil {
		log.Printf("[CompleteEvent] Counter drift for %s on event %s: %v", userID.Hex(), eventID.Hex(), err)
		return fmt.Errorf("%w: %v", ErrCounterDrift, err)
	}
	return nil
}

// now never writes the receiver; services are shared across requests.
func (s *EventsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func active(events []models.Event) []models.Event {
	out := []models.Event{}
	for _, e := range events {
		if !e.Completed {
			out = append(out, e)
		}
	}
	return out
}
