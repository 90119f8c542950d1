package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEventsService() (*EventsService, *fakeUsers, *fakeEvents) {
	users := newFakeUsers()
	events := newFakeEvents()
	return &EventsService{Events: events, Users: users, Now: testNow}, users, events
}

func TestCreateAutoJoinsCreator(t *testing.T) {
	svc, users, _ := newEventsService()
	creator := users.add(models.User{FullName: "Alice"})

	event, err := svc.Create(context.Background(), creator, CreateEventInput{
		Title:         "Dishes",
		ScheduledTime: testNow().Unix(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(event.Participants) != 1 || event.Participants[0] != creator {
		t.Errorf("participants = %v, want [creator]", event.Participants)
	}
	if event.Completed {
		t.Error("new event created completed")
	}
	if users.users[creator].PendingTasksCount != 1 {
		t.Errorf("pending = %d, want 1", users.users[creator].PendingTasksCount)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, users, _ := newEventsService()
	creator := users.add(models.User{})

	var vErr *models.ValidationError
	if _, err := svc.Create(context.Background(), creator, CreateEventInput{}); !errors.As(err, &vErr) {
		t.Errorf("Create() error = %v, want ValidationError", err)
	}
}

type stubGeocoder struct {
	name string
	err  error
}

func (g stubGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	return g.name, g.err
}

func TestCreateGeocodeBestEffort(t *testing.T) {
	lat, lng := 40.7128, -74.0060

	svc, users, _ := newEventsService()
	creator := users.add(models.User{})
	svc.Geocode = stubGeocoder{name: "City Hall Park, New York"}

	event, err := svc.Create(context.Background(), creator, CreateEventInput{
		Title: "Cleanup", Latitude: &lat, Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if event.LocationName != "City Hall Park, New York" {
		t.Errorf("locationName = %q", event.LocationName)
	}

	// A geocoding failure degrades to an unnamed location, not an error.
	svc.Geocode = stubGeocoder{err: errors.New("upstream down")}
	event, err = svc.Create(context.Background(), creator, CreateEventInput{
		Title: "Cleanup", Latitude: &lat, Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("Create() with failing geocoder error = %v", err)
	}
	if event.LocationName != "" {
		t.Errorf("locationName = %q, want empty", event.LocationName)
	}
}

func TestJoinIdempotent(t *testing.T) {
	svc, users, events := newEventsService()
	creator := users.add(models.User{})
	joiner := users.add(models.User{})
	eventID := events.add(models.Event{Title: "Dishes", CreatorID: creator})
	events.events[eventID].Participants = []primitive.ObjectID{creator}

	if err := svc.Join(context.Background(), eventID, joiner); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := svc.Join(context.Background(), eventID, joiner); err != nil {
		t.Fatalf("re-Join() error = %v", err)
	}

	e := events.events[eventID]
	if len(e.Participants) != 2 {
		t.Errorf("participants = %v, want 2 members", e.Participants)
	}
	if got := users.users[joiner].PendingTasksCount; got != 1 {
		t.Errorf("pending counted %d times, want 1", got)
	}
}

func TestLeaveNonMemberNoOp(t *testing.T) {
	svc, users, events := newEventsService()
	creator := users.add(models.User{})
	outsider := users.add(models.User{})
	eventID := events.add(models.Event{Title: "Dishes", CreatorID: creator})
	events.events[eventID].Participants = []primitive.ObjectID{creator}

	if err := svc.Leave(context.Background(), eventID, outsider); err != nil {
		t.Fatalf("Leave() by non-member error = %v, want no-op", err)
	}
	if got := users.users[outsider].PendingTasksCount; got != 0 {
		t.Errorf("non-member pending moved to %d", got)
	}
}

func TestCompleteSaga(t *testing.T) {
	svc, users, events := newEventsService()
	solo := users.add(models.User{PendingTasksCount: 1})
	eventID := events.add(models.Event{Title: "Dishes", CreatorID: solo})
	events.events[eventID].Participants = []primitive.ObjectID{solo}

	if err := svc.Complete(context.Background(), eventID, solo); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !events.events[eventID].Completed {
		t.Error("event not marked completed")
	}
	u := users.users[solo]
	if u.PendingTasksCount != 0 || u.CompletedTasksCount != 1 {
		t.Errorf("counters = %d/%d, want pending 0 completed 1", u.PendingTasksCount, u.CompletedTasksCount)
	}

	// Completing again is a terminal-transition no-op; counters stay put.
	if err := svc.Complete(context.Background(), eventID, solo); err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if u.PendingTasksCount != 0 || u.CompletedTasksCount != 1 {
		t.Errorf("counters moved on repeat completion: %d/%d", u.PendingTasksCount, u.CompletedTasksCount)
	}
}

func TestCompleteCounterDrift(t *testing.T) {
	svc, users, events := newEventsService()
	solo := users.add(models.User{PendingTasksCount: 1})
	eventID := events.add(models.Event{Title: "Dishes", CreatorID: solo})
	events.events[eventID].Participants = []primitive.ObjectID{solo}
	users.failAdjust = errors.New("write refused")

	err := svc.Complete(context.Background(), eventID, solo)
	if !errors.Is(err, ErrCounterDrift) {
		t.Fatalf("Complete() error = %v, want ErrCounterDrift", err)
	}
	// The event write landed; no compensating un-complete happens.
	if !events.events[eventID].Completed {
		t.Error("event rolled back; completion is terminal even on drift")
	}
	if got := users.users[solo].PendingTasksCount; got != 1 {
		t.Errorf("pending = %d, want untouched 1", got)
	}
}

func TestCompleteByNonParticipant(t *testing.T) {
	svc, users, events := newEventsService()
	creator := users.add(models.User{})
	outsider := users.add(models.User{})
	eventID := events.add(models.Event{Title: "Dishes", CreatorID: creator})
	events.events[eventID].Participants = []primitive.ObjectID{creator}

	var vErr *models.ValidationError
	if err := svc.Complete(context.Background(), eventID, outsider); !errors.As(err, &vErr) {
		t.Errorf("Complete() by outsider error = %v, want ValidationError", err)
	}
}

func TestMineFiltersCompletedAndSorts(t *testing.T) {
	svc, users, events := newEventsService()
	me := users.add(models.User{})

	base := testNow().Unix()
	late := events.add(models.Event{Title: "late", ScheduledTime: base + 3600})
	early := events.add(models.Event{Title: "early", ScheduledTime: base})
	done := events.add(models.Event{Title: "done", ScheduledTime: base + 7200, Completed: true})
	for _, id := range []primitive.ObjectID{late, early, done} {
		events.events[id].Participants = []primitive.ObjectID{me}
	}

	mine, err := svc.Mine(context.Background(), me)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Mine() returned %d events, want 2 active", len(mine))
	}
	if mine[0].Title != "early" || mine[1].Title != "late" {
		t.Errorf("order = [%s %s], want [early late]", mine[0].Title, mine[1].Title)
	}
}

func TestFriendsEventsEmptyFriendList(t *testing.T) {
	svc, users, _ := newEventsService()
	me := users.add(models.User{})

	got, err := svc.FriendsEvents(context.Background(), me)
	if err != nil {
		t.Fatalf("FriendsEvents() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FriendsEvents() = %v, want empty", got)
	}
}

func TestOnDayWindow(t *testing.T) {
	svc, users, events := newEventsService()
	me := users.add(models.User{})

	day := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)
	inWindow := events.add(models.Event{Title: "today", ScheduledTime: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC).Unix()})
	tomorrow := events.add(models.Event{Title: "tomorrow", ScheduledTime: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC).Unix()})
	for _, id := range []primitive.ObjectID{inWindow, tomorrow} {
		events.events[id].Participants = []primitive.ObjectID{me}
	}

	got, err := svc.OnDay(context.Background(), me, day)
	if err != nil {
		t.Fatalf("OnDay() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "today" {
		t.Errorf("OnDay() = %v, want just the same-day event", got)
	}
}
