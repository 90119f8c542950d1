package service

import (
	"context"
	"sort"
	"strings"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stores mirroring the Mongo update semantics the services rely
// on ($addToSet, $pull, $inc, chunked $in) plus per-method failure
// injection for the saga paths.

type fakeUsers struct {
	users map[primitive.ObjectID]*models.User

	failSetFields error
	failAdjust    error
	failInsert    error
	failDelete    error

	deleted []primitive.ObjectID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUsers) add(u models.User) primitive.ObjectID {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.users[u.ID] = &u
	return u.ID
}

func (f *fakeUsers) Fetch(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) FetchByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.FetchByEmail(ctx, email)
	if err == models.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) Insert(_ context.Context, user *models.User) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	if _, ok := f.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) SetFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	if f.failSetFields != nil {
		return f.failSetFields
	}
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "email":
			u.Email = v.(string)
		case "fullName":
			u.FullName = v.(string)
		case "phoneNumber":
			u.PhoneNumber = v.(string)
		case "birthday":
			u.Birthday = v.(int64)
		case "lookingFor":
			switch lf := v.(type) {
			case []string:
				u.LookingFor = lf
			}
		case "friends":
			u.Friends = v.([]primitive.ObjectID)
		case "pendingTasksCount":
			u.PendingTasksCount = v.(int)
		case "completedTasksCount":
			u.CompletedTasksCount = v.(int)
		}
	}
	return nil
}

func (f *fakeUsers) AdjustCounter(_ context.Context, id primitive.ObjectID, counter string, delta int) error {
	if f.failAdjust != nil {
		return f.failAdjust
	}
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	switch counter {
	case CounterPending:
		u.PendingTasksCount += delta
	case CounterCompleted:
		u.CompletedTasksCount += delta
	}
	return nil
}

func (f *fakeUsers) AdjustTaskCounters(ctx context.Context, id primitive.ObjectID, pendingDelta, completedDelta int) error {
	if f.failAdjust != nil {
		return f.failAdjust
	}
	if err := f.AdjustCounter(ctx, id, CounterPending, pendingDelta); err != nil {
		return err
	}
	return f.AdjustCounter(ctx, id, CounterCompleted, completedDelta)
}

func (f *fakeUsers) AddFriend(_ context.Context, id, friendID primitive.ObjectID) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	for _, existing := range u.Friends {
		if existing == friendID {
			return nil
		}
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (f *fakeUsers) RemoveFriend(_ context.Context, id, friendID primitive.ObjectID) error {
	u, ok := f.users[id]
	if !ok {
		return models.ErrNotFound
	}
	kept := u.Friends[:0]
	for _, existing := range u.Friends {
		if existing != friendID {
			kept = append(kept, existing)
		}
	}
	u.Friends = kept
	return nil
}

func (f *fakeUsers) Resolve(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Search(_ context.Context, query string) ([]models.User, error) {
	var out []models.User
	seen := map[primitive.ObjectID]bool{}
	for _, u := range f.users {
		if strings.HasPrefix(u.FullName, query) || u.Email == query || u.PhoneNumber == query {
			if !seen[u.ID] {
				seen[u.ID] = true
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

type fakeEvents struct {
	events map[primitive.ObjectID]*models.Event

	failInsert   error
	failComplete error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[primitive.ObjectID]*models.Event)}
}

func (f *fakeEvents) add(e models.Event) primitive.ObjectID {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	f.events[e.ID] = &e
	return e.ID
}

func (f *fakeEvents) Insert(_ context.Context, event *models.Event) (primitive.ObjectID, error) {
	if f.failInsert != nil {
		return primitive.NilObjectID, f.failInsert
	}
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	copied := *event
	f.events[event.ID] = &copied
	return event.ID, nil
}

func (f *fakeEvents) Fetch(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEvents) FetchForParticipant(_ context.Context, id primitive.ObjectID) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.HasParticipant(id) {
			out = append(out, *e)
		}
	}
	sortByTime(out)
	return out, nil
}

func (f *fakeEvents) FetchForParticipantBetween(ctx context.Context, id primitive.ObjectID, from, to int64) ([]models.Event, error) {
	all, _ := f.FetchForParticipant(ctx, id)
	var out []models.Event
	for _, e := range all {
		if e.ScheduledTime >= from && e.ScheduledTime < to {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) FetchByCreators(_ context.Context, creatorIDs []primitive.ObjectID) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		for _, c := range creatorIDs {
			if e.CreatorID == c {
				out = append(out, *e)
				break
			}
		}
	}
	sortByTime(out)
	return out, nil
}

func (f *fakeEvents) Join(_ context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	e, ok := f.events[eventID]
	if !ok {
		return false, models.ErrNotFound
	}
	if e.HasParticipant(userID) {
		return false, nil
	}
	e.Participants = append(e.Participants, userID)
	return true, nil
}

func (f *fakeEvents) Leave(_ context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	e, ok := f.events[eventID]
	if !ok {
		return false, models.ErrNotFound
	}
	if !e.HasParticipant(userID) {
		return false, nil
	}
	kept := e.Participants[:0]
	for _, p := range e.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	e.Participants = kept
	return true, nil
}

func (f *fakeEvents) Complete(_ context.Context, eventID primitive.ObjectID) (bool, error) {
	if f.failComplete != nil {
		return false, f.failComplete
	}
	e, ok := f.events[eventID]
	if !ok {
		return false, models.ErrNotFound
	}
	if e.Completed {
		return false, nil
	}
	e.Completed = true
	return true, nil
}

func sortByTime(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].ScheduledTime < events[j].ScheduledTime
	})
}
