package service

import (
	"context"
	"time"

	"chorely/stats"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatsService assembles chart data from already-synced profiles and
// events; the bucketing itself is pure (chorely/stats).
type StatsService struct {
	Users  UsersStore
	Events EventsStore
	Now    func() time.Time
}

// FriendSeries is one charted line: a friend's (or the caller's own)
// scheduled-event counts per bucket.
type FriendSeries struct {
	UserID   primitive.ObjectID `json:"userId"`
	FullName string             `json:"fullName"`
	Buckets  []stats.Bucket     `json:"buckets"`
}

type TodayProgress struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Ratio     float64 `json:"ratio"`
}

// Series builds one bucketed series per friend (the caller included),
// keyed on each friend's participant events' scheduled times. Friends whose
// profile cannot be resolved are dropped, same as everywhere else.
func (s *StatsService) Series(ctx context.Context, userID primitive.ObjectID, period stats.Period) ([]FriendSeries, error) {
	now := s.now()

	user, err := s.Users.Fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := append([]primitive.ObjectID{user.ID}, user.Friends...)
	profiles, err := s.Users.Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	series := make([]FriendSeries, 0, len(profiles))
	for _, p := range profiles {
		events, err := s.Events.FetchForParticipant(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		times := make([]time.Time, 0, len(events))
		for _, e := range events {
			times = append(times, time.Unix(e.ScheduledTime, 0).In(now.Location()))
		}
		series = append(series, FriendSeries{
			UserID:   p.ID,
			FullName: p.FullName,
			Buckets:  stats.Series(times, period, now),
		})
	}
	return series, nil
}

// Today computes the caller's completion ratio over events scheduled for
// the current calendar day. Zero events scheduled today is ratio 0, not a
// division error.
func (s *StatsService) Today(ctx context.Context, userID primitive.ObjectID) (TodayProgress, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	events, err := s.Events.FetchForParticipantBetween(ctx, userID, start.Unix(), end.Unix())
	if err != nil {
		return TodayProgress{}, err
	}

	progress := TodayProgress{Total: len(events)}
	for _, e := range events {
		if e.Completed {
			progress.Completed++
		}
	}
	progress.Ratio = stats.CompletionRatio(progress.Completed, progress.Total)
	return progress, nil
}

// now never writes the receiver; services are shared across requests.
func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
