// Package stats buckets event timestamps into chart series. Pure functions
// over already-fetched data; no I/O.
package stats

import (
	"strconv"
	"time"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Bucket is one labeled point of a series.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// YearlySpan is how many year buckets a yearly series covers: the current
// year and the three preceding ones.
const YearlySpan = 4

// Series groups timestamps into ordered buckets relative to now:
//
//	daily   — 7 buckets, the days of the current week (Monday first)
//	monthly — 12 buckets, the months of the current calendar year
//	yearly  — 4 buckets, the current year and 3 preceding
//
// A timestamp belongs to a bucket iff its calendar day/month/year in now's
// time zone matches. Timestamps outside the covered range are excluded.
// An unknown period yields nil.
func Series(times []time.Time, period Period, now time.Time) []Bucket {
	loc := now.Location()

	switch period {
	case PeriodDaily:
		weekStart := startOfWeek(now)
		buckets := make([]Bucket, 7)
		for i := range buckets {
			day := weekStart.AddDate(0, 0, i)
			buckets[i].Label = day.Format("Mon")
			for _, ts := range times {
				if sameDay(ts.In(loc), day) {
					buckets[i].Count++
				}
			}
		}
		return buckets

	case PeriodMonthly:
		year := now.Year()
		buckets := make([]Bucket, 12)
		for i := range buckets {
			buckets[i].Label = time.Month(i + 1).String()[:3]
		}
		for _, ts := range times {
			t := ts.In(loc)
			if t.Year() == year {
				buckets[int(t.Month())-1].Count++
			}
		}
		return buckets

	case PeriodYearly:
		first := now.Year() - (YearlySpan - 1)
		buckets := make([]Bucket, YearlySpan)
		for i := range buckets {
			buckets[i].Label = strconv.Itoa(first + i)
		}
		for _, ts := range times {
			t := ts.In(loc)
			if y := t.Year(); y >= first && y <= now.Year() {
				buckets[y-first].Count++
			}
		}
		return buckets
	}

	return nil
}

// CompletionRatio is completed/total with an explicit zero guard, never NaN.
func CompletionRatio(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// startOfWeek returns midnight of the Monday of t's week, in t's zone.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday == 0
	return day.AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// SameDay reports whether both instants fall on the same calendar day in
// a's time zone.
func SameDay(a, b time.Time) bool {
	return sameDay(a, b.In(a.Location()))
}
