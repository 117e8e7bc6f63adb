// Package stats holds pure aggregation helpers over loaded logs and
// responses. Nothing here touches storage.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/utils"
)

type Summary struct {
	Count int
	Total float64
	Min   float64
	Max   float64
	Avg   float64
}

// Summarize returns count, total, min, max and mean of values. The zero
// Summary is returned for no values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		s.Total += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Avg = s.Total / float64(s.Count)
	return s
}

// DayBucket groups the items whose timestamp falls on Day (a midnight).
type DayBucket[T any] struct {
	Day   time.Time
	Items []T
}

// GroupByDay buckets items by the calendar day of ts(item), in ts's
// location, sorted by day ascending. Items keep their input order inside a
// bucket.
func GroupByDay[T any](items []T, ts func(T) time.Time) []DayBucket[T] {
	index := map[time.Time]int{}
	var buckets []DayBucket[T]
	for _, item := range items {
		day := utils.Midnight(ts(item))
		key := day.UTC()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, DayBucket[T]{Day: day})
		}
		buckets[i].Items = append(buckets[i].Items, item)
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Day.Before(buckets[j].Day) })
	return buckets
}

// DailyValue is one day of a per-day series.
type DailyValue struct {
	Day   time.Time
	Value float64
}

// Days lists every midnight from start's day through end's day, in loc.
func Days(start, end time.Time, loc *time.Location) []time.Time {
	first := utils.Midnight(start.In(loc))
	last := utils.Midnight(end.In(loc))
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// BehaviorDailyTotals sums quantities per day for one behavior over
// [start, end], including days with nothing logged.
func BehaviorDailyTotals(logs []models.BehaviorLog, behaviorID string, start, end time.Time, loc *time.Location) []DailyValue {
	days := Days(start, end, loc)
	out := make([]DailyValue, len(days))
	for i, d := range days {
		out[i].Day = d
		for _, l := range logs {
			if l.BehaviorID == behaviorID && utils.InDay(l.Timestamp, d) {
				out[i].Value += l.Quantity
			}
		}
	}
	return out
}

// DailyDuration is one day of tracked activity time.
type DailyDuration struct {
	Day      time.Time
	Duration time.Duration
}

// ActivityDailyDurations totals tracked time per day by log start time. An
// empty activityID counts every activity.
func ActivityDailyDurations(logs []models.ActivityLog, activityID string, start, end time.Time, loc *time.Location) []DailyDuration {
	days := Days(start, end, loc)
	out := make([]DailyDuration, len(days))
	for i, d := range days {
		out[i].Day = d
		for _, l := range logs {
			if activityID != "" && l.ActivityID != activityID {
				continue
			}
			if utils.InDay(l.StartTime, d) {
				out[i].Duration += l.Elapsed()
			}
		}
	}
	return out
}

// DailyScore is a question's score on one day.
type DailyScore struct {
	Day   time.Time
	Score int
}

// ReflectionDailyScores lists a question's scores by date, ascending. When a
// day has several responses the latest one wins.
func ReflectionDailyScores(responses []models.ReflectionResponse, questionID string) []DailyScore {
	latest := map[time.Time]models.ReflectionResponse{}
	for _, r := range responses {
		if r.QuestionID != questionID {
			continue
		}
		key := r.Date.UTC()
		if prev, ok := latest[key]; !ok || r.Timestamp.After(prev.Timestamp) {
			latest[key] = r
		}
	}
	out := make([]DailyScore, 0, len(latest))
	for _, r := range latest {
		out = append(out, DailyScore{Day: r.Date, Score: r.Score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// Streak counts consecutive days with at least one entry, ending today or,
// if today has nothing yet, yesterday. days may repeat and be unordered.
func Streak(days []time.Time, today time.Time) int {
	seen := map[string]bool{}
	for _, d := range days {
		seen[d.In(today.Location()).Format(time.DateOnly)] = true
	}

	cursor := utils.Midnight(today)
	if !seen[cursor.Format(time.DateOnly)] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	n := 0
	for seen[cursor.Format(time.DateOnly)] {
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return n
}
