package stats

import (
	"math"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/models"
)

var day0 = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func at(days int, hours int) time.Time {
	return day0.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{4}, Summary{Count: 1, Total: 4, Min: 4, Max: 4, Avg: 4}},
		{"several", []float64{15, 20, 10}, Summary{Count: 3, Total: 45, Min: 10, Max: 20, Avg: 15}},
		{"negative", []float64{-2, 2}, Summary{Count: 2, Total: 0, Min: -2, Max: 2, Avg: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.values); got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGroupByDay(t *testing.T) {
	logs := []models.BehaviorLog{
		{ID: "c", Timestamp: at(2, 1)},
		{ID: "a", Timestamp: at(0, 5)},
		{ID: "b", Timestamp: at(0, 23)},
		{ID: "d", Timestamp: at(2, 0)},
	}
	buckets := GroupByDay(logs, func(l models.BehaviorLog) time.Time { return l.Timestamp })
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	if !buckets[0].Day.Equal(day0) || len(buckets[0].Items) != 2 {
		t.Errorf("first bucket = %+v", buckets[0])
	}
	if !buckets[1].Day.Equal(at(2, 0)) || buckets[1].Items[0].ID != "c" || buckets[1].Items[1].ID != "d" {
		t.Errorf("second bucket = %+v", buckets[1])
	}
	if got := GroupByDay([]models.BehaviorLog{}, func(l models.BehaviorLog) time.Time { return l.Timestamp }); len(got) != 0 {
		t.Errorf("empty input gave %+v", got)
	}
}

func TestBehaviorDailyTotals(t *testing.T) {
	logs := []models.BehaviorLog{
		{BehaviorID: "b1", Quantity: 15, Timestamp: at(0, 8)},
		{BehaviorID: "b1", Quantity: 20, Timestamp: at(0, 12)},
		{BehaviorID: "b1", Quantity: 10, Timestamp: at(0, 20)},
		{BehaviorID: "b1", Quantity: 5, Timestamp: at(2, 9)},
		{BehaviorID: "b2", Quantity: 99, Timestamp: at(0, 9)},
	}
	got := BehaviorDailyTotals(logs, "b1", day0, at(2, 0), time.UTC)
	want := []float64{45, 0, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Value != w || !got[i].Day.Equal(at(i, 0)) {
			t.Errorf("day %d = %+v, want %v", i, got[i], w)
		}
	}
}

func TestActivityDailyDurations(t *testing.T) {
	logs := []models.ActivityLog{
		{ActivityID: "a", StartTime: at(0, 9), Duration: (30 * time.Minute).Milliseconds()},
		{ActivityID: "b", StartTime: at(0, 10), Duration: (15 * time.Minute).Milliseconds()},
		{ActivityID: "a", StartTime: at(1, 9), Duration: (time.Hour).Milliseconds()},
	}
	all := ActivityDailyDurations(logs, "", day0, at(1, 0), time.UTC)
	if all[0].Duration != 45*time.Minute || all[1].Duration != time.Hour {
		t.Errorf("all activities = %+v", all)
	}
	onlyB := ActivityDailyDurations(logs, "b", day0, at(1, 0), time.UTC)
	if onlyB[0].Duration != 15*time.Minute || onlyB[1].Duration != 0 {
		t.Errorf("activity b = %+v", onlyB)
	}
}

func TestReflectionDailyScores(t *testing.T) {
	responses := []models.ReflectionResponse{
		{QuestionID: "q", Date: at(1, 0), Score: 3, Timestamp: at(1, 8)},
		{QuestionID: "q", Date: at(0, 0), Score: 7, Timestamp: at(0, 8)},
		{QuestionID: "q", Date: at(1, 0), Score: 9, Timestamp: at(1, 21)},
		{QuestionID: "other", Date: at(0, 0), Score: 1, Timestamp: at(0, 8)},
	}
	got := ReflectionDailyScores(responses, "q")
	if len(got) != 2 || got[0].Score != 7 || got[1].Score != 9 {
		t.Errorf("ReflectionDailyScores() = %+v", got)
	}

	var scores []float64
	for _, s := range got {
		scores = append(scores, float64(s.Score))
	}
	if avg := Summarize(scores).Avg; math.Abs(avg-8) > 1e-9 {
		t.Errorf("average = %v", avg)
	}
}

func TestStreak(t *testing.T) {
	today := at(10, 15)
	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"none", nil, 0},
		{"today only", []time.Time{at(10, 1)}, 1},
		{"ending yesterday", []time.Time{at(9, 1), at(8, 22)}, 2},
		{"gap breaks it", []time.Time{at(10, 1), at(9, 1), at(7, 1)}, 2},
		{"duplicates", []time.Time{at(10, 1), at(10, 2), at(9, 1)}, 2},
		{"too old", []time.Time{at(8, 1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.days, today); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	start := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	end := time.Date(2026, 3, 9, 12, 0, 0, 0, loc)
	days := Days(start, end, loc)
	if len(days) != 3 {
		t.Fatalf("Days() = %v", days)
	}
	for _, d := range days {
		if d.Hour() != 0 {
			t.Errorf("day %v is not a midnight", d)
		}
	}
}
