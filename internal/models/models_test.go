package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/errors"
)

var now = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func TestBehaviorInitializeAndValidate(t *testing.T) {
	b := Behavior{Name: "Push-ups", Type: BehaviorReps, Units: "reps"}
	b.Initialize("b1", now)

	if b.ID != "b1" || !b.CreatedAt.Equal(now) || !b.Active || b.DeactivatedAt != nil {
		t.Fatalf("unexpected defaults: %+v", b)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := b
	bad.Type = "laps"
	if err := bad.Validate(); !errors.IsValidation(err) {
		t.Errorf("expected validation error for unknown type, got %v", err)
	}
}

func TestActivationRoundTrip(t *testing.T) {
	b := Behavior{Name: "Meditation", Type: BehaviorDuration, Units: "minutes"}
	b.Initialize("b1", now)
	original := b

	b.SetActive(false, now.Add(time.Hour))
	if b.Active || b.DeactivatedAt == nil {
		t.Fatalf("deactivate did not stamp: %+v", b.Activation)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("deactivated record should validate: %v", err)
	}

	b.SetActive(true, now.Add(2*time.Hour))
	if b != original {
		t.Errorf("deactivate/reactivate not reversible:\n got %+v\nwant %+v", b, original)
	}
}

func TestActivationTimestamps(t *testing.T) {
	ts := now
	tests := []struct {
		name string
		a    Activation
		ok   bool
	}{
		{"active", Activation{Active: true}, true},
		{"inactive stamped", Activation{Active: false, DeactivatedAt: &ts}, true},
		{"active stamped", Activation{Active: true, DeactivatedAt: &ts}, false},
		{"inactive unstamped", Activation{Active: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.validate()
			if (err == nil) != tt.ok {
				t.Errorf("validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestBehaviorLogValidate(t *testing.T) {
	nan := math.NaN()
	neg := -2.0
	tests := []struct {
		name string
		log  BehaviorLog
		ok   bool
	}{
		{"valid", BehaviorLog{ID: "l", BehaviorID: "b", Timestamp: now, Quantity: 15}, true},
		{"zero quantity", BehaviorLog{ID: "l", BehaviorID: "b", Timestamp: now, Quantity: 0}, false},
		{"nan quantity", BehaviorLog{ID: "l", BehaviorID: "b", Timestamp: now, Quantity: nan}, false},
		{"negative weight", BehaviorLog{ID: "l", BehaviorID: "b", Timestamp: now, Quantity: 1, Weight: &neg}, false},
		{"missing behavior", BehaviorLog{ID: "l", Timestamp: now, Quantity: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"15", 15, true},
		{" 2.5 ", 2.5, true},
		{"abc", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseQuantity("quantity", tt.in)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("ParseQuantity(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
			continue
		}
		if !errors.IsValidation(err) {
			t.Errorf("ParseQuantity(%q) error = %v, want validation error", tt.in, err)
		}
	}
}

func TestBehaviorLogPatch(t *testing.T) {
	w := 80.5
	l := BehaviorLog{ID: "l", BehaviorID: "b", Timestamp: now, Quantity: 5, Weight: &w, Notes: "a"}

	q := 8.0
	notes := "b"
	BehaviorLogPatch{Quantity: &q, Notes: &notes}.Apply(&l)
	if l.Quantity != 8 || l.Notes != "b" || l.Weight == nil || *l.Weight != 80.5 {
		t.Errorf("unexpected patch result %+v", l)
	}

	BehaviorLogPatch{ClearWeight: true}.Apply(&l)
	if l.Weight != nil {
		t.Error("ClearWeight did not clear the weight")
	}
}

func TestReflectionResponseNormalizesDate(t *testing.T) {
	r := ReflectionResponse{QuestionID: "q", Date: now, Score: 7}
	r.Initialize("r1", now)

	if !r.Date.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date not normalized: %v", r.Date)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	r.Score = 11
	if err := r.Validate(); !errors.IsValidation(err) {
		t.Errorf("expected score validation error, got %v", err)
	}

	r.Score = 5
	r.Date = now
	if err := r.Validate(); err == nil {
		t.Error("non-midnight date should fail validation")
	}
}

func TestPauseIntervalSpan(t *testing.T) {
	resumed := now.Add(5 * time.Minute)
	closed := PauseInterval{PausedAt: now, ResumedAt: &resumed}
	open := PauseInterval{PausedAt: now}

	if closed.Open() || !open.Open() {
		t.Fatal("Open() reports the wrong state")
	}
	if got := closed.Span(now.Add(time.Hour)); got != 5*time.Minute {
		t.Errorf("closed span = %v", got)
	}
	if got := open.Span(now.Add(10 * time.Minute)); got != 10*time.Minute {
		t.Errorf("open span = %v", got)
	}
}

func TestActivityLogValidate(t *testing.T) {
	resumed := now.Add(time.Minute)
	l := ActivityLog{
		ID:         "log",
		ActivityID: "a",
		StartTime:  now,
		PauseIntervals: []PauseInterval{
			{PausedAt: now},
			{PausedAt: now, ResumedAt: &resumed},
		},
	}
	if err := l.Validate(); err == nil {
		t.Error("an open interval before the last must fail validation")
	}

	l.PauseIntervals = []PauseInterval{{PausedAt: now, ResumedAt: &resumed}, {PausedAt: resumed}}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if l.OpenPause() != 1 {
		t.Errorf("OpenPause() = %d, want 1", l.OpenPause())
	}

	session := ActivitySession{CurrentLog: l, IsPaused: false}
	if err := session.Validate(); err == nil {
		t.Error("session with open pause must be marked paused")
	}
	session.IsPaused = true
	if err := session.Validate(); err != nil {
		t.Errorf("session Validate() = %v", err)
	}
}

func TestBehaviorJSONShape(t *testing.T) {
	b := Behavior{Name: "Water", Type: BehaviorCount, Units: "glasses"}
	b.Initialize("b1", now)

	data, err := json.Marshal(&b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["active"] != true {
		t.Errorf("activation fields should be flattened, got %s", data)
	}
	if _, ok := raw["deactivated_at"]; ok {
		t.Errorf("deactivated_at should be omitted while active, got %s", data)
	}
}
