package models

import (
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/errors"
)

type ActivityType struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Activation
	CreatedAt time.Time `json:"created_at"`
}

func (t *ActivityType) EntityID() string { return t.ID }

func (t *ActivityType) Initialize(id string, now time.Time) {
	t.ID = id
	t.CreatedAt = now
	t.Activation = Activation{Active: true}
}

func (t *ActivityType) Validate() error {
	if t.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.Validation("name", "empty")
	}
	return t.Activation.validate()
}

type ActivityTypePatch struct {
	Name  *string
	Color *string
}

func (p ActivityTypePatch) Apply(t *ActivityType) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
}

type ActivityInstance struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	TypeID       string     `json:"type_id"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	LastActiveAt time.Time  `json:"last_active_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (a *ActivityInstance) EntityID() string { return a.ID }

func (a *ActivityInstance) Initialize(id string, now time.Time) {
	a.ID = id
	a.CreatedAt = now
	a.LastActiveAt = now
	a.Completed = false
	a.CompletedAt = nil
}

func (a *ActivityInstance) Validate() error {
	if a.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(a.Title) == "" {
		return errors.Validation("title", "empty")
	}
	if a.TypeID == "" {
		return errors.Validation("type_id", "empty")
	}
	if a.Completed != (a.CompletedAt != nil) {
		return errors.Validation("completed_at", "must be set exactly when completed")
	}
	return nil
}

// SetCompleted marks the instance done (stamping now) or reopens it.
func (a *ActivityInstance) SetCompleted(completed bool, now time.Time) {
	a.Completed = completed
	if !completed {
		a.CompletedAt = nil
		return
	}
	ts := now
	a.CompletedAt = &ts
}

type ActivityInstancePatch struct {
	Title       *string
	Description *string
	TypeID      *string
}

func (p ActivityInstancePatch) Apply(a *ActivityInstance) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.TypeID != nil {
		a.TypeID = *p.TypeID
	}
}

// PauseInterval is open while ResumedAt is nil.
type PauseInterval struct {
	PausedAt  time.Time  `json:"paused_at"`
	ResumedAt *time.Time `json:"resumed_at,omitempty"`
}

func (p PauseInterval) Open() bool { return p.ResumedAt == nil }

// Span returns the paused time, treating an open interval as closing at end.
func (p PauseInterval) Span(end time.Time) time.Duration {
	stop := end
	if p.ResumedAt != nil {
		stop = *p.ResumedAt
	}
	if stop.Before(p.PausedAt) {
		return 0
	}
	return stop.Sub(p.PausedAt)
}

// ActivityLog is one timed session of an activity. Duration is stored in
// milliseconds and excludes paused time.
type ActivityLog struct {
	ID             string          `json:"id"`
	ActivityID     string          `json:"activity_id"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	Duration       int64           `json:"duration"`
	PauseIntervals []PauseInterval `json:"pause_intervals"`
	Notes          string          `json:"notes,omitempty"`
}

func (l *ActivityLog) EntityID() string { return l.ID }

func (l *ActivityLog) Initialize(id string, now time.Time) {
	if l.ID == "" {
		l.ID = id
	}
	if l.StartTime.IsZero() {
		l.StartTime = now
	}
	if l.PauseIntervals == nil {
		l.PauseIntervals = []PauseInterval{}
	}
}

func (l *ActivityLog) Validate() error {
	if l.ID == "" {
		return errors.Validation("id", "empty")
	}
	if l.ActivityID == "" {
		return errors.Validation("activity_id", "empty")
	}
	if l.StartTime.IsZero() {
		return errors.Validation("start_time", "missing")
	}
	if l.EndTime != nil && l.EndTime.Before(l.StartTime) {
		return errors.Validation("end_time", "before start_time")
	}
	if l.Duration < 0 {
		return errors.Validation("duration", "negative")
	}
	for i, p := range l.PauseIntervals {
		if p.Open() && i != len(l.PauseIntervals)-1 {
			return errors.Validation("pause_intervals", "only the last interval may be open")
		}
	}
	return nil
}

// Elapsed returns the tracked duration as a time.Duration.
func (l ActivityLog) Elapsed() time.Duration {
	return time.Duration(l.Duration) * time.Millisecond
}

// OpenPause returns the index of the open pause interval, or -1.
func (l ActivityLog) OpenPause() int {
	n := len(l.PauseIntervals)
	if n > 0 && l.PauseIntervals[n-1].Open() {
		return n - 1
	}
	return -1
}

// ActivitySession is the running (or paused) timer plus the stack of
// activities that were paused by a context switch.
type ActivitySession struct {
	CurrentLog          ActivityLog   `json:"current_log"`
	IsPaused            bool          `json:"is_paused"`
	PausedActivityStack []ActivityLog `json:"paused_activity_stack"`
}

func (s *ActivitySession) Validate() error {
	if err := s.CurrentLog.Validate(); err != nil {
		return err
	}
	if s.IsPaused != (s.CurrentLog.OpenPause() >= 0) {
		return errors.Validation("is_paused", "does not match the pause intervals")
	}
	for i := range s.PausedActivityStack {
		if err := s.PausedActivityStack[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
