package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/errors"
)

type BehaviorType string

const (
	BehaviorReps     BehaviorType = "reps"
	BehaviorDuration BehaviorType = "duration"
	BehaviorWeight   BehaviorType = "weight"
	BehaviorCount    BehaviorType = "count"
)

// BehaviorTypes lists the accepted behavior types in display order.
var BehaviorTypes = []BehaviorType{BehaviorReps, BehaviorDuration, BehaviorWeight, BehaviorCount}

func (t BehaviorType) Valid() bool {
	switch t {
	case BehaviorReps, BehaviorDuration, BehaviorWeight, BehaviorCount:
		return true
	}
	return false
}

type Behavior struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  BehaviorType `json:"type"`
	Units string       `json:"units"`
	Activation
	CreatedAt time.Time `json:"created_at"`
}

func (b *Behavior) EntityID() string { return b.ID }

func (b *Behavior) Initialize(id string, now time.Time) {
	b.ID = id
	b.CreatedAt = now
	b.Activation = Activation{Active: true}
}

func (b *Behavior) Validate() error {
	if b.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(b.Name) == "" {
		return errors.Validation("name", "empty")
	}
	if !b.Type.Valid() {
		return errors.Validation("type", "unknown behavior type %q", b.Type)
	}
	return b.Activation.validate()
}

// BehaviorPatch carries the fields an update may change. Nil fields are left alone.
type BehaviorPatch struct {
	Name  *string
	Type  *BehaviorType
	Units *string
}

func (p BehaviorPatch) Apply(b *Behavior) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Units != nil {
		b.Units = *p.Units
	}
}

type BehaviorLog struct {
	ID         string    `json:"id"`
	BehaviorID string    `json:"behavior_id"`
	Timestamp  time.Time `json:"timestamp"`
	Quantity   float64   `json:"quantity"`
	Weight     *float64  `json:"weight,omitempty"`
	Notes      string    `json:"notes,omitempty"`
}

func (l *BehaviorLog) EntityID() string { return l.ID }

// Initialize assigns the id and defaults the timestamp to now when unset.
func (l *BehaviorLog) Initialize(id string, now time.Time) {
	l.ID = id
	if l.Timestamp.IsZero() {
		l.Timestamp = now
	}
}

func (l *BehaviorLog) Validate() error {
	if l.ID == "" {
		return errors.Validation("id", "empty")
	}
	if l.BehaviorID == "" {
		return errors.Validation("behavior_id", "empty")
	}
	if l.Timestamp.IsZero() {
		return errors.Validation("timestamp", "missing")
	}
	if err := checkPositive("quantity", l.Quantity); err != nil {
		return err
	}
	if l.Weight != nil {
		return checkPositive("weight", *l.Weight)
	}
	return nil
}

type BehaviorLogPatch struct {
	Timestamp   *time.Time
	Quantity    *float64
	Weight      *float64
	ClearWeight bool
	Notes       *string
}

func (p BehaviorLogPatch) Apply(l *BehaviorLog) {
	if p.Timestamp != nil {
		l.Timestamp = *p.Timestamp
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.ClearWeight {
		l.Weight = nil
	} else if p.Weight != nil {
		w := *p.Weight
		l.Weight = &w
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
}

// ParseQuantity coerces user input into a positive, finite number.
// Anything else is a validation failure rather than a NaN on disk.
func ParseQuantity(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Validation(field, "%q is not a number", s)
	}
	if err := checkPositive(field, v); err != nil {
		return 0, err
	}
	return v, nil
}

func checkPositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Validation(field, "must be a finite number")
	}
	if v <= 0 {
		return errors.Validation(field, "must be greater than zero, got %v", v)
	}
	return nil
}
