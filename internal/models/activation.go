package models

import (
	"time"

	"github.com/julianstephens/logbook/internal/errors"
)

// Activation is embedded by entities that can be deactivated without losing
// their history. DeactivatedAt is set if and only if Active is false.
type Activation struct {
	Active        bool       `json:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// IsActive reports whether the entity belongs to the active partition.
func (a Activation) IsActive() bool { return a.Active }

// SetActive toggles the activation state, stamping DeactivatedAt with now
// when deactivating and clearing it when reactivating.
func (a *Activation) SetActive(active bool, now time.Time) {
	a.Active = active
	if active {
		a.DeactivatedAt = nil
		return
	}
	if a.DeactivatedAt == nil {
		ts := now
		a.DeactivatedAt = &ts
	}
}

func (a Activation) validate() error {
	if a.Active && a.DeactivatedAt != nil {
		return errors.Validation("deactivated_at", "set on an active record")
	}
	if !a.Active && a.DeactivatedAt == nil {
		return errors.Validation("deactivated_at", "missing on an inactive record")
	}
	return nil
}
