package models

import (
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/errors"
)

type ListType string

const (
	ListPermanent ListType = "permanent"
	ListTemporary ListType = "temporary"
	ListSomeday   ListType = "someday"
)

func (t ListType) Valid() bool {
	switch t {
	case "", ListPermanent, ListTemporary, ListSomeday:
		return true
	}
	return false
}

type TaskList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Color     string    `json:"color"`
	ListType  ListType  `json:"list_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *TaskList) EntityID() string { return l.ID }

func (l *TaskList) Initialize(id string, now time.Time) {
	l.ID = id
	l.CreatedAt = now
}

func (l *TaskList) Validate() error {
	if l.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.Validation("name", "empty")
	}
	if !l.ListType.Valid() {
		return errors.Validation("list_type", "unknown list type %q", l.ListType)
	}
	return nil
}

type TaskListPatch struct {
	Name     *string
	Emoji    *string
	Color    *string
	ListType *ListType
}

func (p TaskListPatch) Apply(l *TaskList) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Emoji != nil {
		l.Emoji = *p.Emoji
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.ListType != nil {
		l.ListType = *p.ListType
	}
}

// Task is soft-deleted: DeletedAt keeps the record (and its id in the list
// index) around for history while hiding it from active views.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Notes       string     `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (t *Task) EntityID() string { return t.ID }

func (t *Task) Initialize(id string, now time.Time) {
	t.ID = id
	t.CreatedAt = now
	t.Completed = false
	t.DeletedAt = nil
}

func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.Validation("id", "empty")
	}
	if strings.TrimSpace(t.Description) == "" {
		return errors.Validation("description", "empty")
	}
	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t Task) IsDeleted() bool { return t.DeletedAt != nil }

type TaskPatch struct {
	Description *string
	Notes       *string
	Completed   *bool
}

func (p TaskPatch) Apply(t *Task) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
