package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/logbook/internal/logger"
)

var (
	// ErrNotFound is matched by every lookup of an unknown id.
	ErrNotFound = stderrors.New("not found")
	// ErrValidation is matched by every rejected input value.
	ErrValidation = stderrors.New("validation failed")
)

// NotFoundError reports an update or delete that referenced an unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound returns a *NotFoundError for the given entity kind, e.g. "Behavior".
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ValidationError reports a field value that cannot be persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validation builds a *ValidationError with a formatted reason.
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, a not-found failure.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is, or wraps, a validation failure.
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrValidation)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
