package storage

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by engines used before Init or Load.
var ErrNotLoaded = errors.New("storage not loaded")

// UpdateFunc receives the current value of a key (found reports whether it
// exists) and returns the value to write back. Returning an error aborts the
// update without writing.
type UpdateFunc func(current string, found bool) (string, error)

// Engine is the persistent string-keyed store the rest of the application is
// built on. Values are opaque strings; the Store adapter owns serialization.
type Engine interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Update performs an atomic read-modify-write of a single key.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Utils
	GetConfigPath() string
}
