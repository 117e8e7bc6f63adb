package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/julianstephens/logbook/internal/logger"
)

// Validator is implemented by records that can check their own structure.
// Records failing validation are treated as missing when read and rejected
// when written.
type Validator interface {
	Validate() error
}

// Store namespaces keys as "<label>-<id>" and serializes values as JSON on
// top of an Engine.
type Store struct {
	engine Engine
	locks  sync.Map // key -> *sync.Mutex
}

func New(engine Engine) *Store {
	return &Store{engine: engine}
}

// NewMemory returns a Store over a fresh in-memory engine.
func NewMemory() *Store {
	return New(NewMemoryEngine())
}

func (s *Store) Engine() Engine { return s.engine }

// Key builds the effective storage key for a label and id.
func Key(label, id string) string {
	return label + "-" + id
}

// Get reads and decodes the record stored under label-id. A missing,
// malformed or structurally invalid record yields (nil, nil); only engine
// failures are returned as errors.
func Get[T any](ctx context.Context, s *Store, label, id string) (*T, error) {
	key := Key(label, id)
	raw, found, err := s.engine.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	return decode[T](key, raw), nil
}

// Set encodes value and writes it under label-id.
func Set[T any](ctx context.Context, s *Store, label, id string, value T) error {
	key := Key(label, id)
	data, err := encode(key, value)
	if err != nil {
		return err
	}
	if err := s.engine.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes label-id. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, label, id string) error {
	key := Key(label, id)
	if err := s.engine.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Present reports whether anything is stored under label-id, readable or not.
func (s *Store) Present(ctx context.Context, label, id string) (bool, error) {
	key := Key(label, id)
	_, found, err := s.engine.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return found, nil
}

// Exists reports whether label-id holds a readable record of type T.
func Exists[T any](ctx context.Context, s *Store, label, id string) (bool, error) {
	v, err := Get[T](ctx, s, label, id)
	return v != nil, err
}

// Update atomically replaces the record under label-id with fn(current).
// current is nil when the key is missing or unreadable. Concurrent updates
// of the same key are serialized in-process and delegated to Engine.Update
// for atomicity across processes.
func Update[T any](ctx context.Context, s *Store, label, id string, fn func(current *T) (T, error)) (T, error) {
	key := Key(label, id)
	unlock := s.lock(key)
	defer unlock()

	var result T
	err := s.engine.Update(ctx, key, func(raw string, found bool) (string, error) {
		var current *T
		if found {
			current = decode[T](key, raw)
		}
		next, err := fn(current)
		if err != nil {
			return "", err
		}
		data, err := encode(key, next)
		if err != nil {
			return "", err
		}
		result = next
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// IDs returns the id list stored under label-id, or an empty list.
func (s *Store) IDs(ctx context.Context, label, id string) ([]string, error) {
	ids, err := Get[[]string](ctx, s, label, id)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return []string{}, nil
	}
	return *ids, nil
}

// AppendID adds entityIDs to the end of the index under label-id, skipping
// ids already present. The persisted index is re-read inside the update.
func (s *Store) AppendID(ctx context.Context, label, id string, entityIDs ...string) ([]string, error) {
	return Update(ctx, s, label, id, func(current *[]string) ([]string, error) {
		var ids []string
		if current != nil {
			ids = slices.Clone(*current)
		}
		for _, e := range entityIDs {
			if !slices.Contains(ids, e) {
				ids = append(ids, e)
			}
		}
		if ids == nil {
			ids = []string{}
		}
		return ids, nil
	})
}

// RemoveID drops entityIDs from the index under label-id.
func (s *Store) RemoveID(ctx context.Context, label, id string, entityIDs ...string) ([]string, error) {
	return Update(ctx, s, label, id, func(current *[]string) ([]string, error) {
		if current == nil {
			return []string{}, nil
		}
		return slices.DeleteFunc(slices.Clone(*current), func(v string) bool {
			return slices.Contains(entityIDs, v)
		}), nil
	})
}

func (s *Store) lock(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func decode[T any](key, raw string) *T {
	if raw == "" || raw == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn("Discarding malformed record", "key", key, "error", err)
		return nil
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			logger.Warn("Discarding invalid record", "key", key, "error", err)
			return nil
		}
	}
	return &v
}

func encode[T any](key string, value T) (string, error) {
	if val, ok := any(&value).(Validator); ok {
		if err := val.Validate(); err != nil {
			return "", fmt.Errorf("refusing to write %s: %w", key, err)
		}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	return string(data), nil
}
