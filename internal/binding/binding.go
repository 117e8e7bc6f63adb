// Package binding ties one namespaced record to in-memory state.
//
// A Record starts out loading, holds the last value read or written, and
// tells subscribers whenever that value changes. Mutations that depend on the
// current value go through Update, which re-reads the persisted record inside
// the store's atomic update instead of trusting the cached copy.
package binding

import (
	"context"
	"sync"

	"github.com/julianstephens/logbook/internal/storage"
)

// Record is a binding of a single (label, id) pair.
type Record[T any] struct {
	store *storage.Store
	label string
	id    string

	mu      sync.RWMutex
	loading bool
	data    *T
	subs    map[int]func(*T)
	nextSub int
}

// New returns an unloaded binding. Call Refresh to read the stored value.
func New[T any](store *storage.Store, label, id string) *Record[T] {
	return &Record[T]{
		store:   store,
		label:   label,
		id:      id,
		loading: true,
		subs:    make(map[int]func(*T)),
	}
}

// Key is the storage key this record is bound to.
func (r *Record[T]) Key() string {
	return storage.Key(r.label, r.id)
}

// Loading reports whether the first read has not completed yet.
func (r *Record[T]) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Data returns a copy of the cached value, or nil when nothing is stored.
func (r *Record[T]) Data() *T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.data == nil {
		return nil
	}
	v := *r.data
	return &v
}

// Refresh re-reads the record from storage. The loading flag is cleared even
// when the read fails.
func (r *Record[T]) Refresh(ctx context.Context) error {
	v, err := storage.Get[T](ctx, r.store, r.label, r.id)
	if err != nil {
		r.mu.Lock()
		r.loading = false
		r.mu.Unlock()
		return err
	}
	r.set(v)
	return nil
}

// Save persists v and then publishes it.
func (r *Record[T]) Save(ctx context.Context, v T) error {
	if err := storage.Set(ctx, r.store, r.label, r.id, v); err != nil {
		return err
	}
	r.set(&v)
	return nil
}

// Update applies fn to the persisted value atomically and publishes the
// result. current is nil when nothing readable is stored.
func (r *Record[T]) Update(ctx context.Context, fn func(current *T) (T, error)) (T, error) {
	v, err := storage.Update(ctx, r.store, r.label, r.id, fn)
	if err != nil {
		return v, err
	}
	r.set(&v)
	return v, nil
}

// Clear removes the stored record and publishes nil.
func (r *Record[T]) Clear(ctx context.Context) error {
	if err := r.store.Remove(ctx, r.label, r.id); err != nil {
		return err
	}
	r.set(nil)
	return nil
}

// Subscribe registers fn to be called with every new value. The returned
// function cancels the subscription.
func (r *Record[T]) Subscribe(fn func(*T)) (cancel func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

func (r *Record[T]) set(v *T) {
	r.mu.Lock()
	r.loading = false
	r.data = v
	subs := make([]func(*T), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		if v == nil {
			fn(nil)
			continue
		}
		c := *v
		fn(&c)
	}
}
