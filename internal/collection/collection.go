// Package collection manages a set of entity records enumerated by an index
// record. The index ("<index label>-<index id>") holds the ordered entity ids;
// each entity lives under "<entity label>-<id>".
package collection

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/logbook/internal/binding"
	"github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/idgen"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/storage"
)

// Entity is the pointer side of a record type managed by a Collection.
type Entity[T any] interface {
	*T
	EntityID() string
	Initialize(id string, now time.Time)
	Validate() error
}

type activatable interface {
	IsActive() bool
	SetActive(active bool, now time.Time)
}

type deletable interface {
	IsDeleted() bool
}

// Config names the keys a collection reads and writes.
type Config struct {
	// Kind is the human name used in not-found errors, e.g. "Behavior".
	Kind        string
	IndexLabel  string
	IndexID     string
	EntityLabel string
}

type options struct {
	now   func() time.Time
	newID idgen.Generator
}

type Option func(*options)

// WithClock overrides the clock used for createdAt and deactivation stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides how new entity ids are produced.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(o *options) { o.newID = gen }
}

// Collection is the in-memory view of one entity index plus its records.
type Collection[T any, P Entity[T]] struct {
	store *storage.Store
	cfg   Config
	index *binding.Record[[]string]
	opts  options

	mu      sync.RWMutex
	loading bool
	items   []T
}

func New[T any, P Entity[T]](store *storage.Store, cfg Config, opts ...Option) *Collection[T, P] {
	o := options{now: time.Now, newID: idgen.New}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T, P]{
		store:   store,
		cfg:     cfg,
		index:   binding.New[[]string](store, cfg.IndexLabel, cfg.IndexID),
		opts:    o,
		loading: true,
	}
}

// Now returns the collection's current time.
func (c *Collection[T, P]) Now() time.Time {
	return c.opts.now()
}

// NewID returns a fresh id from the collection's generator.
func (c *Collection[T, P]) NewID() string {
	return c.opts.newID()
}

func (c *Collection[T, P]) Store() *storage.Store {
	return c.store
}

func (c *Collection[T, P]) Config() Config {
	return c.cfg
}

// Loading reports whether the collection has not been loaded yet.
func (c *Collection[T, P]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Load is an alias for Refresh, for the first read.
func (c *Collection[T, P]) Load(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh reads the index and then every referenced entity in parallel.
// Ids whose records are missing or unreadable are dropped.
func (c *Collection[T, P]) Refresh(ctx context.Context) error {
	if err := c.index.Refresh(ctx); err != nil {
		return err
	}
	var ids []string
	if data := c.index.Data(); data != nil {
		ids = *data
	}

	items, err := LoadAll[T](ctx, c.store, c.cfg.EntityLabel, ids)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = items
	c.loading = false
	c.mu.Unlock()
	return nil
}

// LoadAll fetches label-<id> for every id concurrently and returns the
// readable records in id order.
func LoadAll[T any](ctx context.Context, store *storage.Store, label string, ids []string) ([]T, error) {
	results := make([]*T, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i], errs[i] = storage.Get[T](ctx, store, label, id)
		}(i, id)
	}
	wg.Wait()

	items := make([]T, 0, len(ids))
	for i, v := range results {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if v == nil {
			logger.Warn("Skipping unreadable record", "key", storage.Key(label, ids[i]))
			continue
		}
		items = append(items, *v)
	}
	return items, nil
}

// Create stamps v with a new id and createdAt, writes the entity and then
// appends its id to the persisted index.
func (c *Collection[T, P]) Create(ctx context.Context, v T) (T, error) {
	P(&v).Initialize(c.opts.newID(), c.opts.now())
	return c.Insert(ctx, v)
}

// Insert writes an already initialized entity and indexes it.
func (c *Collection[T, P]) Insert(ctx context.Context, v T) (T, error) {
	id := P(&v).EntityID()
	if err := storage.Set(ctx, c.store, c.cfg.EntityLabel, id, v); err != nil {
		var zero T
		return zero, err
	}
	if _, err := c.index.Update(ctx, appendID(id)); err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	c.replaceOrAppend(v)
	c.mu.Unlock()
	return v, nil
}

// Update applies mutate to the persisted entity. It fails with a not-found
// error when no readable record exists and never creates one.
func (c *Collection[T, P]) Update(ctx context.Context, id string, mutate func(P) error) (T, error) {
	updated, err := storage.Update(ctx, c.store, c.cfg.EntityLabel, id, func(current *T) (T, error) {
		var zero T
		if current == nil {
			return zero, errors.NotFound(c.cfg.Kind, id)
		}
		next := *current
		if err := mutate(P(&next)); err != nil {
			return zero, err
		}
		if P(&next).EntityID() != id {
			return zero, errors.Validation("id", "cannot change from %q", id)
		}
		return next, nil
	})
	if err != nil {
		return updated, err
	}

	c.mu.Lock()
	c.replaceOrAppend(updated)
	c.mu.Unlock()
	return updated, nil
}

// Deactivate moves an entity into the inactive partition.
func (c *Collection[T, P]) Deactivate(ctx context.Context, id string) (T, error) {
	return c.setActive(ctx, id, false)
}

// Reactivate moves an entity back into the active partition.
func (c *Collection[T, P]) Reactivate(ctx context.Context, id string) (T, error) {
	return c.setActive(ctx, id, true)
}

func (c *Collection[T, P]) setActive(ctx context.Context, id string, active bool) (T, error) {
	now := c.opts.now()
	return c.Update(ctx, id, func(p P) error {
		a, ok := any(p).(activatable)
		if !ok {
			return errors.Validation("active", "%s cannot be deactivated", c.cfg.Kind)
		}
		a.SetActive(active, now)
		return nil
	})
}

// Delete removes the entity record and then its id from the index. A record
// that no longer decodes is still removed.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	exists, err := c.store.Present(ctx, c.cfg.EntityLabel, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound(c.cfg.Kind, id)
	}
	if err := c.store.Remove(ctx, c.cfg.EntityLabel, id); err != nil {
		return err
	}
	if _, err := c.index.Update(ctx, removeID(id)); err != nil {
		return err
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(c.items, func(v T) bool { return P(&v).EntityID() == id })
	c.mu.Unlock()
	return nil
}

// Fetch reads one entity straight from storage.
func (c *Collection[T, P]) Fetch(ctx context.Context, id string) (T, error) {
	v, err := storage.Get[T](ctx, c.store, c.cfg.EntityLabel, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, errors.NotFound(c.cfg.Kind, id)
	}
	return *v, nil
}

// Get looks an entity up in the loaded collection.
func (c *Collection[T, P]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.items {
		if P(&v).EntityID() == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// All returns every loaded entity in index order.
func (c *Collection[T, P]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Filter returns the loaded entities for which keep is true.
func (c *Collection[T, P]) Filter(keep func(P) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []T{}
	for _, v := range c.items {
		if keep(P(&v)) {
			out = append(out, v)
		}
	}
	return out
}

// Active returns entities that are active, or not soft-deleted.
func (c *Collection[T, P]) Active() []T {
	return c.Filter(isActive[T, P])
}

// Inactive is the complement of Active.
func (c *Collection[T, P]) Inactive() []T {
	return c.Filter(func(p P) bool { return !isActive[T, P](p) })
}

func (c *Collection[T, P]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T, P]) replaceOrAppend(v T) {
	id := P(&v).EntityID()
	for i := range c.items {
		if P(&c.items[i]).EntityID() == id {
			c.items[i] = v
			return
		}
	}
	c.items = append(c.items, v)
}

func isActive[T any, P Entity[T]](p P) bool {
	switch e := any(p).(type) {
	case activatable:
		return e.IsActive()
	case deletable:
		return !e.IsDeleted()
	}
	return true
}

func appendID(id string) func(*[]string) ([]string, error) {
	return func(current *[]string) ([]string, error) {
		var ids []string
		if current != nil {
			ids = slices.Clone(*current)
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
		return ids, nil
	}
}

func removeID(id string) func(*[]string) ([]string, error) {
	return func(current *[]string) ([]string, error) {
		if current == nil {
			return []string{}, nil
		}
		return slices.DeleteFunc(slices.Clone(*current), func(v string) bool { return v == id }), nil
	}
}
