// Package clitest builds command contexts over the memory engine.
package clitest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/idgen"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/tasks"
)

// Start is the wall-clock time every test context begins at.
var Start = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// New returns a loaded context on a fresh memory engine, its clock and the
// engine itself.
func New(t *testing.T, policy tasks.MovePolicy) (*cli.Context, *Clock, *storage.MemoryEngine) {
	t.Helper()
	logger.Discard()

	engine := storage.NewMemoryEngine()
	clock := &Clock{now: Start}
	ctx := cli.NewContext(context.Background(), engine, cli.Options{
		MovePolicy: policy,
		Location:   time.UTC,
		Clock:      clock.Now,
		IDs:        idgen.Sequence("id"),
	})
	if err := ctx.Load(); err != nil {
		t.Fatalf("failed to load context: %v", err)
	}
	return ctx, clock, engine
}
