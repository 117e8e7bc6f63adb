package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/backup"
	"github.com/julianstephens/logbook/internal/behaviors"
	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/idgen"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/reflections"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/storage/sqlite"
	"github.com/julianstephens/logbook/internal/tasks"
	"github.com/julianstephens/logbook/internal/timer"
	"github.com/julianstephens/logbook/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Ctx    context.Context
	Engine storage.Engine
	Store  *storage.Store

	Behaviors   *behaviors.Service
	Reflections *reflections.Service
	Tasks       *tasks.Service
	Activities  *activities.Service
	Timer       *timer.Controller

	Location *time.Location
	now      func() time.Time
}

type Options struct {
	MovePolicy tasks.MovePolicy
	Location   *time.Location
	Notifier   timer.Notifier
	Clock      func() time.Time
	IDs        idgen.Generator
}

func NewContext(ctx context.Context, engine storage.Engine, opts Options) *Context {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IDs == nil {
		opts.IDs = idgen.New
	}

	collOpts := []collection.Option{
		collection.WithClock(opts.Clock),
		collection.WithIDGenerator(opts.IDs),
	}
	timerOpts := []timer.Option{
		timer.WithClock(opts.Clock),
		timer.WithIDGenerator(opts.IDs),
	}
	if opts.Notifier != nil {
		timerOpts = append(timerOpts, timer.WithNotifier(opts.Notifier))
	}

	store := storage.New(engine)
	acts := activities.New(store, collOpts...)
	return &Context{
		Ctx:         ctx,
		Engine:      engine,
		Store:       store,
		Behaviors:   behaviors.New(store, collOpts...),
		Reflections: reflections.New(store, collOpts...),
		Tasks:       tasks.New(store, opts.MovePolicy, collOpts...),
		Activities:  acts,
		Timer:       timer.NewController(store, acts, timerOpts...),
		Location:    opts.Location,
		now:         opts.Clock,
	}
}

// Now is the current time in the configured location.
func (c *Context) Now() time.Time {
	return c.now().In(c.Location)
}

// Today is local midnight of the current day.
func (c *Context) Today() time.Time {
	return utils.Midnight(c.Now())
}

// ParseDate accepts YYYY-MM-DD, "today" or "yesterday"; empty means today.
func (c *Context) ParseDate(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return c.Today(), nil
	case "yesterday":
		return c.Today().AddDate(0, 0, -1), nil
	}
	return utils.ResolveDate(strings.TrimSpace(s), c.Now())
}

// Load reads every collection the commands display.
func (c *Context) Load() error {
	loaders := []struct {
		name string
		load func(context.Context) error
	}{
		{"behaviors", c.Behaviors.Load},
		{"reflections", c.Reflections.Load},
		{"task lists", c.Tasks.Load},
		{"activities", c.Activities.Load},
	}
	for _, l := range loaders {
		if err := l.load(c.Ctx); err != nil {
			return fmt.Errorf("failed to load %s: %w", l.name, err)
		}
	}
	return nil
}

// SQLitePath returns the database file when the engine is sqlite.
func (c *Context) SQLitePath() (string, bool) {
	s, ok := c.Engine.(*sqlite.Store)
	if !ok {
		return "", false
	}
	return s.GetConfigPath(), true
}

// BackupManager is available for sqlite stores only.
func (c *Context) BackupManager() (*backup.Manager, error) {
	path, ok := c.SQLitePath()
	if !ok {
		return nil, fmt.Errorf("backups are only supported for sqlite stores (current: %s)", c.Engine.GetConfigPath())
	}
	return backup.NewManager(path), nil
}

// PerformAutomaticBackup snapshots sqlite stores before destructive commands.
// Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(c.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ShortID trims UUIDs for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// ResolveID matches ref against ids, by full id or a unique suffix as
// printed by ShortID.
func ResolveID(kind, ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s id cannot be empty", strings.ToLower(kind))
	}
	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasSuffix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", strings.ToLower(kind), ref)
			}
			match = id
		}
	}
	if match == "" {
		return "", errors.NotFound(kind, ref)
	}
	return match, nil
}
