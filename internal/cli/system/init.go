package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/cli/activities"
	"github.com/julianstephens/logbook/internal/cli/behaviors"
	"github.com/julianstephens/logbook/internal/cli/reflections"
	"github.com/julianstephens/logbook/internal/cli/tasks"
)

type InitCmd struct {
	Force    bool `help:"Delete all existing data before initialization."`
	Defaults bool `help:"Create the starter behaviors, questions, task lists and activity types."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Engine.Init(); err != nil {
		return err
	}
	if c.Force {
		if err := clearKeys(ctx); err != nil {
			return err
		}
	}
	fmt.Printf("Initialized logbook storage at: %s\n", ctx.Engine.GetConfigPath())

	if err := ctx.Load(); err != nil {
		return err
	}
	if c.Defaults {
		return seedDefaults(ctx)
	}
	return nil
}

// reset removes the sqlite file so Init starts from an empty schema.
func (c *InitCmd) reset(ctx *cli.Context) error {
	path, ok := ctx.SQLitePath()
	if !ok {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		if err := ctx.Engine.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		fmt.Printf("Deleted existing database at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// clearKeys empties server-backed and in-memory stores, which have no file
// to delete.
func clearKeys(ctx *cli.Context) error {
	if _, ok := ctx.SQLitePath(); ok {
		return nil
	}
	keys, err := ctx.Engine.Keys(ctx.Ctx, "")
	if err != nil {
		return fmt.Errorf("failed to list existing keys: %w", err)
	}
	for _, k := range keys {
		if err := ctx.Engine.Delete(ctx.Ctx, k); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	if len(keys) > 0 {
		fmt.Printf("Deleted %d existing key(s)\n", len(keys))
	}
	return nil
}

func seedDefaults(ctx *cli.Context) error {
	bs, err := behaviors.CreateMissingDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to create default behaviors: %w", err)
	}
	qs, err := reflections.CreateMissingDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to create default questions: %w", err)
	}
	ls, err := tasks.CreateMissingDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to create default task lists: %w", err)
	}
	ts, err := activities.CreateMissingDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to create default activity types: %w", err)
	}
	fmt.Printf("Created %d behavior(s), %d question(s), %d task list(s) and %d activity type(s)\n",
		len(bs), len(qs), len(ls), len(ts))
	return nil
}
