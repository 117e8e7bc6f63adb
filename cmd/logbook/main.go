package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/cli/activities"
	"github.com/julianstephens/logbook/internal/cli/backups"
	"github.com/julianstephens/logbook/internal/cli/behaviors"
	"github.com/julianstephens/logbook/internal/cli/reflections"
	"github.com/julianstephens/logbook/internal/cli/stats"
	"github.com/julianstephens/logbook/internal/cli/system"
	"github.com/julianstephens/logbook/internal/cli/tasks"
	"github.com/julianstephens/logbook/internal/constants"
	lberrors "github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/notifier"
	"github.com/julianstephens/logbook/internal/storage"
	tasksvc "github.com/julianstephens/logbook/internal/tasks"
	"github.com/julianstephens/logbook/internal/utils"
)

var CLI struct {
	Version    kong.VersionFlag
	Store      string `help:"SQLite database path, 'memory', 'keyring', or a PostgreSQL/Redis connection string. PostgreSQL credentials must NOT be embedded; use the keyring instead." env:"LOGBOOK_STORE" default:"~/.config/logbook/logbook.db"`
	Debug      bool   `help:"Log debug output to stderr." env:"LOGBOOK_DEBUG"`
	Timezone   string `help:"IANA timezone used for days and dates." env:"LOGBOOK_TIMEZONE" default:"Local"`
	MovePolicy string `help:"What happens to the source copy of a moved task (keep-source, purge-source)." env:"LOGBOOK_MOVE_POLICY" default:"keep-source" enum:"keep-source,purge-source"`
	Notify     bool   `help:"Send timer transitions to the tray app." env:"LOGBOOK_NOTIFY"`

	Init    system.InitCmd      `cmd:"" help:"Initialize logbook storage."`
	Doctor  system.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Keyring system.KeyringCmd   `cmd:"" help:"Manage the connection string kept in the OS keyring."`
	Backup  backups.BackupCmd   `cmd:"" help:"Manage database backups."`
	Stats   stats.StatsCmd      `cmd:"" help:"Show trends and streaks."`
	Timer   activities.TimerCmd `cmd:"" help:"Time activities."`

	Behavior behaviors.BehaviorCmd      `cmd:"" help:"Track behaviors."`
	Reflect  reflections.ReflectCmd     `cmd:"" help:"Answer daily reflection questions."`
	Tasklist tasks.TaskListCmd          `cmd:"" help:"Manage task lists."`
	Task     tasks.TaskCmd              `cmd:"" help:"Manage tasks."`
	Type     activities.ActivityTypeCmd `cmd:"" help:"Manage activity types."`
	Activity activities.ActivityCmd     `cmd:"" help:"Manage activities."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track behaviors, reflections, tasks and timed activities"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile, "./logbook.json"),
		kong.Vars{"version": constants.Version},
	)

	lberrors.Fatal(run(kctx))
}

func run(kctx *kong.Context) error {
	configFile, err := cli.ExpandPath(constants.DefaultConfigFile)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: filepath.Dir(configFile), Store: CLI.Store}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
		logger.Discard()
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", CLI.Timezone, err)
	}
	policy, err := tasksvc.ParseMovePolicy(CLI.MovePolicy)
	if err != nil {
		return err
	}

	command := kctx.Command()
	engine, err := cli.OpenEngine(CLI.Store)
	if err != nil {
		// The keyring commands are how a missing keyring entry gets fixed.
		if !strings.HasPrefix(command, "keyring") {
			return err
		}
		engine = storage.NewMemoryEngine()
	}
	defer engine.Close()

	opts := cli.Options{MovePolicy: policy, Location: loc}
	if CLI.Notify {
		opts.Notifier = notifier.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	app := cli.NewContext(ctx, engine, opts)

	// init opens the store itself.
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "keyring") {
		if err := engine.Load(); err != nil {
			return err
		}
		if err := app.Load(); err != nil {
			return err
		}
	}
	logger.Debug("Running command", "command", command, "store", engine.GetConfigPath())

	return kctx.Run(app)
}
