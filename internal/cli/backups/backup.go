package backups

import (
	"fmt"
	"os"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/tui"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a backup now."`
	List    BackupListCmd    `cmd:"" help:"List backups." default:"1"`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the database with a backup."`
	Prune   BackupPruneCmd   `cmd:"" help:"Remove backups beyond the retention limit."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	b, err := mgr.Create(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Printf("✓ Backup created: %s\n", b.Name())
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		fmt.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	fmt.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		fmt.Printf("  %s  %s  (%.1f KB)\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Name(), float64(b.Size)/1024.0)
	}
	fmt.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" help:"Path or file name of the backup to restore."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	path, err := mgr.Resolve(c.Backup)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := tui.Confirm(
			fmt.Sprintf("Restore from %s?", path),
			tui.DangerStyle.Render("This replaces the current database. Stop every other logbook process first.\n")+
				"A backup of the current database is made before restoring.",
			"Restore",
		)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Engine.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(ctx.Ctx, path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Println("✓ Database restored successfully!")
	if safety != "" {
		fmt.Printf("Previous database saved as: %s\n", safety)
	}
	return nil
}

type BackupPruneCmd struct{}

func (c *BackupPruneCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	removed, err := mgr.Prune()
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}
	fmt.Printf("Removed %d old backup(s)\n", len(removed))
	return nil
}
