// Package backup snapshots the sqlite kv database and restores it.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/logger"
)

const stampLayout = "20060102-150405"

// Backup describes one snapshot file.
type Backup struct {
	Path      string
	CreatedAt time.Time
	Size      int64
}

// Name is the file name without its directory.
func (b Backup) Name() string {
	return filepath.Base(b.Path)
}

type Manager struct {
	dbPath string
	dir    string
	keep   int
	now    func() time.Time
}

type Option func(*Manager)

// WithKeep sets how many snapshots survive rotation.
func WithKeep(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.keep = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager manages snapshots of the database at dbPath. Snapshots live in
// a "backups" directory next to the database.
func NewManager(dbPath string, opts ...Option) *Manager {
	m := &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		keep:   constants.MaxBackups,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string { return m.dir }

// Create writes a new snapshot and rotates old ones.
func (m *Manager) Create(ctx context.Context) (Backup, error) {
	b, err := m.snapshot(ctx)
	if err != nil {
		return Backup{}, err
	}
	if _, err := m.Prune(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.dir, "error", err)
	}
	return b, nil
}

func (m *Manager) snapshot(ctx context.Context) (Backup, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return Backup{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return Backup{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	created := m.now()
	path, err := m.nextPath(created)
	if err != nil {
		return Backup{}, err
	}

	if err := vacuumInto(ctx, m.dbPath, path); err != nil {
		return Backup{}, fmt.Errorf("failed to backup database: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Backup{}, err
	}
	logger.Debug("Created backup", "path", path, "size", info.Size())
	return Backup{Path: path, CreatedAt: created.Truncate(time.Second), Size: info.Size()}, nil
}

// nextPath picks "<prefix><stamp>.db", adding "-N" when several snapshots
// land in the same second.
func (m *Manager) nextPath(at time.Time) (string, error) {
	stamp := at.Format(stampLayout)
	path := filepath.Join(m.dir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, n, constants.BackupFileSuffix))
	}
}

func vacuumInto(ctx context.Context, src, dst string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verify(ctx, db); err != nil {
		return fmt.Errorf("source database is not a logbook database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		logger.Warn("VACUUM INTO failed, copying file instead", "error", err)
		db.Close()
		return copyFile(src, dst)
	}
	return nil
}

// List returns the snapshots in the backup directory, newest first. Files
// that do not follow the naming scheme are ignored.
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Backup{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, seq, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			Path:      filepath.Join(m.dir, entry.Name()),
			CreatedAt: created.Add(time.Duration(seq) * time.Nanosecond),
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	for i := range backups {
		backups[i].CreatedAt = backups[i].CreatedAt.Truncate(time.Second)
	}
	return backups, nil
}

// parseName extracts the timestamp and collision counter from a file name.
func parseName(name string) (time.Time, int, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
		return time.Time{}, 0, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)

	seq := 0
	if parts := strings.Split(rest, "-"); len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return time.Time{}, 0, false
		}
		seq = n
		rest = parts[0] + "-" + parts[1]
	}

	created, err := time.ParseInLocation(stampLayout, rest, time.Local)
	if err != nil {
		return time.Time{}, 0, false
	}
	return created, seq, true
}

// Prune removes snapshots beyond the retention limit and returns their paths.
func (m *Manager) Prune() ([]string, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	var removed []string
	for i := m.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		removed = append(removed, backups[i].Path)
	}
	return removed, nil
}

// Resolve accepts either a path or a bare file name from List.
func (m *Manager) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("backup name cannot be empty")
	}
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}
	path := filepath.Join(m.dir, filepath.Base(ref))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup file does not exist: %s", ref)
	}
	return path, nil
}

// Restore replaces the database with the snapshot at path. The current
// database is snapshotted first and that safety copy is returned. Callers
// must close any open handle to the database before restoring.
func (m *Manager) Restore(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := verifyFile(ctx, path); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety string
	if _, err := os.Stat(m.dbPath); err == nil {
		// No rotation here: the safety copy must not push out the snapshot
		// being restored.
		b, err := m.snapshot(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
		safety = b.Path
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return safety, fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Restored database", "from", path, "safety", safety)
	return safety, nil
}

func verifyFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()
	return verify(ctx, db)
}

// verify checks that db holds the kv table.
func verify(ctx context.Context, db *sql.DB) error {
	var n int
	return db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv").Scan(&n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
