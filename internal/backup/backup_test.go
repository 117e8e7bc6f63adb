package backup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/storage/sqlite"
)

func init() {
	logger.Discard()
}

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "logbook.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	defer store.Close()

	if err := store.Set(context.Background(), "behavior-1", `{"id":"1","name":"Push-ups"}`); err != nil {
		t.Fatalf("failed to seed test database: %v", err)
	}
	return dbPath
}

func readKey(t *testing.T, dbPath, key string) (string, bool) {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load database: %v", err)
	}
	defer store.Close()

	value, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return value, ok
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(time.Minute)
		return t
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	b, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if filepath.Dir(b.Path) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written to unexpected directory: %s", b.Path)
	}
	if !strings.HasPrefix(b.Name(), constants.BackupFilePrefix) || !strings.HasSuffix(b.Name(), constants.BackupFileSuffix) {
		t.Errorf("unexpected backup name: %s", b.Name())
	}
	if b.Size == 0 {
		t.Error("expected non-empty backup")
	}

	value, ok := readKey(t, b.Path, "behavior-1")
	if !ok || !strings.Contains(value, "Push-ups") {
		t.Errorf("backup missing seeded record, got %q (found=%v)", value, ok)
	}
}

func TestCreateBackupMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestSameSecondBackupsGetCounter(t *testing.T) {
	dbPath := setupTestDB(t)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	mgr := NewManager(dbPath, WithClock(func() time.Time { return at }))

	var names []string
	for i := 0; i < 3; i++ {
		b, err := mgr.Create(context.Background())
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		names = append(names, b.Name())
	}

	want := []string{
		"logbook-20260301-093000.db",
		"logbook-20260301-093000-1.db",
		"logbook-20260301-093000-2.db",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("backup %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(list))
	}
	if list[0].Name() != want[2] || list[2].Name() != want[0] {
		t.Errorf("expected counter order newest first, got %s, %s, %s", list[0].Name(), list[1].Name(), list[2].Name())
	}
}

func TestListNewestFirstAndIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(fixedClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local))))

	for i := 0; i < 3; i++ {
		if _, err := mgr.Create(context.Background()); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	for _, name := range []string{"notes.txt", "logbook-garbage.db", "logbook-20260101-0800-x.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if !list[i-1].CreatedAt.After(list[i].CreatedAt) {
			t.Errorf("backups not sorted newest first: %v before %v", list[i-1].CreatedAt, list[i].CreatedAt)
		}
	}
	if want := time.Date(2026, 1, 1, 8, 2, 0, 0, time.Local); !list[0].CreatedAt.Equal(want) {
		t.Errorf("expected newest at %v, got %v", want, list[0].CreatedAt)
	}
}

func TestListWithoutDirectory(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "logbook.db"))
	list, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no backups, got %d", len(list))
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath,
		WithKeep(3),
		WithClock(fixedClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local))),
	)

	for i := 0; i < 5; i++ {
		if _, err := mgr.Create(context.Background()); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 backups after rotation, got %d", len(list))
	}
	if want := "logbook-20260101-080200.db"; list[2].Name() != want {
		t.Errorf("expected oldest surviving backup %s, got %s", want, list[2].Name())
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(fixedClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local))))

	snap, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "behavior-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "behavior-2", `{"id":"2"}`); err != nil {
		t.Fatal(err)
	}
	store.Close()

	safety, err := mgr.Restore(ctx, snap.Path)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if safety == "" {
		t.Fatal("expected a safety backup of the current database")
	}

	if _, ok := readKey(t, dbPath, "behavior-1"); !ok {
		t.Error("restored database is missing behavior-1")
	}
	if _, ok := readKey(t, dbPath, "behavior-2"); ok {
		t.Error("restored database still has behavior-2")
	}
	if _, ok := readKey(t, safety, "behavior-2"); !ok {
		t.Error("safety backup should hold the pre-restore state")
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "logbook-20260101-080000.db")
	if err := os.WriteFile(bogus, []byte("definitely not sqlite"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(context.Background(), bogus); err == nil {
		t.Fatal("expected error restoring invalid backup")
	}
	if _, ok := readKey(t, dbPath, "behavior-1"); !ok {
		t.Error("database changed after rejected restore")
	}

	if _, err := mgr.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("expected error restoring missing backup")
	}
}

func TestResolve(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	b, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{b.Path, b.Name()} {
		got, err := mgr.Resolve(ref)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", ref, err)
			continue
		}
		if got != b.Path {
			t.Errorf("Resolve(%q) = %q, want %q", ref, got, b.Path)
		}
	}

	if _, err := mgr.Resolve("logbook-19990101-000000.db"); err == nil {
		t.Error("expected error for unknown backup")
	}
	if _, err := mgr.Resolve(""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		seq  int
		ok   bool
	}{
		{"logbook-20260102-030405.db", 0, true},
		{"logbook-20260102-030405-7.db", 7, true},
		{"logbook-20260102-030405-0.db", 0, false},
		{"logbook-20260102.db", 0, false},
		{"notes-20260102-030405.db", 0, false},
		{"logbook-20260102-030405.sql", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, seq, ok := parseName(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if seq != tt.seq {
				t.Errorf("seq = %d, want %d", seq, tt.seq)
			}
			want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
			if !created.Equal(want) {
				t.Errorf("created = %v, want %v", created, want)
			}
		})
	}
}
