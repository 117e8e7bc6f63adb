package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/models"
)

func setupTestStore(t *testing.T) (*Store, *MemoryEngine) {
	t.Helper()
	logger.Discard()
	engine := NewMemoryEngine()
	return New(engine), engine
}

func TestKey(t *testing.T) {
	if got := Key("behavior", "123"); got != "behavior-123" {
		t.Errorf("Key() = %q, want %q", got, "behavior-123")
	}
	if got := Key("behaviors", "all"); got != "behaviors-all" {
		t.Errorf("Key() = %q, want %q", got, "behaviors-all")
	}
}

func TestGetSetRemove(t *testing.T) {
	ctx := context.Background()
	store, engine := setupTestStore(t)

	weight := 72.5
	log := models.BehaviorLog{
		ID:         "log-1",
		BehaviorID: "behavior-1",
		Timestamp:  time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		Quantity:   3,
		Weight:     &weight,
	}

	if err := Set(ctx, store, "behavior-log", log.ID, log); err != nil {
		t.Fatalf("Set() = %v", err)
	}
	if _, ok, _ := engine.Get(ctx, "behavior-log-log-1"); !ok {
		t.Fatal("record not written under the namespaced key")
	}

	got, err := Get[models.BehaviorLog](ctx, store, "behavior-log", log.ID)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for an existing record")
	}
	if !got.Timestamp.Equal(log.Timestamp) || got.Quantity != 3 || got.Weight == nil || *got.Weight != weight {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := store.Remove(ctx, "behavior-log", log.ID); err != nil {
		t.Fatalf("Remove() = %v", err)
	}
	got, err = Get[models.BehaviorLog](ctx, store, "behavior-log", log.ID)
	if err != nil || got != nil {
		t.Errorf("Get() after Remove = %v, %v; want nil, nil", got, err)
	}
}

func TestGetTolerance(t *testing.T) {
	ctx := context.Background()
	store, engine := setupTestStore(t)

	engine.Raw("behavior-garbage", "{not json")
	engine.Raw("behavior-null", "null")
	engine.Raw("behavior-invalid", `{"id":"invalid","name":"","type":"reps","active":true}`)

	for _, id := range []string{"missing", "garbage", "null", "invalid"} {
		t.Run(id, func(t *testing.T) {
			got, err := Get[models.Behavior](ctx, store, "behavior", id)
			if err != nil {
				t.Errorf("Get() error = %v, want nil", err)
			}
			if got != nil {
				t.Errorf("Get() = %+v, want nil", got)
			}
		})
	}
}

func TestSetRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	store, engine := setupTestStore(t)

	bad := models.Behavior{ID: "b", Name: "x", Type: "laps", Activation: models.Activation{Active: true}}
	if err := Set(ctx, store, "behavior", bad.ID, bad); err == nil {
		t.Fatal("Set() accepted a record that fails validation")
	}
	if _, ok, _ := engine.Get(ctx, "behavior-b"); ok {
		t.Error("invalid record was written")
	}
}

func TestIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	ids, err := store.IDs(ctx, "behaviors", "all")
	if err != nil {
		t.Fatalf("IDs() = %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("IDs() on a missing index = %#v, want empty slice", ids)
	}

	for _, id := range []string{"a", "b", "c", "b"} {
		if _, err := store.AppendID(ctx, "behaviors", "all", id); err != nil {
			t.Fatalf("AppendID(%q) = %v", id, err)
		}
	}
	ids, _ = store.IDs(ctx, "behaviors", "all")
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("IDs() = %v, want insertion order without duplicates", ids)
	}

	ids, err = store.RemoveID(ctx, "behaviors", "all", "b")
	if err != nil {
		t.Fatalf("RemoveID() = %v", err)
	}
	if fmt.Sprint(ids) != "[a c]" {
		t.Errorf("RemoveID() = %v", ids)
	}

	ids, _ = store.RemoveID(ctx, "behaviors", "missing", "b")
	if len(ids) != 0 {
		t.Errorf("RemoveID() on a missing index = %v", ids)
	}
}

func TestConcurrentAppendsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.AppendID(ctx, "behavior-logs", "all", fmt.Sprintf("log-%03d", i)); err != nil {
				t.Errorf("AppendID() = %v", err)
			}
		}(i)
	}
	wg.Wait()

	ids, err := store.IDs(ctx, "behavior-logs", "all")
	if err != nil {
		t.Fatalf("IDs() = %v", err)
	}
	if len(ids) != n {
		t.Fatalf("expected %d ids, got %d", n, len(ids))
	}
	sort.Strings(ids)
	for i, id := range ids {
		if want := fmt.Sprintf("log-%03d", i); id != want {
			t.Fatalf("ids[%d] = %q, want %q", i, id, want)
		}
	}
}

func TestUpdateAbort(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	if _, err := store.AppendID(ctx, "tasklist-tasks", "inbox", "t1"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	_, err := Update(ctx, store, "tasklist-tasks", "inbox", func(current *[]string) ([]string, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want %v", err, boom)
	}

	ids, _ := store.IDs(ctx, "tasklist-tasks", "inbox")
	if fmt.Sprint(ids) != "[t1]" {
		t.Errorf("aborted update changed the value: %v", ids)
	}
}

func TestMemoryEngineKeys(t *testing.T) {
	ctx := context.Background()
	engine := NewMemoryEngine()
	for _, k := range []string{"task-inbox-2", "task-inbox-1", "tasklist-tasks-inbox", "behavior-1"} {
		if err := engine.Set(ctx, k, "{}"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := engine.Keys(ctx, "task-")
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(keys) != "[task-inbox-1 task-inbox-2]" {
		t.Errorf("Keys() = %v", keys)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := engine.Get(cancelled, "behavior-1"); err == nil {
		t.Error("Get() should honor a cancelled context")
	}
}

func TestBulkIndexHelpers(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStore(t)

	if _, err := store.AppendID(ctx, "tasklist-tasks", "today", "t1", "t2", "t3", "t2"); err != nil {
		t.Fatalf("AppendID() = %v", err)
	}
	ids, err := store.RemoveID(ctx, "tasklist-tasks", "today", "t1", "t3", "missing")
	if err != nil {
		t.Fatalf("RemoveID() = %v", err)
	}
	if fmt.Sprint(ids) != "[t2]" {
		t.Errorf("RemoveID() = %v, want [t2]", ids)
	}

}
