// Package storagetest holds the behavior every storage.Engine must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/julianstephens/logbook/internal/storage"
)

// Run exercises engine against the common contract. newEngine must return a
// ready (initialized) engine with no keys.
func Run(t *testing.T, newEngine func(t *testing.T) storage.Engine) {
	t.Run("GetMissing", func(t *testing.T) {
		e := newEngine(t)
		_, found, err := e.Get(context.Background(), "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if found {
			t.Error("expected missing key to be not found")
		}
	})

	t.Run("SetGetDelete", func(t *testing.T) {
		e := newEngine(t)
		ctx := context.Background()
		if err := e.Set(ctx, "behavior-1", `{"id":"1"}`); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := e.Set(ctx, "behavior-1", `{"id":"1","name":"x"}`); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		v, found, err := e.Get(ctx, "behavior-1")
		if err != nil || !found {
			t.Fatalf("Get = %q, %v, %v", v, found, err)
		}
		if v != `{"id":"1","name":"x"}` {
			t.Errorf("Get = %q, want overwritten value", v)
		}
		if err := e.Delete(ctx, "behavior-1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, found, _ := e.Get(ctx, "behavior-1"); found {
			t.Error("expected key to be gone after Delete")
		}
		// Deleting again is not an error.
		if err := e.Delete(ctx, "behavior-1"); err != nil {
			t.Errorf("second Delete failed: %v", err)
		}
	})

	t.Run("KeysByPrefix", func(t *testing.T) {
		e := newEngine(t)
		ctx := context.Background()
		for _, k := range []string{"task-b-2", "task-a-1", "tasklists-all", "task-b-1"} {
			if err := e.Set(ctx, k, "v"); err != nil {
				t.Fatalf("Set %s failed: %v", k, err)
			}
		}
		keys, err := e.Keys(ctx, "task-b-")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if want := []string{"task-b-1", "task-b-2"}; !reflect.DeepEqual(keys, want) {
			t.Errorf("Keys = %v, want %v", keys, want)
		}
		none, err := e.Keys(ctx, "nothing-")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no keys, got %v", none)
		}
	})

	t.Run("UpdateAbort", func(t *testing.T) {
		e := newEngine(t)
		ctx := context.Background()
		if err := e.Set(ctx, "k", "before"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		boom := errors.New("boom")
		err := e.Update(ctx, "k", func(current string, found bool) (string, error) {
			return "after", boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("Update error = %v, want %v", err, boom)
		}
		if v, _, _ := e.Get(ctx, "k"); v != "before" {
			t.Errorf("aborted Update wrote %q", v)
		}
	})

	t.Run("UpdateConcurrent", func(t *testing.T) {
		e := newEngine(t)
		ctx := context.Background()
		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- e.Update(ctx, "counter", func(current string, found bool) (string, error) {
					count := 0
					if found {
						if _, err := fmt.Sscanf(current, "%d", &count); err != nil {
							return "", err
						}
					}
					return fmt.Sprintf("%d", count+1), nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
		}
		if v, _, _ := e.Get(ctx, "counter"); v != fmt.Sprintf("%d", n) {
			t.Errorf("counter = %s, want %d", v, n)
		}
	})
}
