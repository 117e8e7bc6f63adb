package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
)

// MovePolicy decides what happens to the source copy of a moved task.
type MovePolicy string

const (
	// MoveKeepSource leaves the source record in place as a soft archive.
	// Only the source index loses the id.
	MoveKeepSource MovePolicy = "keep-source"
	// MovePurgeSource deletes the source record after the copy lands.
	MovePurgeSource MovePolicy = "purge-source"
)

func ParseMovePolicy(s string) (MovePolicy, error) {
	switch MovePolicy(s) {
	case MoveKeepSource, MovePurgeSource:
		return MovePolicy(s), nil
	case "":
		return MovePolicy(constants.DefaultMovePolicy), nil
	}
	return "", errors.Validation("move_policy", "must be %q or %q, got %q", MoveKeepSource, MovePurgeSource, s)
}

// TaskLabel is the entity label for tasks in listID: keys are "task-<listId>-<id>".
func TaskLabel(listID string) string {
	return constants.LabelTask + "-" + listID
}

// MoveTask copies task into destListID, indexes it there and drops it from
// the source index. The source record is handled per policy.
func MoveTask(ctx context.Context, store *storage.Store, task models.Task, sourceListID, destListID string, policy MovePolicy) error {
	if sourceListID == destListID {
		return nil
	}
	current, err := storage.Get[models.Task](ctx, store, TaskLabel(sourceListID), task.ID)
	if err != nil {
		return err
	}
	if current == nil {
		// Fall back to the caller's copy when the source record is gone.
		current = &task
	}

	if err := storage.Set(ctx, store, TaskLabel(destListID), task.ID, *current); err != nil {
		return err
	}
	if _, err := store.AppendID(ctx, constants.LabelTaskListTasks, destListID, task.ID); err != nil {
		return err
	}
	if _, err := store.RemoveID(ctx, constants.LabelTaskListTasks, sourceListID, task.ID); err != nil {
		return err
	}
	if policy == MovePurgeSource {
		return store.Remove(ctx, TaskLabel(sourceListID), task.ID)
	}
	return nil
}

// MoveTasks moves each task in order, stopping at the first failure.
func MoveTasks(ctx context.Context, store *storage.Store, tasks []models.Task, sourceListID, destListID string, policy MovePolicy) error {
	for _, t := range tasks {
		if err := MoveTask(ctx, store, t, sourceListID, destListID, policy); err != nil {
			return fmt.Errorf("failed to move task %s: %w", t.ID, err)
		}
	}
	return nil
}

// DeleteTasks soft-deletes each task by stamping DeletedAt. Records and index
// membership are kept. Already deleted tasks keep their original stamp.
func DeleteTasks(ctx context.Context, store *storage.Store, tasks []models.Task, listID string, now time.Time) error {
	return updateEach(ctx, store, tasks, listID, func(t *models.Task) {
		if t.DeletedAt == nil {
			ts := now
			t.DeletedAt = &ts
		}
	})
}

// RestoreTasks clears DeletedAt.
func RestoreTasks(ctx context.Context, store *storage.Store, tasks []models.Task, listID string) error {
	return updateEach(ctx, store, tasks, listID, func(t *models.Task) {
		t.DeletedAt = nil
	})
}

func SetTasksCompleted(ctx context.Context, store *storage.Store, tasks []models.Task, listID string, completed bool) error {
	return updateEach(ctx, store, tasks, listID, func(t *models.Task) {
		t.Completed = completed
	})
}

func updateEach(ctx context.Context, store *storage.Store, tasks []models.Task, listID string, mutate func(*models.Task)) error {
	for _, task := range tasks {
		_, err := storage.Update(ctx, store, TaskLabel(listID), task.ID, func(current *models.Task) (models.Task, error) {
			if current == nil {
				return models.Task{}, errors.NotFound(KindTask, task.ID)
			}
			next := *current
			mutate(&next)
			return next, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
