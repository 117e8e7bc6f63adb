// Package tasks manages task lists and the tasks filed under each list.
//
// Lists are indexed under "tasklists-all". Each list owns its own task index
// "tasklist-tasks-<listId>" and task records "task-<listId>-<id>". Tasks are
// soft-deleted so history survives.
package tasks

import (
	"context"
	"sync"

	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
)

const (
	KindTaskList = "Task list"
	KindTask     = "Task"
)

var Defaults = []models.TaskList{
	{Name: "Inbox", Emoji: "📥", Color: "#4F8EF7", ListType: models.ListPermanent},
	{Name: "Today", Emoji: "☀️", Color: "#F5A623", ListType: models.ListTemporary},
	{Name: "Someday", Emoji: "💭", Color: "#9B9B9B", ListType: models.ListSomeday},
}

type (
	listCollection = collection.Collection[models.TaskList, *models.TaskList]
	taskCollection = collection.Collection[models.Task, *models.Task]
)

type Service struct {
	store  *storage.Store
	opts   []collection.Option
	policy MovePolicy
	lists  *listCollection

	mu    sync.Mutex
	tasks map[string]*taskCollection
}

func New(store *storage.Store, policy MovePolicy, opts ...collection.Option) *Service {
	if policy == "" {
		policy = MoveKeepSource
	}
	return &Service{
		store:  store,
		opts:   opts,
		policy: policy,
		lists: collection.New[models.TaskList](store, collection.Config{
			Kind:        KindTaskList,
			IndexLabel:  constants.LabelTaskLists,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelTaskList,
		}, opts...),
		tasks: make(map[string]*taskCollection),
	}
}

func (s *Service) Policy() MovePolicy { return s.policy }

// Load reads the lists. Task collections load on first use.
func (s *Service) Load(ctx context.Context) error {
	return s.lists.Load(ctx)
}

// Lists

func (s *Service) Lists() []models.TaskList { return s.lists.All() }

func (s *Service) List(id string) (models.TaskList, bool) {
	return s.lists.Get(id)
}

func (s *Service) CreateList(ctx context.Context, l models.TaskList) (models.TaskList, error) {
	return s.lists.Create(ctx, l)
}

func (s *Service) UpdateList(ctx context.Context, id string, patch models.TaskListPatch) (models.TaskList, error) {
	return s.lists.Update(ctx, id, func(l *models.TaskList) error {
		patch.Apply(l)
		return nil
	})
}

// DeleteList removes the list, then its task records and task index.
func (s *Service) DeleteList(ctx context.Context, id string) error {
	if err := s.lists.Delete(ctx, id); err != nil {
		return err
	}
	ids, err := s.store.IDs(ctx, constants.LabelTaskListTasks, id)
	if err != nil {
		return err
	}
	for _, taskID := range ids {
		if err := s.store.Remove(ctx, TaskLabel(id), taskID); err != nil {
			return err
		}
	}
	if err := s.store.Remove(ctx, constants.LabelTaskListTasks, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	return nil
}

func (s *Service) CreateDefaults(ctx context.Context) ([]models.TaskList, error) {
	created := make([]models.TaskList, 0, len(Defaults))
	for _, d := range Defaults {
		l, err := s.lists.Create(ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, l)
	}
	return created, nil
}

// Tasks

// collectionFor returns the loaded task collection of an existing list.
func (s *Service) collectionFor(ctx context.Context, listID string) (*taskCollection, error) {
	if _, err := s.lists.Fetch(ctx, listID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	c, ok := s.tasks[listID]
	if !ok {
		c = collection.New[models.Task](s.store, collection.Config{
			Kind:        KindTask,
			IndexLabel:  constants.LabelTaskListTasks,
			IndexID:     listID,
			EntityLabel: TaskLabel(listID),
		}, s.opts...)
		s.tasks[listID] = c
	}
	s.mu.Unlock()

	if c.Loading() {
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Tasks returns every task in the list, deleted ones included.
func (s *Service) Tasks(ctx context.Context, listID string) ([]models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return nil, err
	}
	return c.All(), nil
}

func (s *Service) ActiveTasks(ctx context.Context, listID string) ([]models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return nil, err
	}
	return c.Active(), nil
}

func (s *Service) DeletedTasks(ctx context.Context, listID string) ([]models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return nil, err
	}
	return c.Inactive(), nil
}

func (s *Service) CreateTask(ctx context.Context, listID string, t models.Task) (models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return models.Task{}, err
	}
	return c.Create(ctx, t)
}

func (s *Service) UpdateTask(ctx context.Context, listID, id string, patch models.TaskPatch) (models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return models.Task{}, err
	}
	return c.Update(ctx, id, func(t *models.Task) error {
		patch.Apply(t)
		return nil
	})
}

func (s *Service) ToggleTask(ctx context.Context, listID, id string) (models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return models.Task{}, err
	}
	return c.Update(ctx, id, func(t *models.Task) error {
		t.Completed = !t.Completed
		return nil
	})
}

// Bulk wrappers refresh the affected lists after writing.

func (s *Service) MoveTasks(ctx context.Context, tasks []models.Task, sourceListID, destListID string) error {
	if _, err := s.collectionFor(ctx, destListID); err != nil {
		return err
	}
	if _, err := s.collectionFor(ctx, sourceListID); err != nil {
		return err
	}
	if err := MoveTasks(ctx, s.store, tasks, sourceListID, destListID, s.policy); err != nil {
		return err
	}
	return s.refresh(ctx, sourceListID, destListID)
}

func (s *Service) DeleteTasks(ctx context.Context, tasks []models.Task, listID string) error {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return err
	}
	if err := DeleteTasks(ctx, s.store, tasks, listID, c.Now()); err != nil {
		return err
	}
	return s.refresh(ctx, listID)
}

func (s *Service) RestoreTasks(ctx context.Context, tasks []models.Task, listID string) error {
	if _, err := s.collectionFor(ctx, listID); err != nil {
		return err
	}
	if err := RestoreTasks(ctx, s.store, tasks, listID); err != nil {
		return err
	}
	return s.refresh(ctx, listID)
}

func (s *Service) SetTasksCompleted(ctx context.Context, tasks []models.Task, listID string, completed bool) error {
	if _, err := s.collectionFor(ctx, listID); err != nil {
		return err
	}
	if err := SetTasksCompleted(ctx, s.store, tasks, listID, completed); err != nil {
		return err
	}
	return s.refresh(ctx, listID)
}

// FindTasks resolves ids within a list, failing on the first unknown id.
func (s *Service) FindTasks(ctx context.Context, listID string, ids []string) ([]models.Task, error) {
	c, err := s.collectionFor(ctx, listID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		t, err := c.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Service) refresh(ctx context.Context, listIDs ...string) error {
	for _, id := range listIDs {
		s.mu.Lock()
		c, ok := s.tasks[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		if err := c.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}
