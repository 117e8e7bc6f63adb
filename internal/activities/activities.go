// Package activities manages activity types, the activity instances filed
// under them and the timed logs recorded for each instance.
package activities

import (
	"context"
	"sort"
	"time"

	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
)

const (
	KindType     = "Activity type"
	KindInstance = "Activity"
	KindLog      = "Activity log"
)

var Defaults = []models.ActivityType{
	{Name: "Work", Color: "#4F8EF7"},
	{Name: "Study", Color: "#7ED321"},
	{Name: "Exercise", Color: "#D0021B"},
	{Name: "Chores", Color: "#F5A623"},
}

type (
	typeCollection     = collection.Collection[models.ActivityType, *models.ActivityType]
	instanceCollection = collection.Collection[models.ActivityInstance, *models.ActivityInstance]
	logCollection      = collection.Collection[models.ActivityLog, *models.ActivityLog]
)

type Service struct {
	types     *typeCollection
	instances *instanceCollection
	logs      *logCollection
}

func New(store *storage.Store, opts ...collection.Option) *Service {
	return &Service{
		types: collection.New[models.ActivityType](store, collection.Config{
			Kind:        KindType,
			IndexLabel:  constants.LabelActivityTypes,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelActivityType,
		}, opts...),
		instances: collection.New[models.ActivityInstance](store, collection.Config{
			Kind:        KindInstance,
			IndexLabel:  constants.LabelActivityInstances,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelActivityInstance,
		}, opts...),
		logs: collection.New[models.ActivityLog](store, collection.Config{
			Kind:        KindLog,
			IndexLabel:  constants.LabelActivityLogs,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelActivityLog,
		}, opts...),
	}
}

func (s *Service) Load(ctx context.Context) error {
	if err := s.types.Load(ctx); err != nil {
		return err
	}
	if err := s.instances.Load(ctx); err != nil {
		return err
	}
	return s.logs.Load(ctx)
}

// Types

func (s *Service) Types() []models.ActivityType         { return s.types.All() }
func (s *Service) ActiveTypes() []models.ActivityType   { return s.types.Active() }
func (s *Service) InactiveTypes() []models.ActivityType { return s.types.Inactive() }

func (s *Service) Type(id string) (models.ActivityType, bool) {
	return s.types.Get(id)
}

func (s *Service) CreateType(ctx context.Context, t models.ActivityType) (models.ActivityType, error) {
	return s.types.Create(ctx, t)
}

func (s *Service) UpdateType(ctx context.Context, id string, patch models.ActivityTypePatch) (models.ActivityType, error) {
	return s.types.Update(ctx, id, func(t *models.ActivityType) error {
		patch.Apply(t)
		return nil
	})
}

func (s *Service) DeactivateType(ctx context.Context, id string) (models.ActivityType, error) {
	return s.types.Deactivate(ctx, id)
}

func (s *Service) ReactivateType(ctx context.Context, id string) (models.ActivityType, error) {
	return s.types.Reactivate(ctx, id)
}

func (s *Service) DeleteType(ctx context.Context, id string) error {
	return s.types.Delete(ctx, id)
}

func (s *Service) CreateDefaults(ctx context.Context) ([]models.ActivityType, error) {
	created := make([]models.ActivityType, 0, len(Defaults))
	for _, d := range Defaults {
		t, err := s.types.Create(ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, t)
	}
	return created, nil
}

// Instances

func (s *Service) Instances() []models.ActivityInstance { return s.instances.All() }

// FetchInstance reads an instance straight from storage.
func (s *Service) FetchInstance(ctx context.Context, id string) (models.ActivityInstance, error) {
	return s.instances.Fetch(ctx, id)
}

// OpenInstances returns incomplete instances, most recently active first.
func (s *Service) OpenInstances() []models.ActivityInstance {
	open := s.instances.Filter(func(a *models.ActivityInstance) bool { return !a.Completed })
	sort.SliceStable(open, func(i, j int) bool { return open[i].LastActiveAt.After(open[j].LastActiveAt) })
	return open
}

func (s *Service) CreateInstance(ctx context.Context, a models.ActivityInstance) (models.ActivityInstance, error) {
	if _, err := s.types.Fetch(ctx, a.TypeID); err != nil {
		return models.ActivityInstance{}, err
	}
	return s.instances.Create(ctx, a)
}

func (s *Service) UpdateInstance(ctx context.Context, id string, patch models.ActivityInstancePatch) (models.ActivityInstance, error) {
	if patch.TypeID != nil {
		if _, err := s.types.Fetch(ctx, *patch.TypeID); err != nil {
			return models.ActivityInstance{}, err
		}
	}
	return s.instances.Update(ctx, id, func(a *models.ActivityInstance) error {
		patch.Apply(a)
		return nil
	})
}

func (s *Service) CompleteInstance(ctx context.Context, id string) (models.ActivityInstance, error) {
	now := s.instances.Now()
	return s.instances.Update(ctx, id, func(a *models.ActivityInstance) error {
		a.SetCompleted(true, now)
		return nil
	})
}

func (s *Service) ReopenInstance(ctx context.Context, id string) (models.ActivityInstance, error) {
	return s.instances.Update(ctx, id, func(a *models.ActivityInstance) error {
		a.SetCompleted(false, time.Time{})
		return nil
	})
}

// TouchInstance stamps LastActiveAt with now.
func (s *Service) TouchInstance(ctx context.Context, id string, now time.Time) (models.ActivityInstance, error) {
	return s.instances.Update(ctx, id, func(a *models.ActivityInstance) error {
		a.LastActiveAt = now
		return nil
	})
}

func (s *Service) DeleteInstance(ctx context.Context, id string) error {
	return s.instances.Delete(ctx, id)
}

// Logs

func (s *Service) Logs() []models.ActivityLog { return s.logs.All() }

// SaveLog persists a finished log, keeping its id when it already has one.
func (s *Service) SaveLog(ctx context.Context, l models.ActivityLog) (models.ActivityLog, error) {
	l.Initialize(s.logs.NewID(), s.logs.Now())
	return s.logs.Insert(ctx, l)
}

func (s *Service) DeleteLog(ctx context.Context, id string) error {
	return s.logs.Delete(ctx, id)
}

// LogsForActivity returns the activity's logs, newest first.
func (s *Service) LogsForActivity(activityID string) []models.ActivityLog {
	logs := s.logs.Filter(func(l *models.ActivityLog) bool { return l.ActivityID == activityID })
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].StartTime.After(logs[j].StartTime) })
	return logs
}

// LogsByDateRange returns logs with start <= startTime <= end.
func (s *Service) LogsByDateRange(start, end time.Time) []models.ActivityLog {
	return s.logs.Filter(func(l *models.ActivityLog) bool {
		return !l.StartTime.Before(start) && !l.StartTime.After(end)
	})
}

// TotalDuration sums the tracked time of every log of the activity.
func (s *Service) TotalDuration(activityID string) time.Duration {
	var total time.Duration
	for _, l := range s.logs.All() {
		if l.ActivityID == activityID {
			total += l.Elapsed()
		}
	}
	return total
}
