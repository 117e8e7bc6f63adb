// Package behaviors tracks habits and the logs recorded against them.
package behaviors

import (
	"context"
	"sort"
	"time"

	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/utils"
)

const (
	KindBehavior    = "Behavior"
	KindBehaviorLog = "Behavior log"
)

// Defaults seeds a fresh install.
var Defaults = []models.Behavior{
	{Name: "Push-ups", Type: models.BehaviorReps, Units: "reps"},
	{Name: "Meditation", Type: models.BehaviorDuration, Units: "minutes"},
	{Name: "Squat", Type: models.BehaviorWeight, Units: "lbs"},
	{Name: "Water", Type: models.BehaviorCount, Units: "glasses"},
}

type (
	behaviorCollection = collection.Collection[models.Behavior, *models.Behavior]
	logCollection      = collection.Collection[models.BehaviorLog, *models.BehaviorLog]
)

type Service struct {
	behaviors *behaviorCollection
	logs      *logCollection
}

func New(store *storage.Store, opts ...collection.Option) *Service {
	return &Service{
		behaviors: collection.New[models.Behavior](store, collection.Config{
			Kind:        KindBehavior,
			IndexLabel:  constants.LabelBehaviors,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelBehavior,
		}, opts...),
		logs: collection.New[models.BehaviorLog](store, collection.Config{
			Kind:        KindBehaviorLog,
			IndexLabel:  constants.LabelBehaviorLogs,
			IndexID:     constants.IndexID,
			EntityLabel: constants.LabelBehaviorLog,
		}, opts...),
	}
}

// Load reads behaviors and logs.
func (s *Service) Load(ctx context.Context) error {
	if err := s.behaviors.Load(ctx); err != nil {
		return err
	}
	return s.logs.Load(ctx)
}

func (s *Service) Loading() bool {
	return s.behaviors.Loading() || s.logs.Loading()
}

// Behaviors

func (s *Service) Behaviors() []models.Behavior         { return s.behaviors.All() }
func (s *Service) ActiveBehaviors() []models.Behavior   { return s.behaviors.Active() }
func (s *Service) InactiveBehaviors() []models.Behavior { return s.behaviors.Inactive() }

func (s *Service) Behavior(id string) (models.Behavior, bool) {
	return s.behaviors.Get(id)
}

func (s *Service) CreateBehavior(ctx context.Context, b models.Behavior) (models.Behavior, error) {
	return s.behaviors.Create(ctx, b)
}

func (s *Service) UpdateBehavior(ctx context.Context, id string, patch models.BehaviorPatch) (models.Behavior, error) {
	return s.behaviors.Update(ctx, id, func(b *models.Behavior) error {
		patch.Apply(b)
		return nil
	})
}

func (s *Service) DeactivateBehavior(ctx context.Context, id string) (models.Behavior, error) {
	return s.behaviors.Deactivate(ctx, id)
}

func (s *Service) ReactivateBehavior(ctx context.Context, id string) (models.Behavior, error) {
	return s.behaviors.Reactivate(ctx, id)
}

// DeleteBehavior hard-deletes the behavior. Its logs are left in place.
func (s *Service) DeleteBehavior(ctx context.Context, id string) error {
	return s.behaviors.Delete(ctx, id)
}

// CreateDefaults creates the starter behaviors one at a time.
func (s *Service) CreateDefaults(ctx context.Context) ([]models.Behavior, error) {
	created := make([]models.Behavior, 0, len(Defaults))
	for _, d := range Defaults {
		b, err := s.behaviors.Create(ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, b)
	}
	return created, nil
}

// Logs

func (s *Service) Logs() []models.BehaviorLog { return s.logs.All() }

func (s *Service) Log(id string) (models.BehaviorLog, bool) {
	return s.logs.Get(id)
}

// CreateLog records a log against an existing, possibly deactivated,
// behavior. The timestamp defaults to now.
func (s *Service) CreateLog(ctx context.Context, l models.BehaviorLog) (models.BehaviorLog, error) {
	if _, err := s.behaviors.Fetch(ctx, l.BehaviorID); err != nil {
		return models.BehaviorLog{}, err
	}
	return s.logs.Create(ctx, l)
}

func (s *Service) UpdateLog(ctx context.Context, id string, patch models.BehaviorLogPatch) (models.BehaviorLog, error) {
	return s.logs.Update(ctx, id, func(l *models.BehaviorLog) error {
		patch.Apply(l)
		return nil
	})
}

func (s *Service) DeleteLog(ctx context.Context, id string) error {
	return s.logs.Delete(ctx, id)
}

// LogsForBehavior returns the behavior's logs, newest first.
func (s *Service) LogsForBehavior(behaviorID string) []models.BehaviorLog {
	logs := s.logs.Filter(func(l *models.BehaviorLog) bool { return l.BehaviorID == behaviorID })
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp.After(logs[j].Timestamp) })
	return logs
}

// LogsByDateRange returns logs with start <= timestamp <= end.
func (s *Service) LogsByDateRange(start, end time.Time) []models.BehaviorLog {
	return s.logs.Filter(func(l *models.BehaviorLog) bool {
		return !l.Timestamp.Before(start) && !l.Timestamp.After(end)
	})
}

// DailyTotal sums quantity over the behavior's logs in the calendar day of date.
func (s *Service) DailyTotal(behaviorID string, date time.Time) float64 {
	total := 0.0
	for _, l := range s.logs.All() {
		if l.BehaviorID == behaviorID && utils.InDay(l.Timestamp, date) {
			total += l.Quantity
		}
	}
	return total
}
