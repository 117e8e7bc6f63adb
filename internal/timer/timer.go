// Package timer runs the activity timer.
//
// There is at most one session. It lives in storage under
// "activity-session-current" so every process sees the same timer, and all
// transitions go through Controller.
//
//	Idle --Start--> Running --Pause--> Paused --Resume--> Running
//	Running|Paused --Stop/Complete--> Idle
//	Running|Paused --Switch--> Running (previous log pushed, paused)
//	any --ResumePrevious--> Running (top of the stack popped, resumed)
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/binding"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/idgen"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/utils"
)

var (
	ErrNoSession        = errors.New("no activity is being timed")
	ErrSessionActive    = errors.New("an activity is already being timed, switch to it instead")
	ErrAlreadyPaused    = errors.New("timer is already paused")
	ErrNotPaused        = errors.New("timer is not paused")
	ErrNoPausedActivity = errors.New("no paused activity to go back to")
)

// Notifier receives a short message after every transition.
type Notifier interface {
	Notify(text string) error
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(gen idgen.Generator) Option {
	return func(c *Controller) { c.newID = gen }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

type Controller struct {
	session    *binding.Record[models.ActivitySession]
	activities *activities.Service
	now        func() time.Time
	newID      idgen.Generator
	notifier   Notifier
}

func NewController(store *storage.Store, acts *activities.Service, opts ...Option) *Controller {
	c := &Controller{
		session:    binding.New[models.ActivitySession](store, constants.LabelActivitySession, constants.SessionID),
		activities: acts,
		now:        time.Now,
		newID:      idgen.New,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Duration is the running time between start and end: the wall-clock span
// minus every pause interval, with an open interval closing at end.
func Duration(start, end time.Time, intervals []models.PauseInterval) time.Duration {
	total := end.Sub(start)
	for _, p := range intervals {
		total -= p.Span(end)
	}
	if total < 0 {
		return 0
	}
	return total
}

// Session returns the current session, or nil when idle.
func (c *Controller) Session(ctx context.Context) (*models.ActivitySession, error) {
	if err := c.session.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.session.Data(), nil
}

// OnChange calls fn with the session after every read or transition, nil
// once the timer stops.
func (c *Controller) OnChange(fn func(*models.ActivitySession)) (cancel func()) {
	return c.session.Subscribe(fn)
}

// Elapsed is the running time of the current log so far.
func (c *Controller) Elapsed(ctx context.Context) (time.Duration, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, ErrNoSession
	}
	return Duration(s.CurrentLog.StartTime, c.now(), s.CurrentLog.PauseIntervals), nil
}

// Start begins timing activityID. Starting while another session exists is
// an error; use Switch.
func (c *Controller) Start(ctx context.Context, activityID string) (models.ActivitySession, error) {
	now := c.now()
	if _, err := c.activities.FetchInstance(ctx, activityID); err != nil {
		return models.ActivitySession{}, err
	}
	s, err := c.update(ctx, func(current *models.ActivitySession) (models.ActivitySession, error) {
		if current != nil {
			return models.ActivitySession{}, ErrSessionActive
		}
		return models.ActivitySession{
			CurrentLog:          c.newLog(activityID, now),
			PausedActivityStack: []models.ActivityLog{},
		}, nil
	})
	if err != nil {
		return s, err
	}
	c.touch(ctx, activityID, now)
	c.notify(ctx, "Started", s)
	return s, nil
}

func (c *Controller) Pause(ctx context.Context) (models.ActivitySession, error) {
	now := c.now()
	s, err := c.update(ctx, func(current *models.ActivitySession) (models.ActivitySession, error) {
		if current == nil {
			return models.ActivitySession{}, ErrNoSession
		}
		if current.IsPaused {
			return models.ActivitySession{}, ErrAlreadyPaused
		}
		next := *current
		pause(&next, now)
		return next, nil
	})
	if err != nil {
		return s, err
	}
	c.notify(ctx, "Paused", s)
	return s, nil
}

func (c *Controller) Resume(ctx context.Context) (models.ActivitySession, error) {
	now := c.now()
	s, err := c.update(ctx, func(current *models.ActivitySession) (models.ActivitySession, error) {
		if current == nil {
			return models.ActivitySession{}, ErrNoSession
		}
		if !current.IsPaused {
			return models.ActivitySession{}, ErrNotPaused
		}
		next := *current
		resume(&next, now)
		return next, nil
	})
	if err != nil {
		return s, err
	}
	c.notify(ctx, "Resumed", s)
	return s, nil
}

// Switch pauses the current log, pushes it onto the paused stack and starts
// timing activityID. With no session it behaves like Start.
func (c *Controller) Switch(ctx context.Context, activityID string) (models.ActivitySession, error) {
	now := c.now()
	if _, err := c.activities.FetchInstance(ctx, activityID); err != nil {
		return models.ActivitySession{}, err
	}
	s, err := c.update(ctx, func(current *models.ActivitySession) (models.ActivitySession, error) {
		if current == nil {
			return models.ActivitySession{
				CurrentLog:          c.newLog(activityID, now),
				PausedActivityStack: []models.ActivityLog{},
			}, nil
		}
		prev := *current
		if !prev.IsPaused {
			pause(&prev, now)
		}
		stack := append(append([]models.ActivityLog{}, current.PausedActivityStack...), prev.CurrentLog)
		return models.ActivitySession{
			CurrentLog:          c.newLog(activityID, now),
			PausedActivityStack: stack,
		}, nil
	})
	if err != nil {
		return s, err
	}
	c.touch(ctx, activityID, now)
	c.notify(ctx, "Switched to", s)
	return s, nil
}

// ResumePrevious pops the most recently paused log and resumes it. A
// current log, if any, is finalized and saved first.
func (c *Controller) ResumePrevious(ctx context.Context) (models.ActivitySession, error) {
	now := c.now()
	var finished *models.ActivityLog
	s, err := c.update(ctx, func(current *models.ActivitySession) (models.ActivitySession, error) {
		if current == nil || len(current.PausedActivityStack) == 0 {
			return models.ActivitySession{}, ErrNoPausedActivity
		}
		done := finalize(current.CurrentLog, now)
		finished = &done

		stack := current.PausedActivityStack
		top := stack[len(stack)-1]
		next := models.ActivitySession{
			CurrentLog:          top,
			IsPaused:            top.OpenPause() >= 0,
			PausedActivityStack: append([]models.ActivityLog{}, stack[:len(stack)-1]...),
		}
		if next.IsPaused {
			resume(&next, now)
		}
		return next, nil
	})
	if err != nil {
		return s, err
	}
	if finished != nil {
		if _, err := c.activities.SaveLog(ctx, *finished); err != nil {
			return s, fmt.Errorf("failed to save finished log: %w", err)
		}
	}
	c.touch(ctx, s.CurrentLog.ActivityID, now)
	c.notify(ctx, "Back to", s)
	return s, nil
}

// Stop finalizes and saves the current log and clears the session. Logs on
// the paused stack are finalized too, so no tracked time is dropped. The
// current log is returned.
func (c *Controller) Stop(ctx context.Context) (models.ActivityLog, error) {
	now := c.now()
	s, err := c.Session(ctx)
	if err != nil {
		return models.ActivityLog{}, err
	}
	if s == nil {
		return models.ActivityLog{}, ErrNoSession
	}

	current := finalize(s.CurrentLog, now)
	for _, l := range s.PausedActivityStack {
		if _, err := c.activities.SaveLog(ctx, finalize(l, now)); err != nil {
			return models.ActivityLog{}, fmt.Errorf("failed to save paused log: %w", err)
		}
	}
	saved, err := c.activities.SaveLog(ctx, current)
	if err != nil {
		return models.ActivityLog{}, fmt.Errorf("failed to save log: %w", err)
	}
	if err := c.session.Clear(ctx); err != nil {
		return saved, err
	}
	c.touch(ctx, saved.ActivityID, now)
	c.notifyText(fmt.Sprintf("Stopped after %s", utils.FormatDuration(saved.Elapsed())))
	return saved, nil
}

// Complete stops the timer and marks the current activity completed.
func (c *Controller) Complete(ctx context.Context) (models.ActivityLog, error) {
	saved, err := c.Stop(ctx)
	if err != nil {
		return saved, err
	}
	if _, err := c.activities.CompleteInstance(ctx, saved.ActivityID); err != nil {
		return saved, err
	}
	return saved, nil
}

func (c *Controller) update(ctx context.Context, fn func(*models.ActivitySession) (models.ActivitySession, error)) (models.ActivitySession, error) {
	return c.session.Update(ctx, fn)
}

func (c *Controller) newLog(activityID string, now time.Time) models.ActivityLog {
	return models.ActivityLog{
		ID:             c.newID(),
		ActivityID:     activityID,
		StartTime:      now,
		PauseIntervals: []models.PauseInterval{},
	}
}

func pause(s *models.ActivitySession, now time.Time) {
	s.CurrentLog.PauseIntervals = append(append([]models.PauseInterval{}, s.CurrentLog.PauseIntervals...),
		models.PauseInterval{PausedAt: now})
	s.IsPaused = true
}

// resume closes the open pause interval and recomputes the duration.
func resume(s *models.ActivitySession, now time.Time) {
	l := &s.CurrentLog
	l.PauseIntervals = append([]models.PauseInterval{}, l.PauseIntervals...)
	if i := l.OpenPause(); i >= 0 {
		ts := now
		l.PauseIntervals[i].ResumedAt = &ts
	}
	l.Duration = Duration(l.StartTime, now, l.PauseIntervals).Milliseconds()
	s.IsPaused = false
}

// finalize closes any open pause at now, sets the end time and the duration.
func finalize(l models.ActivityLog, now time.Time) models.ActivityLog {
	l.PauseIntervals = append([]models.PauseInterval{}, l.PauseIntervals...)
	if i := l.OpenPause(); i >= 0 {
		ts := now
		l.PauseIntervals[i].ResumedAt = &ts
	}
	end := now
	l.EndTime = &end
	l.Duration = Duration(l.StartTime, now, l.PauseIntervals).Milliseconds()
	return l
}

// touch is best effort: a missing instance must not fail a transition.
func (c *Controller) touch(ctx context.Context, activityID string, now time.Time) {
	if _, err := c.activities.TouchInstance(ctx, activityID, now); err != nil {
		logger.Warn("Failed to update activity last-active time", "activity", activityID, "error", err)
	}
}

func (c *Controller) notify(ctx context.Context, verb string, s models.ActivitySession) {
	if c.notifier == nil {
		return
	}
	title := s.CurrentLog.ActivityID
	if a, err := c.activities.FetchInstance(ctx, s.CurrentLog.ActivityID); err == nil {
		title = a.Title
	}
	c.notifyText(fmt.Sprintf("%s: %s", verb, title))
}

func (c *Controller) notifyText(text string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(text); err != nil {
		logger.Debug("Timer notification not delivered", "error", err)
	}
}
