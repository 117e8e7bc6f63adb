package timer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/collection"
	"github.com/julianstephens/logbook/internal/idgen"
	"github.com/julianstephens/logbook/internal/logger"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recorder struct{ messages []string }

func (r *recorder) Notify(text string) error {
	r.messages = append(r.messages, text)
	return nil
}

type fixture struct {
	ctl   *Controller
	acts  *activities.Service
	store *storage.Store
	clock *clock
	notes *recorder
	a, b  models.ActivityInstance
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger.Discard()
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	store := storage.NewMemory()
	acts := activities.New(store,
		collection.WithClock(clk.now),
		collection.WithIDGenerator(idgen.Sequence("act")))
	if err := acts.Load(ctx); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	types, err := acts.CreateDefaults(ctx)
	if err != nil {
		t.Fatalf("CreateDefaults() = %v", err)
	}
	a, err := acts.CreateInstance(ctx, models.ActivityInstance{Title: "Write report", TypeID: types[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	b, err := acts.CreateInstance(ctx, models.ActivityInstance{Title: "Answer email", TypeID: types[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	notes := &recorder{}
	ctl := NewController(store, acts,
		WithClock(clk.now),
		WithIDGenerator(idgen.Sequence("log")),
		WithNotifier(notes))
	return &fixture{ctl: ctl, acts: acts, store: store, clock: clk, notes: notes, a: a, b: b}
}

func TestDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return start.Add(time.Duration(m) * time.Minute) }
	ptr := func(v time.Time) *time.Time { return &v }

	tests := []struct {
		name      string
		end       time.Time
		intervals []models.PauseInterval
		want      time.Duration
	}{
		{"no pauses", at(60), nil, 60 * time.Minute},
		{"one closed pause", at(60), []models.PauseInterval{{PausedAt: at(10), ResumedAt: ptr(at(25))}}, 45 * time.Minute},
		{"open pause closes at end", at(60), []models.PauseInterval{{PausedAt: at(50)}}, 50 * time.Minute},
		{"two pauses", at(60), []models.PauseInterval{
			{PausedAt: at(5), ResumedAt: ptr(at(10))},
			{PausedAt: at(30), ResumedAt: ptr(at(40))},
		}, 45 * time.Minute},
		{"never negative", at(0), []models.PauseInterval{{PausedAt: at(-5)}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(start, tt.end, tt.intervals); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartPauseResumeStop(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := f.clock.now()

	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	f.clock.advance(10 * time.Minute)
	s, err := f.ctl.Pause(ctx)
	if err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	if !s.IsPaused || len(s.CurrentLog.PauseIntervals) != 1 {
		t.Errorf("paused session = %+v", s)
	}
	f.clock.advance(7 * time.Minute)
	if _, err := f.ctl.Resume(ctx); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	f.clock.advance(20 * time.Minute)

	elapsed, err := f.ctl.Elapsed(ctx)
	if err != nil || elapsed != 30*time.Minute {
		t.Errorf("Elapsed() = %v, %v", elapsed, err)
	}

	log, err := f.ctl.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	stop := f.clock.now()
	want := stop.Sub(start) - 7*time.Minute
	if log.Elapsed() != want {
		t.Errorf("duration = %v, want %v", log.Elapsed(), want)
	}
	if log.EndTime == nil || !log.EndTime.Equal(stop) {
		t.Errorf("EndTime = %v", log.EndTime)
	}

	if s, _ := f.ctl.Session(ctx); s != nil {
		t.Errorf("session not cleared: %+v", s)
	}
	if got := f.acts.LogsForActivity(f.a.ID); len(got) != 1 || got[0].ID != log.ID {
		t.Errorf("saved logs = %+v", got)
	}
}

func TestStopWhilePausedClosesInterval(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(15 * time.Minute)
	if _, err := f.ctl.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(45 * time.Minute)

	log, err := f.ctl.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if log.Elapsed() != 15*time.Minute {
		t.Errorf("duration = %v, want 15m", log.Elapsed())
	}
	if log.PauseIntervals[0].ResumedAt == nil {
		t.Error("open pause not closed at stop")
	}
}

func TestTransitionErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.ctl.Pause(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Pause() idle = %v", err)
	}
	if _, err := f.ctl.Resume(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Resume() idle = %v", err)
	}
	if _, err := f.ctl.Stop(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Stop() idle = %v", err)
	}
	if _, err := f.ctl.Elapsed(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("Elapsed() idle = %v", err)
	}
	if _, err := f.ctl.ResumePrevious(ctx); !errors.Is(err, ErrNoPausedActivity) {
		t.Errorf("ResumePrevious() idle = %v", err)
	}
	if _, err := f.ctl.Start(ctx, "ghost"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Start(ghost) = %v", err)
	}

	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctl.Start(ctx, f.b.ID); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start() = %v", err)
	}
	if _, err := f.ctl.Resume(ctx); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume() running = %v", err)
	}
	if _, err := f.ctl.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ctl.Pause(ctx); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("Pause() paused = %v", err)
	}
}

func TestSwitchAndResumePrevious(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(10 * time.Minute)
	s, err := f.ctl.Switch(ctx, f.b.ID)
	if err != nil {
		t.Fatalf("Switch() = %v", err)
	}
	if s.CurrentLog.ActivityID != f.b.ID || s.IsPaused || len(s.PausedActivityStack) != 1 {
		t.Fatalf("session after switch = %+v", s)
	}
	if pushed := s.PausedActivityStack[0]; pushed.ActivityID != f.a.ID || pushed.OpenPause() < 0 {
		t.Errorf("pushed log = %+v", pushed)
	}

	f.clock.advance(5 * time.Minute)
	s, err = f.ctl.ResumePrevious(ctx)
	if err != nil {
		t.Fatalf("ResumePrevious() = %v", err)
	}
	if s.CurrentLog.ActivityID != f.a.ID || s.IsPaused || len(s.PausedActivityStack) != 0 {
		t.Fatalf("session after resume-previous = %+v", s)
	}
	// The interrupting log was finished and saved.
	if logs := f.acts.LogsForActivity(f.b.ID); len(logs) != 1 || logs[0].Elapsed() != 5*time.Minute {
		t.Errorf("interrupting logs = %+v", logs)
	}

	f.clock.advance(20 * time.Minute)
	log, err := f.ctl.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	// 35 minutes of wall time, 5 of them spent on the other activity.
	if log.Elapsed() != 30*time.Minute {
		t.Errorf("resumed log duration = %v, want 30m", log.Elapsed())
	}
}

func TestStopSavesPausedStack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(8 * time.Minute)
	if _, err := f.ctl.Switch(ctx, f.b.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(4 * time.Minute)
	if _, err := f.ctl.Stop(ctx); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	if logs := f.acts.LogsForActivity(f.a.ID); len(logs) != 1 || logs[0].Elapsed() != 8*time.Minute {
		t.Errorf("stacked log = %+v", logs)
	}
	if logs := f.acts.LogsForActivity(f.b.ID); len(logs) != 1 || logs[0].Elapsed() != 4*time.Minute {
		t.Errorf("current log = %+v", logs)
	}
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(time.Minute)
	if _, err := f.ctl.Complete(ctx); err != nil {
		t.Fatalf("Complete() = %v", err)
	}
	a, err := f.acts.FetchInstance(ctx, f.a.ID)
	if err != nil || !a.Completed {
		t.Errorf("instance after Complete() = %+v, %v", a, err)
	}
}

func TestSessionSharedThroughStorage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}

	// A second controller over the same store sees and drives the same session.
	other := NewController(f.store, f.acts, WithClock(f.clock.now))
	f.clock.advance(3 * time.Minute)
	if _, err := other.Pause(ctx); err != nil {
		t.Fatalf("Pause() from second controller = %v", err)
	}
	s, _ := f.ctl.Session(ctx)
	if s == nil || !s.IsPaused {
		t.Errorf("first controller sees %+v", s)
	}
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.advance(90 * time.Second)
	if _, err := f.ctl.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.notes.messages) != 2 || f.notes.messages[0] != "Started: Write report" {
		t.Errorf("messages = %q", f.notes.messages)
	}
}

func TestOnChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var seen []string
	cancel := f.ctl.OnChange(func(s *models.ActivitySession) {
		switch {
		case s == nil:
			seen = append(seen, "idle")
		case s.IsPaused:
			seen = append(seen, "paused")
		default:
			seen = append(seen, "running")
		}
	})

	if _, err := f.ctl.Start(ctx, f.a.ID); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if _, err := f.ctl.Pause(ctx); err != nil {
		t.Fatalf("Pause() = %v", err)
	}
	if _, err := f.ctl.Stop(ctx); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	cancel()
	if _, err := f.ctl.Start(ctx, f.b.ID); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	// Stop reads the session before clearing it.
	want := "running paused paused idle"
	if got := strings.Join(seen, " "); got != want {
		t.Errorf("changes = %q, want %q", got, want)
	}
}
