package activities

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/cli/clitest"
	lberrors "github.com/julianstephens/logbook/internal/errors"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/timer"
)

func setup(t *testing.T) (*cli.Context, *clitest.Clock) {
	t.Helper()
	ctx, clock, _ := clitest.New(t, "")
	if err := (&TypeDefaultsCmd{}).Run(ctx); err != nil {
		t.Fatalf("defaults failed: %v", err)
	}
	if got := len(ctx.Activities.Types()); got != len(activities.Defaults) {
		t.Fatalf("expected %d types, got %d", len(activities.Defaults), got)
	}
	return ctx, clock
}

func addActivity(t *testing.T, ctx *cli.Context, typ, name string) models.ActivityInstance {
	t.Helper()
	if err := (&ActivityAddCmd{Type: typ, Title: []string{name}}).Run(ctx); err != nil {
		t.Fatalf("add %q failed: %v", name, err)
	}
	a, err := findActivity(ctx, name)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestTypeLifecycle(t *testing.T) {
	ctx, _ := setup(t)

	if err := (&TypeAddCmd{Name: "work"}).Run(ctx); err == nil {
		t.Error("expected duplicate type error")
	}
	if err := (&TypeDeactivateCmd{Type: "Chores"}).Run(ctx); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if got := len(ctx.Activities.InactiveTypes()); got != 1 {
		t.Errorf("inactive types = %d, want 1", got)
	}
	if err := (&ActivityAddCmd{Type: "Chores", Title: []string{"Laundry"}}).Run(ctx); err == nil {
		t.Error("expected error adding to an inactive type")
	}
	if err := (&TypeReactivateCmd{Type: "chores"}).Run(ctx); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}
	if err := (&TypeListCmd{All: true}).Run(ctx); err != nil {
		t.Errorf("list failed: %v", err)
	}

	created, err := CreateMissingDefaults(ctx)
	if err != nil || len(created) != 0 {
		t.Errorf("second defaults run created %d types (err %v)", len(created), err)
	}
}

func TestTypeDeleteRefusedWhileUsed(t *testing.T) {
	ctx, _ := setup(t)
	a := addActivity(t, ctx, "Study", "Read Go docs")

	if err := (&TypeDeleteCmd{Type: "Study", Yes: true}).Run(ctx); err == nil {
		t.Fatal("expected delete to be refused")
	}
	if err := (&ActivityDeleteCmd{Activity: a.ID, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("delete activity failed: %v", err)
	}
	if err := (&TypeDeleteCmd{Type: "Study", Yes: true}).Run(ctx); err != nil {
		t.Fatalf("delete type failed: %v", err)
	}
	if _, err := findType(ctx, "Study"); !lberrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestActivityEditCompleteReopen(t *testing.T) {
	ctx, _ := setup(t)
	a := addActivity(t, ctx, "Work", "Quarterly report")

	typ := "Study"
	if err := (&ActivityEditCmd{Activity: "quarterly report", Type: &typ}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	study, _ := findType(ctx, "Study")
	got, _ := ctx.Activities.FetchInstance(ctx.Ctx, a.ID)
	if got.TypeID != study.ID {
		t.Errorf("type = %s, want %s", got.TypeID, study.ID)
	}

	if err := (&ActivityCompleteCmd{Activity: a.ID}).Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if n := len(ctx.Activities.OpenInstances()); n != 0 {
		t.Errorf("open instances = %d, want 0", n)
	}
	if err := (&ActivityReopenCmd{Activity: a.ID}).Run(ctx); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, _ = ctx.Activities.FetchInstance(ctx.Ctx, a.ID)
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("reopened instance = %+v", got)
	}
	if err := (&ActivityListCmd{All: true}).Run(ctx); err != nil {
		t.Errorf("list failed: %v", err)
	}
}

func TestTimerPauseResumeStop(t *testing.T) {
	ctx, clock := setup(t)
	a := addActivity(t, ctx, "Work", "Report")

	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); !errors.Is(err, timer.ErrSessionActive) {
		t.Errorf("second start: expected ErrSessionActive, got %v", err)
	}

	clock.Advance(20 * time.Minute)
	if err := (&TimerPauseCmd{}).Run(ctx); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if err := (&TimerResumeCmd{}).Run(ctx); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	clock.Advance(5 * time.Minute)
	if err := (&TimerStatusCmd{}).Run(ctx); err != nil {
		t.Errorf("status failed: %v", err)
	}
	if err := (&TimerStopCmd{}).Run(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	logs := ctx.Activities.LogsForActivity(a.ID)
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if got := logs[0].Elapsed(); got != 25*time.Minute {
		t.Errorf("elapsed = %v, want 25m", got)
	}
	if err := (&TimerStopCmd{}).Run(ctx); !errors.Is(err, timer.ErrNoSession) {
		t.Errorf("stop when idle: expected ErrNoSession, got %v", err)
	}
	if err := (&ActivityLogsCmd{Activity: "Report", Days: 1}).Run(ctx); err != nil {
		t.Errorf("logs failed: %v", err)
	}
}

func TestTimerSwitchAndBack(t *testing.T) {
	ctx, clock := setup(t)
	report := addActivity(t, ctx, "Work", "Report")
	email := addActivity(t, ctx, "Work", "Email")

	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Advance(30 * time.Minute)
	if err := (&TimerSwitchCmd{Activity: "Email"}).Run(ctx); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if err := (&ActivityDeleteCmd{Activity: "Report", Yes: true}).Run(ctx); err == nil {
		t.Error("expected delete of a paused activity to be refused")
	}
	clock.Advance(10 * time.Minute)
	if err := (&TimerBackCmd{}).Run(ctx); err != nil {
		t.Fatalf("back failed: %v", err)
	}

	s, err := ctx.Timer.Session(ctx.Ctx)
	if err != nil || s == nil {
		t.Fatalf("session = %v, %v", s, err)
	}
	if s.CurrentLog.ActivityID != report.ID || s.IsPaused {
		t.Errorf("current = %s paused=%v, want running %s", s.CurrentLog.ActivityID, s.IsPaused, report.ID)
	}
	if got := ctx.Activities.TotalDuration(email.ID); got != 10*time.Minute {
		t.Errorf("email total = %v, want 10m", got)
	}

	clock.Advance(15 * time.Minute)
	if err := (&TimerCompleteCmd{}).Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if got := ctx.Activities.TotalDuration(report.ID); got != 45*time.Minute {
		t.Errorf("report total = %v, want 45m", got)
	}
	done, _ := ctx.Activities.FetchInstance(ctx.Ctx, report.ID)
	if !done.Completed {
		t.Error("report not completed")
	}

	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	reopened, _ := ctx.Activities.FetchInstance(ctx.Ctx, report.ID)
	if reopened.Completed {
		t.Error("starting a completed activity should reopen it")
	}
}

func TestTimerBackWithoutStack(t *testing.T) {
	ctx, _ := setup(t)
	addActivity(t, ctx, "Work", "Report")
	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&TimerBackCmd{}).Run(ctx); !errors.Is(err, timer.ErrNoPausedActivity) {
		t.Errorf("expected ErrNoPausedActivity, got %v", err)
	}
}

func TestTimerStartRefusedKeepsActivityCompleted(t *testing.T) {
	ctx, clock := setup(t)
	addActivity(t, ctx, "Work", "Email")
	report := addActivity(t, ctx, "Work", "Report")
	if _, err := ctx.Activities.CompleteInstance(ctx.Ctx, report.ID); err != nil {
		t.Fatal(err)
	}
	if err := (&TimerStartCmd{Activity: "Email"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if err := (&TimerStartCmd{Activity: "Report"}).Run(ctx); !errors.Is(err, timer.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
	got, _ := ctx.Activities.FetchInstance(ctx.Ctx, report.ID)
	if !got.Completed {
		t.Error("a refused start reopened the activity")
	}

	clock.Advance(5 * time.Minute)
	if err := (&TimerStatusCmd{}).Run(ctx); err != nil {
		t.Errorf("status failed: %v", err)
	}
	elapsed, err := ctx.Timer.Elapsed(ctx.Ctx)
	if err != nil || elapsed != 5*time.Minute {
		t.Errorf("Elapsed() = %v, %v; want 5m", elapsed, err)
	}
}
