package activities

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/timer"
	"github.com/julianstephens/logbook/internal/tui"
	"github.com/julianstephens/logbook/internal/utils"
)

type TimerCmd struct {
	Start    TimerStartCmd    `cmd:"" help:"Start timing an activity."`
	Pause    TimerPauseCmd    `cmd:"" help:"Pause the timer."`
	Resume   TimerResumeCmd   `cmd:"" help:"Resume the paused timer."`
	Switch   TimerSwitchCmd   `cmd:"" help:"Pause the current activity and start another."`
	Back     TimerBackCmd     `cmd:"" help:"Finish the current activity and resume the previous one."`
	Stop     TimerStopCmd     `cmd:"" help:"Stop the timer and save the session."`
	Complete TimerCompleteCmd `cmd:"" help:"Stop the timer and mark the activity completed."`
	Status   TimerStatusCmd   `cmd:"" help:"Show the timer." default:"1"`
	Watch    TimerWatchCmd    `cmd:"" help:"Show a live timer."`
}

// openActivity finds an activity to time.
func openActivity(ctx *cli.Context, ref string) (models.ActivityInstance, error) {
	a, err := findActivity(ctx, ref)
	if err != nil {
		return a, err
	}
	return a, nil
}

// reopenIfCompleted reopens an activity once the timer has taken it.
func reopenIfCompleted(ctx *cli.Context, a models.ActivityInstance) error {
	if !a.Completed {
		return nil
	}
	_, err := ctx.Activities.ReopenInstance(ctx.Ctx, a.ID)
	return err
}

type TimerStartCmd struct {
	Activity string `arg:"" help:"Activity title or id."`
}

func (c *TimerStartCmd) Run(ctx *cli.Context) error {
	a, err := openActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	if _, err := ctx.Timer.Start(ctx.Ctx, a.ID); err != nil {
		return err
	}
	if err := reopenIfCompleted(ctx, a); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.RunningStyle.Render("Started"), a.Title)
	return nil
}

type TimerPauseCmd struct{}

func (c *TimerPauseCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Timer.Pause(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s at %s\n", tui.PausedStyle.Render("Paused"), title(ctx, s.CurrentLog.ActivityID),
		utils.FormatClock(timer.Duration(s.CurrentLog.StartTime, ctx.Now(), s.CurrentLog.PauseIntervals)))
	return nil
}

type TimerResumeCmd struct{}

func (c *TimerResumeCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Timer.Resume(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.RunningStyle.Render("Resumed"), title(ctx, s.CurrentLog.ActivityID))
	return nil
}

type TimerSwitchCmd struct {
	Activity string `arg:"" help:"Activity title or id."`
}

func (c *TimerSwitchCmd) Run(ctx *cli.Context) error {
	a, err := openActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	s, err := ctx.Timer.Switch(ctx.Ctx, a.ID)
	if err != nil {
		return err
	}
	if err := reopenIfCompleted(ctx, a); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.RunningStyle.Render("Switched to"), a.Title)
	if n := len(s.PausedActivityStack); n > 0 {
		fmt.Println(tui.MutedStyle.Render(fmt.Sprintf("Paused: %s", title(ctx, s.PausedActivityStack[n-1].ActivityID))))
	}
	return nil
}

type TimerBackCmd struct{}

func (c *TimerBackCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Timer.ResumePrevious(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", tui.RunningStyle.Render("Back to"), title(ctx, s.CurrentLog.ActivityID))
	return nil
}

type TimerStopCmd struct{}

func (c *TimerStopCmd) Run(ctx *cli.Context) error {
	l, err := ctx.Timer.Stop(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s after %s\n", tui.DangerStyle.Render("Stopped"), title(ctx, l.ActivityID), utils.FormatDuration(l.Elapsed()))
	return nil
}

type TimerCompleteCmd struct{}

func (c *TimerCompleteCmd) Run(ctx *cli.Context) error {
	l, err := ctx.Timer.Complete(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Completed %s after %s\n", title(ctx, l.ActivityID), utils.FormatDuration(l.Elapsed()))
	return nil
}

type TimerStatusCmd struct{}

func (c *TimerStatusCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Timer.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Println("No activity is being timed.")
		return nil
	}
	state := tui.RunningStyle.Render("running")
	if s.IsPaused {
		state = tui.PausedStyle.Render("paused")
	}
	elapsed, err := ctx.Timer.Elapsed(ctx.Ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  %s\n", title(ctx, s.CurrentLog.ActivityID), utils.FormatClock(elapsed), state)
	for i := len(s.PausedActivityStack) - 1; i >= 0; i-- {
		l := s.PausedActivityStack[i]
		fmt.Println(tui.MutedStyle.Render(fmt.Sprintf("  paused: %s (%s)", title(ctx, l.ActivityID),
			utils.FormatClock(timer.Duration(l.StartTime, ctx.Now(), l.PauseIntervals)))))
	}
	return nil
}

type TimerWatchCmd struct{}

func (c *TimerWatchCmd) Run(ctx *cli.Context) error {
	model := tui.NewWatchModel(ctx.Ctx, ctx.Timer,
		tui.WithWatchClock(ctx.Now),
		tui.WithTitles(func(id string) string { return title(ctx, id) }))

	p := tea.NewProgram(model, tea.WithAltScreen())
	cancel := ctx.Timer.OnChange(func(s *models.ActivitySession) { p.Send(tui.SessionChanged(s)) })
	defer cancel()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run timer view: %w", err)
	}
	if m, ok := final.(tui.WatchModel); ok {
		if l, stopped := m.Stopped(); stopped {
			fmt.Printf("Saved %s for %s\n", utils.FormatDuration(l.Elapsed()), title(ctx, l.ActivityID))
		}
		return m.Err()
	}
	return nil
}
