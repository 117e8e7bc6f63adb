// Package tui holds the interactive terminal views.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/timer"
	"github.com/julianstephens/logbook/internal/utils"
)

// TimerControl is the part of timer.Controller the watch view drives.
type TimerControl interface {
	Session(ctx context.Context) (*models.ActivitySession, error)
	Pause(ctx context.Context) (models.ActivitySession, error)
	Resume(ctx context.Context) (models.ActivitySession, error)
	Stop(ctx context.Context) (models.ActivityLog, error)
}

type (
	tickMsg    time.Time
	sessionMsg struct {
		session *models.ActivitySession
		err     error
	}
	stoppedMsg struct {
		log models.ActivityLog
		err error
	}
)

// WatchModel shows the live timer. It re-reads the session every tick so
// transitions made from another terminal show up.
type WatchModel struct {
	ctx      context.Context
	control  TimerControl
	title    func(activityID string) string
	now      func() time.Time
	interval time.Duration

	keys WatchKeyMap
	help help.Model

	session  *models.ActivitySession
	stopped  *models.ActivityLog
	err      error
	loaded   bool
	quitting bool
}

type WatchOption func(*WatchModel)

func WithWatchClock(now func() time.Time) WatchOption {
	return func(m *WatchModel) { m.now = now }
}

func WithTickInterval(d time.Duration) WatchOption {
	return func(m *WatchModel) { m.interval = d }
}

// WithTitles resolves activity ids to display names.
func WithTitles(fn func(activityID string) string) WatchOption {
	return func(m *WatchModel) { m.title = fn }
}

func NewWatchModel(ctx context.Context, control TimerControl, opts ...WatchOption) WatchModel {
	m := WatchModel{
		ctx:      ctx,
		control:  control,
		title:    func(id string) string { return id },
		now:      time.Now,
		interval: time.Second,
		keys:     DefaultWatchKeyMap(),
		help:     help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// SessionChanged wraps a session published outside the view so a running
// program can be sent it.
func SessionChanged(s *models.ActivitySession) tea.Msg {
	return sessionMsg{session: s}
}

func (m WatchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		s, err := m.control.Session(m.ctx)
		return sessionMsg{session: s, err: err}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.refresh(), m.tick())

	case sessionMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.session = msg.session
		}
		return m, nil

	case stoppedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.stopped = &msg.log
		m.session = nil
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			if m.session == nil {
				return m, nil
			}
			return m, m.toggle(m.session.IsPaused)
		case key.Matches(msg, m.keys.Stop):
			if m.session == nil {
				return m, nil
			}
			return m, m.stop()
		}
	}
	return m, nil
}

func (m WatchModel) toggle(paused bool) tea.Cmd {
	return func() tea.Msg {
		var s models.ActivitySession
		var err error
		if paused {
			s, err = m.control.Resume(m.ctx)
		} else {
			s, err = m.control.Pause(m.ctx)
		}
		if err != nil {
			return sessionMsg{err: err}
		}
		return sessionMsg{session: &s}
	}
}

func (m WatchModel) stop() tea.Cmd {
	return func() tea.Msg {
		l, err := m.control.Stop(m.ctx)
		return stoppedMsg{log: l, err: err}
	}
}

// Stopped returns the saved log when the view ended by stopping the timer.
func (m WatchModel) Stopped() (models.ActivityLog, bool) {
	if m.stopped == nil {
		return models.ActivityLog{}, false
	}
	return *m.stopped, true
}

func (m WatchModel) Err() error { return m.err }

func (m WatchModel) View() string {
	var b strings.Builder

	switch {
	case m.stopped != nil:
		fmt.Fprintf(&b, "%s %s after %s\n",
			DangerStyle.Render("Stopped"),
			m.title(m.stopped.ActivityID),
			utils.FormatDuration(m.stopped.Elapsed()))
		return docStyle.Render(b.String())
	case !m.loaded:
		b.WriteString(MutedStyle.Render("Loading timer..."))
		return docStyle.Render(b.String())
	case m.session == nil:
		b.WriteString(MutedStyle.Render("No activity is being timed."))
		b.WriteString("\n\n")
		b.WriteString(m.help.View(m.keys))
		return docStyle.Render(b.String())
	}

	s := m.session
	elapsed := timer.Duration(s.CurrentLog.StartTime, m.now(), s.CurrentLog.PauseIntervals)

	b.WriteString(TitleStyle.Render(m.title(s.CurrentLog.ActivityID)))
	b.WriteString("\n\n")
	b.WriteString(clockStyle.Render(utils.FormatClock(elapsed)))
	b.WriteString("  ")
	if s.IsPaused {
		b.WriteString(PausedStyle.Render("paused"))
	} else {
		b.WriteString(RunningStyle.Render("running"))
	}
	b.WriteString("\n")

	if n := len(s.PausedActivityStack); n > 0 {
		prev := s.PausedActivityStack[n-1]
		fmt.Fprintf(&b, "\n%s\n", MutedStyle.Render(fmt.Sprintf("%d paused behind this, next: %s", n, m.title(prev.ActivityID))))
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", DangerStyle.Render("Error: "+m.err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return docStyle.Render(b.String())
}
