package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/behaviors"
	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/reflections"
	"github.com/julianstephens/logbook/internal/stats"
	"github.com/julianstephens/logbook/internal/tui"
	"github.com/julianstephens/logbook/internal/utils"
)

const barWidth = 20

type StatsCmd struct {
	Overview StatsOverviewCmd `cmd:"" help:"Summarize everything tracked recently." default:"1"`
	Behavior StatsBehaviorCmd `cmd:"" help:"Daily totals for a behavior."`
	Activity StatsActivityCmd `cmd:"" help:"Daily tracked time for an activity, or all of them."`
	Reflect  StatsReflectCmd  `cmd:"" help:"Scores for a reflection question."`
}

// window returns the first midnight and the current time for the last days days.
func window(ctx *cli.Context, days int) (time.Time, time.Time, error) {
	if days < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("days must be at least 1, got %d", days)
	}
	return ctx.Today().AddDate(0, 0, -(days - 1)), ctx.Now(), nil
}

func bar(value, max float64) string {
	if max <= 0 || value <= 0 {
		return strings.Repeat("░", barWidth)
	}
	n := int(math.Round(value / max * barWidth))
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

// BehaviorStats is the per-behavior line of the overview.
type BehaviorStats struct {
	Behavior models.Behavior
	Daily    []stats.DailyValue
	Summary  stats.Summary
	Streak   int
}

func behaviorStats(ctx *cli.Context, b models.Behavior, start, end time.Time) BehaviorStats {
	all := ctx.Behaviors.LogsForBehavior(b.ID)
	daily := stats.BehaviorDailyTotals(all, b.ID, start, end, ctx.Location)
	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = d.Value
	}
	days := make([]time.Time, len(all))
	for i, l := range all {
		days[i] = l.Timestamp
	}
	return BehaviorStats{
		Behavior: b,
		Daily:    daily,
		Summary:  stats.Summarize(values),
		Streak:   stats.Streak(days, ctx.Now()),
	}
}

// QuestionStats is the per-question line of the overview.
type QuestionStats struct {
	Question models.ReflectionQuestion
	Scores   []stats.DailyScore
	Summary  stats.Summary
	Streak   int
}

func questionStats(ctx *cli.Context, q models.ReflectionQuestion, start, end time.Time) QuestionStats {
	inRange := ctx.Reflections.ResponsesByDateRange(start, end)
	scores := stats.ReflectionDailyScores(inRange, q.ID)
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s.Score)
	}
	var days []time.Time
	for _, r := range ctx.Reflections.Responses() {
		if r.QuestionID == q.ID {
			days = append(days, r.Date)
		}
	}
	return QuestionStats{
		Question: q,
		Scores:   scores,
		Summary:  stats.Summarize(values),
		Streak:   stats.Streak(days, ctx.Now()),
	}
}

type StatsOverviewCmd struct {
	Days int `help:"Number of days to cover." default:"7"`
}

func (c *StatsOverviewCmd) Run(ctx *cli.Context) error {
	start, end, err := window(ctx, c.Days)
	if err != nil {
		return err
	}
	fmt.Println(tui.TitleStyle.Render(fmt.Sprintf("Last %d day(s)", c.Days)))

	fmt.Println("\nBehaviors")
	active := ctx.Behaviors.ActiveBehaviors()
	if len(active) == 0 {
		fmt.Println(tui.MutedStyle.Render("  none"))
	}
	for _, b := range active {
		s := behaviorStats(ctx, b, start, end)
		fmt.Printf("  %-16s total %g %s, %.1f/day, streak %d\n", b.Name, s.Summary.Total, b.Units, s.Summary.Avg, s.Streak)
	}

	fmt.Println("\nActivities")
	logs := ctx.Activities.LogsByDateRange(start, end)
	totals := map[string]time.Duration{}
	var order []string
	for _, l := range logs {
		if _, ok := totals[l.ActivityID]; !ok {
			order = append(order, l.ActivityID)
		}
		totals[l.ActivityID] += l.Elapsed()
	}
	if len(order) == 0 {
		fmt.Println(tui.MutedStyle.Render("  none"))
	}
	var sum time.Duration
	for _, id := range order {
		name := cli.ShortID(id)
		for _, a := range ctx.Activities.Instances() {
			if a.ID == id {
				name = a.Title
			}
		}
		fmt.Printf("  %-24s %s\n", name, utils.FormatDuration(totals[id]))
		sum += totals[id]
	}
	if len(order) > 0 {
		fmt.Println(tui.MutedStyle.Render(fmt.Sprintf("  total %s", utils.FormatDuration(sum))))
	}

	fmt.Println("\nReflections")
	questions := ctx.Reflections.ActiveQuestions()
	if len(questions) == 0 {
		fmt.Println(tui.MutedStyle.Render("  none"))
	}
	for _, q := range questions {
		s := questionStats(ctx, q, start, end)
		if s.Summary.Count == 0 {
			fmt.Printf("  %-40s %s\n", q.Text, tui.MutedStyle.Render("no answers"))
			continue
		}
		fmt.Printf("  %-40s avg %.1f (min %g, max %g), streak %d\n", q.Text, s.Summary.Avg, s.Summary.Min, s.Summary.Max, s.Streak)
	}
	return nil
}

type StatsBehaviorCmd struct {
	Behavior string `arg:"" help:"Behavior name or id."`
	Days     int    `help:"Number of days to cover." default:"14"`
}

func (c *StatsBehaviorCmd) Run(ctx *cli.Context) error {
	b, err := cli.Find(behaviors.KindBehavior, c.Behavior, ctx.Behaviors.Behaviors(),
		func(b models.Behavior) string { return b.ID },
		func(b models.Behavior) string { return b.Name })
	if err != nil {
		return err
	}
	start, end, err := window(ctx, c.Days)
	if err != nil {
		return err
	}
	s := behaviorStats(ctx, b, start, end)

	fmt.Println(tui.TitleStyle.Render(b.Name))
	for _, d := range s.Daily {
		fmt.Printf("  %s  %s  %g\n", d.Day.Format(constants.DateFormat), bar(d.Value, s.Summary.Max), d.Value)
	}
	fmt.Printf("\nTotal %g %s, average %.1f/day, best %g, streak %d day(s)\n",
		s.Summary.Total, b.Units, s.Summary.Avg, s.Summary.Max, s.Streak)
	return nil
}

type StatsActivityCmd struct {
	Activity string `arg:"" optional:"" help:"Activity title or id. All activities when omitted."`
	Days     int    `help:"Number of days to cover." default:"14"`
}

func (c *StatsActivityCmd) Run(ctx *cli.Context) error {
	start, end, err := window(ctx, c.Days)
	if err != nil {
		return err
	}
	name := "All activities"
	id := ""
	if c.Activity != "" {
		a, err := cli.Find(activities.KindInstance, c.Activity, ctx.Activities.Instances(),
			func(a models.ActivityInstance) string { return a.ID },
			func(a models.ActivityInstance) string { return a.Title })
		if err != nil {
			return err
		}
		name, id = a.Title, a.ID
	}

	daily := stats.ActivityDailyDurations(ctx.Activities.Logs(), id, start, end, ctx.Location)
	var max, total time.Duration
	var active []time.Time
	for _, d := range daily {
		total += d.Duration
		if d.Duration > max {
			max = d.Duration
		}
		if d.Duration > 0 {
			active = append(active, d.Day)
		}
	}

	fmt.Println(tui.TitleStyle.Render(name))
	for _, d := range daily {
		fmt.Printf("  %s  %s  %s\n", d.Day.Format(constants.DateFormat), bar(d.Duration.Minutes(), max.Minutes()), utils.FormatDuration(d.Duration))
	}
	fmt.Printf("\nTotal %s, average %s/day, streak %d day(s)\n",
		utils.FormatDuration(total), utils.FormatDuration(total/time.Duration(len(daily))), stats.Streak(active, ctx.Now()))
	return nil
}

type StatsReflectCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Days     int    `help:"Number of days to cover." default:"30"`
}

func (c *StatsReflectCmd) Run(ctx *cli.Context) error {
	q, err := cli.Find(reflections.KindQuestion, c.Question, ctx.Reflections.Questions(),
		func(q models.ReflectionQuestion) string { return q.ID },
		func(q models.ReflectionQuestion) string { return q.Text })
	if err != nil {
		return err
	}
	start, end, err := window(ctx, c.Days)
	if err != nil {
		return err
	}
	s := questionStats(ctx, q, start, end)

	fmt.Println(tui.TitleStyle.Render(q.Text))
	if s.Summary.Count == 0 {
		fmt.Println(tui.MutedStyle.Render("No answers in this period."))
		return nil
	}
	for _, d := range s.Scores {
		fmt.Printf("  %s  %s  %2d\n", d.Day.Format(constants.DateFormat), bar(float64(d.Score), constants.MaxScore), d.Score)
	}
	fmt.Printf("\nAverage %.1f over %d answer(s), min %g, max %g, streak %d day(s)\n",
		s.Summary.Avg, s.Summary.Count, s.Summary.Min, s.Summary.Max, s.Streak)
	return nil
}
