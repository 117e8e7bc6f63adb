package reflections

import (
	"fmt"
	"strings"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/reflections"
	"github.com/julianstephens/logbook/internal/tui"
)

type ReflectCmd struct {
	Question QuestionCmd       `cmd:"" help:"Manage reflection questions."`
	Answer   ReflectAnswerCmd  `cmd:"" help:"Score a question for a day (0-10)."`
	Unanswer ReflectDeleteCmd  `cmd:"" help:"Delete a response."`
	Today    ReflectTodayCmd   `cmd:"" help:"Show which questions are answered today." default:"1"`
	History  ReflectHistoryCmd `cmd:"" help:"Show every response to a question."`
	Average  ReflectAverageCmd `cmd:"" help:"Show a question's average score."`
}

type QuestionCmd struct {
	Add        QuestionAddCmd        `cmd:"" help:"Add a question."`
	List       QuestionListCmd       `cmd:"" help:"List questions."`
	Edit       QuestionEditCmd       `cmd:"" help:"Reword a question."`
	Deactivate QuestionDeactivateCmd `cmd:"" help:"Stop asking a question."`
	Reactivate QuestionReactivateCmd `cmd:"" help:"Ask a question again."`
	Delete     QuestionDeleteCmd     `cmd:"" help:"Delete a question. Its responses are kept."`
	Defaults   QuestionDefaultsCmd   `cmd:"" help:"Create the starter questions."`
}

func find(ctx *cli.Context, ref string) (models.ReflectionQuestion, error) {
	return cli.Find(reflections.KindQuestion, ref, ctx.Reflections.Questions(),
		func(q models.ReflectionQuestion) string { return q.ID },
		func(q models.ReflectionQuestion) string { return q.Text })
}

type QuestionAddCmd struct {
	Text string `arg:"" help:"Question text."`
}

func (c *QuestionAddCmd) Run(ctx *cli.Context) error {
	q, err := ctx.Reflections.CreateQuestion(ctx.Ctx, models.ReflectionQuestion{Text: strings.TrimSpace(c.Text)})
	if err != nil {
		return err
	}
	fmt.Printf("Added question %s: %s\n", cli.ShortID(q.ID), q.Text)
	return nil
}

type QuestionListCmd struct {
	All bool `help:"Include inactive questions."`
}

func (c *QuestionListCmd) Run(ctx *cli.Context) error {
	list := ctx.Reflections.ActiveQuestions()
	if c.All {
		list = ctx.Reflections.Questions()
	}
	if len(list) == 0 {
		fmt.Println("No questions found.")
		return nil
	}
	for _, q := range list {
		status := ""
		if !q.IsActive() {
			status = tui.MutedStyle.Render(" [INACTIVE]")
		}
		avg := "n/a"
		if v, ok := ctx.Reflections.AverageScore(q.ID, constants.DefaultLogDays); ok {
			avg = fmt.Sprintf("%.1f", v)
		}
		fmt.Printf("%s  %s  (7-day avg: %s)%s\n", cli.ShortID(q.ID), q.Text, avg, status)
	}
	return nil
}

type QuestionEditCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Text     string `arg:"" help:"New text."`
}

func (c *QuestionEditCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(c.Text)
	if _, err := ctx.Reflections.UpdateQuestion(ctx.Ctx, q.ID, models.ReflectionQuestionPatch{Text: &text}); err != nil {
		return err
	}
	fmt.Printf("Updated question: %s\n", text)
	return nil
}

type QuestionDeactivateCmd struct {
	Question string `arg:"" help:"Question text or id."`
}

func (c *QuestionDeactivateCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	if _, err := ctx.Reflections.DeactivateQuestion(ctx.Ctx, q.ID); err != nil {
		return err
	}
	fmt.Printf("Deactivated question: %s\n", q.Text)
	return nil
}

type QuestionReactivateCmd struct {
	Question string `arg:"" help:"Question text or id."`
}

func (c *QuestionReactivateCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	if _, err := ctx.Reflections.ReactivateQuestion(ctx.Ctx, q.ID); err != nil {
		return err
	}
	fmt.Printf("Reactivated question: %s\n", q.Text)
	return nil
}

type QuestionDeleteCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *QuestionDeleteCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := tui.ConfirmDelete(reflections.KindQuestion, q.Text)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Reflections.DeleteQuestion(ctx.Ctx, q.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted question: %s\n", q.Text)
	return nil
}

type QuestionDefaultsCmd struct{}

func (c *QuestionDefaultsCmd) Run(ctx *cli.Context) error {
	created, err := CreateMissingDefaults(ctx)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("Starter questions already exist.")
		return nil
	}
	for _, q := range created {
		fmt.Printf("Added question: %s\n", q.Text)
	}
	return nil
}

// CreateMissingDefaults adds the starter questions not already present.
func CreateMissingDefaults(ctx *cli.Context) ([]models.ReflectionQuestion, error) {
	existing := map[string]bool{}
	for _, q := range ctx.Reflections.Questions() {
		existing[strings.ToLower(q.Text)] = true
	}
	var created []models.ReflectionQuestion
	for _, d := range reflections.Defaults {
		if existing[strings.ToLower(d.Text)] {
			continue
		}
		q, err := ctx.Reflections.CreateQuestion(ctx.Ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, q)
	}
	return created, nil
}

type ReflectAnswerCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Score    int    `arg:"" help:"Score from 0 to 10."`
	Date     string `help:"Day (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *ReflectAnswerCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	if err := models.ValidateScore(c.Score); err != nil {
		return err
	}
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	verb := "Recorded"
	if ctx.Reflections.HasResponseForDate(q.ID, day) {
		verb = "Updated"
	}
	r, err := ctx.Reflections.RecordResponse(ctx.Ctx, q.ID, day, c.Score)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d/%d for %q on %s\n", verb, r.Score, constants.MaxScore, q.Text, r.Date.Format(constants.DateFormat))
	return nil
}

type ReflectDeleteCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Date     string `help:"Day (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *ReflectDeleteCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	for _, r := range ctx.Reflections.ResponsesByDateRange(day, day) {
		if r.QuestionID == q.ID {
			if err := ctx.Reflections.DeleteResponse(ctx.Ctx, r.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted response for %s\n", day.Format(constants.DateFormat))
			return nil
		}
	}
	return fmt.Errorf("no response for %q on %s", q.Text, day.Format(constants.DateFormat))
}

type ReflectTodayCmd struct{}

func (c *ReflectTodayCmd) Run(ctx *cli.Context) error {
	qs := ctx.Reflections.ActiveQuestions()
	if len(qs) == 0 {
		fmt.Println("No questions found. Run 'logbook reflect question defaults' to add some.")
		return nil
	}
	today := ctx.Today()
	scores := map[string]int{}
	for _, r := range ctx.Reflections.ResponsesByDateRange(today, today) {
		scores[r.QuestionID] = r.Score
	}
	for _, q := range qs {
		if score, ok := scores[q.ID]; ok {
			fmt.Printf("%s %s  %d/%d\n", tui.RunningStyle.Render("✓"), q.Text, score, constants.MaxScore)
		} else {
			fmt.Printf("%s %s\n", tui.MutedStyle.Render("·"), q.Text)
		}
	}
	return nil
}

type ReflectHistoryCmd struct {
	Question string `arg:"" help:"Question text or id."`
}

func (c *ReflectHistoryCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	responses, err := ctx.Reflections.ResponsesForQuestion(ctx.Ctx, q.ID)
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		fmt.Println("No responses yet.")
		return nil
	}
	fmt.Println(tui.TitleStyle.Render(q.Text))
	for _, r := range responses {
		bar := strings.Repeat("█", r.Score) + strings.Repeat("░", constants.MaxScore-r.Score)
		fmt.Printf("  %s  %s  %2d\n", r.Date.Format(constants.DateFormat), bar, r.Score)
	}
	return nil
}

type ReflectAverageCmd struct {
	Question string `arg:"" help:"Question text or id."`
	Days     int    `help:"Window in days, 0 for all time." default:"7"`
}

func (c *ReflectAverageCmd) Run(ctx *cli.Context) error {
	q, err := find(ctx, c.Question)
	if err != nil {
		return err
	}
	avg, ok := ctx.Reflections.AverageScore(q.ID, c.Days)
	window := fmt.Sprintf("last %d days", c.Days)
	if c.Days <= 0 {
		window = "all time"
	}
	if !ok {
		fmt.Printf("%s (%s): no responses\n", q.Text, window)
		return nil
	}
	fmt.Printf("%s (%s): %.2f\n", q.Text, window, avg)
	return nil
}
