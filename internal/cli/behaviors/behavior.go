package behaviors

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/behaviors"
	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/tui"
)

type BehaviorCmd struct {
	Add        BehaviorAddCmd        `cmd:"" help:"Add a behavior."`
	List       BehaviorListCmd       `cmd:"" help:"List behaviors."`
	Edit       BehaviorEditCmd       `cmd:"" help:"Edit a behavior."`
	Deactivate BehaviorDeactivateCmd `cmd:"" help:"Deactivate a behavior. Its logs are kept."`
	Reactivate BehaviorReactivateCmd `cmd:"" help:"Reactivate a behavior."`
	Delete     BehaviorDeleteCmd     `cmd:"" help:"Delete a behavior. Its logs are kept."`
	Log        BehaviorLogCmd        `cmd:"" help:"Log a behavior."`
	Logs       BehaviorLogsCmd       `cmd:"" help:"Show behavior logs."`
	Unlog      BehaviorUnlogCmd      `cmd:"" help:"Delete a behavior log."`
	Total      BehaviorTotalCmd      `cmd:"" help:"Show a behavior's total for a day."`
	Defaults   BehaviorDefaultsCmd   `cmd:"" help:"Create the starter behaviors."`
}

func find(ctx *cli.Context, ref string) (models.Behavior, error) {
	return cli.Find(behaviors.KindBehavior, ref, ctx.Behaviors.Behaviors(),
		func(b models.Behavior) string { return b.ID },
		func(b models.Behavior) string { return b.Name })
}

func nameTaken(ctx *cli.Context, name string) bool {
	for _, b := range ctx.Behaviors.Behaviors() {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func parseType(s string) (models.BehaviorType, error) {
	t := models.BehaviorType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		names := make([]string, len(models.BehaviorTypes))
		for i, bt := range models.BehaviorTypes {
			names[i] = string(bt)
		}
		return "", fmt.Errorf("unknown behavior type %q (expected one of %s)", s, strings.Join(names, ", "))
	}
	return t, nil
}

type BehaviorAddCmd struct {
	Name        string `arg:"" optional:"" help:"Behavior name."`
	Type        string `help:"Behavior type (reps, duration, weight, count)." default:"reps"`
	Units       string `help:"Display units, e.g. reps or minutes."`
	Interactive bool   `short:"i" help:"Fill in the behavior with a form."`
}

func (c *BehaviorAddCmd) Run(ctx *cli.Context) error {
	var b models.Behavior
	if c.Interactive || c.Name == "" {
		fm := &tui.BehaviorFormModel{Name: c.Name, Units: c.Units}
		if err := tui.RunBehaviorForm(fm); err != nil {
			return err
		}
		b = fm.Behavior()
	} else {
		t, err := parseType(c.Type)
		if err != nil {
			return err
		}
		b = models.Behavior{Name: strings.TrimSpace(c.Name), Type: t, Units: c.Units}
	}

	if nameTaken(ctx, b.Name) {
		return fmt.Errorf("behavior with name %q already exists", b.Name)
	}

	created, err := ctx.Behaviors.CreateBehavior(ctx.Ctx, b)
	if err != nil {
		return err
	}
	fmt.Printf("Added behavior: %s (%s)\n", created.Name, cli.ShortID(created.ID))
	return nil
}

type BehaviorListCmd struct {
	All      bool `help:"Include inactive behaviors."`
	Inactive bool `help:"Show only inactive behaviors."`
}

func (c *BehaviorListCmd) Run(ctx *cli.Context) error {
	list := ctx.Behaviors.ActiveBehaviors()
	switch {
	case c.Inactive:
		list = ctx.Behaviors.InactiveBehaviors()
	case c.All:
		list = ctx.Behaviors.Behaviors()
	}

	if len(list) == 0 {
		fmt.Println("No behaviors found.")
		return nil
	}

	today := ctx.Today()
	for _, b := range list {
		status := ""
		if !b.IsActive() {
			status = tui.MutedStyle.Render(" [INACTIVE]")
		}
		total := ctx.Behaviors.DailyTotal(b.ID, today)
		fmt.Printf("%s  %-16s %-9s today: %g %s%s\n", cli.ShortID(b.ID), b.Name, b.Type, total, b.Units, status)
	}
	return nil
}

type BehaviorEditCmd struct {
	Behavior    string  `arg:"" help:"Behavior name or id."`
	Name        *string `help:"New name."`
	Type        *string `help:"New type."`
	Units       *string `help:"New units."`
	Interactive bool    `short:"i" help:"Edit with a form."`
}

func (c *BehaviorEditCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}

	var patch models.BehaviorPatch
	if c.Interactive {
		fm := tui.BehaviorFormFrom(b)
		if err := tui.RunBehaviorForm(fm); err != nil {
			return err
		}
		patch = fm.Patch(b)
	} else {
		patch.Name = c.Name
		patch.Units = c.Units
		if c.Type != nil {
			t, err := parseType(*c.Type)
			if err != nil {
				return err
			}
			patch.Type = &t
		}
	}

	updated, err := ctx.Behaviors.UpdateBehavior(ctx.Ctx, b.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated behavior: %s\n", updated.Name)
	return nil
}

type BehaviorDeactivateCmd struct {
	Behavior string `arg:"" help:"Behavior name or id."`
}

func (c *BehaviorDeactivateCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}
	if _, err := ctx.Behaviors.DeactivateBehavior(ctx.Ctx, b.ID); err != nil {
		return err
	}
	fmt.Printf("Deactivated behavior: %s\n", b.Name)
	return nil
}

type BehaviorReactivateCmd struct {
	Behavior string `arg:"" help:"Behavior name or id."`
}

func (c *BehaviorReactivateCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}
	if _, err := ctx.Behaviors.ReactivateBehavior(ctx.Ctx, b.ID); err != nil {
		return err
	}
	fmt.Printf("Reactivated behavior: %s\n", b.Name)
	return nil
}

type BehaviorDeleteCmd struct {
	Behavior string `arg:"" help:"Behavior name or id."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BehaviorDeleteCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := tui.ConfirmDelete(behaviors.KindBehavior, b.Name)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Behaviors.DeleteBehavior(ctx.Ctx, b.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted behavior: %s\n", b.Name)
	return nil
}

type BehaviorLogCmd struct {
	Behavior string   `arg:"" help:"Behavior name or id."`
	Quantity string   `arg:"" help:"Quantity, e.g. 20 reps or 15 minutes."`
	Weight   *float64 `help:"Weight used, for weight behaviors."`
	Notes    string   `help:"Optional note."`
	Date     string   `help:"Day to log against (YYYY-MM-DD, today, yesterday). Defaults to now."`
}

func (c *BehaviorLogCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}
	qty, err := models.ParseQuantity("quantity", c.Quantity)
	if err != nil {
		return err
	}

	l := models.BehaviorLog{BehaviorID: b.ID, Quantity: qty, Weight: c.Weight, Notes: c.Notes}
	if c.Date != "" {
		day, err := ctx.ParseDate(c.Date)
		if err != nil {
			return err
		}
		// Keep the time of day so same-day ordering survives.
		now := ctx.Now()
		l.Timestamp = time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, ctx.Location)
	}

	saved, err := ctx.Behaviors.CreateLog(ctx.Ctx, l)
	if err != nil {
		return err
	}
	total := ctx.Behaviors.DailyTotal(b.ID, saved.Timestamp)
	fmt.Printf("Logged %g %s of %s (total for %s: %g)\n", qty, b.Units, b.Name, saved.Timestamp.Format(constants.DateFormat), total)
	return nil
}

type BehaviorLogsCmd struct {
	Behavior string `arg:"" optional:"" help:"Behavior name or id. All behaviors when omitted."`
	Days     int    `help:"Number of days to show." default:"7"`
}

func (c *BehaviorLogsCmd) Run(ctx *cli.Context) error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	end := ctx.Now()
	start := ctx.Today().AddDate(0, 0, -(c.Days - 1))

	var logs []models.BehaviorLog
	if c.Behavior != "" {
		b, err := find(ctx, c.Behavior)
		if err != nil {
			return err
		}
		for _, l := range ctx.Behaviors.LogsForBehavior(b.ID) {
			if !l.Timestamp.Before(start) && !l.Timestamp.After(end) {
				logs = append(logs, l)
			}
		}
	} else {
		logs = ctx.Behaviors.LogsByDateRange(start, end)
	}

	if len(logs) == 0 {
		fmt.Println("No logs found.")
		return nil
	}

	names := map[string]models.Behavior{}
	for _, b := range ctx.Behaviors.Behaviors() {
		names[b.ID] = b
	}
	for _, l := range logs {
		b, ok := names[l.BehaviorID]
		name := b.Name
		if !ok {
			name = tui.MutedStyle.Render("(deleted)")
		}
		line := fmt.Sprintf("%s  %s  %-16s %g %s", cli.ShortID(l.ID), l.Timestamp.In(ctx.Location).Format(constants.DateFormat+" "+constants.TimeFormat), name, l.Quantity, b.Units)
		if l.Weight != nil {
			line += fmt.Sprintf(" @ %g", *l.Weight)
		}
		if l.Notes != "" {
			line += "  " + tui.MutedStyle.Render(l.Notes)
		}
		fmt.Println(line)
	}
	return nil
}

type BehaviorUnlogCmd struct {
	Log string `arg:"" help:"Log id as shown by 'behavior logs'."`
}

func (c *BehaviorUnlogCmd) Run(ctx *cli.Context) error {
	ids := make([]string, 0)
	for _, l := range ctx.Behaviors.Logs() {
		ids = append(ids, l.ID)
	}
	id, err := cli.ResolveID(behaviors.KindBehaviorLog, c.Log, ids)
	if err != nil {
		return err
	}
	if err := ctx.Behaviors.DeleteLog(ctx.Ctx, id); err != nil {
		return err
	}
	fmt.Println("Deleted log.")
	return nil
}

type BehaviorTotalCmd struct {
	Behavior string `arg:"" help:"Behavior name or id."`
	Date     string `help:"Day (YYYY-MM-DD, today, yesterday)." default:"today"`
}

func (c *BehaviorTotalCmd) Run(ctx *cli.Context) error {
	b, err := find(ctx, c.Behavior)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDate(c.Date)
	if err != nil {
		return err
	}
	total := ctx.Behaviors.DailyTotal(b.ID, day)
	fmt.Printf("%s on %s: %g %s\n", b.Name, day.Format(constants.DateFormat), total, b.Units)
	return nil
}

type BehaviorDefaultsCmd struct{}

func (c *BehaviorDefaultsCmd) Run(ctx *cli.Context) error {
	created, err := CreateMissingDefaults(ctx)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("Starter behaviors already exist.")
		return nil
	}
	for _, b := range created {
		fmt.Printf("Added behavior: %s\n", b.Name)
	}
	return nil
}

// CreateMissingDefaults adds the starter behaviors whose names are not taken.
func CreateMissingDefaults(ctx *cli.Context) ([]models.Behavior, error) {
	var created []models.Behavior
	for _, d := range behaviors.Defaults {
		if nameTaken(ctx, d.Name) {
			continue
		}
		b, err := ctx.Behaviors.CreateBehavior(ctx.Ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, b)
	}
	return created, nil
}
