package activities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/activities"
	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/stats"
	"github.com/julianstephens/logbook/internal/tui"
	"github.com/julianstephens/logbook/internal/utils"
)

type ActivityTypeCmd struct {
	Add        TypeAddCmd        `cmd:"" help:"Add an activity type."`
	List       TypeListCmd       `cmd:"" help:"List activity types." default:"1"`
	Edit       TypeEditCmd       `cmd:"" help:"Edit an activity type."`
	Deactivate TypeDeactivateCmd `cmd:"" help:"Deactivate an activity type."`
	Reactivate TypeReactivateCmd `cmd:"" help:"Reactivate an activity type."`
	Delete     TypeDeleteCmd     `cmd:"" help:"Delete an unused activity type."`
	Defaults   TypeDefaultsCmd   `cmd:"" help:"Create the starter activity types."`
}

type ActivityCmd struct {
	Add      ActivityAddCmd      `cmd:"" help:"Add an activity."`
	List     ActivityListCmd     `cmd:"" help:"List activities."`
	Edit     ActivityEditCmd     `cmd:"" help:"Edit an activity."`
	Complete ActivityCompleteCmd `cmd:"" help:"Mark an activity completed."`
	Reopen   ActivityReopenCmd   `cmd:"" help:"Reopen a completed activity."`
	Delete   ActivityDeleteCmd   `cmd:"" help:"Delete an activity. Its logs are kept."`
	Logs     ActivityLogsCmd     `cmd:"" help:"Show timed sessions."`
}

func findType(ctx *cli.Context, ref string) (models.ActivityType, error) {
	return cli.Find(activities.KindType, ref, ctx.Activities.Types(),
		func(t models.ActivityType) string { return t.ID },
		func(t models.ActivityType) string { return t.Name })
}

func findActivity(ctx *cli.Context, ref string) (models.ActivityInstance, error) {
	return cli.Find(activities.KindInstance, ref, ctx.Activities.Instances(),
		func(a models.ActivityInstance) string { return a.ID },
		func(a models.ActivityInstance) string { return a.Title })
}

// title resolves an activity id for display, falling back to the short id.
func title(ctx *cli.Context, id string) string {
	for _, a := range ctx.Activities.Instances() {
		if a.ID == id {
			return a.Title
		}
	}
	return cli.ShortID(id)
}

type TypeAddCmd struct {
	Name  string `arg:"" help:"Type name."`
	Color string `help:"Display color, e.g. #4F8EF7."`
}

func (c *TypeAddCmd) Run(ctx *cli.Context) error {
	name := strings.TrimSpace(c.Name)
	for _, t := range ctx.Activities.Types() {
		if strings.EqualFold(t.Name, name) {
			return fmt.Errorf("activity type %q already exists", name)
		}
	}
	t, err := ctx.Activities.CreateType(ctx.Ctx, models.ActivityType{Name: name, Color: c.Color})
	if err != nil {
		return err
	}
	fmt.Printf("Added activity type: %s\n", t.Name)
	return nil
}

type TypeListCmd struct {
	All      bool `help:"Include inactive types."`
	Inactive bool `help:"Show only inactive types."`
}

func (c *TypeListCmd) Run(ctx *cli.Context) error {
	list := ctx.Activities.ActiveTypes()
	switch {
	case c.Inactive:
		list = ctx.Activities.InactiveTypes()
	case c.All:
		list = ctx.Activities.Types()
	}
	if len(list) == 0 {
		fmt.Println("No activity types found.")
		return nil
	}
	for _, t := range list {
		status := ""
		if !t.IsActive() {
			status = tui.MutedStyle.Render(" [INACTIVE]")
		}
		fmt.Printf("%s  %-16s %s%s\n", cli.ShortID(t.ID), t.Name, t.Color, status)
	}
	return nil
}

type TypeEditCmd struct {
	Type  string  `arg:"" help:"Type name or id."`
	Name  *string `help:"New name."`
	Color *string `help:"New color."`
}

func (c *TypeEditCmd) Run(ctx *cli.Context) error {
	t, err := findType(ctx, c.Type)
	if err != nil {
		return err
	}
	updated, err := ctx.Activities.UpdateType(ctx.Ctx, t.ID, models.ActivityTypePatch{Name: c.Name, Color: c.Color})
	if err != nil {
		return err
	}
	fmt.Printf("Updated activity type: %s\n", updated.Name)
	return nil
}

type TypeDeactivateCmd struct {
	Type string `arg:"" help:"Type name or id."`
}

func (c *TypeDeactivateCmd) Run(ctx *cli.Context) error {
	t, err := findType(ctx, c.Type)
	if err != nil {
		return err
	}
	if _, err := ctx.Activities.DeactivateType(ctx.Ctx, t.ID); err != nil {
		return err
	}
	fmt.Printf("Deactivated activity type: %s\n", t.Name)
	return nil
}

type TypeReactivateCmd struct {
	Type string `arg:"" help:"Type name or id."`
}

func (c *TypeReactivateCmd) Run(ctx *cli.Context) error {
	t, err := findType(ctx, c.Type)
	if err != nil {
		return err
	}
	if _, err := ctx.Activities.ReactivateType(ctx.Ctx, t.ID); err != nil {
		return err
	}
	fmt.Printf("Reactivated activity type: %s\n", t.Name)
	return nil
}

type TypeDeleteCmd struct {
	Type string `arg:"" help:"Type name or id."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *TypeDeleteCmd) Run(ctx *cli.Context) error {
	t, err := findType(ctx, c.Type)
	if err != nil {
		return err
	}
	used := 0
	for _, a := range ctx.Activities.Instances() {
		if a.TypeID == t.ID {
			used++
		}
	}
	if used > 0 {
		return fmt.Errorf("activity type %q still has %d activities; deactivate it instead", t.Name, used)
	}
	if !c.Yes {
		ok, err := tui.ConfirmDelete(activities.KindType, t.Name)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Activities.DeleteType(ctx.Ctx, t.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted activity type: %s\n", t.Name)
	return nil
}

type TypeDefaultsCmd struct{}

func (c *TypeDefaultsCmd) Run(ctx *cli.Context) error {
	created, err := CreateMissingDefaults(ctx)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("Starter activity types already exist.")
		return nil
	}
	for _, t := range created {
		fmt.Printf("Added activity type: %s\n", t.Name)
	}
	return nil
}

// CreateMissingDefaults adds the starter types whose names are free.
func CreateMissingDefaults(ctx *cli.Context) ([]models.ActivityType, error) {
	taken := map[string]bool{}
	for _, t := range ctx.Activities.Types() {
		taken[strings.ToLower(t.Name)] = true
	}
	var created []models.ActivityType
	for _, d := range activities.Defaults {
		if taken[strings.ToLower(d.Name)] {
			continue
		}
		t, err := ctx.Activities.CreateType(ctx.Ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, t)
	}
	return created, nil
}

type ActivityAddCmd struct {
	Type        string   `arg:"" help:"Activity type name or id."`
	Title       []string `arg:"" help:"Activity title."`
	Description string   `help:"Optional description."`
}

func (c *ActivityAddCmd) Run(ctx *cli.Context) error {
	t, err := findType(ctx, c.Type)
	if err != nil {
		return err
	}
	if !t.IsActive() {
		return fmt.Errorf("activity type %q is inactive", t.Name)
	}
	a, err := ctx.Activities.CreateInstance(ctx.Ctx, models.ActivityInstance{
		Title:       strings.Join(c.Title, " "),
		Description: c.Description,
		TypeID:      t.ID,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added activity: %s (%s)\n", a.Title, cli.ShortID(a.ID))
	return nil
}

type ActivityListCmd struct {
	All bool `help:"Include completed activities."`
}

func (c *ActivityListCmd) Run(ctx *cli.Context) error {
	list := ctx.Activities.OpenInstances()
	if c.All {
		list = ctx.Activities.Instances()
	}
	if len(list) == 0 {
		fmt.Println("No activities found.")
		return nil
	}
	for _, a := range list {
		typeName := cli.ShortID(a.TypeID)
		if t, ok := ctx.Activities.Type(a.TypeID); ok {
			typeName = t.Name
		}
		status := ""
		if a.Completed {
			status = tui.MutedStyle.Render(" [DONE]")
		}
		fmt.Printf("%s  %-24s %-10s total: %s%s\n", cli.ShortID(a.ID), a.Title, typeName,
			utils.FormatDuration(ctx.Activities.TotalDuration(a.ID)), status)
	}
	return nil
}

type ActivityEditCmd struct {
	Activity    string  `arg:"" help:"Activity title or id."`
	Title       *string `help:"New title."`
	Description *string `help:"New description."`
	Type        *string `help:"New activity type name or id."`
}

func (c *ActivityEditCmd) Run(ctx *cli.Context) error {
	a, err := findActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	patch := models.ActivityInstancePatch{Title: c.Title, Description: c.Description}
	if c.Type != nil {
		t, err := findType(ctx, *c.Type)
		if err != nil {
			return err
		}
		patch.TypeID = &t.ID
	}
	updated, err := ctx.Activities.UpdateInstance(ctx.Ctx, a.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated activity: %s\n", updated.Title)
	return nil
}

type ActivityCompleteCmd struct {
	Activity string `arg:"" help:"Activity title or id."`
}

func (c *ActivityCompleteCmd) Run(ctx *cli.Context) error {
	a, err := findActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	if _, err := ctx.Activities.CompleteInstance(ctx.Ctx, a.ID); err != nil {
		return err
	}
	fmt.Printf("Completed activity: %s\n", a.Title)
	return nil
}

type ActivityReopenCmd struct {
	Activity string `arg:"" help:"Activity title or id."`
}

func (c *ActivityReopenCmd) Run(ctx *cli.Context) error {
	a, err := findActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	if _, err := ctx.Activities.ReopenInstance(ctx.Ctx, a.ID); err != nil {
		return err
	}
	fmt.Printf("Reopened activity: %s\n", a.Title)
	return nil
}

type ActivityDeleteCmd struct {
	Activity string `arg:"" help:"Activity title or id."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ActivityDeleteCmd) Run(ctx *cli.Context) error {
	a, err := findActivity(ctx, c.Activity)
	if err != nil {
		return err
	}
	s, err := ctx.Timer.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	if s != nil && inSession(*s, a.ID) {
		return fmt.Errorf("activity %q is being timed; stop the timer first", a.Title)
	}
	if !c.Yes {
		ok, err := tui.ConfirmDelete(activities.KindInstance, a.Title)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Activities.DeleteInstance(ctx.Ctx, a.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted activity: %s\n", a.Title)
	return nil
}

func inSession(s models.ActivitySession, activityID string) bool {
	if s.CurrentLog.ActivityID == activityID {
		return true
	}
	for _, l := range s.PausedActivityStack {
		if l.ActivityID == activityID {
			return true
		}
	}
	return false
}

type ActivityLogsCmd struct {
	Activity string `arg:"" optional:"" help:"Activity title or id. All activities when omitted."`
	Days     int    `help:"Number of days to show." default:"7"`
}

func (c *ActivityLogsCmd) Run(ctx *cli.Context) error {
	end := ctx.Now()
	start := ctx.Today().AddDate(0, 0, -(c.Days - 1))
	logs := ctx.Activities.LogsByDateRange(start, end)

	if c.Activity != "" {
		a, err := findActivity(ctx, c.Activity)
		if err != nil {
			return err
		}
		filtered := logs[:0]
		for _, l := range logs {
			if l.ActivityID == a.ID {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}

	if len(logs) == 0 {
		fmt.Println("No timed sessions found.")
		return nil
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].StartTime.Before(logs[j].StartTime) })
	days := stats.GroupByDay(logs, func(l models.ActivityLog) time.Time { return l.StartTime.In(ctx.Location) })
	var total time.Duration
	for _, day := range days {
		fmt.Println(tui.TitleStyle.Render(day.Day.Format(constants.DateFormat)))
		for _, l := range day.Items {
			span := l.StartTime.In(ctx.Location).Format(constants.TimeFormat)
			if l.EndTime != nil {
				span += "-" + l.EndTime.In(ctx.Location).Format(constants.TimeFormat)
			}
			fmt.Printf("  %-11s  %-24s %-8s %s\n", span, title(ctx, l.ActivityID), utils.FormatDuration(l.Elapsed()), l.Notes)
			total += l.Elapsed()
		}
	}
	fmt.Println(tui.MutedStyle.Render(fmt.Sprintf("Total: %s", utils.FormatDuration(total))))
	return nil
}
