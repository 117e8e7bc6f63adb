package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/tasks"
	"github.com/julianstephens/logbook/internal/tui"
)

type TaskListCmd struct {
	Add      TaskListAddCmd      `cmd:"" help:"Add a task list."`
	List     TaskListListCmd     `cmd:"" help:"Show task lists." default:"1"`
	Edit     TaskListEditCmd     `cmd:"" help:"Edit a task list."`
	Delete   TaskListDeleteCmd   `cmd:"" help:"Delete a task list and its tasks."`
	Defaults TaskListDefaultsCmd `cmd:"" help:"Create the starter lists."`
}

func findList(ctx *cli.Context, ref string) (models.TaskList, error) {
	return cli.Find(tasks.KindTaskList, ref, ctx.Tasks.Lists(),
		func(l models.TaskList) string { return l.ID },
		func(l models.TaskList) string { return l.Name })
}

func parseListType(s string) (models.ListType, error) {
	t := models.ListType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown list type %q (expected permanent, temporary or someday)", s)
	}
	return t, nil
}

func label(l models.TaskList) string {
	if l.Emoji == "" {
		return l.Name
	}
	return l.Emoji + " " + l.Name
}

type TaskListAddCmd struct {
	Name  string `arg:"" help:"List name."`
	Emoji string `help:"Emoji shown before the name."`
	Color string `help:"Display color, e.g. #4F8EF7."`
	Type  string `help:"List type (permanent, temporary, someday)." default:"permanent"`
}

func (c *TaskListAddCmd) Run(ctx *cli.Context) error {
	t, err := parseListType(c.Type)
	if err != nil {
		return err
	}
	for _, l := range ctx.Tasks.Lists() {
		if strings.EqualFold(l.Name, strings.TrimSpace(c.Name)) {
			return fmt.Errorf("task list %q already exists", c.Name)
		}
	}
	l, err := ctx.Tasks.CreateList(ctx.Ctx, models.TaskList{
		Name:     strings.TrimSpace(c.Name),
		Emoji:    c.Emoji,
		Color:    c.Color,
		ListType: t,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added list: %s\n", label(l))
	return nil
}

type TaskListListCmd struct{}

func (c *TaskListListCmd) Run(ctx *cli.Context) error {
	lists := ctx.Tasks.Lists()
	if len(lists) == 0 {
		fmt.Println("No task lists found. Run 'logbook tasklist defaults' to add some.")
		return nil
	}
	for _, l := range lists {
		active, err := ctx.Tasks.ActiveTasks(ctx.Ctx, l.ID)
		if err != nil {
			return err
		}
		open := 0
		for _, t := range active {
			if !t.Completed {
				open++
			}
		}
		fmt.Printf("%s  %-20s %s\n", cli.ShortID(l.ID), label(l),
			tui.MutedStyle.Render(fmt.Sprintf("%d open, %d done (%s)", open, len(active)-open, l.ListType)))
	}
	return nil
}

type TaskListEditCmd struct {
	List  string  `arg:"" help:"List name or id."`
	Name  *string `help:"New name."`
	Emoji *string `help:"New emoji."`
	Color *string `help:"New color."`
	Type  *string `help:"New list type."`
}

func (c *TaskListEditCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	patch := models.TaskListPatch{Name: c.Name, Emoji: c.Emoji, Color: c.Color}
	if c.Type != nil {
		t, err := parseListType(*c.Type)
		if err != nil {
			return err
		}
		patch.ListType = &t
	}
	updated, err := ctx.Tasks.UpdateList(ctx.Ctx, l.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated list: %s\n", label(updated))
	return nil
}

type TaskListDeleteCmd struct {
	List string `arg:"" help:"List name or id."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *TaskListDeleteCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := tui.ConfirmDelete(tasks.KindTaskList, l.Name)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}
	ctx.PerformAutomaticBackup()
	if err := ctx.Tasks.DeleteList(ctx.Ctx, l.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted list: %s\n", label(l))
	return nil
}

type TaskListDefaultsCmd struct{}

func (c *TaskListDefaultsCmd) Run(ctx *cli.Context) error {
	created, err := CreateMissingDefaults(ctx)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("Starter lists already exist.")
		return nil
	}
	for _, l := range created {
		fmt.Printf("Added list: %s\n", label(l))
	}
	return nil
}

// CreateMissingDefaults adds the starter lists whose names are free.
func CreateMissingDefaults(ctx *cli.Context) ([]models.TaskList, error) {
	taken := map[string]bool{}
	for _, l := range ctx.Tasks.Lists() {
		taken[strings.ToLower(l.Name)] = true
	}
	var created []models.TaskList
	for _, d := range tasks.Defaults {
		if taken[strings.ToLower(d.Name)] {
			continue
		}
		l, err := ctx.Tasks.CreateList(ctx.Ctx, d)
		if err != nil {
			return created, err
		}
		created = append(created, l)
	}
	return created, nil
}
