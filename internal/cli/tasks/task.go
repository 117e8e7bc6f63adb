package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/tasks"
	"github.com/julianstephens/logbook/internal/tui"
)

type TaskCmd struct {
	Add     TaskAddCmd     `cmd:"" help:"Add a task to a list."`
	List    TaskShowCmd    `cmd:"" help:"Show the tasks in a list."`
	Edit    TaskEditCmd    `cmd:"" help:"Edit a task."`
	Done    TaskDoneCmd    `cmd:"" help:"Mark tasks completed."`
	Undone  TaskUndoneCmd  `cmd:"" help:"Mark tasks not completed."`
	Toggle  TaskToggleCmd  `cmd:"" help:"Flip a task's completed state."`
	Delete  TaskDeleteCmd  `cmd:"" help:"Delete tasks (they can be restored)."`
	Restore TaskRestoreCmd `cmd:"" help:"Restore deleted tasks."`
	Move    TaskMoveCmd    `cmd:"" help:"Move tasks to another list."`
}

// resolveTasks maps id refs to tasks within the list.
func resolveTasks(ctx *cli.Context, listID string, refs []string) ([]models.Task, error) {
	all, err := ctx.Tasks.Tasks(ctx.Ctx, listID)
	if err != nil {
		return nil, err
	}
	known := make([]string, len(all))
	for i, t := range all {
		known[i] = t.ID
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := cli.ResolveID(tasks.KindTask, ref, known)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ctx.Tasks.FindTasks(ctx.Ctx, listID, ids)
}

func checkbox(t models.Task) string {
	if t.Completed {
		return tui.RunningStyle.Render("[x]")
	}
	return "[ ]"
}

type TaskAddCmd struct {
	List        string   `arg:"" help:"List name or id."`
	Description []string `arg:"" help:"Task description."`
	Notes       string   `help:"Optional notes."`
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	t, err := ctx.Tasks.CreateTask(ctx.Ctx, l.ID, models.Task{
		Description: strings.Join(c.Description, " "),
		Notes:       c.Notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added to %s: %s (%s)\n", label(l), t.Description, cli.ShortID(t.ID))
	return nil
}

type TaskShowCmd struct {
	List    string `arg:"" help:"List name or id."`
	Deleted bool   `help:"Show deleted tasks instead."`
}

func (c *TaskShowCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	var list []models.Task
	if c.Deleted {
		list, err = ctx.Tasks.DeletedTasks(ctx.Ctx, l.ID)
	} else {
		list, err = ctx.Tasks.ActiveTasks(ctx.Ctx, l.ID)
	}
	if err != nil {
		return err
	}

	fmt.Println(tui.TitleStyle.Render(label(l)))
	if len(list) == 0 {
		fmt.Println(tui.MutedStyle.Render("  (empty)"))
		return nil
	}
	for _, t := range list {
		line := fmt.Sprintf("  %s %s  %s", checkbox(t), cli.ShortID(t.ID), t.Description)
		if t.Notes != "" {
			line += "  " + tui.MutedStyle.Render(t.Notes)
		}
		fmt.Println(line)
	}
	return nil
}

type TaskEditCmd struct {
	List        string  `arg:"" help:"List name or id."`
	Task        string  `arg:"" help:"Task id."`
	Description *string `help:"New description."`
	Notes       *string `help:"New notes."`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	found, err := resolveTasks(ctx, l.ID, []string{c.Task})
	if err != nil {
		return err
	}
	t, err := ctx.Tasks.UpdateTask(ctx.Ctx, l.ID, found[0].ID, models.TaskPatch{Description: c.Description, Notes: c.Notes})
	if err != nil {
		return err
	}
	fmt.Printf("Updated task: %s\n", t.Description)
	return nil
}

type TaskDoneCmd struct {
	List  string   `arg:"" help:"List name or id."`
	Tasks []string `arg:"" help:"Task ids."`
}

func (c *TaskDoneCmd) Run(ctx *cli.Context) error {
	return setCompleted(ctx, c.List, c.Tasks, true)
}

type TaskUndoneCmd struct {
	List  string   `arg:"" help:"List name or id."`
	Tasks []string `arg:"" help:"Task ids."`
}

func (c *TaskUndoneCmd) Run(ctx *cli.Context) error {
	return setCompleted(ctx, c.List, c.Tasks, false)
}

func setCompleted(ctx *cli.Context, listRef string, refs []string, completed bool) error {
	l, err := findList(ctx, listRef)
	if err != nil {
		return err
	}
	found, err := resolveTasks(ctx, l.ID, refs)
	if err != nil {
		return err
	}
	if err := ctx.Tasks.SetTasksCompleted(ctx.Ctx, found, l.ID, completed); err != nil {
		return err
	}
	state := "completed"
	if !completed {
		state = "not completed"
	}
	fmt.Printf("Marked %d task(s) %s\n", len(found), state)
	return nil
}

type TaskToggleCmd struct {
	List string `arg:"" help:"List name or id."`
	Task string `arg:"" help:"Task id."`
}

func (c *TaskToggleCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	found, err := resolveTasks(ctx, l.ID, []string{c.Task})
	if err != nil {
		return err
	}
	t, err := ctx.Tasks.ToggleTask(ctx.Ctx, l.ID, found[0].ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", checkbox(t), t.Description)
	return nil
}

type TaskDeleteCmd struct {
	List  string   `arg:"" help:"List name or id."`
	Tasks []string `arg:"" help:"Task ids."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	found, err := resolveTasks(ctx, l.ID, c.Tasks)
	if err != nil {
		return err
	}
	if err := ctx.Tasks.DeleteTasks(ctx.Ctx, found, l.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %d task(s) from %s\n", len(found), label(l))
	return nil
}

type TaskRestoreCmd struct {
	List  string   `arg:"" help:"List name or id."`
	Tasks []string `arg:"" help:"Task ids."`
}

func (c *TaskRestoreCmd) Run(ctx *cli.Context) error {
	l, err := findList(ctx, c.List)
	if err != nil {
		return err
	}
	found, err := resolveTasks(ctx, l.ID, c.Tasks)
	if err != nil {
		return err
	}
	if err := ctx.Tasks.RestoreTasks(ctx.Ctx, found, l.ID); err != nil {
		return err
	}
	fmt.Printf("Restored %d task(s) in %s\n", len(found), label(l))
	return nil
}

type TaskMoveCmd struct {
	From  string   `arg:"" help:"Source list name or id."`
	To    string   `arg:"" help:"Destination list name or id."`
	Tasks []string `arg:"" help:"Task ids."`
}

func (c *TaskMoveCmd) Run(ctx *cli.Context) error {
	from, err := findList(ctx, c.From)
	if err != nil {
		return err
	}
	to, err := findList(ctx, c.To)
	if err != nil {
		return err
	}
	if from.ID == to.ID {
		return fmt.Errorf("source and destination lists are the same")
	}
	found, err := resolveTasks(ctx, from.ID, c.Tasks)
	if err != nil {
		return err
	}
	if err := ctx.Tasks.MoveTasks(ctx.Ctx, found, from.ID, to.ID); err != nil {
		return err
	}
	fmt.Printf("Moved %d task(s) from %s to %s\n", len(found), label(from), label(to))
	if ctx.Tasks.Policy() == tasks.MoveKeepSource {
		fmt.Println(tui.MutedStyle.Render("Source copies kept as archived records (--move-policy purge-source removes them)."))
	}
	return nil
}
