package system

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/logbook/internal/cli"
	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/models"
	"github.com/julianstephens/logbook/internal/storage"
	"github.com/julianstephens/logbook/internal/tasks"
	"github.com/julianstephens/logbook/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*cli.Context) error
	warning bool
	needsDB bool
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Index integrity", run: checkIndexes, needsDB: true},
	{name: "Activity session", run: checkSession, needsDB: true},
	{name: "Unindexed task records", run: checkTaskRecords, warning: true, needsDB: true},
	{name: "Backups present", run: checkBackupsPresent, warning: true},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warning:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Database reachable" {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		return errors.New("diagnostics found problems")
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	_, err := ctx.Engine.Keys(ctx.Ctx, constants.LabelBehaviors)
	return err
}

type schemaValidator interface {
	ValidateSchema() error
}

func checkSchemaVersion(ctx *cli.Context) error {
	v, ok := ctx.Engine.(schemaValidator)
	if !ok {
		return nil
	}
	return v.ValidateSchema()
}

type index struct {
	name        string
	label, id   string
	entityLabel string
	readable    func(context.Context, *storage.Store, string, string) (bool, error)
}

func indexes(ctx *cli.Context) []index {
	list := []index{
		{"behaviors", constants.LabelBehaviors, constants.IndexID, constants.LabelBehavior, storage.Exists[models.Behavior]},
		{"behavior logs", constants.LabelBehaviorLogs, constants.IndexID, constants.LabelBehaviorLog, storage.Exists[models.BehaviorLog]},
		{"reflection questions", constants.LabelReflectionQuestions, constants.IndexID, constants.LabelReflectionQuestion, storage.Exists[models.ReflectionQuestion]},
		{"reflection responses", constants.LabelReflectionResponses, constants.IndexID, constants.LabelReflectionResponse, storage.Exists[models.ReflectionResponse]},
		{"task lists", constants.LabelTaskLists, constants.IndexID, constants.LabelTaskList, storage.Exists[models.TaskList]},
		{"activity types", constants.LabelActivityTypes, constants.IndexID, constants.LabelActivityType, storage.Exists[models.ActivityType]},
		{"activities", constants.LabelActivityInstances, constants.IndexID, constants.LabelActivityInstance, storage.Exists[models.ActivityInstance]},
		{"activity logs", constants.LabelActivityLogs, constants.IndexID, constants.LabelActivityLog, storage.Exists[models.ActivityLog]},
	}
	for _, q := range ctx.Reflections.Questions() {
		list = append(list, index{"responses for " + q.Text, constants.LabelReflectionResponses, q.ID, constants.LabelReflectionResponse, storage.Exists[models.ReflectionResponse]})
	}
	for _, l := range ctx.Tasks.Lists() {
		list = append(list, index{"tasks in " + l.Name, constants.LabelTaskListTasks, l.ID, tasks.TaskLabel(l.ID), storage.Exists[models.Task]})
	}
	return list
}

// danglingIDs returns index ids with no record behind them, and ids whose
// record is stored but no longer decodes or validates.
func danglingIDs(ctx *cli.Context, idx index) (missing, unreadable []string, err error) {
	ids, err := ctx.Store.IDs(ctx.Ctx, idx.label, idx.id)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ids {
		present, err := ctx.Store.Present(ctx.Ctx, idx.entityLabel, id)
		if err != nil {
			return nil, nil, err
		}
		if !present {
			missing = append(missing, id)
			continue
		}
		ok, err := idx.readable(ctx.Ctx, ctx.Store, idx.entityLabel, id)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			unreadable = append(unreadable, id)
		}
	}
	return missing, unreadable, nil
}

func checkIndexes(ctx *cli.Context) error {
	var problems []string
	for _, idx := range indexes(ctx) {
		missing, unreadable, err := danglingIDs(ctx, idx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s: %d id(s) without a record (%s)", idx.name, len(missing), strings.Join(missing, ", ")))
		}
		if len(unreadable) > 0 {
			problems = append(problems, fmt.Sprintf("%s: %d unreadable record(s) (%s)", idx.name, len(unreadable), strings.Join(unreadable, ", ")))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func checkSession(ctx *cli.Context) error {
	s, err := ctx.Timer.Session(ctx.Ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("stored session is invalid: %w", err)
	}
	for _, id := range append([]string{s.CurrentLog.ActivityID}, stackIDs(s.PausedActivityStack)...) {
		if _, err := ctx.Activities.FetchInstance(ctx.Ctx, id); err != nil {
			return fmt.Errorf("session references activity %s: %w", id, err)
		}
	}
	return nil
}

// checkTaskRecords reports task records no list index points at. Moving
// tasks with the keep-source policy leaves these behind on purpose.
func checkTaskRecords(ctx *cli.Context) error {
	keys, err := ctx.Engine.Keys(ctx.Ctx, constants.LabelTask+"-")
	if err != nil {
		return err
	}
	indexed := map[string]bool{}
	for _, l := range ctx.Tasks.Lists() {
		ids, err := ctx.Store.IDs(ctx.Ctx, constants.LabelTaskListTasks, l.ID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			indexed[storage.Key(tasks.TaskLabel(l.ID), id)] = true
		}
	}
	orphans := 0
	for _, k := range keys {
		if !indexed[k] {
			orphans++
		}
	}
	if orphans > 0 {
		return fmt.Errorf("%d task record(s) are not in any list (archived by moves or left by deleted lists)", orphans)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return nil
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.Dir())
	}
	if age := time.Since(backups[0].CreatedAt); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if ctx.Location == nil {
		return errors.New("no timezone configured")
	}
	if name := ctx.Location.String(); !utils.ValidateTimezone(name) {
		return fmt.Errorf("timezone %q cannot be loaded", name)
	}
	now := ctx.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func stackIDs(stack []models.ActivityLog) []string {
	ids := make([]string, len(stack))
	for i, l := range stack {
		ids[i] = l.ActivityID
	}
	return ids
}
