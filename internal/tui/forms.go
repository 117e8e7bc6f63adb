package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/logbook/internal/models"
)

type BehaviorFormModel struct {
	Name  string
	Type  models.BehaviorType
	Units string
}

// BehaviorFormFrom pre-fills the form for editing b.
func BehaviorFormFrom(b models.Behavior) *BehaviorFormModel {
	return &BehaviorFormModel{Name: b.Name, Type: b.Type, Units: b.Units}
}

func (fm BehaviorFormModel) Behavior() models.Behavior {
	return models.Behavior{
		Name:  strings.TrimSpace(fm.Name),
		Type:  fm.Type,
		Units: strings.TrimSpace(fm.Units),
	}
}

// Patch returns the changes relative to b.
func (fm BehaviorFormModel) Patch(b models.Behavior) models.BehaviorPatch {
	var p models.BehaviorPatch
	next := fm.Behavior()
	if next.Name != b.Name {
		p.Name = &next.Name
	}
	if next.Type != b.Type {
		p.Type = &next.Type
	}
	if next.Units != b.Units {
		p.Units = &next.Units
	}
	return p
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("behavior name cannot be empty")
	}
	return nil
}

func NewBehaviorForm(fm *BehaviorFormModel) *huh.Form {
	if fm.Type == "" {
		fm.Type = models.BehaviorReps
	}
	options := make([]huh.Option[models.BehaviorType], 0, len(models.BehaviorTypes))
	for _, t := range models.BehaviorTypes {
		options = append(options, huh.NewOption(string(t), t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Behavior Name").
				Value(&fm.Name).
				Validate(validateName),
			huh.NewSelect[models.BehaviorType]().
				Title("Type").
				Options(options...).
				Value(&fm.Type),
			huh.NewInput().
				Title("Units").
				Description("e.g. reps, minutes, kg, glasses").
				Value(&fm.Units),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewConfirmForm asks a yes/no question; the answer lands in confirmed.
func NewConfirmForm(title, description, affirmative string, confirmed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}

// ConfirmDelete runs a confirmation form for deleting name.
func ConfirmDelete(kind, name string) (bool, error) {
	return Confirm(
		fmt.Sprintf("Delete %s %q?", strings.ToLower(kind), name),
		DangerStyle.Render("This cannot be undone."),
		"Delete",
	)
}

func Confirm(title, description, affirmative string) (bool, error) {
	var confirmed bool
	if err := NewConfirmForm(title, description, affirmative, &confirmed).Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// RunBehaviorForm runs the form interactively and fills fm.
func RunBehaviorForm(fm *BehaviorFormModel) error {
	return NewBehaviorForm(fm).Run()
}
