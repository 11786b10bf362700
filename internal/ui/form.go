package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/Tiliavir/project-time/internal/model"
)

// PunchInput collects the fields of an interactive punch.
type PunchInput struct {
	Project     string
	Description string
	// Clock is "HH:MM"; empty means now.
	Clock string
}

// PunchForm asks for project, description and time. Recommended clock times
// are offered as suggestions.
func PunchForm(projects, recommendations []string, in *PunchInput) *huh.Form {
	options := make([]huh.Option[string], 0, len(projects))
	for _, p := range projects {
		options = append(options, huh.NewOption(model.Icon(p)+" "+p, p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project").
				Options(options...).
				Value(&in.Project),
			huh.NewInput().
				Title("Description").
				Placeholder("optional, e.g. ECM-42 fix login").
				Value(&in.Description),
			huh.NewInput().
				Title("Time (HH:MM, blank for now)").
				Placeholder(time.Now().Format("15:04")).
				Suggestions(recommendations).
				Value(&in.Clock).
				Validate(ValidateClock),
		),
	).WithTheme(HuhTheme()).WithShowHelp(false)
}

// ValidateClock accepts an empty string or a "HH:MM" clock time.
func ValidateClock(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("use HH:MM, e.g. 08:30")
	}
	return nil
}
