package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/ui"
)

func newPunchCmd(app *App) *cobra.Command {
	var (
		at          timeValue
		next        bool
		description string
	)

	cmd := &cobra.Command{
		Use:   "punch [project]",
		Short: "Record that you switched to a project",
		Long: `Record a punch: from now on (or from --at) you work on the given project.
Without a project an interactive form is shown when running in a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}

			when := at.resolve(app.now())
			if next {
				when = t.NextSlot(when)
			}

			project := ""
			if len(args) == 1 {
				project = args[0]
			} else {
				if app.IsInteractive == nil || !app.IsInteractive() {
					return errors.New("project required (no terminal for the interactive form)")
				}
				in := ui.PunchInput{Description: description}
				if at.isSet() || next {
					in.Clock = when.Format(clockLayout)
				}
				projects, err := app.Projects().All()
				if err != nil {
					return storeErr(err)
				}
				if err := ui.PunchForm(projects, t.Recommendations(), &in).RunWithContext(ctx); err != nil {
					return err
				}
				project, description = in.Project, in.Description
				if strings.TrimSpace(in.Clock) != "" {
					when, err = parseTimeArg(in.Clock, when)
					if err != nil {
						return err
					}
				}
			}

			if err := rememberProject(app, project); err != nil {
				return err
			}
			previous := t.CurrentProject()
			p, err := t.AddPunch(ctx, when, project, description)
			if err != nil {
				return trackerErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Punched %s at %s (was %s)\n",
				p.Project, p.Key.Format("2006-01-02 15:04"), previous)
			return nil
		},
	}

	cmd.Flags().Var(&at, "at", "Punch time: HH:MM, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (default now)")
	cmd.Flags().BoolVar(&next, "next", false, "Punch a quarter hour after the last punch of the day")
	cmd.Flags().StringVarP(&description, "message", "m", "", "Description, e.g. \"ECM-42 fix login\"")
	return cmd
}

// rememberProject adds unknown user projects to the project list.
func rememberProject(app *App, project string) error {
	project = strings.TrimSpace(project)
	if project == "" || model.IsSystemProject(project) {
		return nil
	}
	list := app.Projects()
	names, err := list.Names()
	if err != nil {
		return storeErr(err)
	}
	if slices.Contains(names, project) {
		return nil
	}
	app.logger().Debug("new project", "project", project)
	return storeErr(list.Add(project))
}
