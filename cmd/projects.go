package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/ui"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage the project list offered by the punch form",
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List system and user projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := app.Projects().All()
			if err != nil {
				return storeErr(err)
			}
			out := cmd.OutOrStdout()
			for _, name := range names {
				kind := ""
				if model.IsSystemProject(name) {
					kind = ui.Dim("  (system)")
				}
				fmt.Fprintln(out, ui.Project(name)+kind)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Projects().Add(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added project %q\n", args[0])
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a project from the list; its punches are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Projects().Remove(args[0]); err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed project %q\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(ls, add, rm)
	return cmd
}
