package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
	"github.com/Tiliavir/project-time/internal/ui"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current project and today's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			now := app.now()
			out := cmd.OutOrStdout()

			current, ok := t.Current()
			if ok && current.Project != model.ProjectNone && !current.Key.After(now) {
				fmt.Fprintln(out, "Running:")
				fmt.Fprintf(out, "  Project: %s\n", ui.Project(current.Project))
				if current.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", current.Description)
				}
				fmt.Fprintf(out, "  Since: %s\n", current.Timestamp.Format("2006-01-02 15:04"))
				fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(int64(now.Sub(current.Key)/time.Second)))
			} else {
				fmt.Fprintln(out, "Not punched in.")
			}

			today := t.Day(now)
			week := t.Week(now)
			fmt.Fprintf(out, "Today: %s worked, balance %s\n", timecalc.FormatHours(today.TotalHours), ui.Balance(today.Balance))
			fmt.Fprintf(out, "Week:  %s worked, balance %s\n", timecalc.FormatHours(week.TotalHours), ui.Balance(week.Balance))
			fmt.Fprintf(out, "Total balance: %s\n", ui.Balance(t.TotalBalance()))
			return nil
		},
	}
}

func newSuggestCmd(app *App) *cobra.Command {
	var date timeValue

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show the usual punch times and the next free slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if recs := t.Recommendations(); len(recs) > 0 {
				fmt.Fprintf(out, "Usual times: %s\n", strings.Join(recs, " "))
			} else {
				fmt.Fprintln(out, "No punches in the last three months.")
			}
			fmt.Fprintf(out, "Next slot:   %s\n", t.NextSlot(date.day(app.now())).Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().Var(&date, "date", "Day for the next slot (default today)")
	return cmd
}
