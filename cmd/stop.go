package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

func newStopCmd(app *App) *cobra.Command {
	var (
		at          timeValue
		description string
	)

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Punch None to end the workday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}

			current, running := t.Current()
			when := at.resolve(app.now())
			p, err := t.AddPunch(ctx, when, model.ProjectNone, description)
			if err != nil {
				return trackerErr(err)
			}

			out := cmd.OutOrStdout()
			if !running || current.Project == model.ProjectNone || !timecalc.SameDay(current.Key, p.Key) || p.Key.Before(current.Key) {
				fmt.Fprintf(out, "Punched %s at %s\n", model.ProjectNone, p.Key.Format(clockLayout))
				return nil
			}
			elapsed := int64(p.Key.Sub(current.Key) / time.Second)
			fmt.Fprintf(out, "Stopped %s at %s after %s\n", current.Project, p.Key.Format(clockLayout), timecalc.FormatDuration(elapsed))
			return nil
		},
	}

	cmd.Flags().Var(&at, "at", "Stop time: HH:MM or \"YYYY-MM-DD HH:MM\" (default now)")
	cmd.Flags().StringVarP(&description, "message", "m", "", "Optional description")
	return cmd
}
