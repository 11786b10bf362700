package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/ui"
)

func newDayCmd(app *App) *cobra.Command {
	var date timeValue

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the punches, segments and project times of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderDay(t.Day(date.day(app.now()))))
			return nil
		},
	}
	cmd.Flags().Var(&date, "date", "Day to show: YYYY-MM-DD, today or yesterday (default today)")
	return cmd
}
