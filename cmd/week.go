package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/project-time/internal/notify"
	"github.com/Tiliavir/project-time/internal/timecalc"
	"github.com/Tiliavir/project-time/internal/tracker"
	"github.com/Tiliavir/project-time/internal/ui"
)

func newWeekCmd(app *App) *cobra.Command {
	var (
		date    timeValue
		format  string
		toSlack bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the days and project totals of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}
			week := t.Week(date.day(app.now()))

			if err := ui.WriteWeek(cmd.OutOrStdout(), week, format); err != nil {
				return err
			}
			if !toSlack {
				return nil
			}
			if err := notify.NewSlack(app.Config.Slack.WebhookURL, app.HTTPClient).PostWeek(ctx, week); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Posted to Slack.")
			return nil
		},
	}
	cmd.Flags().Var(&date, "date", "Any day of the week (default today)")
	cmd.Flags().StringVar(&format, "format", ui.FormatText, "Output format: text, md, csv, json, yaml")
	cmd.Flags().BoolVar(&toSlack, "slack", false, "Also post the summary to the configured Slack webhook")
	return cmd
}

func newWeeksCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List all weeks and the overall balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderWeeks(t.Weeks(), t.TotalBalance()))
			return nil
		},
	}
}

func newTicketsCmd(app *App) *cobra.Command {
	var (
		date   timeValue
		format string
	)

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Show the hours booked per ticket number in a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Config.ParseTicketNumbers {
				return errors.New("ticket parsing is disabled (set parse_ticket_numbers in the config)")
			}
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			lines := tracker.Tickets(t.Week(date.day(app.now())))
			out := cmd.OutOrStdout()

			switch format {
			case ui.FormatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(lines)
			case ui.FormatYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(lines); err != nil {
					return err
				}
				return enc.Close()
			case ui.FormatText, "":
				if len(lines) == 0 {
					fmt.Fprintln(out, "No tickets.")
					return nil
				}
				rows := make([][]string, 0, len(lines))
				for _, l := range lines {
					rows = append(rows, []string{l.Ticket, ui.Project(l.Project), timecalc.FormatHours(l.Duration), l.Description})
				}
				fmt.Fprint(out, ui.RenderTable([]string{"TICKET", "PROJECT", "HOURS", "DESCRIPTION"}, rows))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}
	cmd.Flags().Var(&date, "date", "Any day of the week (default today)")
	cmd.Flags().StringVar(&format, "format", ui.FormatText, "Output format: text, json, yaml")
	return cmd
}

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Page through all weeks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive == nil || !app.IsInteractive() {
				return errors.New("browse needs a terminal; use ptime weeks instead")
			}
			t, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			return ui.RunBrowser(t.Weeks(), t.TotalBalance())
		},
	}
}
