package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/msgraph"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

func newOutlookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outlook",
		Short: "Outlook calendar integration",
	}
	cmd.AddCommand(newOutlookSyncCmd(app))
	return cmd
}

// graphAuth signs in with the configured Outlook app and caches the token in
// the data directory.
func (a *App) graphAuth() *msgraph.Auth {
	return &msgraph.Auth{
		ClientID:   a.Config.Outlook.ClientID,
		Endpoint:   msgraph.TenantEndpoint(a.Config.Outlook.TenantID),
		TokenPath:  filepath.Join(a.Base, "auth", "msgraph_tokens.json"),
		HTTPClient: a.HTTPClient,
		Logger:     a.logger(),
	}
}

func newOutlookSyncCmd(app *App) *cobra.Command {
	var (
		from, to, date timeValue
		dryRun         bool
		project        string
		timezone       string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Punch Outlook calendar events",
		Long: `Punch each calendar event: its project at the start and, at the end, the
project that was active before. Cancelled, all-day, private and free events are
skipped; existing punches are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to.isSet() && !from.isSet() {
				return errors.New("--from is required when --to is specified")
			}
			if timezone == "" {
				timezone = app.Config.Outlook.Timezone
			}
			if timezone == "" {
				timezone = app.Config.Timezone
			}
			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid --timezone %q: %w", timezone, err)
			}
			if project == "" {
				project = app.Config.Outlook.DefaultProject
			}

			now := app.now().In(loc)
			start, end := timecalc.StartOfDay(now), timecalc.EndOfDay(now)
			switch {
			case date.isSet():
				start = date.day(now)
				end = timecalc.EndOfDay(start)
			case from.isSet():
				start = from.day(now)
				if to.isSet() {
					end = timecalc.EndOfDay(to.day(now))
				}
			}
			if end.Before(start) {
				return errors.New("--to is before --from")
			}

			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dryTag := ""
			if dryRun {
				dryTag = " [dry-run]"
			}
			fmt.Fprintf(out, "Syncing Outlook events (%s → %s)%s...\n\n",
				start.Format(dateLayout), end.Format(dateLayout), dryTag)

			client := app.Graph
			if client == nil {
				auth := app.graphAuth()
				tok, err := auth.Token(ctx, out)
				if err != nil {
					return fmt.Errorf("authentication failed: %w", err)
				}
				client = auth.NewClient(ctx, tok)
			}

			events, err := client.GetCalendarView(ctx, start, end, timezone)
			if err != nil {
				return fmt.Errorf("fetching calendar events: %w", err)
			}

			result, err := msgraph.SyncEvents(ctx, out, t, events, msgraph.SyncOptions{
				DryRun:   dryRun,
				Project:  project,
				Location: loc,
			})
			if err != nil {
				return storeErr(err)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Summary:")
			fmt.Fprintf(out, "  %d imported\n", result.Imported)
			fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
			fmt.Fprintf(out, "  %d updated\n", result.Updated)
			if result.Errors > 0 {
				fmt.Fprintf(out, "  %d errors\n", result.Errors)
				return storeErr(fmt.Errorf("%d events could not be synced", result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().Var(&from, "from", "Start date (YYYY-MM-DD); required when --to is specified")
	cmd.Flags().Var(&to, "to", "End date (YYYY-MM-DD); defaults to today")
	cmd.Flags().Var(&date, "date", "Sync a single date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print planned punches without writing")
	cmd.Flags().StringVar(&project, "project", "", "Project for imported events (default outlook.default_project)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for event times (e.g. Europe/Berlin)")
	return cmd
}
