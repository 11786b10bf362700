package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
	"github.com/Tiliavir/project-time/internal/tracker"
)

const punchTimeHelp = `Punches are addressed by their time: "HH:MM" for today or
"YYYY-MM-DD HH:MM" for any other day.`

// findPunch resolves a punch time argument to the stored punch.
func findPunch(ctx context.Context, app *App, arg string) (*tracker.Tracker, model.Punch, error) {
	t, err := app.Tracker(ctx)
	if err != nil {
		return nil, model.Punch{}, err
	}
	at, err := parseTimeArg(arg, app.now())
	if err != nil {
		return nil, model.Punch{}, err
	}
	p, ok := t.Lookup(at)
	if !ok {
		return nil, model.Punch{}, fmt.Errorf("no punch at %s", at.Format("2006-01-02 15:04"))
	}
	return t, p, nil
}

func newEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change a recorded punch or move a whole day",
		Long:  "Change a recorded punch or move a whole day.\n\n" + punchTimeHelp,
	}
	cmd.AddCommand(
		newEditProjectCmd(app),
		newEditDescriptionCmd(app),
		newEditTimeCmd(app),
		newEditDayCmd(app),
	)
	return cmd
}

func newEditProjectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "project <time> <project>",
		Short: "Change the project of a punch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, p, err := findPunch(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := rememberProject(app, args[1]); err != nil {
				return err
			}
			if err := t.UpdateProject(ctx, p.Key, args[1]); err != nil {
				return trackerErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s → %s\n", p.Key.Format("2006-01-02 15:04"), p.Project, strings.TrimSpace(args[1]))
			return nil
		},
	}
}

func newEditDescriptionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "description <time> [text...]",
		Short: "Change the description of a punch; no text clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, p, err := findPunch(ctx, app, args[0])
			if err != nil {
				return err
			}
			desc := strings.Join(args[1:], " ")
			if err := t.UpdateDescription(ctx, p.Key, desc); err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: description set to %q\n", p.Key.Format("2006-01-02 15:04"), desc)
			return nil
		},
	}
}

func newEditTimeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "time <time> <new-time>",
		Short: "Move a punch to another time",
		Long:  "Move a punch to another time. A new time without a date stays on the punch's day.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, p, err := findPunch(ctx, app, args[0])
			if err != nil {
				return err
			}
			newTime, err := parseTimeArg(args[1], p.Key)
			if err != nil {
				return err
			}
			if err := t.UpdateTime(ctx, p.Key, newTime); err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s punch from %s to %s\n",
				p.Project, p.Key.Format("2006-01-02 15:04"), newTime.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newEditDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day <date> <new-date>",
		Short: "Move all punches of a day to another date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}
			loc := app.Config.Location()
			from, err := timecalc.ParseDate(args[0], loc)
			if err != nil {
				return err
			}
			to, err := timecalc.ParseDate(args[1], loc)
			if err != nil {
				return err
			}
			n, err := t.MoveDay(ctx, from, to)
			if err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d punches from %s to %s\n", n, args[0], args[1])
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <time>",
		Short: "Delete a punch",
		Long:  "Delete a punch.\n\n" + punchTimeHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, p, err := findPunch(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := t.Delete(ctx, p.Key); err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s punch at %s\n", p.Project, p.Key.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newPurgeCmd(app *App) *cobra.Command {
	var (
		before timeValue
		days   int
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all punches before a cutoff date",
		Long: `Delete all punches strictly before the cutoff. The cutoff is --before, or
the start of the day --days days ago (default: retention_days from the config).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if before.isSet() && cmd.Flags().Changed("days") {
				return errors.New("use either --before or --days")
			}
			if days < 0 {
				return errors.New("--days must not be negative")
			}
			ctx := cmd.Context()
			t, err := app.Tracker(ctx)
			if err != nil {
				return err
			}

			now := app.now()
			cutoff := timecalc.StartOfDay(now.AddDate(0, 0, -days))
			if before.isSet() {
				cutoff = before.day(now)
			}
			n, err := t.Purge(ctx, cutoff)
			if err != nil {
				return storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d punches before %s\n", n, cutoff.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().Var(&before, "before", "Cutoff date YYYY-MM-DD")
	cmd.Flags().IntVar(&days, "days", app.Config.RetentionDays, "Keep the last N days")
	return cmd
}
