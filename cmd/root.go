package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/project-time/internal/config"
	"github.com/Tiliavir/project-time/internal/msgraph"
	"github.com/Tiliavir/project-time/internal/storage"
	"github.com/Tiliavir/project-time/internal/tracker"
)

// App carries the configuration and the lazily opened tracker shared by all
// commands.
type App struct {
	Config config.Config
	// Base is the data directory holding the store, config and project list.
	Base string
	Now  func() time.Time
	// HTTPClient is used for Slack posts and the Outlook sign-in. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
	// Graph replaces the authenticated Microsoft Graph client when set.
	Graph         *msgraph.Client
	IsInteractive func() bool
	Logger        *slog.Logger
	LogLevel      *slog.LevelVar

	tracker *tracker.Tracker
}

// storeError marks failures of the data directory or the store. They exit
// with status 2, everything else with 1.
type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}

// trackerErr passes validation errors through and marks the rest as store
// failures.
func trackerErr(err error) error {
	if errors.Is(err, tracker.ErrEmptyProject) {
		return err
	}
	return storeErr(err)
}

func exitCode(err error) int {
	var se *storeError
	if errors.As(err, &se) {
		return 2
	}
	return 1
}

// NewApp loads the configuration from the data directory and wires logging
// to stderr.
func NewApp() (*App, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return nil, storeErr(err)
	}

	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Base:     base,
		Now:      time.Now,
		Logger:   logger,
		LogLevel: level,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}, nil
}

// loadConfig reads the config file. A template that could not be written is
// only worth a warning; the defaults are used.
func loadConfig(logger *slog.Logger) (config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrTemplateNotWritten) {
		logger.Warn("using default configuration", "err", err)
		return cfg, nil
	}
	return cfg, err
}

func (a *App) now() time.Time {
	return a.Now().In(a.Config.Location())
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.Logger
}

// Tracker opens the configured store and loads it on first use.
func (a *App) Tracker(ctx context.Context) (*tracker.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	if err := os.MkdirAll(a.Base, 0o755); err != nil {
		return nil, storeErr(fmt.Errorf("creating data directory: %w", err))
	}
	store, err := storage.Open(a.Config.Storage, a.Base, a.Config.Location())
	if err != nil {
		return nil, storeErr(err)
	}
	t := tracker.New(store, tracker.Settings{
		Options:              a.Config.WorkdayOptions(),
		Rounded:              a.Config.Rounded,
		ShowWholeCurrentWeek: a.Config.ShowWholeCurrentWeek,
		Location:             a.Config.Location(),
		Now:                  a.Now,
	}, a.logger())
	if err := t.Load(ctx); err != nil {
		t.Close()
		return nil, storeErr(err)
	}
	a.tracker = t
	return t, nil
}

// Projects returns the user-defined project list.
func (a *App) Projects() *storage.ProjectList {
	return storage.NewProjectList(a.Base)
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.tracker == nil {
		return nil
	}
	err := a.tracker.Close()
	a.tracker = nil
	return err
}

// NewRootCmd creates the top-level "ptime" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "ptime",
		Short: "Punch-clock work time tracker",
		Long: `ptime records the moments you switch projects and derives your workdays,
weeks and overtime balance from them. Data lives in ~/.ptime/ (or $PTIME_HOME).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && app.LogLevel != nil {
				app.LogLevel.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newPunchCmd(app),
		newStopCmd(app),
		newStatusCmd(app),
		newSuggestCmd(app),
		newDayCmd(app),
		newWeekCmd(app),
		newWeeksCmd(app),
		newTicketsCmd(app),
		newBrowseCmd(app),
		newEditCmd(app),
		newDeleteCmd(app),
		newPurgeCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newProjectsCmd(app),
		newOutlookCmd(app),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	app, err := NewApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	defer app.Close()

	root := NewRootCmd(app)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}
