package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/project-time/internal/config"
	"github.com/Tiliavir/project-time/internal/msgraph"
	"github.com/Tiliavir/project-time/internal/storage"
	"github.com/Tiliavir/project-time/internal/tracker"
	"github.com/Tiliavir/project-time/internal/ui"
)

// now is Wednesday 2026-10-21, noon UTC.
var now = time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)

// testApp wires an App over a fresh data directory with a fixed clock.
func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.ParseTicketNumbers = true

	app := &App{
		Config:        cfg,
		Base:          t.TempDir(),
		Now:           func() time.Time { return now },
		IsInteractive: func() bool { return false },
	}
	t.Cleanup(func() { app.Close() })
	return app
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, out)
	return out
}

func punchExampleDay(t *testing.T, app *App) {
	t.Helper()
	mustRun(t, app, "punch", "ECM", "--at", "08:00", "-m", "ECM-1 login")
	mustRun(t, app, "punch", "Lunch", "--at", "12:00")
	mustRun(t, app, "punch", "ECM", "--at", "12:30")
}

func TestPunchAndDay(t *testing.T) {
	app := testApp(t)

	out := mustRun(t, app, "punch", "ECM", "--at", "08:00", "-m", "ECM-1 login")
	assert.Equal(t, "Punched ECM at 2026-10-21 08:00 (was None)\n", out)
	mustRun(t, app, "punch", "Lunch", "--at", "12:00")
	out = mustRun(t, app, "punch", "ECM", "--at", "12:30")
	assert.Contains(t, out, "(was Lunch)")

	out = mustRun(t, app, "stop", "--at", "17:00")
	assert.Equal(t, "Stopped ECM at 17:00 after 4h 30m\n", out)

	out = mustRun(t, app, "day")
	assert.Contains(t, out, "Wed 2026-10-21")
	assert.Contains(t, out, "8h 30m")
	assert.Contains(t, out, "+0.50")
	assert.Contains(t, out, "ECM-1 login")
}

func TestPunch_RemembersProjects(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "08:00")
	mustRun(t, app, "punch", "Lunch", "--at", "12:00")

	out := mustRun(t, app, "projects", "ls")
	assert.Contains(t, out, "ECM")
	assert.Contains(t, out, "Lunch  (system)")

	names, err := app.Projects().Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"ECM"}, names)
}

func TestPunch_RequiresProjectWithoutTerminal(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "punch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project required")
	assert.Equal(t, 1, exitCode(err))
}

func TestPunch_DuplicateIsStoreError(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "08:00")

	_, err := executeCmd(t, app, "punch", "Support", "--at", "08:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, 2, exitCode(err))
}

func TestPunch_EmptyProjectIsUsageError(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "punch", "  ", "--at", "08:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, tracker.ErrEmptyProject)
	assert.Equal(t, 1, exitCode(err))

	mustRun(t, app, "punch", "ECM", "--at", "08:00")
	_, err = executeCmd(t, app, "edit", "project", "08:00", " ")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestPunch_Next(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "08:00")

	out := mustRun(t, app, "punch", "Support", "--next")
	assert.Contains(t, out, "Punched Support at 2026-10-21 08:15")
}

func TestStop_WithoutRunningProject(t *testing.T) {
	app := testApp(t)
	out := mustRun(t, app, "stop", "--at", "17:00")
	assert.Equal(t, "Punched None at 17:00\n", out)
}

func TestStatus(t *testing.T) {
	app := testApp(t)
	out := mustRun(t, app, "status")
	assert.Contains(t, out, "Not punched in.")

	mustRun(t, app, "punch", "ECM", "--at", "08:00", "-m", "ECM-1 login")
	out = mustRun(t, app, "status")
	assert.Contains(t, out, "Running:")
	assert.Contains(t, out, "Description: ECM-1 login")
	assert.Contains(t, out, "Elapsed: 04:00:00")
	assert.Contains(t, out, "Total balance:")
}

func TestSuggest(t *testing.T) {
	app := testApp(t)
	punchExampleDay(t, app)

	out := mustRun(t, app, "suggest")
	assert.Contains(t, out, "Usual times: ")
	assert.Contains(t, out, "08:00")
	assert.Contains(t, out, "Next slot:   2026-10-21 12:45")
}

func TestEdit(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "08:00")

	out := mustRun(t, app, "edit", "project", "08:00", "Support")
	assert.Equal(t, "2026-10-21 08:00: ECM → Support\n", out)

	mustRun(t, app, "edit", "description", "08:00", "ECM-7", "triage")
	out = mustRun(t, app, "edit", "time", "08:00", "07:45")
	assert.Equal(t, "Moved Support punch from 2026-10-21 08:00 to 2026-10-21 07:45\n", out)

	tr, err := app.Tracker(t.Context())
	require.NoError(t, err)
	p, ok := tr.Lookup(time.Date(2026, 10, 21, 7, 45, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "Support", p.Project)
	assert.Equal(t, "ECM-7 triage", p.Description)

	out = mustRun(t, app, "delete", "07:45")
	assert.Contains(t, out, "Deleted Support punch")

	_, err = executeCmd(t, app, "delete", "07:45")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no punch at 2026-10-21 07:45")
}

func TestEditDay(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "2026-10-19 08:00")
	out := mustRun(t, app, "stop", "--at", "2026-10-19 16:00")
	assert.Equal(t, "Stopped ECM at 16:00 after 8h 0m\n", out)

	out = mustRun(t, app, "edit", "day", "2026-10-19", "2026-10-20")
	assert.Equal(t, "Moved 2 punches from 2026-10-19 to 2026-10-20\n", out)

	out = mustRun(t, app, "day", "--date", "2026-10-20")
	assert.Contains(t, out, "Tue 2026-10-20")
	assert.Contains(t, out, "8h 00m")
}

func TestWeek_JSON(t *testing.T) {
	app := testApp(t)
	punchExampleDay(t, app)
	mustRun(t, app, "stop", "--at", "17:00")

	out := mustRun(t, app, "week", "--format", "json")
	var report ui.WeekReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "2026-W43", report.Week)
	assert.Equal(t, 8.5, report.TotalHours)
	assert.Equal(t, -15.5, report.Balance)
	assert.Len(t, report.Days, 3)
}

func TestWeek_UnknownFormat(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "week", "--format", "pdf")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestWeek_Slack(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	app := testApp(t)
	app.Config.Slack.WebhookURL = srv.URL
	app.HTTPClient = srv.Client()
	punchExampleDay(t, app)

	out := mustRun(t, app, "week", "--slack")
	assert.Contains(t, out, "Posted to Slack.")
	assert.Contains(t, string(body), "2026-W43")
}

func TestWeeks(t *testing.T) {
	app := testApp(t)
	punchExampleDay(t, app)

	out := mustRun(t, app, "weeks")
	assert.Contains(t, out, "2026-W43")
	assert.Contains(t, out, "overall balance")
}

func TestTickets(t *testing.T) {
	app := testApp(t)
	punchExampleDay(t, app)

	out := mustRun(t, app, "tickets", "--format", "json")
	var lines []tracker.TicketLine
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, tracker.TicketLine{Project: "ECM", Ticket: "ECM-1", Duration: 4, Description: "login"}, lines[0])

	out = mustRun(t, app, "tickets", "--format", "yaml")
	assert.Contains(t, out, "ticket: ECM-1")

	app.Config.ParseTicketNumbers = false
	_, err := executeCmd(t, app, "tickets")
	assert.Error(t, err)
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "browse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a terminal")
}

func TestExportImport(t *testing.T) {
	src := testApp(t)
	mustRun(t, src, "punch", "ECM", "--at", "08:00", "-m", "ECM-1 login; logout")
	mustRun(t, src, "stop", "--at", "16:00")

	file := filepath.Join(t.TempDir(), "punches.csv")
	mustRun(t, src, "export", "-o", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "timestamp;project;description\n"+
		`2026-10-21T08:00:00.000Z;"ECM";"ECM-1%20login%3B%20logout"`+"\n"+
		`2026-10-21T16:00:00.000Z;"None";""`+"\n", string(data))

	dst := testApp(t)
	dst.Config.Storage = storage.BackendJSON
	out := mustRun(t, dst, "import", file)
	assert.Equal(t, "Imported 2 punches, skipped 0 existing\n", out)
	out = mustRun(t, dst, "import", file)
	assert.Equal(t, "Imported 0 punches, skipped 2 existing\n", out)

	out = mustRun(t, dst, "day")
	assert.Contains(t, out, "ECM-1 login; logout")
}

func TestPurge(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "punch", "ECM", "--at", "2026-10-19 08:00")
	mustRun(t, app, "punch", "ECM", "--at", "08:00")

	out := mustRun(t, app, "purge", "--before", "2026-10-20")
	assert.Equal(t, "Deleted 1 punches before 2026-10-20\n", out)

	out = mustRun(t, app, "purge", "--days", "0")
	assert.Equal(t, "Deleted 0 punches before 2026-10-21\n", out)

	_, err := executeCmd(t, app, "purge", "--before", "2026-10-20", "--days", "3")
	assert.Error(t, err)
}

func TestProjects_AddRemove(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "projects", "add", "Support")

	_, err := executeCmd(t, app, "projects", "add", "Lunch")
	assert.Error(t, err)

	mustRun(t, app, "projects", "rm", "Support")
	names, err := app.Projects().Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestOutlookSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `outlook.timezone="UTC"`, r.Header.Get("Prefer"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"value":[{"id":"1","subject":"Standup","showAs":"busy","sensitivity":"normal",
			"start":{"dateTime":"2026-10-21T09:00:00.0000000","timeZone":"UTC"},
			"end":{"dateTime":"2026-10-21T09:15:00.0000000","timeZone":"UTC"}}]}`)
	}))
	defer srv.Close()

	app := testApp(t)
	app.Graph = msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	mustRun(t, app, "punch", "ECM", "--at", "08:00")

	out := mustRun(t, app, "outlook", "sync", "--dry-run")
	assert.Contains(t, out, "[dry-run]")
	assert.Contains(t, out, "1 imported")

	out = mustRun(t, app, "outlook", "sync")
	assert.Contains(t, out, "1 imported")

	out = mustRun(t, app, "day")
	assert.Contains(t, out, "09:00")
	assert.Contains(t, out, "Meetings")
	assert.Contains(t, out, "09:15")

	out = mustRun(t, app, "outlook", "sync")
	assert.Contains(t, out, "1 skipped")
}

func TestOutlookSync_ToWithoutFrom(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "outlook", "sync", "--to", "2026-10-21")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from is required")
}

func TestTimeValue(t *testing.T) {
	ref := time.Date(2026, 10, 21, 12, 34, 56, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"08:30", time.Date(2026, 10, 21, 8, 30, 0, 0, time.UTC)},
		{"2026-10-19", time.Date(2026, 10, 19, 12, 34, 56, 0, time.UTC)},
		{"2026-10-19 08:30", time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{"2026-10-19T08:30", time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{"today", ref},
		{"yesterday", ref.AddDate(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := parseTimeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.resolve(ref))
		})
	}

	for _, bad := range []string{"", "8.30", "2026-13-01", "2026-10-19 25:00"} {
		_, err := parseTimeValue(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeValue_Flag(t *testing.T) {
	var at timeValue
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&at, "at", "")
	require.NoError(t, fs.Parse([]string{"--at", "2026-10-19 08:30"}))

	assert.True(t, at.isSet())
	assert.Equal(t, "time", fs.Lookup("at").Value.Type())
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), at.day(now))

	assert.Error(t, fs.Parse([]string{"--at", "noon"}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("usage")))
	assert.Equal(t, 2, exitCode(storeErr(errors.New("disk"))))
	assert.Equal(t, 2, exitCode(fmt.Errorf("wrapped: %w", storeErr(errors.New("disk")))))
	assert.NoError(t, storeErr(nil))
}

func TestVerboseEnablesDebug(t *testing.T) {
	app := testApp(t)
	var logs bytes.Buffer
	app.LogLevel = new(slog.LevelVar)
	app.LogLevel.Set(slog.LevelWarn)
	app.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: app.LogLevel}))

	mustRun(t, app, "punch", "ECM", "--at", "08:00")
	assert.Empty(t, logs.String())

	mustRun(t, app, "--verbose", "punch", "Support", "--at", "09:00")
	assert.Contains(t, logs.String(), "punch added")
}

func TestLoadConfig_TemplateNotWrittenWarns(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTIME_HOME", dir)
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone", "config.json"), filepath.Join(dir, "config.json")))

	var logs bytes.Buffer
	cfg, err := loadConfig(slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "could not create config file")
}

func TestLoadConfig_InvalidFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PTIME_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"storage": "mongo"}`), 0o600))

	_, err := loadConfig(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, config.ErrInvalid)
}
