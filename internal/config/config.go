package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Tiliavir/project-time/internal/storage"
	"github.com/Tiliavir/project-time/internal/workday"
)

// ErrInvalid wraps every validation failure reported by Validate.
var ErrInvalid = errors.New("invalid configuration")

// ErrTemplateNotWritten is returned together with the defaults when the
// first-run template could not be created. The defaults are usable.
var ErrTemplateNotWritten = errors.New("could not create config file")

// Config is the root configuration for ptime, stored in ~/.ptime/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// WorkHoursPerDay is the daily target the balance is computed against.
	WorkHoursPerDay float64 `json:"work_hours_per_day"`
	// Rounded snaps punch times to the nearest quarter hour on load.
	Rounded bool `json:"rounded"`
	// ShowWholeCurrentWeek includes the days after today in the current week.
	ShowWholeCurrentWeek bool `json:"show_whole_current_week"`
	// ParseTicketNumbers enables per-ticket aggregation using TicketPattern.
	ParseTicketNumbers bool   `json:"parse_ticket_numbers"`
	TicketPattern      string `json:"ticket_pattern"`
	// CountOutOfOffice counts Out-of-Office time as worked time.
	CountOutOfOffice bool `json:"count_out_of_office"`
	// Storage selects the backend: "sqlite" or "json".
	Storage string `json:"storage"`
	// Timezone is the IANA zone days are computed in. Empty = local time.
	Timezone string `json:"timezone"`
	// RetentionDays is the default age cutoff for ptime purge.
	RetentionDays int `json:"retention_days"`

	Outlook OutlookConfig `json:"outlook"`
	Slack   SlackConfig   `json:"slack"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar sync settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// DefaultProject is the project name assigned to imported Outlook events.
	DefaultProject string `json:"default_project"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Berlin"). Empty = UTC.
	Timezone string `json:"timezone"`
}

// SlackConfig holds the incoming webhook used by ptime week --slack.
type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultProject is the project name used when none is specified.
	DefaultProject = "Meetings"

	DefaultWorkHoursPerDay = 8
	DefaultRetentionDays   = 14
	// DefaultTicketPattern matches "ABC-123 some text".
	DefaultTicketPattern = `^(?P<ticket>[A-Z][A-Z0-9]+-\d+)\s*(?P<description>.*)$`
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		WorkHoursPerDay: DefaultWorkHoursPerDay,
		TicketPattern:   DefaultTicketPattern,
		Storage:         storage.BackendSQLite,
		RetentionDays:   DefaultRetentionDays,
		Outlook: OutlookConfig{
			TenantID:       DefaultTenantID,
			ClientID:       DefaultClientID,
			DefaultProject: DefaultProject,
			Timezone:       "",
		},
	}
}

// Default returns the built-in configuration.
func Default() Config { return defaultConfig() }

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// ptime configuration – ~/.ptime/config.json
//
// All settings are optional; missing keys keep the defaults shown below.
{
  // Daily target in hours. The balance of a day is worked hours minus this.
  // Set to 0 to track time without a target.
  "work_hours_per_day": 8,

  // Snap punch times to the nearest quarter hour when reading them.
  "rounded": false,

  // Show the days after today in the current week instead of stopping at today.
  "show_whole_current_week": false,

  // Aggregate time per ticket, parsed from punch descriptions.
  // The pattern needs a named group "ticket" and may have a group "description".
  "parse_ticket_numbers": false,
  "ticket_pattern": "^(?P<ticket>[A-Z][A-Z0-9]+-\\d+)\\s*(?P<description>.*)$",

  // Count Out-of-Office time (vacation, business trips) as worked time.
  "count_out_of_office": false,

  // Storage backend: "sqlite" (single punches.db) or "json" (one file per day).
  "storage": "sqlite",

  // IANA timezone days are computed in, e.g. "Europe/Berlin". Empty = local time.
  "timezone": "",

  // Default age in days for ptime purge.
  "retention_days": 14,

  // ── Microsoft Graph / Outlook calendar sync ──────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // Default project name assigned to imported Outlook calendar events.
    // Can be overridden per-sync with: ptime outlook sync --project <name>
    "default_project": "Meetings",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Berlin".
    // Leave empty to use UTC. Can be overridden with: ptime outlook sync --timezone <tz>
    "timezone": ""
  },

  // ── Slack ────────────────────────────────────────────────────────────────
  "slack": {
    // Incoming webhook used by: ptime week --slack
    "webhook_url": ""
  }
}
`

// FilePath returns the path to config.json below the data directory.
func FilePath() (string, error) {
	base, err := storage.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file, creating it with annotated defaults on first
// run. Lines starting with // are treated as comments and stripped before
// JSON parsing.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile reads and validates the config at path. A missing file is created
// from the template; if that fails the defaults are returned with an error
// wrapping ErrTemplateNotWritten.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			return defaultConfig(), fmt.Errorf("%w %s: %w", ErrTemplateNotWritten, path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	// Decoding over the defaults keeps every key the user left out.
	cfg := defaultConfig()
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = DefaultTenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = DefaultClientID
	}
	if cfg.Outlook.DefaultProject == "" {
		cfg.Outlook.DefaultProject = DefaultProject
	}
	if cfg.TicketPattern == "" {
		cfg.TicketPattern = DefaultTicketPattern
	}

	if err := cfg.Validate(); err != nil {
		return defaultConfig(), fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values a user can get wrong.
func (c Config) Validate() error {
	if c.WorkHoursPerDay < 0 || c.WorkHoursPerDay > 24 {
		return fmt.Errorf("%w: work_hours_per_day must be between 0 and 24, got %v", ErrInvalid, c.WorkHoursPerDay)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("%w: retention_days must not be negative", ErrInvalid)
	}
	switch c.Storage {
	case storage.BackendSQLite, storage.BackendJSON:
	default:
		return fmt.Errorf("%w: unknown storage %q (want %q or %q)", ErrInvalid, c.Storage, storage.BackendSQLite, storage.BackendJSON)
	}
	if _, err := loadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone: %v", ErrInvalid, err)
	}
	if c.Outlook.Timezone != "" {
		if _, err := time.LoadLocation(c.Outlook.Timezone); err != nil {
			return fmt.Errorf("%w: outlook.timezone: %v", ErrInvalid, err)
		}
	}
	if c.ParseTicketNumbers {
		if _, err := c.ticketPattern(); err != nil {
			return err
		}
	}
	return nil
}

// Location returns the zone days are computed in.
func (c Config) Location() *time.Location {
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WorkdayOptions returns the builder options described by c.
func (c Config) WorkdayOptions() workday.Options {
	opts := workday.Options{
		WorkHoursPerDay:  c.WorkHoursPerDay,
		CountOutOfOffice: c.CountOutOfOffice,
	}
	if c.ParseTicketNumbers {
		// Validate has already rejected a pattern that does not compile.
		opts.TicketPattern, _ = c.ticketPattern()
	}
	return opts
}

func (c Config) ticketPattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.TicketPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: ticket_pattern: %v", ErrInvalid, err)
	}
	if re.SubexpIndex("ticket") < 0 {
		return nil, fmt.Errorf("%w: ticket_pattern needs a named group \"ticket\"", ErrInvalid)
	}
	return re, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
