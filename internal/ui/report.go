package ui

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// Week report formats accepted by WriteWeek.
const (
	FormatText     = "text"
	FormatMarkdown = "md"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Formats lists the accepted report formats.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON, FormatYAML}

// WeekReport is the serialized form of a week.
type WeekReport struct {
	Week       string              `json:"week" yaml:"week"`
	From       string              `json:"from" yaml:"from"`
	To         string              `json:"to" yaml:"to"`
	TotalHours float64             `json:"total_hours" yaml:"total_hours"`
	Balance    float64             `json:"balance" yaml:"balance"`
	Days       []DayReport         `json:"days" yaml:"days"`
	Projects   []model.ProjectTime `json:"projects" yaml:"projects"`
}

// DayReport is one day of a WeekReport.
type DayReport struct {
	Date       string  `json:"date" yaml:"date"`
	TotalHours float64 `json:"total_hours" yaml:"total_hours"`
	Balance    float64 `json:"balance" yaml:"balance"`
}

// NewWeekReport converts week into its report form. Days keep the week's
// most-recent-first order; durations are rounded to two decimals.
func NewWeekReport(week model.WorkWeek) WeekReport {
	r := WeekReport{
		Week:       timecalc.ISOWeekLabel(week.FirstDay),
		From:       week.FirstDay.Format("2006-01-02"),
		To:         week.FirstDay.AddDate(0, 0, 6).Format("2006-01-02"),
		TotalHours: week.TotalHours,
		Balance:    week.Balance,
		Days:       make([]DayReport, 0, len(week.Days)),
		Projects:   make([]model.ProjectTime, 0, len(week.ProjectTimes)),
	}
	for _, d := range week.Days {
		r.Days = append(r.Days, DayReport{
			Date:       d.Date.Format("2006-01-02"),
			TotalHours: timecalc.Round(d.TotalHours),
			Balance:    d.Balance,
		})
	}
	for _, pt := range week.ProjectTimes {
		pt.Duration = timecalc.Round(pt.Duration)
		tickets := make([]model.TicketTime, len(pt.Tickets))
		for i, t := range pt.Tickets {
			t.Duration = timecalc.Round(t.Duration)
			tickets[i] = t
		}
		pt.Tickets = tickets
		r.Projects = append(r.Projects, pt)
	}
	return r
}

// WriteWeek writes week to w in the given format.
func WriteWeek(w io.Writer, week model.WorkWeek, format string) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, RenderWeek(week))
		return err
	case FormatMarkdown:
		_, err := io.WriteString(w, WeekMarkdown(week))
		return err
	case FormatCSV:
		return writeWeekCSV(w, week)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewWeekReport(week))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewWeekReport(week)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WeekMarkdown renders the project totals of week as a Markdown table.
func WeekMarkdown(week model.WorkWeek) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", WeekTitle(week))
	b.WriteString("| Project | Hours | Description |\n")
	b.WriteString("|---|---:|---|\n")
	for _, pt := range week.ProjectTimes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", mdEscape(pt.Project), hours(pt.Duration), mdEscape(pt.Description))
		for _, t := range pt.Tickets {
			fmt.Fprintf(&b, "| ↳ %s | %s | %s |\n", mdEscape(t.Ticket), hours(t.Duration), mdEscape(t.Description))
		}
	}
	fmt.Fprintf(&b, "\n**Total:** %s h, balance %s h\n", hours(week.TotalHours), timecalc.FormatBalance(week.Balance))
	return b.String()
}

func writeWeekCSV(w io.Writer, week model.WorkWeek) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	records := [][]string{{"project", "ticket", "hours", "description"}}
	for _, pt := range week.ProjectTimes {
		records = append(records, []string{pt.Project, "", hours(pt.Duration), pt.Description})
		for _, t := range pt.Tickets {
			records = append(records, []string{pt.Project, t.Ticket, hours(t.Duration), t.Description})
		}
	}
	return cw.WriteAll(records)
}

func hours(h float64) string {
	return strconv.FormatFloat(timecalc.Round(h), 'f', 2, 64)
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
