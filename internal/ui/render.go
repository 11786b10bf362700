package ui

import (
	"fmt"
	"strings"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

const dayLayout = "Mon 2006-01-02"

// RenderDay renders the punches, segments and project totals of one day.
func RenderDay(day model.Workday) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		StyleBold.Render(day.Date.Format(dayLayout)),
		timecalc.FormatHours(day.TotalHours),
		Balance(day.Balance))

	if len(day.Punches) == 0 {
		b.WriteString(Dim("No punches.") + "\n")
		return b.String()
	}

	rows := make([][]string, 0, len(day.Punches))
	for _, p := range day.Punches {
		duration := ""
		if !p.IsLast {
			duration = timecalc.FormatHours(p.Duration)
		}
		rows = append(rows, []string{
			p.Timestamp.Format("15:04"),
			Project(p.Project),
			duration,
			p.Description,
		})
	}
	b.WriteString(RenderTable([]string{"TIME", "PROJECT", "DURATION", "DESCRIPTION"}, rows))

	if len(day.WorkSegments) > 0 {
		b.WriteString("\n" + RenderSegments(day.WorkSegments) + "\n")
	}
	if len(day.ProjectTimes) > 0 {
		b.WriteString("\n" + RenderProjectTimes(day.ProjectTimes))
	}
	return b.String()
}

// RenderSegments renders the work and break runs of a day on one line, e.g.
// "▶ 08:00–12:00  🍴 12:00–12:30  ▶ 12:30–".
func RenderSegments(segments []model.WorkSegment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		end := ""
		if s.End != nil {
			end = s.End.Format("15:04")
		}
		text := fmt.Sprintf("%s %s–%s", s.Icon, s.Start.Format("15:04"), end)
		if s.IsBreak {
			parts[i] = StyleGreen.Render(text)
		} else {
			parts[i] = StyleBlue.Render(text)
		}
	}
	return strings.Join(parts, "  ")
}

// RenderProjectTimes renders the project totals with their tickets indented.
func RenderProjectTimes(projectTimes []model.ProjectTime) string {
	var rows [][]string
	for _, pt := range projectTimes {
		rows = append(rows, []string{Project(pt.Project), timecalc.FormatHours(pt.Duration), pt.Description})
		for _, t := range pt.Tickets {
			rows = append(rows, []string{"  " + t.Ticket, Dim(timecalc.FormatHours(t.Duration)), Dim(t.Description)})
		}
	}
	return RenderTable([]string{"PROJECT", "HOURS", "DESCRIPTION"}, rows)
}

// WeekTitle is "2026-W43  Oct 19 – Oct 25".
func WeekTitle(week model.WorkWeek) string {
	return fmt.Sprintf("%s  %s – %s",
		timecalc.ISOWeekLabel(week.FirstDay),
		week.FirstDay.Format("Jan 2"),
		week.FirstDay.AddDate(0, 0, 6).Format("Jan 2"))
}

// RenderWeek renders one line per day followed by the merged project totals.
func RenderWeek(week model.WorkWeek) string {
	var b strings.Builder
	b.WriteString(Header(WeekTitle(week)) + "\n")

	rows := make([][]string, 0, len(week.Days))
	for _, d := range week.Days {
		first, last := "", ""
		if len(d.Punches) > 0 {
			first = d.Punches[0].Timestamp.Format("15:04")
			last = d.Punches[len(d.Punches)-1].Timestamp.Format("15:04")
		}
		rows = append(rows, []string{
			d.Date.Format(dayLayout),
			first,
			last,
			timecalc.FormatHours(d.TotalHours),
			Balance(d.Balance),
		})
	}
	b.WriteString(RenderTable([]string{"DAY", "FROM", "TO", "WORKED", "BALANCE"}, rows))
	fmt.Fprintf(&b, "\n%s %s  %s %s\n",
		Dim("total"), StyleBold.Render(timecalc.FormatHours(week.TotalHours)),
		Dim("balance"), Balance(week.Balance))

	if len(week.ProjectTimes) > 0 {
		b.WriteString("\n" + RenderProjectTimes(week.ProjectTimes))
	}
	return b.String()
}

// RenderWeeks renders the overview of all weeks and the overall balance.
func RenderWeeks(weeks []model.WorkWeek, total float64) string {
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []string{WeekTitle(w), timecalc.FormatHours(w.TotalHours), Balance(w.Balance)})
	}
	return RenderTable([]string{"WEEK", "WORKED", "BALANCE"}, rows) +
		fmt.Sprintf("\n%s %s\n", Dim("overall balance"), Balance(total))
}
