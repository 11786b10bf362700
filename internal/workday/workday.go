// Package workday reconstructs workdays and work weeks from an ordered list of
// punches.
package workday

import (
	"regexp"
	"strings"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// Options carries the settings the builders depend on.
type Options struct {
	WorkHoursPerDay float64
	// TicketPattern must contain a named group "ticket" and may contain a
	// named group "description". Tickets are only parsed when set.
	TicketPattern *regexp.Regexp
	// CountOutOfOffice makes Out-of-Office punches count as worked time.
	CountOutOfOffice bool
}

func (o Options) countsAsWork(project string) bool {
	if project == model.ProjectOutOfOffice {
		return o.CountOutOfOffice
	}
	sp, ok := model.LookupSystemProject(project)
	return !ok || !sp.NoWork
}

// Build turns the punches of one calendar day into a Workday. Punches must be
// sorted ascending. Derived fields of the given slice are updated in place.
// An empty slice yields a zero Workday.
func Build(punches []model.Punch, opts Options) model.Workday {
	if len(punches) == 0 {
		return model.Workday{}
	}

	for i := range punches {
		punches[i].IsBreak = model.IsBreak(punches[i].Project)
		punches[i].IsLast = i == len(punches)-1
		punches[i].Duration = 0
		if i > 0 {
			d, _ := timecalc.Duration(punches[i-1].Timestamp, punches[i].Timestamp)
			punches[i-1].Duration = d
		}
	}

	projectTimes := aggregateProjects(punches, opts.TicketPattern)
	segments := buildSegments(punches)

	kept := projectTimes[:0]
	var total float64
	for _, pt := range projectTimes {
		if !opts.countsAsWork(pt.Project) {
			continue
		}
		kept = append(kept, pt)
		total += pt.Duration
	}

	return model.Workday{
		Date:         timecalc.StartOfDay(punches[0].Timestamp),
		Punches:      punches,
		TotalHours:   total,
		Balance:      timecalc.Round(total - opts.WorkHoursPerDay),
		ProjectTimes: kept,
		WorkSegments: segments,
	}
}

// aggregateProjects sums durations per project in encounter order.
func aggregateProjects(punches []model.Punch, pattern *regexp.Regexp) []model.ProjectTime {
	var out []model.ProjectTime
	index := map[string]int{}
	for _, p := range punches {
		i, ok := index[p.Project]
		if !ok {
			index[p.Project] = len(out)
			out = append(out, model.ProjectTime{Project: p.Project})
			i = len(out) - 1
		}
		pt := &out[i]
		pt.Duration += p.Duration

		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			continue
		}
		pt.Description = joinDescription(pt.Description, desc)

		if pattern == nil {
			continue
		}
		ticket, ticketDesc, ok := matchTicket(pattern, desc)
		if !ok {
			continue
		}
		addTicket(pt, ticket, ticketDesc, p.Duration)
	}
	return out
}

func addTicket(pt *model.ProjectTime, ticket, description string, duration float64) {
	for i := range pt.Tickets {
		if pt.Tickets[i].Ticket == ticket {
			pt.Tickets[i].Duration += duration
			pt.Tickets[i].Description = joinDescription(pt.Tickets[i].Description, description)
			return
		}
	}
	pt.Tickets = append(pt.Tickets, model.TicketTime{
		Ticket:      ticket,
		Duration:    duration,
		Description: description,
	})
}

// matchTicket extracts the ticket and description groups from desc.
func matchTicket(pattern *regexp.Regexp, desc string) (string, string, bool) {
	m := pattern.FindStringSubmatch(desc)
	if m == nil {
		return "", "", false
	}
	var ticket, description string
	if i := pattern.SubexpIndex("ticket"); i >= 0 {
		ticket = m[i]
	}
	if i := pattern.SubexpIndex("description"); i >= 0 {
		description = strings.TrimSpace(m[i])
	}
	if description == "" {
		description = desc
	}
	return ticket, description, true
}

func joinDescription(existing, next string) string {
	if existing == "" {
		return next
	}
	if next == "" {
		return existing
	}
	return existing + ", " + next
}

// buildSegments splits the day into work and break runs.
func buildSegments(punches []model.Punch) []model.WorkSegment {
	var segments []model.WorkSegment
	for i, p := range punches {
		if len(segments) == 0 {
			segments = append(segments, newSegment(p))
			continue
		}
		current := &segments[len(segments)-1]
		switch {
		case current.IsBreak != p.IsBreak,
			current.IsBreak && p.Project != punches[i-1].Project:
			end := p.Timestamp
			current.End = &end
			segments = append(segments, newSegment(p))
		case p.Project == model.ProjectNone && p.IsLast:
			end := p.Timestamp
			current.End = &end
		}
	}
	return segments
}

func newSegment(p model.Punch) model.WorkSegment {
	return model.WorkSegment{
		Start:   p.Timestamp,
		IsBreak: p.IsBreak,
		Project: p.Project,
		Icon:    model.Icon(p.Project),
	}
}
