package msgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/storage"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// Punches is the part of the tracker a sync writes to.
type Punches interface {
	PunchesOn(day time.Time) []model.Punch
	AddPunch(ctx context.Context, at time.Time, project, description string) (model.Punch, error)
	UpdateDescription(ctx context.Context, key time.Time, description string) error
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun  bool
	Project string
	// Location is used for event times that carry no zone. Nil means UTC.
	Location *time.Location
}

// parseGraphTime parses a Graph API dateTime string in loc.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// eventDescription is the punch description for an event: its subject,
// followed by the location when there is one.
func eventDescription(event CalendarEvent) string {
	desc := strings.TrimSpace(event.Subject)
	if loc := strings.TrimSpace(event.Location.DisplayName); loc != "" {
		desc += " @ " + loc
	}
	return desc
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// EventSpan is an event mapped onto punch times.
type EventSpan struct {
	Start       time.Time
	End         time.Time
	Project     string
	Description string
}

// MapEvent converts a Graph event into the span it punches. Out-of-office
// events are booked on the Out-of-Office project.
func MapEvent(event CalendarEvent, loc *time.Location, project string) (EventSpan, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return EventSpan{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return EventSpan{}, fmt.Errorf("parsing end time: %w", err)
	}
	if !end.After(start) {
		return EventSpan{}, fmt.Errorf("event ends before it starts")
	}
	if event.ShowAs == "oof" {
		project = model.ProjectOutOfOffice
	}
	return EventSpan{
		Start:       start.Truncate(time.Minute),
		End:         end.Truncate(time.Minute),
		Project:     project,
		Description: eventDescription(event),
	}, nil
}

// SyncEvents punches each event: the event project at its start and, at its
// end, the project that was active before it. Existing punches win; a start
// punch on the same project with a changed subject gets the new description.
// Progress is printed to w.
func SyncEvents(ctx context.Context, w io.Writer, target Punches, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult

	var spans []EventSpan
	for _, event := range events {
		if shouldSkip(event) {
			continue
		}
		span, err := MapEvent(event, opts.Location, opts.Project)
		if err != nil {
			fmt.Fprintf(w, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		spans = append(spans, span)
	}
	slices.SortStableFunc(spans, func(a, b EventSpan) int { return a.Start.Compare(b.Start) })

	// carried is the project to resume after a run of back-to-back events.
	var carried string
	for n, span := range spans {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		label := fmt.Sprintf("%s %s", span.Start.Format("2006-01-02 15:04"), span.Description)
		day := target.PunchesOn(span.Start)

		resume := model.ProjectNone
		var atStart *model.Punch
		for i := range day {
			switch {
			case day[i].Key.Before(span.Start):
				resume = day[i].Project
			case day[i].Key.Equal(span.Start):
				atStart = &day[i]
			}
		}
		if carried != "" {
			resume, carried = carried, ""
		}

		switch {
		case atStart == nil:
			if err := punch(ctx, target, opts.DryRun, span.Start, span.Project, span.Description); err != nil {
				fmt.Fprintf(w, "  ! Error saving %q: %v\n", span.Description, err)
				result.Errors++
				continue
			}
			fmt.Fprintf(w, "  ✓ Imported: %s (%s)\n", label, timecalc.FormatHours(span.End.Sub(span.Start).Hours()))
			result.Imported++
		case atStart.Project == span.Project && atStart.Description != span.Description:
			if !opts.DryRun {
				if err := target.UpdateDescription(ctx, atStart.Key, span.Description); err != nil {
					fmt.Fprintf(w, "  ! Error updating %q: %v\n", span.Description, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(w, "  ↑ Updated:  %s\n", label)
			result.Updated++
			continue
		default:
			fmt.Fprintf(w, "  – Skipped:  %s (already punched)\n", label)
			result.Skipped++
			continue
		}

		// The next event takes over directly; it resumes for both.
		if n+1 < len(spans) && !spans[n+1].Start.After(span.End) && timecalc.SameDay(spans[n+1].Start, span.End) {
			carried = resume
			continue
		}
		// Only close the event when nothing was punched inside it.
		if occupied(day, span) {
			continue
		}
		if err := punch(ctx, target, opts.DryRun, span.End, resume, ""); err != nil {
			fmt.Fprintf(w, "  ! Error closing %q: %v\n", span.Description, err)
			result.Errors++
		}
	}

	return result, nil
}

func occupied(day []model.Punch, span EventSpan) bool {
	for _, p := range day {
		if p.Key.After(span.Start) && !p.Key.After(span.End) {
			return true
		}
	}
	return false
}

func punch(ctx context.Context, target Punches, dryRun bool, at time.Time, project, description string) error {
	if dryRun {
		return nil
	}
	_, err := target.AddPunch(ctx, at, project, description)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}
