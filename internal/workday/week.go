package workday

import (
	"slices"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// outOfOfficeStart is the clock time synthesized out-of-office days begin at.
const outOfOfficeStart = 8

// WeekOptions extends Options with the week-level settings.
type WeekOptions struct {
	Options
	// ShowWholeCurrentWeek builds the days of the current week past today.
	ShowWholeCurrentWeek bool
	// Now anchors "current week" and "today". Zero means time.Now().
	Now time.Time
}

func (o WeekOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// BuildWeek builds the Monday-based week containing date from all punches.
// punches must be sorted ascending; it may span more than the week.
func BuildWeek(date time.Time, punches []model.Punch, opts WeekOptions) model.WorkWeek {
	now := opts.now().In(date.Location())
	start, end := timecalc.WeekRange(date)
	currentWeek := timecalc.SameWeek(start, now)
	if today := timecalc.EndOfDay(now); !opts.ShowWholeCurrentWeek && end.After(today) {
		end = today
	}

	var days []model.Workday
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := buildDay(d, punches, currentWeek, opts.Options)
		if len(day.Punches) == 0 && timecalc.IsWeekend(day.Date) {
			continue
		}
		days = append(days, day)
	}

	var total, balance float64
	for _, d := range days {
		total += d.TotalHours
		balance += d.Balance
	}
	projectTimes := MergeProjectTimes(days)
	slices.Reverse(days)

	return model.WorkWeek{
		FirstDay:     start,
		Days:         days,
		TotalHours:   timecalc.Round(total),
		Balance:      timecalc.Round(balance),
		ProjectTimes: projectTimes,
	}
}

// buildDay selects the punches of day and builds it, emitting a placeholder or
// a synthesized out-of-office day when there are none.
func buildDay(day time.Time, all []model.Punch, currentWeek bool, opts Options) model.Workday {
	punches := PunchesBetween(all, timecalc.StartOfDay(day), timecalc.EndOfDay(day))
	if len(punches) > 0 {
		return Build(punches, opts)
	}
	if currentWeek || timecalc.IsWeekend(day) || opts.WorkHoursPerDay == 0 {
		return model.Workday{
			Date:    day,
			Punches: []model.Punch{},
			Balance: 0 - opts.WorkHoursPerDay,
		}
	}
	return Build(OutOfOfficeDay(day, opts.WorkHoursPerDay), opts)
}

// OutOfOfficeDay returns the punches of an auto-filled absent day: Out-of-Office
// at 08:00 and None after workHours.
func OutOfOfficeDay(day time.Time, workHours float64) []model.Punch {
	start := time.Date(day.Year(), day.Month(), day.Day(), outOfOfficeStart, 0, 0, 0, day.Location())
	end := start.Add(time.Duration(workHours * float64(time.Hour)))
	return []model.Punch{
		{Key: start, Timestamp: start, Project: model.ProjectOutOfOffice},
		{Key: end, Timestamp: end, Project: model.ProjectNone},
	}
}

// PunchesBetween returns copies of the punches strictly between from and to.
func PunchesBetween(all []model.Punch, from, to time.Time) []model.Punch {
	var out []model.Punch
	for _, p := range all {
		if p.Timestamp.After(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out
}

// MergeProjectTimes sums project durations across days by project name.
// Tickets are merged by ticket number.
func MergeProjectTimes(days []model.Workday) []model.ProjectTime {
	var out []model.ProjectTime
	index := map[string]int{}
	for _, d := range days {
		for _, p := range d.ProjectTimes {
			i, ok := index[p.Project]
			if !ok {
				index[p.Project] = len(out)
				out = append(out, model.ProjectTime{Project: p.Project})
				i = len(out) - 1
			}
			out[i].Duration += p.Duration
			for _, t := range p.Tickets {
				addTicket(&out[i], t.Ticket, t.Description, t.Duration)
			}
		}
	}
	return out
}
