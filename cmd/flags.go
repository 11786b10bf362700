package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Tiliavir/project-time/internal/timecalc"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// timeValue is a pflag.Value accepting "HH:MM", "YYYY-MM-DD",
// "YYYY-MM-DD HH:MM", "today" and "yesterday". Parts that are left out are
// taken from the reference time passed to resolve.
type timeValue struct {
	raw string

	dayOffset int
	date      time.Time
	hasDate   bool
	hour      int
	minute    int
	hasClock  bool
}

var _ pflag.Value = (*timeValue)(nil)

func (v *timeValue) String() string { return v.raw }

func (v *timeValue) Type() string { return "time" }

func (v *timeValue) Set(s string) error {
	parsed, err := parseTimeValue(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *timeValue) isSet() bool { return v.raw != "" }

func parseTimeValue(s string) (timeValue, error) {
	v := timeValue{raw: s}
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "":
		return timeValue{}, fmt.Errorf("empty time")
	case "today", "now":
		return v, nil
	case "yesterday":
		v.dayOffset = -1
		return v, nil
	}

	datePart, clockPart := "", s
	if fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == 'T' }); len(fields) == 2 {
		datePart, clockPart = fields[0], fields[1]
	} else if strings.Count(s, "-") == 2 {
		datePart, clockPart = s, ""
	}

	if datePart != "" {
		d, err := time.Parse(dateLayout, datePart)
		if err != nil {
			return timeValue{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", datePart)
		}
		v.date, v.hasDate = d, true
	}
	if clockPart != "" {
		c, err := time.Parse(clockLayout, clockPart)
		if err != nil {
			return timeValue{}, fmt.Errorf("invalid time %q (want HH:MM)", clockPart)
		}
		v.hour, v.minute, v.hasClock = c.Hour(), c.Minute(), true
	}
	return v, nil
}

// resolve returns the value in ref's location. Without a clock part the time
// of ref is kept; without a date the day of ref is used.
func (v *timeValue) resolve(ref time.Time) time.Time {
	loc := ref.Location()
	day := ref.AddDate(0, 0, v.dayOffset)
	if v.hasDate {
		day = time.Date(v.date.Year(), v.date.Month(), v.date.Day(), 0, 0, 0, 0, loc)
	}
	hour, minute, sec := ref.Hour(), ref.Minute(), ref.Second()
	if v.hasClock {
		hour, minute, sec = v.hour, v.minute, 0
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, sec, 0, loc)
}

// day resolves v to the start of its day, defaulting to ref's day.
func (v *timeValue) day(ref time.Time) time.Time {
	return timecalc.StartOfDay(v.resolve(ref))
}

// parseTimeArg parses a positional time argument relative to ref.
func parseTimeArg(s string, ref time.Time) (time.Time, error) {
	v, err := parseTimeValue(s)
	if err != nil {
		return time.Time{}, err
	}
	return v.resolve(ref), nil
}
