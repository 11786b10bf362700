package timecalc

import (
	"fmt"
	"math"
	"time"
)

// RoundTimestamp drops seconds and sub-seconds from t. When rounded is set the
// minutes are additionally snapped to the nearest quarter hour; 60 carries into
// the next hour.
func RoundTimestamp(t time.Time, rounded bool) time.Time {
	minute := t.Minute()
	if rounded {
		minute = (minute + 7) / 15 * 15
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// Round rounds v to two decimals, halves rounding up.
func Round(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Duration returns the wall-clock distance between start and end in hours,
// built from whole hours plus whole minutes and rounded to two decimals.
// It reports false if either bound is the zero time.
func Duration(start, end time.Time) (float64, bool) {
	if start.IsZero() || end.IsZero() {
		return 0, false
	}
	d := civil(end).Sub(civil(start))
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return Round(float64(hours) + float64(minutes)/60), true
}

// civil re-reads t's calendar fields as UTC so differences ignore zone
// offset changes between the two instants.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatHours formats fractional hours as "7h 30m". Negative values keep
// their sign: "-1h 15m".
func FormatHours(hours float64) string {
	sign := ""
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	total := int64(math.Round(hours * 60))
	return fmt.Sprintf("%s%dh %02dm", sign, total/60, total%60)
}

// FormatBalance formats a balance with an explicit sign, e.g. "+0.50".
func FormatBalance(balance float64) string {
	return fmt.Sprintf("%+.2f", balance)
}

// WeekRange returns the Monday 00:00 and Sunday end of day of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	monday := WeekStart(t)
	return monday, EndOfDay(monday.AddDate(0, 0, 6))
}

// WeekStart returns 00:00 of the Monday starting the week of t.
func WeekStart(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	return StartOfDay(t.AddDate(0, 0, -(wd - 1)))
}

// SameWeek reports whether a and b fall into the same Monday-based week.
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b.In(a.Location())))
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
