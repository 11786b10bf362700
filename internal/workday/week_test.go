package workday_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
	"github.com/Tiliavir/project-time/internal/workday"
)

// now is Wednesday 2026-10-21, noon. The current week runs Mon 10-19 to Sun 10-25.
var now = time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func weekOpts(workHours float64) workday.WeekOptions {
	return workday.WeekOptions{Options: workday.Options{WorkHoursPerDay: workHours}, Now: now}
}

func dates(days []model.Workday) []time.Time {
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}

func TestBuildWeek_SynthesizesPastWeekdays(t *testing.T) {
	mon := day(10, 12)
	punches := []model.Punch{
		at(mon, 8, 0, "A"),
		at(mon, 17, 0, model.ProjectNone),
	}

	week := workday.BuildWeek(day(10, 14), punches, weekOpts(8))

	assert.True(t, week.FirstDay.Equal(mon))
	require.Len(t, week.Days, 5, "weekend placeholders are dropped")
	assert.Equal(t, []time.Time{day(10, 16), day(10, 15), day(10, 14), day(10, 13), day(10, 12)}, dates(week.Days))

	wed := week.Days[2]
	require.Len(t, wed.Punches, 2)
	assert.Equal(t, model.ProjectOutOfOffice, wed.Punches[0].Project)
	assert.True(t, wed.Punches[0].Timestamp.Equal(day(10, 14).Add(8*time.Hour)))
	assert.Equal(t, model.ProjectNone, wed.Punches[1].Project)
	assert.True(t, wed.Punches[1].Timestamp.Equal(day(10, 14).Add(16*time.Hour)))
	assert.Zero(t, wed.TotalHours)
	assert.Equal(t, -8.0, wed.Balance)

	assert.Equal(t, 9.0, week.TotalHours)
	assert.Equal(t, 1.0-4*8, week.Balance)
	require.Len(t, week.ProjectTimes, 1)
	assert.Equal(t, "A", week.ProjectTimes[0].Project)
}

func TestBuildWeek_CurrentWeekPlaceholdersClampedToToday(t *testing.T) {
	week := workday.BuildWeek(now, nil, weekOpts(8))

	require.Len(t, week.Days, 3)
	assert.Equal(t, []time.Time{day(10, 21), day(10, 20), day(10, 19)}, dates(week.Days))
	today := week.Days[0]
	assert.Empty(t, today.Punches)
	assert.Zero(t, today.TotalHours)
	assert.Equal(t, -8.0, today.Balance)
	assert.Equal(t, -24.0, week.Balance)
}

func TestBuildWeek_ShowWholeCurrentWeek(t *testing.T) {
	opts := weekOpts(8)
	opts.ShowWholeCurrentWeek = true

	week := workday.BuildWeek(now, nil, opts)

	require.Len(t, week.Days, 5)
	assert.True(t, week.Days[0].Date.Equal(day(10, 23)))
	for _, d := range week.Days {
		assert.Empty(t, d.Punches, "current week days are never synthesized")
	}
}

func TestBuildWeek_ZeroTargetUsesPlaceholders(t *testing.T) {
	week := workday.BuildWeek(day(10, 14), nil, weekOpts(0))

	require.Len(t, week.Days, 5)
	for _, d := range week.Days {
		assert.Empty(t, d.Punches)
		assert.Zero(t, d.Balance)
	}
	assert.Zero(t, week.Balance)
}

func TestBuildWeek_KeepsWeekendWithPunches(t *testing.T) {
	sat := day(10, 17)
	punches := []model.Punch{
		at(sat, 10, 0, "A"),
		at(sat, 12, 0, model.ProjectNone),
	}

	week := workday.BuildWeek(sat, punches, weekOpts(0))

	require.Len(t, week.Days, 6)
	assert.True(t, week.Days[0].Date.Equal(sat))
	assert.Equal(t, 2.0, week.Days[0].TotalHours)
	assert.Equal(t, 2.0, week.Balance)
}

func TestBuildWeek_MergesProjectTimes(t *testing.T) {
	mon, tue := day(10, 12), day(10, 13)
	punches := []model.Punch{
		at(mon, 8, 0, "A"),
		at(mon, 12, 0, model.ProjectNone),
		at(tue, 8, 0, "A"),
		at(tue, 10, 0, "B"),
		at(tue, 12, 0, model.ProjectNone),
	}

	week := workday.BuildWeek(mon, punches, weekOpts(0))

	require.Len(t, week.ProjectTimes, 2)
	assert.Equal(t, "A", week.ProjectTimes[0].Project)
	assert.Equal(t, 6.0, week.ProjectTimes[0].Duration)
	assert.Equal(t, "B", week.ProjectTimes[1].Project)
	assert.Equal(t, 2.0, week.ProjectTimes[1].Duration)
	assert.Equal(t, 8.0, week.TotalHours)
}

func TestBuildWeek_BalanceIsSumOfRoundedDays(t *testing.T) {
	var punches []model.Punch
	for d := 12; d <= 16; d++ {
		dt := day(10, d)
		punches = append(punches,
			at(dt, 8, 0, "A"),
			at(dt, 8, 20, "B"),
			at(dt, 8, 40, model.ProjectNone),
		)
	}

	week := workday.BuildWeek(day(10, 12), punches, weekOpts(1))

	var sum float64
	for _, d := range week.Days {
		assert.Equal(t, -0.34, d.Balance)
		sum += d.Balance
	}
	assert.Equal(t, timecalc.Round(sum), week.Balance)
	assert.Equal(t, -1.7, week.Balance)
	assert.Equal(t, 3.3, week.TotalHours)
}

func TestBuildWeek_MidnightPunchIsOutsideDay(t *testing.T) {
	tue := day(10, 13)
	punches := []model.Punch{
		at(tue, 0, 0, "A"),
	}

	week := workday.BuildWeek(tue, punches, weekOpts(0))

	for _, d := range week.Days {
		assert.Empty(t, d.Punches)
	}
}

func TestPunchesBetween(t *testing.T) {
	mon := day(10, 12)
	punches := []model.Punch{
		at(mon, 8, 0, "A"),
		at(mon, 9, 0, "B"),
		at(mon, 10, 0, "C"),
	}

	got := workday.PunchesBetween(punches, at(mon, 8, 0, "").Timestamp, at(mon, 10, 0, "").Timestamp)

	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Project)
}
