package workday

import (
	"slices"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

const (
	recommendMonths = 3
	recommendLimit  = 10
)

// Recommend returns up to ten clock times ("15:04") most often punched in the
// three months before now, sorted ascending.
func Recommend(punches []model.Punch, now time.Time) []string {
	to := timecalc.EndOfDay(now)
	from := to.AddDate(0, -recommendMonths, 0)

	type occurrence struct {
		clock string
		count int
	}
	var counts []occurrence
	index := map[string]int{}
	for _, p := range PunchesBetween(punches, from, to) {
		clock := p.Timestamp.In(now.Location()).Format("15:04")
		if i, ok := index[clock]; ok {
			counts[i].count++
			continue
		}
		index[clock] = len(counts)
		counts = append(counts, occurrence{clock: clock, count: 1})
	}

	slices.SortStableFunc(counts, func(a, b occurrence) int { return b.count - a.count })
	if len(counts) > recommendLimit {
		counts = counts[:recommendLimit]
	}
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.clock
	}
	slices.Sort(out)
	return out
}
