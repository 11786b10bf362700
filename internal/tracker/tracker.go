// Package tracker owns the punch store and keeps the derived weeks in sync
// with it. All access is serialized; every mutation reloads the weeks it
// touched before returning.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/storage"
	"github.com/Tiliavir/project-time/internal/timecalc"
	"github.com/Tiliavir/project-time/internal/workday"
)

// quickAddStep is the gap NextSlot leaves after the last punch of a day.
const quickAddStep = 15 * time.Minute

// Settings configures how punches are interpreted.
type Settings struct {
	workday.Options
	// Rounded snaps loaded timestamps to the nearest quarter hour.
	Rounded              bool
	ShowWholeCurrentWeek bool
	// Location is the zone days are computed in. Nil means time.Local.
	Location *time.Location
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

// Tracker is the single writer in front of a storage.Store.
type Tracker struct {
	mu       sync.Mutex
	store    storage.Store
	settings Settings
	log      *slog.Logger

	punches         []model.Punch
	weeks           []model.WorkWeek
	currentProject  string
	totalBalance    float64
	recommendations []string
}

// New returns a Tracker over store. Call Load before reading.
func New(store storage.Store, settings Settings, logger *slog.Logger) *Tracker {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:          store,
		settings:       settings,
		log:            logger,
		currentProject: model.ProjectNone,
	}
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}

func (t *Tracker) now() time.Time {
	return t.settings.Now().In(t.settings.Location)
}

func (t *Tracker) weekOptions() workday.WeekOptions {
	return workday.WeekOptions{
		Options:              t.settings.Options,
		ShowWholeCurrentWeek: t.settings.ShowWholeCurrentWeek,
		Now:                  t.now(),
	}
}

// prepare expresses stored punches in the tracker's zone and applies rounding.
func (t *Tracker) prepare(punches []model.Punch) []model.Punch {
	out := make([]model.Punch, len(punches))
	for i, p := range punches {
		p.Key = p.Key.In(t.settings.Location)
		p.Timestamp = timecalc.RoundTimestamp(p.Key, t.settings.Rounded)
		out[i] = p
	}
	return out
}

func sortByTimestamp(punches []model.Punch) {
	slices.SortStableFunc(punches, func(a, b model.Punch) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// Load reads every punch and rebuilds all weeks from the first punch up to
// today.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) error {
	all, err := t.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading punches: %w", err)
	}
	t.punches = t.prepare(all)
	sortByTimestamp(t.punches)
	t.rebuildWeeks()
	t.log.Debug("punches loaded", "count", len(t.punches), "weeks", len(t.weeks))
	return nil
}

// rebuildWeeks builds every week between the oldest punch and the newer of
// today and the latest punch, most recent first.
func (t *Tracker) rebuildWeeks() {
	now := t.now()
	first, last := now, now
	if len(t.punches) > 0 {
		first = t.punches[0].Timestamp
		if latest := t.punches[len(t.punches)-1].Timestamp; latest.After(last) {
			last = latest
		}
	}
	opts := t.weekOptions()
	t.weeks = t.weeks[:0]
	for w := timecalc.WeekStart(last); !w.Before(timecalc.WeekStart(first)); w = w.AddDate(0, 0, -7) {
		t.weeks = append(t.weeks, workday.BuildWeek(w, t.punches, opts))
	}
	t.recompute()
}

// reloadWeek re-reads the week containing date from the store and replaces
// it in the week list.
func (t *Tracker) reloadWeek(ctx context.Context, date time.Time) error {
	start, end := timecalc.WeekRange(date.In(t.settings.Location))
	fresh, err := t.store.GetRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("reloading week of %s: %w", start.Format("2006-01-02"), err)
	}
	t.punches = slices.DeleteFunc(t.punches, func(p model.Punch) bool {
		return !p.Key.Before(start) && !p.Key.After(end)
	})
	t.punches = append(t.punches, t.prepare(fresh)...)
	sortByTimestamp(t.punches)

	i := slices.IndexFunc(t.weeks, func(w model.WorkWeek) bool { return w.FirstDay.Equal(start) })
	if i < 0 {
		// A week outside the loaded span: gaps may open, rebuild everything.
		t.rebuildWeeks()
		return nil
	}
	t.weeks[i] = workday.BuildWeek(start, t.punches, t.weekOptions())
	t.recompute()
	t.log.Debug("week reloaded", "week", timecalc.ISOWeekLabel(start), "punches", len(fresh))
	return nil
}

func (t *Tracker) recompute() {
	t.currentProject = model.ProjectNone
	if len(t.punches) > 0 {
		t.currentProject = t.punches[len(t.punches)-1].Project
	}
	var balance float64
	for _, w := range t.weeks {
		balance += w.Balance
	}
	t.totalBalance = timecalc.Round(balance)
	t.recommendations = workday.Recommend(t.punches, t.now())
}

// ErrEmptyProject rejects punches without a project.
var ErrEmptyProject = errors.New("project must not be empty")

// stamp turns a user supplied time into a store key.
func (t *Tracker) stamp(at time.Time) time.Time {
	return timecalc.RoundTimestamp(at.In(t.settings.Location), false)
}

// punchKey is the key of a fresh punch. In rounded mode it is snapped to the
// quarter hour, so two punches within the same quarter collide.
func (t *Tracker) punchKey(at time.Time) time.Time {
	return timecalc.RoundTimestamp(at.In(t.settings.Location), t.settings.Rounded)
}

// AddPunch records a switch to project at the given time.
func (t *Tracker) AddPunch(ctx context.Context, at time.Time, project, description string) (model.Punch, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return model.Punch{}, ErrEmptyProject
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := t.punchKey(at)
	p := model.Punch{Key: key, Timestamp: key, Project: project, Description: strings.TrimSpace(description)}
	if err := t.store.Add(ctx, p); err != nil {
		return model.Punch{}, err
	}
	t.log.Debug("punch added", "at", key, "project", project)
	if err := t.reloadWeek(ctx, key); err != nil {
		return model.Punch{}, err
	}
	return p, nil
}

// NextSlot proposes the time for a quick add on day: a quarter hour after
// its last punch, or the current clock time rounded when the day is empty.
func (t *Tracker) NextSlot(day time.Time) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	day = day.In(t.settings.Location)
	punches := workday.PunchesBetween(t.punches, timecalc.StartOfDay(day), timecalc.EndOfDay(day))
	if len(punches) > 0 {
		return punches[len(punches)-1].Key.Add(quickAddStep)
	}
	now := t.now()
	at := time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), 0, 0, t.settings.Location)
	return timecalc.RoundTimestamp(at, true)
}

// UpdateProject changes the project of the punch at key. A missing punch is
// ignored.
func (t *Tracker) UpdateProject(ctx context.Context, key time.Time, project string) error {
	project = strings.TrimSpace(project)
	if project == "" {
		return ErrEmptyProject
	}
	return t.update(ctx, key, func(p *model.Punch) { p.Project = project })
}

// UpdateDescription changes the description of the punch at key. A missing
// punch is ignored.
func (t *Tracker) UpdateDescription(ctx context.Context, key time.Time, description string) error {
	return t.update(ctx, key, func(p *model.Punch) { p.Description = strings.TrimSpace(description) })
}

func (t *Tracker) update(ctx context.Context, key time.Time, change func(*model.Punch)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		t.log.Debug("update of missing punch ignored", "at", key)
		return nil
	}
	if err != nil {
		return err
	}
	change(&p)
	if err := t.store.Put(ctx, p); err != nil {
		return err
	}
	t.log.Debug("punch updated", "at", key, "project", p.Project)
	return t.reloadWeek(ctx, key)
}

// UpdateTime moves the punch at key to newTime. The time is the key, so this
// is a delete followed by an insert. A missing punch is ignored; an occupied
// target leaves the punch where it was.
func (t *Tracker) UpdateTime(ctx context.Context, key, newTime time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		t.log.Debug("time change of missing punch ignored", "at", key)
		return nil
	}
	if err != nil {
		return err
	}
	newKey := t.stamp(newTime)
	if newKey.Equal(p.Key) {
		return nil
	}
	if _, err := t.store.Get(ctx, newKey); err == nil {
		return fmt.Errorf("moving punch to %s: %w", newKey.Format("2006-01-02 15:04"), storage.ErrDuplicateKey)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := t.store.Delete(ctx, p.Key); err != nil {
		return err
	}
	moved := p
	moved.Key, moved.Timestamp = newKey, newKey
	if err := t.store.Add(ctx, moved); err != nil {
		if restoreErr := t.store.Add(ctx, p); restoreErr != nil {
			t.log.Error("restoring punch failed", "at", p.Key, "err", restoreErr)
		}
		return err
	}
	t.log.Debug("punch moved", "from", key, "to", newKey)
	if err := t.reloadWeek(ctx, key); err != nil {
		return err
	}
	return t.reloadWeek(ctx, newKey)
}

// MoveDay moves every punch of day to date, keeping the clock times. It
// returns the number of punches moved.
func (t *Tracker) MoveDay(ctx context.Context, day, date time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	day, date = day.In(t.settings.Location), date.In(t.settings.Location)
	if timecalc.SameDay(day, date) {
		return 0, nil
	}
	punches, err := t.store.GetRange(ctx, timecalc.StartOfDay(day), timecalc.EndOfDay(day))
	if err != nil {
		return 0, err
	}
	occupied, err := t.store.GetRange(ctx, timecalc.StartOfDay(date), timecalc.EndOfDay(date))
	if err != nil {
		return 0, err
	}

	moved := make([]model.Punch, len(punches))
	for i, p := range punches {
		k := p.Key.In(t.settings.Location)
		nk := time.Date(date.Year(), date.Month(), date.Day(), k.Hour(), k.Minute(), k.Second(), k.Nanosecond(), t.settings.Location)
		for _, o := range occupied {
			if o.Key.Equal(nk) {
				return 0, fmt.Errorf("moving day to %s: %w", nk.Format("2006-01-02 15:04"), storage.ErrDuplicateKey)
			}
		}
		p.Key, p.Timestamp = nk, nk
		moved[i] = p
	}

	for _, p := range punches {
		if err := t.store.Delete(ctx, p.Key); err != nil {
			return 0, err
		}
	}
	for _, p := range moved {
		if err := t.store.Add(ctx, p); err != nil {
			return 0, err
		}
	}
	t.log.Debug("day moved", "from", day.Format("2006-01-02"), "to", date.Format("2006-01-02"), "punches", len(moved))
	if err := t.reloadWeek(ctx, day); err != nil {
		return 0, err
	}
	return len(moved), t.reloadWeek(ctx, date)
}

// Delete removes the punch at key. A missing punch is ignored.
func (t *Tracker) Delete(ctx context.Context, key time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(ctx, key); err != nil {
		return err
	}
	t.log.Debug("punch deleted", "at", key)
	return t.reloadWeek(ctx, key)
}

// Purge deletes every punch strictly before cutoff and reloads everything.
// It returns the number of deleted punches.
func (t *Tracker) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys, err := t.store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if !k.Before(cutoff) {
			break
		}
		if err := t.store.Delete(ctx, k); err != nil {
			return n, err
		}
		n++
	}
	t.log.Debug("punches purged", "before", cutoff, "count", n)
	return n, t.load(ctx)
}

// Lookup finds the punch stored or displayed at the given minute.
func (t *Tracker) Lookup(at time.Time) (model.Punch, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	at = t.stamp(at)
	for _, p := range t.punches {
		if t.stamp(p.Key).Equal(at) || p.Timestamp.Equal(at) {
			return p, true
		}
	}
	return model.Punch{}, false
}

// PunchesOn returns the punches of day in ascending order.
func (t *Tracker) PunchesOn(day time.Time) []model.Punch {
	t.mu.Lock()
	defer t.mu.Unlock()

	day = day.In(t.settings.Location)
	return workday.PunchesBetween(t.punches, timecalc.StartOfDay(day), timecalc.EndOfDay(day))
}

// Week returns the week containing date.
func (t *Tracker) Week(date time.Time) model.WorkWeek {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.week(date)
}

func (t *Tracker) week(date time.Time) model.WorkWeek {
	start := timecalc.WeekStart(date.In(t.settings.Location))
	for _, w := range t.weeks {
		if w.FirstDay.Equal(start) {
			return w
		}
	}
	return workday.BuildWeek(start, t.punches, t.weekOptions())
}

// Weeks returns all loaded weeks, most recent first.
func (t *Tracker) Weeks() []model.WorkWeek {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.weeks)
}

// Day returns the workday of date. Days outside the displayed part of their
// week are built from their punches alone.
func (t *Tracker) Day(date time.Time) model.Workday {
	t.mu.Lock()
	defer t.mu.Unlock()

	date = date.In(t.settings.Location)
	for _, d := range t.week(date).Days {
		if timecalc.SameDay(d.Date, date) {
			return d
		}
	}
	punches := workday.PunchesBetween(t.punches, timecalc.StartOfDay(date), timecalc.EndOfDay(date))
	if len(punches) == 0 {
		return model.Workday{Date: timecalc.StartOfDay(date), Punches: []model.Punch{}}
	}
	return workday.Build(punches, t.settings.Options)
}

// CurrentProject is the project of the latest punch, None when there is none.
func (t *Tracker) CurrentProject() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentProject
}

// Current returns the latest punch.
func (t *Tracker) Current() (model.Punch, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.punches) == 0 {
		return model.Punch{}, false
	}
	return t.punches[len(t.punches)-1], true
}

// TotalBalance is the sum of all week balances.
func (t *Tracker) TotalBalance() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalBalance
}

// Recommendations are the most common punch clock times of the last months.
func (t *Tracker) Recommendations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.recommendations)
}

// TicketLine is one ticket row of a week report.
type TicketLine struct {
	Project     string  `json:"project" yaml:"project"`
	Ticket      string  `json:"ticket" yaml:"ticket"`
	Duration    float64 `json:"duration" yaml:"duration"`
	Description string  `json:"description" yaml:"description"`
}

// Tickets flattens the ticket times of a week in project order.
func Tickets(week model.WorkWeek) []TicketLine {
	var out []TicketLine
	for _, pt := range week.ProjectTimes {
		for _, tt := range pt.Tickets {
			out = append(out, TicketLine{
				Project:     pt.Project,
				Ticket:      tt.Ticket,
				Duration:    timecalc.Round(tt.Duration),
				Description: tt.Description,
			})
		}
	}
	return out
}
