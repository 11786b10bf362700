package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
	"github.com/Tiliavir/project-time/internal/timecalc"
)

// FileStore keeps one human-readable JSON file per day below base,
// laid out as YYYY/MM/DD.json.
type FileStore struct {
	base string
	loc  *time.Location
}

// NewFileStore returns a FileStore rooted at base.
func NewFileStore(base string, loc *time.Location) *FileStore {
	if loc == nil {
		loc = time.Local
	}
	return &FileStore{base: base, loc: loc}
}

// dayFilePath returns the path for the given date's JSON file.
func (s *FileStore) dayFilePath(t time.Time) string {
	t = t.In(s.loc)
	return filepath.Join(s.base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func (s *FileStore) LoadDay(t time.Time) (model.DayFile, error) {
	path := s.dayFilePath(t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: t.In(s.loc).Format("2006-01-02"), Punches: []model.Punch{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	for i := range df.Punches {
		df.Punches[i].Timestamp = df.Punches[i].Timestamp.In(s.loc)
		df.Punches[i].Key = df.Punches[i].Timestamp
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date. An empty day removes the file.
func (s *FileStore) SaveDay(t time.Time, df model.DayFile) error {
	path := s.dayFilePath(t)
	if len(df.Punches) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage error removing %s: %w", path, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	sortPunches(df.Punches)
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// dayFiles lists every day file below base in chronological order.
func (s *FileStore) dayFiles() ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(s.base, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "[0-9][0-9].json"))
	if err != nil {
		return nil, fmt.Errorf("storage error listing day files: %w", err)
	}
	days := make([]time.Time, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.base, m)
		if err != nil {
			continue
		}
		d, err := time.ParseInLocation(filepath.Join("2006", "01", "02")+".json", rel, s.loc)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func (s *FileStore) GetAll(ctx context.Context) ([]model.Punch, error) {
	days, err := s.dayFiles()
	if err != nil {
		return nil, err
	}
	var punches []model.Punch
	for _, d := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		df, err := s.LoadDay(d)
		if err != nil {
			return nil, err
		}
		punches = append(punches, df.Punches...)
	}
	sortPunches(punches)
	return punches, nil
}

func (s *FileStore) GetFrom(ctx context.Context, from time.Time) ([]model.Punch, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterRange(all, from, time.Time{}), nil
}

// GetRange loads the day files in [from, to] and keeps the punches inside the bounds.
func (s *FileStore) GetRange(ctx context.Context, from, to time.Time) ([]model.Punch, error) {
	var punches []model.Punch
	for d := timecalc.StartOfDay(from.In(s.loc)); !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		df, err := s.LoadDay(d)
		if err != nil {
			return nil, err
		}
		punches = append(punches, df.Punches...)
	}
	sortPunches(punches)
	return filterRange(punches, from, to), nil
}

func (s *FileStore) Keys(ctx context.Context) ([]time.Time, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]time.Time, len(all))
	for i, p := range all {
		keys[i] = p.Key
	}
	return keys, nil
}

func (s *FileStore) Get(_ context.Context, key time.Time) (model.Punch, error) {
	df, err := s.LoadDay(key)
	if err != nil {
		return model.Punch{}, err
	}
	for _, p := range df.Punches {
		if p.Key.Equal(key) {
			return p, nil
		}
	}
	return model.Punch{}, ErrNotFound
}

func (s *FileStore) Add(_ context.Context, p model.Punch) error {
	df, err := s.LoadDay(p.Timestamp)
	if err != nil {
		return err
	}
	for _, e := range df.Punches {
		if e.Key.Equal(p.Timestamp) {
			return fmt.Errorf("adding punch at %s: %w", p.Timestamp.Format(time.RFC3339), ErrDuplicateKey)
		}
	}
	df.Punches = append(df.Punches, storedPunch(p))
	return s.SaveDay(p.Timestamp, df)
}

// Put replaces or appends a punch in the DayFile for its date.
func (s *FileStore) Put(_ context.Context, p model.Punch) error {
	df, err := s.LoadDay(p.Timestamp)
	if err != nil {
		return err
	}
	for i, e := range df.Punches {
		if e.Key.Equal(p.Timestamp) {
			df.Punches[i] = storedPunch(p)
			return s.SaveDay(p.Timestamp, df)
		}
	}
	df.Punches = append(df.Punches, storedPunch(p))
	return s.SaveDay(p.Timestamp, df)
}

func (s *FileStore) Delete(_ context.Context, key time.Time) error {
	df, err := s.LoadDay(key)
	if err != nil {
		return err
	}
	kept := df.Punches[:0]
	for _, e := range df.Punches {
		if !e.Key.Equal(key) {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(df.Punches) {
		return nil
	}
	df.Punches = kept
	return s.SaveDay(key, df)
}

func (s *FileStore) Close() error { return nil }

// storedPunch strips derived fields before persisting.
func storedPunch(p model.Punch) model.Punch {
	return model.Punch{
		Key:         p.Timestamp,
		Timestamp:   p.Timestamp,
		Project:     p.Project,
		Description: p.Description,
	}
}
