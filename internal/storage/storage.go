package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Tiliavir/project-time/internal/model"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

var (
	// ErrNotFound is returned by Get when no punch exists at the key.
	ErrNotFound = errors.New("punch not found")
	// ErrDuplicateKey is returned by Add when a punch already exists at the key.
	ErrDuplicateKey = errors.New("punch already exists at this time")
)

// Store persists punches keyed by their timestamp. Keys are unique: two
// punches can never share the same instant. Changing a punch's time is a
// Delete of the old key followed by an Add of the new one.
type Store interface {
	// GetAll returns every punch in ascending key order.
	GetAll(ctx context.Context) ([]model.Punch, error)
	// GetFrom returns punches with key >= from.
	GetFrom(ctx context.Context, from time.Time) ([]model.Punch, error)
	// GetRange returns punches with from <= key <= to.
	GetRange(ctx context.Context, from, to time.Time) ([]model.Punch, error)
	// Keys returns all keys in ascending order.
	Keys(ctx context.Context) ([]time.Time, error)
	// Get returns the punch at key or ErrNotFound.
	Get(ctx context.Context, key time.Time) (model.Punch, error)
	// Add inserts p at p.Timestamp or fails with ErrDuplicateKey.
	Add(ctx context.Context, p model.Punch) error
	// Put inserts or replaces the punch at p.Timestamp.
	Put(ctx context.Context, p model.Punch) error
	// Delete removes the punch at key. A missing key is not an error.
	Delete(ctx context.Context, key time.Time) error
	Close() error
}

// BaseDir returns the root data directory: $PTIME_HOME or ~/.ptime.
func BaseDir() (string, error) {
	if dir := os.Getenv("PTIME_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ptime"), nil
}

// Open opens the store of the given backend below base. Loaded punches are
// expressed in loc.
func Open(backend, base string, loc *time.Location) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(filepath.Join(base, "punches.db"), loc)
	case BackendJSON:
		return NewFileStore(base, loc), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func sortPunches(punches []model.Punch) {
	sort.SliceStable(punches, func(i, j int) bool {
		return punches[i].Timestamp.Before(punches[j].Timestamp)
	})
}

func filterRange(punches []model.Punch, from, to time.Time) []model.Punch {
	var out []model.Punch
	for _, p := range punches {
		if p.Key.Before(from) || (!to.IsZero() && p.Key.After(to)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
