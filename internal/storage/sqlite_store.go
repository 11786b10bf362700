package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/project-time/internal/model"

	_ "modernc.org/sqlite"
)

// migrations are re-run on every open and must stay idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS punches (
		ts          INTEGER PRIMARY KEY,
		project     TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
}

// SQLiteStore keeps punches in a single SQLite table keyed by the timestamp
// in Unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
func OpenSQLite(path string, loc *time.Location) (*SQLiteStore, error) {
	if loc == nil {
		loc = time.Local
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &SQLiteStore{db: db, loc: loc}, nil
}

const selectPunches = `SELECT ts, project, description FROM punches`

func (s *SQLiteStore) GetAll(ctx context.Context) ([]model.Punch, error) {
	return s.query(ctx, selectPunches+` ORDER BY ts`)
}

func (s *SQLiteStore) GetFrom(ctx context.Context, from time.Time) ([]model.Punch, error) {
	return s.query(ctx, selectPunches+` WHERE ts >= ? ORDER BY ts`, from.UnixMilli())
}

func (s *SQLiteStore) GetRange(ctx context.Context, from, to time.Time) ([]model.Punch, error) {
	return s.query(ctx, selectPunches+` WHERE ts BETWEEN ? AND ? ORDER BY ts`, from.UnixMilli(), to.UnixMilli())
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ts FROM punches ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("listing punch keys: %w", err)
	}
	defer rows.Close()

	var keys []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scanning punch key: %w", err)
		}
		keys = append(keys, s.fromMillis(ms))
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, key time.Time) (model.Punch, error) {
	row := s.db.QueryRowContext(ctx, selectPunches+` WHERE ts = ?`, key.UnixMilli())
	p, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Punch{}, ErrNotFound
	}
	if err != nil {
		return model.Punch{}, fmt.Errorf("getting punch: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Add(ctx context.Context, p model.Punch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO punches (ts, project, description) VALUES (?, ?, ?)`,
		p.Timestamp.UnixMilli(), p.Project, p.Description,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("adding punch at %s: %w", p.Timestamp.Format(time.RFC3339), ErrDuplicateKey)
		}
		return fmt.Errorf("inserting punch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, p model.Punch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO punches (ts, project, description) VALUES (?, ?, ?)
		ON CONFLICT(ts) DO UPDATE SET project = excluded.project, description = excluded.description`,
		p.Timestamp.UnixMilli(), p.Project, p.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting punch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM punches WHERE ts = ?`, key.UnixMilli()); err != nil {
		return fmt.Errorf("deleting punch: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(s.loc)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row scanner) (model.Punch, error) {
	var (
		ms int64
		p  model.Punch
	)
	if err := row.Scan(&ms, &p.Project, &p.Description); err != nil {
		return model.Punch{}, err
	}
	p.Timestamp = s.fromMillis(ms)
	p.Key = p.Timestamp
	return p, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.Punch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing punches: %w", err)
	}
	defer rows.Close()

	var punches []model.Punch
	for rows.Next() {
		p, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning punch: %w", err)
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}
