// Package runlog keeps a local history of harvest runs.
package runlog

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

type Entry struct {
	RangeStart int
	RangeEnd   int
	Processed  int
	Failed     int
	Skipped    int
	Sessions   int
	StartedAt  time.Time
	Duration   time.Duration
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (range_start, range_end, processed, failed, skipped, sessions, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RangeStart,
		e.RangeEnd,
		e.Processed,
		e.Failed,
		e.Skipped,
		e.Sessions,
		e.StartedAt.Unix(),
		e.Duration.Milliseconds(),
	)
	return err
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT range_start, range_end, processed, failed, skipped, sessions, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt int64
		var durationMs int64
		err = rows.Scan(
			&e.RangeStart,
			&e.RangeEnd,
			&e.Processed,
			&e.Failed,
			&e.Skipped,
			&e.Sessions,
			&startedAt,
			&durationMs,
		)
		if err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(startedAt, 0)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
