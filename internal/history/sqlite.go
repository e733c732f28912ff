package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500

	// timeLayout is fixed-width so that created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteJournal implements Journal on the dispatch_history table.
type SQLiteJournal struct {
	db    *sql.DB
	clock clock.Clock
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal returns a journal over an open, migrated connection.
// A nil clock uses the wall clock.
func NewSQLiteJournal(db *sql.DB, clk clock.Clock) *SQLiteJournal {
	if clk == nil {
		clk = clock.New()
	}
	return &SQLiteJournal{db: db, clock: clk}
}

// Record inserts entry. A zero CreatedAt is stamped with the journal's clock.
func (j *SQLiteJournal) Record(ctx context.Context, entry Entry) error {
	if entry.CycleID == "" {
		return ErrMissingCycleID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.clock.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO dispatch_history
		 (cycle_id, mac_address, reading_count, status_code, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CycleID,
		entry.MACAddress,
		entry.Readings,
		entry.StatusCode,
		entry.Error,
		entry.Duration.Milliseconds(),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Non-positive limits use
// the default of 50; limits above 500 are clamped.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, cycle_id, mac_address, reading_count, status_code, error, duration_ms, created_at
		 FROM dispatch_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.CycleID, &e.MACAddress, &e.Readings,
			&e.StatusCode, &e.Error, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dispatch history: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than olderThan and returns how many went.
func (j *SQLiteJournal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := j.clock.Now().Add(-olderThan).UTC().Format(timeLayout)
	result, err := j.db.ExecContext(ctx,
		"DELETE FROM dispatch_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting dispatch history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
