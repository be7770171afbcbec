// Package history keeps every classified round in Postgres so posting
// behaviour can be queried per golfer across seasons, independently of the
// cumulative spreadsheet tables.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pfrederiksen/handicap-check/internal/classify"
)

var ErrGolferNotFound = errors.New("golfer has no recorded rounds")

// roundKey identifies a round. Two golfers with the same cleaned name but
// different GHIN numbers are distinct rows.
const roundKey = "date, ghin, golfer_name"

const schema = `CREATE TABLE IF NOT EXISTS rounds (
	date        DATE        NOT NULL,
	golfer_name TEXT        NOT NULL,
	ghin        TEXT        NOT NULL DEFAULT '',
	tee_time    TEXT        NOT NULL DEFAULT '',
	status      TEXT        NOT NULL,
	run_id      TEXT        NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (` + roundKey + `)
)`

const upsertRound = `INSERT INTO rounds (date, golfer_name, ghin, tee_time, status, run_id, recorded_at)
	VALUES (@date, @name, @ghin, @tee_time, @status, @run_id, @recorded_at)
	ON CONFLICT (` + roundKey + `) DO UPDATE SET
		tee_time = EXCLUDED.tee_time,
		status = EXCLUDED.status,
		run_id = EXCLUDED.run_id,
		recorded_at = EXCLUDED.recorded_at`

const golferStats = `SELECT
		COUNT(*) FILTER (WHERE status = 'posted'),
		COUNT(*) FILTER (WHERE status = 'no_post'),
		COUNT(*) FILTER (WHERE status = 'no_identifier'),
		MAX(date)
	FROM rounds WHERE lower(golfer_name) = lower(@name)`

// Stats are a golfer's totals over every recorded round
type Stats struct {
	Name         string
	Posted       int
	NoPost       int
	NoIdentifier int
	LastPlayed   time.Time
}

// PctPlayed is posted / (posted + no_post), or 0 without rounds
func (s *Stats) PctPlayed() float64 {
	if s.Posted+s.NoPost == 0 {
		return 0
	}
	return float64(s.Posted) / float64(s.Posted+s.NoPost)
}

// Store writes and reads rounds
type Store struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// New connects to Postgres and ensures the rounds table exists
func New(ctx context.Context, connString string, clock clock.Clock) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating rounds table: %w", err)
	}

	return &Store{pool: pool, clock: clock}, nil
}

// Close releases the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// RecordRun upserts one row per classified golfer for the date. Re-running a
// date overwrites that date's rows instead of duplicating them.
func (s *Store) RecordRun(ctx context.Context, date time.Time, runID string, results []*classify.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	now := s.clock.Now().UTC()
	for _, r := range results {
		batch.Queue(upsertRound, roundArgs(date, runID, now, r))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("recording rounds: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing rounds: %w", err)
	}
	return nil
}

// GolferStats totals a golfer's recorded rounds by status
func (s *Store) GolferStats(ctx context.Context, name string) (*Stats, error) {
	stats := &Stats{Name: name}
	var last *time.Time

	row := s.pool.QueryRow(ctx, golferStats, pgx.NamedArgs{"name": name})
	if err := row.Scan(&stats.Posted, &stats.NoPost, &stats.NoIdentifier, &last); err != nil {
		return nil, fmt.Errorf("querying stats for %s: %w", name, err)
	}

	if last == nil {
		return nil, ErrGolferNotFound
	}
	stats.LastPlayed = *last
	return stats, nil
}

func roundArgs(date time.Time, runID string, now time.Time, r *classify.Result) pgx.NamedArgs {
	return pgx.NamedArgs{
		"date":        date.Format("2006-01-02"),
		"name":        r.Name,
		"ghin":        r.Identifier,
		"tee_time":    r.TeeTime,
		"status":      string(r.Status),
		"run_id":      runID,
		"recorded_at": now,
	}
}
