package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunRecord is one ingest run's history row.
type RunRecord struct {
	ID           string
	Source       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Status       string
	ItemsFetched int
	ItemsNew     int
	ItemsAmended int
}

// StartRun records the start of an ingest run and returns its record.
func (s *Store) StartRun(ctx context.Context, source string) (*RunRecord, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, source, started_at, status) VALUES (?, ?, ?, ?)",
		id, source, now.Format(time.RFC3339), RunRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	return &RunRecord{
		ID:        id,
		Source:    source,
		StartedAt: now,
		Status:    RunRunning,
	}, nil
}

// FinishRun records completion of a run with its item counts.
func (s *Store) FinishRun(ctx context.Context, runID, status string, fetched, newItems, amended int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, status = ?, items_fetched = ?, items_new = ?, items_amended = ?
		WHERE id = ?`,
		now, status, fetched, newItems, amended, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	return nil
}

// ListRuns returns run history, newest first, up to limit (0 means all).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := "SELECT id, source, started_at, finished_at, status, items_fetched, items_new, items_amended FROM runs ORDER BY started_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Source, &started, &finished, &r.Status,
			&r.ItemsFetched, &r.ItemsNew, &r.ItemsAmended); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run start time: %w", err)
		}
		if finished.Valid && finished.String != "" {
			t, err := time.Parse(time.RFC3339, finished.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse run finish time: %w", err)
			}
			r.FinishedAt = &t
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
