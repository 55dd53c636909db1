package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/david/rfp-finder/internal/models"
)

// Store wraps the SQLite database. Opportunities are deduplicated on
// (source, source_id); the content hash drives amendment detection. Records
// are never deleted, closed notices just change status.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// resolveStatus finalizes the stored status: terminal statuses stick, a past
// closing date forces closed, anything unrecognized becomes open.
func resolveStatus(opp *models.NormalizedOpportunity) string {
	switch opp.Status {
	case models.StatusCancelled, models.StatusExpired, models.StatusClosed:
		return opp.Status
	}
	if opp.ClosingAt != nil && opp.ClosingAt.UTC().Before(time.Now().UTC()) {
		return models.StatusClosed
	}
	switch opp.Status {
	case models.StatusOpen, models.StatusAmended, models.StatusUnknown:
		return opp.Status
	}
	return models.StatusOpen
}

// Upsert inserts or updates an opportunity, reporting (wasNew, wasAmended).
// A hash change records the prior hash and marks the row amended; an
// unchanged hash still rewrites the data payload so normalization
// improvements reach old rows.
func (s *Store) Upsert(ctx context.Context, opp *models.NormalizedOpportunity) (wasNew, wasAmended bool, err error) {
	now := time.Now().UTC().Format(time.RFC3339)
	status := resolveStatus(opp)

	stored := *opp
	stored.Status = status
	data, err := json.Marshal(&stored)
	if err != nil {
		return false, false, fmt.Errorf("failed to encode opportunity %s: %w", opp.ID, err)
	}

	var priorHash string
	err = s.db.QueryRowContext(ctx,
		"SELECT content_hash FROM opportunities WHERE source = ? AND source_id = ?",
		opp.Source, opp.SourceID,
	).Scan(&priorHash)

	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO opportunities (id, source, source_id, content_hash, status, data, first_seen_at, last_seen_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			opp.ID, opp.Source, opp.SourceID, opp.ContentHash, status, string(data), now, now,
		)
		if err != nil {
			return false, false, fmt.Errorf("failed to insert opportunity %s: %w", opp.ID, err)
		}
		return true, false, nil

	case err != nil:
		return false, false, fmt.Errorf("failed to look up opportunity %s: %w", opp.ID, err)
	}

	if priorHash != opp.ContentHash {
		_, err = s.db.ExecContext(ctx, `
			UPDATE opportunities SET
				content_hash = ?, status = ?, prior_content_hash = ?,
				data = ?, last_seen_at = ?
			WHERE source = ? AND source_id = ?`,
			opp.ContentHash, status, priorHash, string(data), now, opp.Source, opp.SourceID,
		)
		if err != nil {
			return false, false, fmt.Errorf("failed to update opportunity %s: %w", opp.ID, err)
		}
		return false, true, nil
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE opportunities SET data = ?, last_seen_at = ? WHERE source = ? AND source_id = ?",
		string(data), now, opp.Source, opp.SourceID,
	)
	if err != nil {
		return false, false, fmt.Errorf("failed to refresh opportunity %s: %w", opp.ID, err)
	}
	return false, false, nil
}

// Get returns a single opportunity by its "{source}:{source_id}" id, or nil
// if absent.
func (s *Store) Get(ctx context.Context, id string) (*models.NormalizedOpportunity, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM opportunities WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity %s: %w", id, err)
	}
	return decodeOpportunity(data)
}

func (s *Store) GetAll(ctx context.Context) ([]*models.NormalizedOpportunity, error) {
	return s.queryOpportunities(ctx, "SELECT data FROM opportunities ORDER BY last_seen_at DESC")
}

func (s *Store) GetByStatus(ctx context.Context, status string) ([]*models.NormalizedOpportunity, error) {
	return s.queryOpportunities(ctx,
		"SELECT data FROM opportunities WHERE status = ? ORDER BY last_seen_at DESC", status)
}

// GetModifiedSince returns opportunities whose last_seen_at is at or after
// the given instant.
func (s *Store) GetModifiedSince(ctx context.Context, since time.Time) ([]*models.NormalizedOpportunity, error) {
	return s.queryOpportunities(ctx,
		"SELECT data FROM opportunities WHERE last_seen_at >= ? ORDER BY last_seen_at DESC",
		since.UTC().Format(time.RFC3339))
}

func (s *Store) queryOpportunities(ctx context.Context, query string, args ...any) ([]*models.NormalizedOpportunity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.NormalizedOpportunity
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity row: %w", err)
		}
		opp, err := decodeOpportunity(data)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

func decodeOpportunity(data string) (*models.NormalizedOpportunity, error) {
	var opp models.NormalizedOpportunity
	if err := json.Unmarshal([]byte(data), &opp); err != nil {
		return nil, fmt.Errorf("failed to decode stored opportunity: %w", err)
	}
	return &opp, nil
}
