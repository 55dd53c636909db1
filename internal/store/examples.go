package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	LabelGood = "good"
	LabelBad  = "bad"
)

// Example is a labeled good-fit or bad-fit notice used by similarity
// scoring.
type Example struct {
	ID        int64
	ProfileID string
	URL       string
	Label     string
	Title     string
	Summary   string
	RawText   string
	CreatedAt time.Time
}

// AddExample stores a labeled example for a profile.
func (s *Store) AddExample(ctx context.Context, ex *Example) error {
	if ex.Label != LabelGood && ex.Label != LabelBad {
		return fmt.Errorf("invalid example label %q", ex.Label)
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO examples (profile_id, url, label, title, summary, raw_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.ProfileID, ex.URL, ex.Label, ex.Title, ex.Summary, ex.RawText, now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to add example: %w", err)
	}

	ex.ID, _ = res.LastInsertId()
	ex.CreatedAt = now
	return nil
}

// ListExamples returns all examples for a profile, newest first.
func (s *Store) ListExamples(ctx context.Context, profileID string) ([]*Example, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, url, label, title, summary, raw_text, created_at
		FROM examples WHERE profile_id = ? ORDER BY created_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query examples: %w", err)
	}
	defer rows.Close()

	var examples []*Example
	for rows.Next() {
		var ex Example
		var created string
		if err := rows.Scan(&ex.ID, &ex.ProfileID, &ex.URL, &ex.Label,
			&ex.Title, &ex.Summary, &ex.RawText, &created); err != nil {
			return nil, fmt.Errorf("failed to scan example row: %w", err)
		}
		ex.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("failed to parse example timestamp: %w", err)
		}
		examples = append(examples, &ex)
	}
	return examples, rows.Err()
}

// TextsForProfile returns the (good, bad) comparison texts for similarity
// scoring. Each text joins title, summary, and raw page text; examples with
// no text at all are skipped.
func (s *Store) TextsForProfile(ctx context.Context, profileID string) ([]string, []string, error) {
	examples, err := s.ListExamples(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}

	var good, bad []string
	for _, ex := range examples {
		parts := make([]string, 0, 3)
		for _, p := range []string{ex.Title, ex.Summary, ex.RawText} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text == "" {
			continue
		}
		if ex.Label == LabelGood {
			good = append(good, text)
		} else {
			bad = append(bad, text)
		}
	}
	return good, bad, nil
}
