package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
)

// CachedAttachment is a fetched attachment with its extraction metadata.
type CachedAttachment struct {
	URL              string
	LocalPath        string
	FetchedAt        time.Time
	ExtractionStatus string
	ExtractedText    string
	TextLength       *int
	PageCount        *int
	ErrorMessage     string
}

// GetCachedAttachment returns the cache entry for a URL, or nil if absent.
func (s *Store) GetCachedAttachment(ctx context.Context, url string) (*CachedAttachment, error) {
	var ca CachedAttachment
	var fetched string
	var textLen, pageCount sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT url, local_path, fetched_at, extraction_status, extracted_text, text_length, page_count, error_message
		FROM attachment_cache WHERE url = ?`, url,
	).Scan(&ca.URL, &ca.LocalPath, &fetched, &ca.ExtractionStatus,
		&ca.ExtractedText, &textLen, &pageCount, &ca.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached attachment: %w", err)
	}

	ca.FetchedAt, err = time.Parse(time.RFC3339, fetched)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attachment fetch time: %w", err)
	}
	if textLen.Valid {
		v := int(textLen.Int64)
		ca.TextLength = &v
	}
	if pageCount.Valid {
		v := int(pageCount.Int64)
		ca.PageCount = &v
	}
	return &ca, nil
}

// UpsertAttachment inserts or replaces the cache entry for a URL.
func (s *Store) UpsertAttachment(ctx context.Context, ca *CachedAttachment) error {
	now := time.Now().UTC().Format(time.RFC3339)
	status := ca.ExtractionStatus
	if status == "" {
		status = ExtractionPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachment_cache
			(url, local_path, fetched_at, extraction_status, extracted_text, text_length, page_count, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			local_path = excluded.local_path,
			fetched_at = excluded.fetched_at,
			extraction_status = excluded.extraction_status,
			extracted_text = excluded.extracted_text,
			text_length = excluded.text_length,
			page_count = excluded.page_count,
			error_message = excluded.error_message`,
		ca.URL, ca.LocalPath, now, status, ca.ExtractedText,
		nullableInt(ca.TextLength), nullableInt(ca.PageCount), ca.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment cache entry: %w", err)
	}
	return nil
}

// UpdateExtraction records an extraction outcome for a cached attachment.
// Nil fields keep their stored values.
func (s *Store) UpdateExtraction(ctx context.Context, url, status string, text *string, textLength, pageCount *int, errorMessage *string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE attachment_cache SET
			extraction_status = ?,
			extracted_text = COALESCE(?, extracted_text),
			text_length = COALESCE(?, text_length),
			page_count = COALESCE(?, page_count),
			error_message = COALESCE(?, error_message)
		WHERE url = ?`,
		status, text, nullableInt(textLength), nullableInt(pageCount), errorMessage, url,
	)
	if err != nil {
		return fmt.Errorf("failed to update extraction for %s: %w", url, err)
	}
	return nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}
