package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one row of analysis history.
type AnalysisRecord struct {
	ID             string    `json:"id"`
	TextHash       string    `json:"text_hash"`
	Operation      string    `json:"operation"`
	TokenCount     int       `json:"token_count"`
	EntityCount    int       `json:"entity_count"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
	DurationMS     float64   `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryStorage records completed analyses and serves dashboard queries.
type HistoryStorage struct {
	sqlite *SQLite
}

// NewHistoryStorage creates a history store over an open SQLite handle.
func NewHistoryStorage(sqlite *SQLite) *HistoryStorage {
	return &HistoryStorage{sqlite: sqlite}
}

// SaveAnalysis inserts a record. A zero ID or CreatedAt is filled in.
func (h *HistoryStorage) SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := h.sqlite.DB.ExecContext(ctx, `
		INSERT INTO analyses
			(id, text_hash, operation, token_count, entity_count,
			 sentiment_label, sentiment_score, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TextHash, rec.Operation, rec.TokenCount, rec.EntityCount,
		rec.SentimentLabel, rec.SentimentScore, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis record: %w", err)
	}
	return nil
}

// GetRecent returns the newest records, newest first.
func (h *HistoryStorage) GetRecent(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.sqlite.DB.QueryContext(ctx, `
		SELECT id, text_hash, operation, token_count, entity_count,
		       sentiment_label, sentiment_score, duration_ms, created_at
		FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.TextHash, &rec.Operation, &rec.TokenCount,
			&rec.EntityCount, &rec.SentimentLabel, &rec.SentimentScore,
			&rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the total number of recorded analyses.
func (h *HistoryStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := h.sqlite.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// CountsByLabel returns analysis counts grouped by sentiment label.
func (h *HistoryStorage) CountsByLabel(ctx context.Context) (map[string]int64, error) {
	rows, err := h.sqlite.DB.QueryContext(ctx,
		"SELECT sentiment_label, COUNT(*) FROM analyses GROUP BY sentiment_label")
	if err != nil {
		return nil, fmt.Errorf("failed to query label counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts[label] = count
	}
	return counts, rows.Err()
}

// PruneOlderThan deletes records created before cutoff and returns the
// number removed.
func (h *HistoryStorage) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.sqlite.DB.ExecContext(ctx, "DELETE FROM analyses WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune analysis history: %w", err)
	}
	return res.RowsAffected()
}
