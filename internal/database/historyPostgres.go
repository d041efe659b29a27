package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/skysight/internal/entity"
)

func NewHistoryPostgres(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) Save(ctx context.Context, record *entity.AnalysisRecord) error {
	readText, err := json.Marshal(record.ReadText)
	if err != nil {
		return err
	}

	query := `INSERT INTO image_analysis_results (id, view_id, caption_text, caption_confidence, read_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.ViewID,
		nullString(record.CaptionText),
		nullFloat(record.CaptionConfidence),
		readText,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

func (r *postgresHistoryRepository) Recent(ctx context.Context, limit int) ([]entity.AnalysisRecord, error) {
	query := `SELECT id, view_id, caption_text, caption_confidence, read_text, created_at
		FROM image_analysis_results
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis results: %w", err)
	}
	defer rows.Close()

	var records []entity.AnalysisRecord
	for rows.Next() {
		var (
			record     entity.AnalysisRecord
			text       sql.NullString
			confidence sql.NullFloat64
			readText   []byte
		)

		if err := rows.Scan(&record.ID, &record.ViewID, &text, &confidence, &readText, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis result: %w", err)
		}

		if text.Valid {
			record.CaptionText = &text.String
		}
		if confidence.Valid {
			record.CaptionConfidence = &confidence.Float64
		}
		if len(readText) > 0 {
			if err := json.Unmarshal(readText, &record.ReadText); err != nil {
				return nil, fmt.Errorf("failed to decode read text: %w", err)
			}
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
