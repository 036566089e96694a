package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pricewatch/models"
)

// PostgresStore keeps price records in the price_records table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns all records in insertion order
func (s *PostgresStore) Load(ctx context.Context) ([]models.PriceRecord, error) {
	query := `
		SELECT url, title, price, source, confidence, recorded_at
		FROM price_records
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get price records: %w", err)
	}
	defer rows.Close()

	recs := []models.PriceRecord{}
	for rows.Next() {
		var rec models.PriceRecord
		var source string
		var recordedAt time.Time
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.Price, &source, &rec.Confidence, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		rec.Source = models.Source(source)
		rec.RecordedAt = recordedAt.UTC().Format(time.RFC3339)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price records: %w", err)
	}
	return recs, nil
}

// Append inserts one record
func (s *PostgresStore) Append(ctx context.Context, rec models.PriceRecord) error {
	recordedAt, err := rec.RecordedTime()
	if err != nil {
		return fmt.Errorf("invalid recorded_at %q: %w", rec.RecordedAt, err)
	}

	query := `
		INSERT INTO price_records (url, title, price, source, confidence, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query, rec.URL, rec.Title, rec.Price, string(rec.Source), rec.Confidence, recordedAt); err != nil {
		return fmt.Errorf("failed to insert price record: %w", err)
	}
	return nil
}

// Replace swaps the whole table contents inside one transaction
func (s *PostgresStore) Replace(ctx context.Context, recs []models.PriceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM price_records`); err != nil {
		return fmt.Errorf("failed to clear price records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_records (url, title, price, source, confidence, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		recordedAt, err := rec.RecordedTime()
		if err != nil {
			return fmt.Errorf("invalid recorded_at %q: %w", rec.RecordedAt, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.URL, rec.Title, rec.Price, string(rec.Source), rec.Confidence, recordedAt); err != nil {
			return fmt.Errorf("failed to insert price record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price records: %w", err)
	}
	return nil
}
