package repository

import (
	"context"
	"fmt"
	"sync"

	"pricewatch/models"
)

// RecordStore persists price records as one ordered collection
type RecordStore interface {
	Load(ctx context.Context) ([]models.PriceRecord, error)
	Append(ctx context.Context, rec models.PriceRecord) error
	Replace(ctx context.Context, recs []models.PriceRecord) error
}

// RecordLog is the single owner of the record store. Every read-modify-write
// cycle runs under its mutex so concurrent price checks never lose updates.
type RecordLog struct {
	mu    sync.Mutex
	store RecordStore
}

// NewRecordLog creates a record log that owns store
func NewRecordLog(store RecordStore) *RecordLog {
	return &RecordLog{store: store}
}

// All returns every record in insertion order
func (l *RecordLog) All(ctx context.Context) ([]models.PriceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price records: %w", err)
	}
	return recs, nil
}

// Append adds one record
func (l *RecordLog) Append(ctx context.Context, rec models.PriceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("failed to append price record: %w", err)
	}
	return nil
}

// DeleteURL removes every record for url and returns how many went
func (l *RecordLog) DeleteURL(ctx context.Context, url string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs, err := l.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load price records: %w", err)
	}

	kept := make([]models.PriceRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.URL != url {
			kept = append(kept, rec)
		}
	}

	deleted := len(recs) - len(kept)
	if deleted == 0 {
		return 0, nil
	}

	if err := l.store.Replace(ctx, kept); err != nil {
		return 0, fmt.Errorf("failed to rewrite price records: %w", err)
	}
	return deleted, nil
}

// URLs returns each tracked URL once, in first-seen order
func (l *RecordLog) URLs(ctx context.Context) ([]string, error) {
	recs, err := l.All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	for _, rec := range recs {
		if !seen[rec.URL] {
			seen[rec.URL] = true
			urls = append(urls, rec.URL)
		}
	}
	return urls, nil
}
