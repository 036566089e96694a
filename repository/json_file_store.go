package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pricewatch/models"
)

const recordFileMode = 0o600

// JSONFileStore keeps all records in a single JSON array document
type JSONFileStore struct {
	path string
}

// NewJSONFileStore creates a store backed by the file at path
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Load reads the document. A missing file is an empty log.
func (s *JSONFileStore) Load(ctx context.Context) ([]models.PriceRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.PriceRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return []models.PriceRecord{}, nil
	}

	var recs []models.PriceRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	if recs == nil {
		recs = []models.PriceRecord{}
	}
	return recs, nil
}

// Append loads, appends and rewrites the whole document
func (s *JSONFileStore) Append(ctx context.Context, rec models.PriceRecord) error {
	recs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.Replace(ctx, append(recs, rec))
}

// Replace writes recs through a temp file and renames it into place
func (s *JSONFileStore) Replace(ctx context.Context, recs []models.PriceRecord) error {
	if recs == nil {
		recs = []models.PriceRecord{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode price records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write price records: %w", err)
	}
	if err := tmp.Chmod(recordFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
