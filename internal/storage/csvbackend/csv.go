// Package csvbackend stores discovery records in a headered CSV file.
package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// columns defines the CSV column order.
var columns = []string{
	"id",
	"run_id",
	"query",
	"provider",
	"url",
	"profile_id",
	"created_at",
}

// New creates a CSV-backed storage.Backend, writing the header row when the
// file is new.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: stat: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: flush header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, rec *storage.Record) error {
	record := []string{
		rec.ID,
		rec.RunID,
		rec.Query,
		rec.Provider,
		rec.URL,
		rec.ProfileID,
		rec.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csvbackend: seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("csvbackend: write: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: flush: %w", err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csvbackend: seek: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Skip the header row.
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*storage.Record{}, nil
		}
		return nil, fmt.Errorf("csvbackend: read header: %w", err)
	}

	var matched []*storage.Record
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvbackend: read: %w", err)
		}
		if len(record) != len(columns) {
			continue // skip malformed rows
		}

		createdAt, _ := time.Parse(time.RFC3339Nano, record[6])
		rec := &storage.Record{
			ID:        record[0],
			RunID:     record[1],
			Query:     record[2],
			Provider:  record[3],
			URL:       record[4],
			ProfileID: record[5],
			CreatedAt: createdAt,
		}

		if filter.RunID != "" && rec.RunID != filter.RunID {
			continue
		}
		if filter.Provider != "" && rec.Provider != filter.Provider {
			continue
		}
		if filter.Since != nil && rec.CreatedAt.Before(*filter.Since) {
			continue
		}

		matched = append(matched, rec)
	}

	// Order newest-first, then apply offset/limit.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*storage.Record{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
