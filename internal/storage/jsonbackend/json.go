// Package jsonbackend stores discovery records as NDJSON in a single file.
package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

var _ storage.Backend = (*jsonBackend)(nil)

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

// row mirrors storage.Record with stable JSON field names.
type row struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Provider  string    `json:"provider"`
	URL       string    `json:"url"`
	ProfileID string    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates an NDJSON-backed storage.Backend, appending to filePath.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("jsonbackend: open: %w", err)
	}
	return &jsonBackend{file: f}, nil
}

func (b *jsonBackend) Save(ctx context.Context, rec *storage.Record) error {
	data, err := json.Marshal(row(*rec))
	if err != nil {
		return fmt.Errorf("jsonbackend: marshal: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("jsonbackend: write: %w", err)
	}
	return nil
}

func (b *jsonBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("jsonbackend: seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)

	var matched []*storage.Record
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var r row
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("jsonbackend: unmarshal: %w", err)
		}

		rec := storage.Record(r)
		if !match(&rec, filter) {
			continue
		}
		matched = append(matched, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("jsonbackend: scan: %w", err)
	}

	return paginate(matched, filter), nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

func match(rec *storage.Record, f storage.Filter) bool {
	if f.RunID != "" && rec.RunID != f.RunID {
		return false
	}
	if f.Provider != "" && rec.Provider != f.Provider {
		return false
	}
	if f.Since != nil && rec.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// paginate orders newest-first and applies offset/limit, matching what the
// database backends do with ORDER BY created_at DESC.
func paginate(recs []*storage.Record, f storage.Filter) []*storage.Record {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}

	if f.Offset > 0 {
		if f.Offset >= len(recs) {
			return []*storage.Record{}
		}
		recs = recs[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(recs) {
		recs = recs[:f.Limit]
	}
	return recs
}
