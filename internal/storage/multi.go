package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var _ Backend = (*Multi)(nil)

// Multi tees every save to several backends, e.g. a local NDJSON audit file
// alongside a shared database. Saves fan out concurrently; a failure in any
// backend fails the save but does not stop the others.
type Multi struct {
	backends []Backend
}

// NewMulti combines backends into one. Order matters only for Query, which
// reads from the first backend.
func NewMulti(backends ...Backend) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Save(ctx context.Context, rec *Record) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, b := range m.backends {
		g.Go(func() error {
			return b.Save(gCtx, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("storage: multi save: %w", err)
	}
	return nil
}

// Query reads from the first backend; the others are write-only mirrors.
func (m *Multi) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	if len(m.backends) == 0 {
		return nil, nil
	}
	return m.backends[0].Query(ctx, filter)
}

// Close closes every backend, returning the first error encountered.
func (m *Multi) Close() error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
