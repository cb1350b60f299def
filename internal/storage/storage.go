// Package storage persists discovered profiles across runs.
package storage

import (
	"context"
	"time"
)

// Record is one discovered profile as seen by one run: which query and
// provider surfaced it, and its canonical identity. Persistence is a side
// effect of a run; the in-memory result set never depends on it.
type Record struct {
	ID        string
	RunID     string
	Query     string
	Provider  string
	URL       string
	ProfileID string
	CreatedAt time.Time
}

// Filter selects records when querying a backend.
type Filter struct {
	RunID    string
	Provider string
	Since    *time.Time
	Limit    int
	Offset   int
}

// Backend defines the interface for storing and querying discovery records.
type Backend interface {
	Save(ctx context.Context, rec *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
