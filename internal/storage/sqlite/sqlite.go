// Package sqlite stores discovery records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/prospect/internal/storage"
	_ "modernc.org/sqlite"
)

var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS discovered_profiles (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	query TEXT NOT NULL,
	provider TEXT NOT NULL,
	url TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_discovered_profiles_run_id ON discovered_profiles (run_id);
`

// New creates a SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, rec *storage.Record) error {
	query := `
	INSERT INTO discovered_profiles (id, run_id, query, provider, url, profile_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		rec.ID,
		rec.RunID,
		rec.Query,
		rec.Provider,
		rec.URL,
		rec.ProfileID,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, query, provider, url, profile_id, created_at FROM discovered_profiles WHERE 1=1`
	args := []any{}

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, filter.Provider)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		if err := rows.Scan(&r.ID, &r.RunID, &r.Query, &r.Provider, &r.URL, &r.ProfileID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
