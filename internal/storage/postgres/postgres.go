// Package postgres stores discovery records in a PostgreSQL database.
package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/prospect/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS discovered_profiles (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	query TEXT NOT NULL,
	provider TEXT NOT NULL,
	url TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_discovered_profiles_run_id ON discovered_profiles (run_id);
`

// New creates a Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, rec *storage.Record) error {
	query := `
	INSERT INTO discovered_profiles (id, run_id, query, provider, url, profile_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := b.pool.Exec(ctx, query,
		rec.ID,
		rec.RunID,
		rec.Query,
		rec.Provider,
		rec.URL,
		rec.ProfileID,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, query, provider, url, profile_id, created_at FROM discovered_profiles WHERE 1=1`
	args := []any{}
	param := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, param)
		args = append(args, filter.RunID)
		param++
	}
	if filter.Provider != "" {
		query += fmt.Sprintf(` AND provider = $%d`, param)
		args = append(args, filter.Provider)
		param++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, param)
		args = append(args, *filter.Since)
		param++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, param)
		args = append(args, filter.Limit)
		param++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, param)
		args = append(args, filter.Offset)
		param++
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		if err := rows.Scan(&r.ID, &r.RunID, &r.Query, &r.Provider, &r.URL, &r.ProfileID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
