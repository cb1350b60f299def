package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if PROSPECT_TEST_PG_DSN is set
	dsn := os.Getenv("PROSPECT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: PROSPECT_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()
	rec := &storage.Record{
		ID:        "testpg-" + now.Format("150405.000"),
		RunID:     "testrun-pg",
		Query:     `site:linkedin.com/in/ "Data Engineer"`,
		Provider:  "serpapi",
		URL:       "https://www.linkedin.com/in/test-pg-profile",
		ProfileID: "test-pg-profile",
		CreatedAt: now,
	}

	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{RunID: "testrun-pg"})
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}

	// Can be more than 1 if tests run repeatedly; check the most recent.
	if len(results) < 1 {
		t.Fatalf("expected at least 1 record, got %d", len(results))
	}
	if results[0].ProfileID != "test-pg-profile" {
		t.Errorf("unexpected profile id %s", results[0].ProfileID)
	}
}
