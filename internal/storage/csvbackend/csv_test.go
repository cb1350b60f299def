package csvbackend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/prospect/internal/storage"
)

func TestCSVBackend_SaveAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	rec := &storage.Record{
		ID:        "rec1",
		RunID:     "run1",
		Query:     `site:linkedin.com/in/ "SRE" "Oslo"`,
		Provider:  "google_fallback",
		URL:       "https://www.linkedin.com/in/jane-doe",
		ProfileID: "jane-doe",
		CreatedAt: now,
	}
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := b.Query(ctx, storage.Filter{RunID: "run1"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].URL != rec.URL || got[0].ProfileID != rec.ProfileID {
		t.Errorf("record did not round-trip: %+v", got[0])
	}
}

func TestCSVBackend_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")

	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	if err := b.Save(context.Background(), &storage.Record{ID: "x1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	b.Close()

	// Reopen: header must not be duplicated.
	b, err = New(path)
	if err != nil {
		t.Fatalf("failed to reopen backend: %v", err)
	}
	defer b.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Count(string(data), "id,run_id") != 1 {
		t.Errorf("expected exactly one header row, got:\n%s", data)
	}
}

func TestCSVBackend_EmptyFileQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	got, err := b.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
