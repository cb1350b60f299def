package discover

import (
	"context"
	"fmt"
	"testing"

	"github.com/FranksOps/prospect/internal/query"
	"github.com/FranksOps/prospect/internal/serp"
)

// fakeProvider scripts per-query responses for executor tests.
type fakeProvider struct {
	name  string
	hits  map[string][]serp.Hit
	err   error
	calls []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, q string, limit int) ([]serp.Hit, error) {
	f.calls = append(f.calls, q)
	if f.err != nil {
		return nil, f.err
	}
	hits := f.hits[q]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func profileHits(provider string, ids ...string) []serp.Hit {
	hits := make([]serp.Hit, len(ids))
	for i, id := range ids {
		hits[i] = serp.Hit{URL: "https://www.linkedin.com/in/" + id, Provider: provider}
	}
	return hits
}

func queries(texts ...string) []query.Query {
	qs := make([]query.Query, len(texts))
	for i, t := range texts {
		qs[i] = query.Query{Text: t, Strategy: "test", Priority: i}
	}
	return qs
}

func TestExecutor_FallsThroughOnFailure(t *testing.T) {
	failing := &fakeProvider{
		name: "primary",
		err:  &serp.Error{Provider: "primary", Kind: serp.KindTimeout, Err: context.DeadlineExceeded},
	}
	working := &fakeProvider{
		name: "secondary",
		hits: map[string][]serp.Hit{"q1": profileHits("secondary", "jane-doe")},
	}

	exec := NewExecutor([]serp.Provider{failing, working}, nil, nil)
	budget := &Budget{MaxTotalResults: 10, MaxResultsPerQuery: 5}

	hits, err := exec.Execute(context.Background(), queries("q1"), budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 1 || hits[0].Provider != "secondary" {
		t.Fatalf("expected hits from secondary provider, got %v", hits)
	}
	if len(failing.calls) != 1 {
		t.Errorf("expected primary tried once, got %d", len(failing.calls))
	}
}

func TestExecutor_FirstSuccessStopsChain(t *testing.T) {
	first := &fakeProvider{
		name: "primary",
		hits: map[string][]serp.Hit{"q1": profileHits("primary", "jane-doe")},
	}
	second := &fakeProvider{name: "secondary"}

	exec := NewExecutor([]serp.Provider{first, second}, nil, nil)
	budget := &Budget{MaxTotalResults: 10, MaxResultsPerQuery: 5}

	if _, err := exec.Execute(context.Background(), queries("q1"), budget); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.calls) != 0 {
		t.Errorf("secondary should not be tried after primary success, got %d calls", len(second.calls))
	}
}

func TestExecutor_QueryFailureDoesNotAbortRun(t *testing.T) {
	p := &fakeProvider{
		name: "only",
		hits: map[string][]serp.Hit{
			"q2": profileHits("only", "john-smith"),
		},
	}
	// q1 yields nothing (no entry), q2 yields one hit.
	exec := NewExecutor([]serp.Provider{p}, nil, nil)
	budget := &Budget{MaxTotalResults: 10, MaxResultsPerQuery: 5}

	hits, err := exec.Execute(context.Background(), queries("q1", "q2"), budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected q2 hits despite q1 failure, got %v", hits)
	}
	if budget.QueriesAttempted != 2 {
		t.Errorf("expected 2 queries attempted, got %d", budget.QueriesAttempted)
	}
}

func TestExecutor_StopsAtDedupedBudget(t *testing.T) {
	p := &fakeProvider{
		name: "only",
		hits: map[string][]serp.Hit{
			// Same two profiles from both queries: duplicates must not
			// count twice against the budget.
			"q1": profileHits("only", "a1", "b2"),
			"q2": profileHits("only", "a1", "b2"),
			"q3": profileHits("only", "c3"),
		},
	}

	exec := NewExecutor([]serp.Provider{p}, nil, nil)
	budget := &Budget{MaxTotalResults: 3, MaxResultsPerQuery: 5}

	_, err := exec.Execute(context.Background(), queries("q1", "q2", "q3"), budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// After q1 the distinct count is 2 (< 3), after q2 still 2, so q3 runs
	// and pushes the distinct count to 3.
	if len(p.calls) != 3 {
		t.Errorf("expected all 3 queries executed, got %v", p.calls)
	}

	budget = &Budget{MaxTotalResults: 2, MaxResultsPerQuery: 5}
	p.calls = nil
	if _, err := exec.Execute(context.Background(), queries("q1", "q2", "q3"), budget); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.calls) != 1 {
		t.Errorf("expected early stop after q1 filled the budget, got %v", p.calls)
	}
}

func TestExecutor_RespectsPerQueryLimit(t *testing.T) {
	ids := make([]string, 8)
	for i := range ids {
		ids[i] = fmt.Sprintf("person-%d", i)
	}
	p := &fakeProvider{
		name: "only",
		hits: map[string][]serp.Hit{"q1": profileHits("only", ids...)},
	}

	exec := NewExecutor([]serp.Provider{p}, nil, nil)
	budget := &Budget{MaxTotalResults: 100, MaxResultsPerQuery: 3}

	hits, err := exec.Execute(context.Background(), queries("q1"), budget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected per-query limit of 3, got %d hits", len(hits))
	}
}

func TestExecutor_CancelledContextAbortsBetweenQueries(t *testing.T) {
	p := &fakeProvider{name: "only"}
	exec := NewExecutor([]serp.Provider{p}, nil, nil)
	budget := &Budget{MaxTotalResults: 10, MaxResultsPerQuery: 5}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, queries("q1", "q2"), budget)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(p.calls) != 0 {
		t.Errorf("no provider call should happen after cancellation, got %d", len(p.calls))
	}
}
