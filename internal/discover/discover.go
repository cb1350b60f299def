package discover

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/profile"
	"github.com/FranksOps/prospect/internal/query"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/internal/storage"
	"github.com/FranksOps/prospect/pkg/ratelimit"
	"github.com/google/uuid"
)

// ErrNoQueries is returned when the attribute set yields no usable query.
// It surfaces before any network call; callers should treat it as an input
// error, distinct from a run that searched and found nothing.
var ErrNoQueries = errors.New("discover: no usable queries from attributes")

// Config assembles the collaborators for discovery runs. Everything is
// caller-constructed; there are no package-level singletons.
type Config struct {
	Providers []serp.Provider
	// Delay is the mandatory pause between queries.
	Delay time.Duration
	// Jitter randomizes the delay, 0.0 to 1.0.
	Jitter float64

	MaxQueries         int // 0 means derive from the attributes
	MaxTotalResults    int
	MaxResultsPerQuery int

	// Store, when non-nil, records every discovered profile. Persistence
	// failures are logged, never fatal.
	Store  storage.Backend
	Logger *slog.Logger
}

// Result is the outcome of one discovery run.
type Result struct {
	RunID     string
	Profiles  []profile.URL
	Queries   []query.Query
	Attempted int
	StartedAt time.Time
	Elapsed   time.Duration
}

// Discoverer runs candidate discovery end to end. Safe to reuse across runs;
// each run owns its own budget and dedup state.
type Discoverer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Discoverer, applying defaults for unset limits.
func New(cfg Config) *Discoverer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxTotalResults <= 0 {
		cfg.MaxTotalResults = 50
	}
	if cfg.MaxResultsPerQuery <= 0 {
		cfg.MaxResultsPerQuery = 10
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 2 * time.Second
	}
	return &Discoverer{cfg: cfg, logger: cfg.Logger}
}

// Run executes one discovery run for the given role attributes.
func (d *Discoverer) Run(ctx context.Context, attrs query.Attributes) (*Result, error) {
	start := time.Now()

	maxQueries := d.cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = query.MaxFor(attrs)
	}

	queries := query.Build(attrs, maxQueries)
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Queries:   queries,
		StartedAt: start.UTC(),
	}

	d.logger.Info("starting discovery run",
		"run_id", res.RunID,
		"queries", len(queries),
		"max_total", d.cfg.MaxTotalResults,
	)

	limiter := ratelimit.NewInterval(d.cfg.Delay, d.cfg.Jitter)
	defer limiter.Stop()

	budget := &Budget{
		MaxTotalResults:    d.cfg.MaxTotalResults,
		MaxResultsPerQuery: d.cfg.MaxResultsPerQuery,
	}

	exec := NewExecutor(d.cfg.Providers, limiter, d.logger)
	hits, err := exec.Execute(ctx, queries, budget)
	if err != nil {
		// Cancellation mid-run: return what was gathered so far along
		// with the error so callers can decide what to keep.
		res.Profiles = Aggregate(hits, d.cfg.MaxTotalResults)
		res.Attempted = budget.QueriesAttempted
		res.Elapsed = time.Since(start)
		return res, err
	}

	res.Profiles = Aggregate(hits, d.cfg.MaxTotalResults)
	res.Attempted = budget.QueriesAttempted
	res.Elapsed = time.Since(start)

	metrics.ProfilesFound.Add(float64(len(res.Profiles)))

	d.logger.Info("discovery run finished",
		"run_id", res.RunID,
		"queries_attempted", res.Attempted,
		"raw_hits", len(hits),
		"profiles", len(res.Profiles),
		"elapsed", res.Elapsed,
	)

	if d.cfg.Store != nil {
		d.persist(ctx, res, hits)
	}

	return res, nil
}

// persist writes one record per final profile, attributing each to the first
// hit that produced it.
func (d *Discoverer) persist(ctx context.Context, res *Result, hits []serp.Hit) {
	providerFor := make(map[string]string, len(hits))
	for _, h := range hits {
		if p, ok := profile.Normalize(h.URL); ok {
			if _, seen := providerFor[p.Canonical]; !seen {
				providerFor[p.Canonical] = h.Provider
			}
		}
	}

	queryText := ""
	if len(res.Queries) > 0 {
		queryText = res.Queries[0].Text
	}

	for _, p := range res.Profiles {
		rec := &storage.Record{
			ID:        uuid.New().String(),
			RunID:     res.RunID,
			Query:     queryText,
			Provider:  providerFor[p.Canonical],
			URL:       p.Canonical,
			ProfileID: p.ID,
			CreatedAt: time.Now().UTC(),
		}
		if err := d.cfg.Store.Save(ctx, rec); err != nil {
			d.logger.Error("failed to persist profile", "url", p.Canonical, "err", err)
		}
	}
}
