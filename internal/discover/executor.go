// Package discover orchestrates a candidate-discovery run: it turns role
// attributes into queries, drives the provider fallback chain under a result
// budget, and aggregates validated profile URLs.
package discover

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/internal/profile"
	"github.com/FranksOps/prospect/internal/query"
	"github.com/FranksOps/prospect/internal/serp"
	"github.com/FranksOps/prospect/pkg/ratelimit"
)

// Budget holds the run-scoped result limits and counters. One Budget belongs
// to exactly one run and is never shared or persisted.
type Budget struct {
	MaxTotalResults    int
	MaxResultsPerQuery int
	QueriesAttempted   int
}

// Executor tries providers in priority order per query until one yields
// hits, sleeping the mandatory inter-query delay between queries.
type Executor struct {
	providers []serp.Provider
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// NewExecutor creates an executor over the given provider chain. The limiter
// enforces the inter-query delay; nil disables it (tests).
func NewExecutor(providers []serp.Provider, limiter *ratelimit.Limiter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{providers: providers, limiter: limiter, logger: logger}
}

// Execute runs the queries in priority order and accumulates raw hits.
// Per query it falls through the provider chain on any failure; a query for
// which every provider fails contributes zero hits and the run continues.
// The loop stops early once the budget's distinct-profile count is reached,
// counted against the deduplicated running set so duplicate-heavy providers
// cannot end a run prematurely. The only error returned is ctx cancellation,
// which aborts between queries, never mid-call.
func (e *Executor) Execute(ctx context.Context, queries []query.Query, budget *Budget) ([]serp.Hit, error) {
	var all []serp.Hit
	distinct := make(map[string]struct{})

	for i, q := range queries {
		if len(distinct) >= budget.MaxTotalResults {
			break
		}
		if err := ctx.Err(); err != nil {
			return all, err
		}

		budget.QueriesAttempted++
		hits := e.tryProviders(ctx, q, budget.MaxResultsPerQuery)

		for _, h := range hits {
			all = append(all, h)
			if p, ok := profile.Normalize(h.URL); ok {
				distinct[p.Canonical] = struct{}{}
			}
		}

		e.logger.Info("query executed",
			"query", q.Text,
			"strategy", q.Strategy,
			"hits", len(hits),
			"distinct_total", len(distinct),
		)

		// Mandatory inter-query delay, applied even when every provider
		// failed: the shared engines rate-limit by client, not by outcome.
		if i < len(queries)-1 && len(distinct) < budget.MaxTotalResults && e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return all, err
			}
		}
	}

	return all, nil
}

// tryProviders walks the chain for one query. First non-empty success wins;
// failures are logged and contained here.
func (e *Executor) tryProviders(ctx context.Context, q query.Query, limit int) []serp.Hit {
	for _, p := range e.providers {
		start := time.Now()
		hits, err := p.Search(ctx, q.Text, limit)
		if err != nil {
			kind := serp.KindOf(err)
			metrics.RecordSearch(p.Name(), time.Since(start), 0, kind.String())
			e.logger.Warn("provider failed, falling through",
				"provider", p.Name(),
				"kind", kind.String(),
				"query", q.Text,
				"err", err,
			)
			continue
		}

		metrics.RecordSearch(p.Name(), time.Since(start), len(hits), "")
		if len(hits) == 0 {
			e.logger.Debug("provider returned no hits", "provider", p.Name(), "query", q.Text)
			continue
		}
		return hits
	}
	return nil
}
