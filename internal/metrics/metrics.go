// Package metrics exposes Prometheus instrumentation for discovery runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_searches_total",
			Help: "Total number of provider search calls executed",
		},
		[]string{"provider", "status"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_provider_failures_total",
			Help: "Provider search failures by failure kind",
		},
		[]string{"provider", "kind"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prospect_search_duration_seconds",
			Help:    "Duration of provider search calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	HitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_hits_total",
			Help: "Raw candidate URLs returned by providers",
		},
		[]string{"provider"},
	)

	ProfilesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospect_profiles_found_total",
			Help: "Validated, deduplicated profile URLs produced by runs",
		},
	)
)

// RecordSearch updates the per-call metrics for one provider attempt.
func RecordSearch(provider string, duration time.Duration, hits int, failureKind string) {
	status := "ok"
	if failureKind != "" {
		status = "error"
		ProviderFailures.WithLabelValues(provider, failureKind).Inc()
	}
	SearchesTotal.WithLabelValues(provider, status).Inc()
	SearchDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if hits > 0 {
		HitsTotal.WithLabelValues(provider).Add(float64(hits))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
