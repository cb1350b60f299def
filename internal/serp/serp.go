// Package serp implements search-engine providers that return candidate
// profile links for a query. Providers differ in transport (structured API
// vs. HTML scraping) and reliability; the fallback order between them is
// decided by the caller.
package serp

import (
	"context"
	"errors"
	"fmt"
)

// Hit is a raw candidate URL lifted off a search results response, tagged
// with the provider that produced it. Hits are transient: they are handed
// straight to URL normalization and never stored as-is.
type Hit struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// ErrorKind classifies provider failures. Every kind is recoverable: the
// executor falls through to the next provider regardless of kind.
type ErrorKind int

const (
	KindTransportFailure ErrorKind = iota
	KindTimeout
	KindRateLimited
	KindParseFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "transport_failure"
	}
}

// Error is the failure type returned by every provider.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from a provider error chain, defaulting
// to transport failure for errors raised outside the taxonomy.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransportFailure
}

// Provider abstracts one search surface. Search returns at most limit hits
// for the query. Implementations must honor ctx cancellation/deadlines and
// must not retry internally; retry and fallback policy belong to the
// executor driving them.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}
