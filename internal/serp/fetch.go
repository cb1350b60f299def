package serp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/prospect/internal/fingerprint"
	"github.com/FranksOps/prospect/pkg/httpclient"
	"github.com/FranksOps/prospect/pkg/proxy"
	"github.com/FranksOps/prospect/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchConfig configures the HTTP plumbing shared by all providers in a run.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
}

// Fetcher issues single GET requests with browser-like headers, UA rotation,
// an optional proxy pool, and a TLS fingerprint profile. One Fetcher is
// shared across providers so connections are reused for the whole run.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// page is the raw outcome of one fetch, before any provider-specific parsing.
type page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewFetcher initializes the shared fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 3
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// The transport is built once so connection pooling works across
	// queries. Per-request proxy rotation goes through the request context
	// because mutating Transport.Proxy concurrently is not safe.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "::1" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("serp: setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("serp: create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// get fetches target and returns the raw page. Errors are already classified
// into the provider taxonomy; callers only add their provider name.
func (f *Fetcher) get(ctx context.Context, provider, target string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Provider: provider, Kind: KindTransportFailure, Err: err}
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	// Browser-like header set; search engines serve degraded or empty
	// result markup to obvious non-browser clients.
	req.Header.Set("User-Agent", f.config.UAPool.GetSequential())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
		}
		return nil, &Error{Provider: provider, Kind: classifyTransportErr(err), Err: err}
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: provider, Kind: classifyTransportErr(err), Err: err}
	}

	p := &page{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}

	if kind, blocked := DetectBlock(p); blocked {
		return nil, &Error{Provider: provider, Kind: kind, Err: fmt.Errorf("challenge page for status %d", p.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Provider: provider, Kind: KindTransportFailure, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return p, nil
}

func classifyTransportErr(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransportFailure
}
