package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/FranksOps/prospect/internal/profile"
	"github.com/PuerkitoBio/goquery"
)

const googleFallbackName = "google_fallback"

const defaultGoogleURL = "https://www.google.com/search"

// GoogleFallback is a degraded-precision scrape of the plain Google results
// page. Google wraps organic links in /url?q= redirects and the markup
// carries no stable result marker, so this provider scans every anchor,
// decodes the redirect wrapper, and keeps only links on the profile host.
// It sits last in the chain.
type GoogleFallback struct {
	fetcher *Fetcher

	// BaseURL overrides the results-page endpoint for tests.
	BaseURL string
}

var _ Provider = (*GoogleFallback)(nil)

// NewGoogleFallback creates the redirect-resolving scrape provider.
func NewGoogleFallback(fetcher *Fetcher) *GoogleFallback {
	return &GoogleFallback{fetcher: fetcher}
}

func (g *GoogleFallback) Name() string { return googleFallbackName }

// Search fetches one results page and harvests profile-host links from all
// anchors on it.
func (g *GoogleFallback) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	base := g.BaseURL
	if base == "" {
		base = defaultGoogleURL
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))

	p, err := g.fetcher.get(ctx, googleFallbackName, base+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, &Error{Provider: googleFallbackName, Kind: KindParseFailure, Err: err}
	}

	var hits []Hit
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		target := decodeRedirect(href)
		if !strings.Contains(target, profile.Host) {
			return true
		}
		hits = append(hits, Hit{URL: target, Provider: googleFallbackName})
		return len(hits) < limit
	})

	if len(hits) == 0 {
		return nil, &Error{Provider: googleFallbackName, Kind: KindParseFailure, Err: fmt.Errorf("no profile links recognized")}
	}
	return hits, nil
}

// decodeRedirect unwraps Google's /url?q=<target> redirect, percent-decoding
// the embedded target. Non-wrapped hrefs pass through.
func decodeRedirect(href string) string {
	idx := strings.Index(href, "/url?q=")
	if idx < 0 {
		return href
	}

	target := href[idx+len("/url?q="):]
	if amp := strings.IndexByte(target, '&'); amp >= 0 {
		target = target[:amp]
	}
	if decoded, err := url.QueryUnescape(target); err == nil {
		return decoded
	}
	return target
}
