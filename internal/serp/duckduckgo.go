package serp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoName = "duckduckgo"

const defaultDuckDuckGoURL = "https://duckduckgo.com/html/"

// DuckDuckGo scrapes the HTML (non-JS) DuckDuckGo results page. Result links
// carry the result__a class marker; anything else on the page is ignored.
type DuckDuckGo struct {
	fetcher *Fetcher

	// BaseURL overrides the results-page endpoint for tests.
	BaseURL string
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates the HTML scrape provider.
func NewDuckDuckGo(fetcher *Fetcher) *DuckDuckGo {
	return &DuckDuckGo{fetcher: fetcher}
}

func (d *DuckDuckGo) Name() string { return duckDuckGoName }

// Search fetches one results page and extracts the result anchors.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	base := d.BaseURL
	if base == "" {
		base = defaultDuckDuckGoURL
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("kl", "us-en")

	p, err := d.fetcher.get(ctx, duckDuckGoName, base+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, &Error{Provider: duckDuckGoName, Kind: KindParseFailure, Err: err}
	}

	var hits []Hit
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, exists := s.Attr("href")
		if !exists {
			return true
		}
		hits = append(hits, Hit{URL: unwrapDuckDuckGo(href), Provider: duckDuckGoName})
		return len(hits) < limit
	})

	if len(hits) == 0 {
		return nil, &Error{Provider: duckDuckGoName, Kind: KindParseFailure, Err: fmt.Errorf("no result anchors recognized")}
	}
	return hits, nil
}

// unwrapDuckDuckGo decodes the //duckduckgo.com/l/?uddg=<target> redirect
// wrapper the HTML endpoint puts around result links. Plain links pass
// through untouched.
func unwrapDuckDuckGo(href string) string {
	idx := strings.Index(href, "uddg=")
	if idx < 0 || !strings.Contains(href, "/l/") {
		return href
	}

	target := href[idx+len("uddg="):]
	if amp := strings.IndexByte(target, '&'); amp >= 0 {
		target = target[:amp]
	}
	if decoded, err := url.QueryUnescape(target); err == nil {
		return decoded
	}
	return target
}
