package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ddgResultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result">
    <a class="result__a" href="https://www.linkedin.com/in/jane-doe">Jane Doe - AI Engineer</a>
  </div>
  <div class="result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fin%2Fjohn-smith&rut=abc">John Smith</a>
  </div>
  <a href="/settings">Settings</a>
</div>
</body></html>`

func TestDuckDuckGo_ExtractsResultAnchors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("kl"); got != "us-en" {
			t.Errorf("expected kl=us-en, got %q", got)
		}
		_, _ = w.Write([]byte(ddgResultsPage))
	}))
	defer ts.Close()

	p := NewDuckDuckGo(testFetcher(t))
	p.BaseURL = ts.URL

	hits, err := p.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].URL != "https://www.linkedin.com/in/jane-doe" {
		t.Errorf("unexpected first hit %s", hits[0].URL)
	}
	if hits[1].URL != "https://www.linkedin.com/in/john-smith" {
		t.Errorf("expected uddg redirect unwrapped, got %s", hits[1].URL)
	}
	if hits[0].Provider != "duckduckgo" {
		t.Errorf("expected provider tag duckduckgo, got %s", hits[0].Provider)
	}
}

func TestDuckDuckGo_LimitCapsHits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgResultsPage))
	}))
	defer ts.Close()

	p := NewDuckDuckGo(testFetcher(t))
	p.BaseURL = ts.URL

	hits, err := p.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestDuckDuckGo_NoAnchorsIsParseFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>no results here</p></body></html>`))
	}))
	defer ts.Close()

	p := NewDuckDuckGo(testFetcher(t))
	p.BaseURL = ts.URL

	_, err := p.Search(context.Background(), "q", 5)
	if kind := KindOf(err); kind != KindParseFailure {
		t.Errorf("expected parse_failure, got %v (err: %v)", kind, err)
	}
}

func TestDuckDuckGo_AnomalyPageIsRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="anomaly-modal">prove you are human</div></body></html>`))
	}))
	defer ts.Close()

	p := NewDuckDuckGo(testFetcher(t))
	p.BaseURL = ts.URL

	_, err := p.Search(context.Background(), "q", 5)
	if kind := KindOf(err); kind != KindRateLimited {
		t.Errorf("expected rate_limited, got %v (err: %v)", kind, err)
	}
}

func TestUnwrapDuckDuckGo_PassThrough(t *testing.T) {
	plain := "https://www.linkedin.com/in/jane-doe"
	if got := unwrapDuckDuckGo(plain); got != plain {
		t.Errorf("plain href should pass through, got %s", got)
	}
}
