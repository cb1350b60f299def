package serp

import (
	"net/http"
	"testing"
)

func TestDetectBlock(t *testing.T) {
	cases := []struct {
		name    string
		page    *page
		blocked bool
	}{
		{
			name:    "plain 200",
			page:    &page{StatusCode: 200, Header: http.Header{}, Body: []byte("<html>results</html>")},
			blocked: false,
		},
		{
			name:    "429",
			page:    &page{StatusCode: http.StatusTooManyRequests, Header: http.Header{}},
			blocked: true,
		},
		{
			name: "503 with retry-after",
			page: &page{
				StatusCode: http.StatusServiceUnavailable,
				Header:     http.Header{"Retry-After": []string{"30"}},
			},
			blocked: true,
		},
		{
			name:    "google sorry page",
			page:    &page{StatusCode: 200, Header: http.Header{}, Body: []byte(`<a href="/sorry/index">`)},
			blocked: true,
		},
		{
			name:    "ddg anomaly",
			page:    &page{StatusCode: 200, Header: http.Header{}, Body: []byte(`<div class="anomaly-modal">`)},
			blocked: true,
		},
		{
			name: "cloudflare 403",
			page: &page{
				StatusCode: http.StatusForbidden,
				Header:     http.Header{"Server": []string{"cloudflare"}},
			},
			blocked: true,
		},
		{
			name:    "recaptcha 503",
			page:    &page{StatusCode: http.StatusServiceUnavailable, Header: http.Header{}, Body: []byte(`<div class="g-recaptcha">`)},
			blocked: true,
		},
		{
			name:    "plain 403 without signature",
			page:    &page{StatusCode: http.StatusForbidden, Header: http.Header{}, Body: []byte("denied")},
			blocked: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, blocked := DetectBlock(tc.page)
			if blocked != tc.blocked {
				t.Fatalf("blocked = %v, want %v", blocked, tc.blocked)
			}
			if blocked && kind != KindRateLimited {
				t.Errorf("expected rate_limited kind, got %v", kind)
			}
		})
	}
}
