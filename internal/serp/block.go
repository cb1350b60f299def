package serp

import (
	"bytes"
	"net/http"
	"strings"
)

// detector inspects a fetched page for a search-engine challenge or block
// signature and returns the failure kind to report for it.
type detector func(p *page) (ErrorKind, bool)

var blockDetectors = []detector{
	detectTooManyRequests,
	detectGoogleSorry,
	detectDuckDuckGoAnomaly,
	detectCaptchaWall,
}

// DetectBlock checks a response against the known engine block/challenge
// signatures. A blocked page parses fine as HTML but carries no organic
// results, so catching it here keeps the failure classified as rate limiting
// instead of a misleading parse failure.
func DetectBlock(p *page) (ErrorKind, bool) {
	if p == nil {
		return 0, false
	}
	for _, d := range blockDetectors {
		if kind, hit := d(p); hit {
			return kind, true
		}
	}
	return 0, false
}

func detectTooManyRequests(p *page) (ErrorKind, bool) {
	if p.StatusCode == http.StatusTooManyRequests {
		return KindRateLimited, true
	}
	if p.StatusCode == http.StatusServiceUnavailable && p.Header.Get("Retry-After") != "" {
		return KindRateLimited, true
	}
	return 0, false
}

// detectGoogleSorry matches Google's interstitial served when a client's
// query rate looks automated.
func detectGoogleSorry(p *page) (ErrorKind, bool) {
	if bytes.Contains(p.Body, []byte("/sorry/index")) ||
		bytes.Contains(p.Body, []byte("unusual traffic from your computer network")) {
		return KindRateLimited, true
	}
	return 0, false
}

func detectDuckDuckGoAnomaly(p *page) (ErrorKind, bool) {
	if bytes.Contains(p.Body, []byte("anomaly-modal")) ||
		bytes.Contains(p.Body, []byte("anomaly_modal")) {
		return KindRateLimited, true
	}
	return 0, false
}

// detectCaptchaWall catches generic CAPTCHA interstitials (reCAPTCHA,
// Cloudflare turnstile) on 403/503 responses.
func detectCaptchaWall(p *page) (ErrorKind, bool) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return 0, false
	}

	server := strings.ToLower(p.Header.Get("Server"))
	if strings.Contains(server, "cloudflare") {
		return KindRateLimited, true
	}
	if bytes.Contains(p.Body, []byte("g-recaptcha")) ||
		bytes.Contains(p.Body, []byte("cf-turnstile")) ||
		bytes.Contains(p.Body, []byte("cf-browser-verification")) {
		return KindRateLimited, true
	}
	return 0, false
}
