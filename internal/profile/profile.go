// Package profile canonicalizes raw URLs into LinkedIn profile identities.
package profile

import (
	"net/url"
	"strings"
)

const (
	// Host is the profile domain every candidate link must contain.
	Host = "linkedin.com"
	// PathPrefix is the public-profile path prefix on the profile domain.
	PathPrefix = "/in/"
)

// URL is a canonicalized profile link: scheme+host+path with the query
// string, fragment, and trailing slash stripped. Canonical is the
// deduplication key; ID is the trailing path segment identifying the profile.
type URL struct {
	Canonical string
	ID        string
}

// Normalize canonicalizes a raw URL and validates it as a public profile
// link. It returns ok=false for anything that is not a valid profile URL;
// rejection is a normal filtering outcome, not an error.
//
// Redirect wrappers of the form /url?q=<target> are unwrapped (and
// percent-decoded) before validation, so raw hits lifted straight off a
// search results page normalize the same as direct links.
func Normalize(raw string) (URL, bool) {
	raw = unwrapRedirect(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return URL{}, false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return URL{}, false
	}

	host := strings.ToLower(u.Hostname())
	if host != Host && !strings.HasSuffix(host, "."+Host) {
		return URL{}, false
	}

	path := strings.TrimSuffix(u.EscapedPath(), "/")
	if !strings.HasPrefix(path, PathPrefix) {
		return URL{}, false
	}

	id := path[len(PathPrefix):]
	if len(id) < 2 || strings.Contains(id, "/") || !validID(id) {
		return URL{}, false
	}

	canonical := u.Scheme + "://" + u.Host + path
	return URL{Canonical: canonical, ID: id}, true
}

// unwrapRedirect extracts the embedded target from a search-engine redirect
// wrapper. Handles Google's /url?q= form; anything else passes through.
func unwrapRedirect(raw string) string {
	idx := strings.Index(raw, "/url?q=")
	if idx < 0 {
		return raw
	}

	target := raw[idx+len("/url?q="):]
	if amp := strings.IndexByte(target, '&'); amp >= 0 {
		target = target[:amp]
	}

	decoded, err := url.QueryUnescape(target)
	if err != nil {
		return target
	}
	return decoded
}

func validID(id string) bool {
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
