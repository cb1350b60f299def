package discover

import (
	"github.com/FranksOps/prospect/internal/profile"
	"github.com/FranksOps/prospect/internal/serp"
)

// Aggregate normalizes raw hits into canonical profile URLs, drops
// everything that fails validation, deduplicates by canonical identity in
// first-seen order, and truncates to maxTotal. maxTotal <= 0 yields an
// empty result.
func Aggregate(hits []serp.Hit, maxTotal int) []profile.URL {
	if maxTotal <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []profile.URL

	for _, h := range hits {
		p, ok := profile.Normalize(h.URL)
		if !ok {
			continue
		}
		if _, dup := seen[p.Canonical]; dup {
			continue
		}
		seen[p.Canonical] = struct{}{}
		out = append(out, p)
		if len(out) >= maxTotal {
			break
		}
	}

	return out
}
