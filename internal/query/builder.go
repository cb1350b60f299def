// Package query turns job-role attributes into ranked search-engine queries.
package query

import (
	"fmt"
	"strings"

	"github.com/FranksOps/prospect/internal/profile"
)

// DefaultMaxQueries caps the query list when no explicit search keywords
// are supplied.
const DefaultMaxQueries = 4

// Attributes describes the role being sourced. Produced by an upstream
// job-description analyzer; read-only here. Any field may be empty —
// strategies that need a missing field are simply skipped.
type Attributes struct {
	Title          string   `json:"title"`
	Location       string   `json:"location"`
	Skills         []string `json:"skills"`
	SearchKeywords []string `json:"search_keywords,omitempty"`
}

// Empty reports whether no attribute carries any usable signal.
func (a Attributes) Empty() bool {
	return a.Title == "" && a.Location == "" && len(a.Skills) == 0 && len(a.SearchKeywords) == 0
}

// Query is one search-engine query plus diagnostics metadata. Priority is
// the generation order; lower priorities are executed first.
type Query struct {
	Text     string
	Strategy string
	Priority int
}

// Strategy tags, in generation priority order.
const (
	StrategyKeyword       = "keyword"
	StrategyTitleLocation = "title_location"
	StrategyTitleExact    = "title_exact"
	StrategySkillPair     = "skill_pair"
	StrategyTitleSkill    = "title_skill"
	StrategyLocationBroad = "location_broad"
)

var sitePrefix = "site:" + profile.Host + profile.PathPrefix

// Build converts role attributes into an ordered, deduplicated query list of
// at most maxQueries entries. An entirely empty attribute set yields an
// empty list; the caller decides whether that is fatal.
func Build(attrs Attributes, maxQueries int) []Query {
	if maxQueries <= 0 {
		maxQueries = DefaultMaxQueries
	}

	b := builder{max: maxQueries, seen: make(map[string]struct{})}

	// Explicit keywords take precedence over everything derived from the
	// title: one query per keyword, in the order they were supplied.
	for _, kw := range attrs.SearchKeywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		text := fmt.Sprintf("%s %s", sitePrefix, kw)
		if attrs.Location != "" {
			text += " " + attrs.Location
		}
		b.add(text, StrategyKeyword)
	}

	// Plain title+location only when no keyword query was generated.
	if len(b.queries) == 0 && attrs.Title != "" {
		text := fmt.Sprintf("%s %s", sitePrefix, attrs.Title)
		if attrs.Location != "" {
			text += " " + attrs.Location
		}
		b.add(text, StrategyTitleLocation)
	}

	if attrs.Title != "" {
		b.add(fmt.Sprintf("%s %q", sitePrefix, attrs.Title), StrategyTitleExact)
		if attrs.Location != "" {
			b.add(fmt.Sprintf("%s %q %q", sitePrefix, attrs.Title, attrs.Location), StrategyTitleExact)
		}
	}

	if len(attrs.Skills) >= 2 {
		b.add(fmt.Sprintf("%s %q %q", sitePrefix, attrs.Skills[0], attrs.Skills[1]), StrategySkillPair)
		if attrs.Location != "" {
			b.add(fmt.Sprintf("%s %q %q %q", sitePrefix, attrs.Skills[0], attrs.Skills[1], attrs.Location), StrategySkillPair)
		}
	}

	if attrs.Title != "" && len(attrs.Skills) > 0 {
		b.add(fmt.Sprintf("%s %q %q", sitePrefix, attrs.Title, attrs.Skills[0]), StrategyTitleSkill)
	}

	// Low-precision widening when location is all we have to go on.
	if attrs.Location != "" {
		b.add(fmt.Sprintf("%s %q developer", sitePrefix, attrs.Location), StrategyLocationBroad)
		b.add(fmt.Sprintf("%s %q engineer", sitePrefix, attrs.Location), StrategyLocationBroad)
	}

	return b.queries
}

// MaxFor returns the query cap for an attribute set: the default, widened so
// that every explicitly supplied keyword still gets its own query.
func MaxFor(attrs Attributes) int {
	if n := len(attrs.SearchKeywords); n > DefaultMaxQueries {
		return n
	}
	return DefaultMaxQueries
}

type builder struct {
	queries []Query
	seen    map[string]struct{}
	max     int
}

// add appends a query unless the cap is reached or the exact text was
// already generated. Insertion order is preserved.
func (b *builder) add(text, strategy string) {
	if len(b.queries) >= b.max {
		return
	}
	if _, dup := b.seen[text]; dup {
		return
	}
	b.seen[text] = struct{}{}
	b.queries = append(b.queries, Query{
		Text:     text,
		Strategy: strategy,
		Priority: len(b.queries),
	})
}
