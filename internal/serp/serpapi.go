package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const serpAPIName = "serpapi"

// defaultSerpAPIURL is the production endpoint; tests point BaseURL at a
// local server.
const defaultSerpAPIURL = "https://serpapi.com/search"

// SerpAPI queries the SerpAPI structured search API and extracts hit URLs
// from the organic results list. It is the most reliable provider but needs
// an API key, so it only joins the chain when one is configured.
type SerpAPI struct {
	fetcher *Fetcher
	apiKey  string

	// BaseURL overrides the API endpoint. Empty means production.
	BaseURL string
}

var _ Provider = (*SerpAPI)(nil)

// NewSerpAPI creates the structured API provider.
func NewSerpAPI(fetcher *Fetcher, apiKey string) *SerpAPI {
	return &SerpAPI{fetcher: fetcher, apiKey: apiKey}
}

func (s *SerpAPI) Name() string { return serpAPIName }

// Search runs one API query and returns the organic result links.
func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	base := s.BaseURL
	if base == "" {
		base = defaultSerpAPIURL
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", s.apiKey)

	p, err := s.fetcher.get(ctx, serpAPIName, base+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		OrganicResults []struct {
			Link string `json:"link"`
		} `json:"organic_results"`
	}
	if err := json.Unmarshal(p.Body, &payload); err != nil {
		return nil, &Error{Provider: serpAPIName, Kind: KindParseFailure, Err: err}
	}
	if payload.OrganicResults == nil {
		return nil, &Error{Provider: serpAPIName, Kind: KindParseFailure, Err: fmt.Errorf("response missing organic_results")}
	}

	hits := make([]Hit, 0, len(payload.OrganicResults))
	for _, r := range payload.OrganicResults {
		if r.Link == "" {
			continue
		}
		hits = append(hits, Hit{URL: r.Link, Provider: serpAPIName})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}
