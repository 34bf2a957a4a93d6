// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/utils/htmlutils"
	"github.com/jcodagnone/matjip/utils/textutils"
)

// Search limits enforced before calling the provider.
const (
	MaxQueryLength = 100
	DefaultDisplay = 20
	MaxDisplay     = 100
)

// Query is a local search request.
type Query struct {
	Text    string
	Display int
}

// Normalize trims the text, applies the default page size and validates
// both against the provider limits.
func (q Query) Normalize() (Query, error) {
	q.Text = strings.TrimSpace(q.Text)

	n := textutils.RuneLen(q.Text)
	if n == 0 || n > MaxQueryLength {
		return q, fmt.Errorf("%w: query must have between 1 and %d characters", ErrInvalidQuery, MaxQueryLength)
	}

	if q.Display == 0 {
		q.Display = DefaultDisplay
	}

	if q.Display < 1 || q.Display > MaxDisplay {
		return q, fmt.Errorf("%w: display must be between 1 and %d", ErrInvalidQuery, MaxDisplay)
	}

	return q, nil
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Telephone   string `json:"telephone"`
	Address     string `json:"address"`
	RoadAddress string `json:"roadAddress"`
	MapX        string `json:"mapx"`
	MapY        string `json:"mapy"`
}

type searchResponse struct {
	LastBuildDate string       `json:"lastBuildDate"`
	Total         int          `json:"total"`
	Start         int          `json:"start"`
	Display       int          `json:"display"`
	Items         []searchItem `json:"items"`
}

// SearchResult is a provider hit with its position in degrees and its
// category classified.
type SearchResult struct {
	Title       string           `json:"title"`
	Address     string           `json:"address"`
	RoadAddress string           `json:"roadAddress,omitempty"`
	Category    catalog.Category `json:"category"`
	RawCategory string           `json:"rawCategory,omitempty"`
	Telephone   string           `json:"telephone,omitempty"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Link        string           `json:"link,omitempty"`
}

// Candidate returns the catalog candidate for the result.
func (r *SearchResult) Candidate() *catalog.CandidatePlace {
	return &catalog.CandidatePlace{
		Name:         r.Title,
		Address:      r.Address,
		RoadAddress:  r.RoadAddress,
		Category:     r.RawCategory,
		Telephone:    r.Telephone,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		ExternalLink: r.Link,
	}
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	Items []SearchResult `json:"items"`
	Total int            `json:"total"`
}

func convertItem(item *searchItem) (*SearchResult, error) {
	raw := catalog.RawCandidate{
		Name:     htmlutils.StripTags(item.Title),
		MapX:     item.MapX,
		MapY:     item.MapY,
		Category: item.Category,
	}

	c, err := raw.Normalize()
	if err != nil {
		return nil, err
	}

	if c.Name == "" {
		return nil, fmt.Errorf("empty title")
	}

	return &SearchResult{
		Title:       c.Name,
		Address:     strings.TrimSpace(item.Address),
		RoadAddress: strings.TrimSpace(item.RoadAddress),
		Category:    catalog.Classify(item.Category),
		RawCategory: strings.TrimSpace(item.Category),
		Telephone:   strings.TrimSpace(item.Telephone),
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
		Link:        strings.TrimSpace(item.Link),
	}, nil
}

// Search runs a local search. Items whose position can't be normalized are
// dropped.
func (c *Client) Search(ctx context.Context, q Query) (*SearchResponse, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("display", strconv.Itoa(q.Display))
	params.Set("sort", "random")

	reqURL := c.baseURL + "/v1/search/local.json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Type: ErrorTypeNetwork, Message: "search request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var apiResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &ProviderError{
			Type:       ErrorTypeParse,
			StatusCode: resp.StatusCode,
			Message:    "decoding search response",
			Err:        err,
		}
	}

	out := &SearchResponse{
		Items: make([]SearchResult, 0, len(apiResp.Items)),
		Total: apiResp.Total,
	}

	for i := range apiResp.Items {
		item := &apiResp.Items[i]

		result, err := convertItem(item)
		if err != nil {
			log.Printf("Dropping search result %q: %v", item.Title, err)

			continue
		}

		out.Items = append(out.Items, *result)
	}

	return out, nil
}
