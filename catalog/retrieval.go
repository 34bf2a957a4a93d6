// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jcodagnone/matjip/spatial"
)

// MaxMarkers caps the markers returned for a single viewport.
const MaxMarkers = 100

// ViewportQuery is a map viewport given by two opposite corners in any order
// and an optional category filter.
type ViewportQuery struct {
	Corner1    spatial.Point
	Corner2    spatial.Point
	Categories []Category
}

// Bounds returns the normalized rectangle of the viewport.
func (q ViewportQuery) Bounds() spatial.Bounds {
	return spatial.NewBounds(q.Corner1, q.Corner2)
}

func (q ViewportQuery) validate() error {
	if !q.Corner1.Valid() || !q.Corner2.Valid() {
		return NewValidationError("viewport corners out of range", nil)
	}

	return nil
}

func parseDegrees(name, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, NewValidationError("missing "+name, nil)
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, NewValidationError(fmt.Sprintf("invalid %s %q", name, value), err)
	}

	return f, nil
}

// ParseCategories splits a comma separated list of category labels or
// english names. Unknown values are ignored.
func ParseCategories(s string) []Category {
	var categories []Category

	seen := map[Category]bool{}

	for _, part := range strings.Split(s, ",") {
		c, ok := ParseCategory(part)
		if !ok || seen[c] {
			continue
		}

		seen[c] = true
		categories = append(categories, c)
	}

	return categories
}

// ParseViewport builds a ViewportQuery out of request parameters.
func ParseViewport(lat1, lng1, lat2, lng2, categories string) (ViewportQuery, error) {
	var q ViewportQuery

	values := []struct {
		name  string
		raw   string
		field *float64
	}{
		{"lat1", lat1, &q.Corner1.Lat},
		{"lng1", lng1, &q.Corner1.Lng},
		{"lat2", lat2, &q.Corner2.Lat},
		{"lng2", lng2, &q.Corner2.Lng},
	}

	for _, v := range values {
		f, err := parseDegrees(v.name, v.raw)
		if err != nil {
			return ViewportQuery{}, err
		}

		*v.field = f
	}

	if err := q.validate(); err != nil {
		return ViewportQuery{}, err
	}

	q.Categories = ParseCategories(categories)

	return q, nil
}

// ListPlacesInViewport returns the markers of reviewed places inside the
// viewport, most reviewed first and at most MaxMarkers of them.
// Viewports crossing the antimeridian are not supported.
func (s *Service) ListPlacesInViewport(ctx context.Context, q ViewportQuery) ([]PlaceMarker, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	places, err := s.repo.ListReviewedWithin(ctx, q.Bounds(), q.Categories, MaxMarkers)
	if err != nil {
		return nil, err
	}

	markers := make([]PlaceMarker, 0, len(places))
	for _, p := range places {
		markers = append(markers, p.Marker())
	}

	return markers, nil
}

// GetPlace returns the full place record.
func (s *Service) GetPlace(ctx context.Context, id string) (*Place, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewValidationError("missing place id", nil)
	}

	return s.repo.Get(ctx, id)
}

// SummarizeCells aggregates the places visible in the viewport by H3 cell.
func (s *Service) SummarizeCells(ctx context.Context, q ViewportQuery, res int) ([]*CellSummary, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	if res < MinCellResolution || res > MaxCellResolution {
		return nil, NewValidationError(
			fmt.Sprintf("resolution must be between %d and %d", MinCellResolution, MaxCellResolution), nil)
	}

	return s.repo.SummarizeCells(ctx, q.Bounds(), q.Categories, res)
}

// RecordReviewStats stores the aggregate rating of a place as computed by
// the review subsystem.
func (s *Service) RecordReviewStats(ctx context.Context, id string, averageRating float64, reviewCount int) error {
	return s.repo.RecordReviewStats(ctx, id, averageRating, reviewCount)
}
