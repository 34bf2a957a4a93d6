// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcodagnone/matjip/spatial"
	"github.com/uber/h3-go/v4"
)

// H3 resolutions precomputed for every place, from district (5) to block (9).
const (
	MinCellResolution = 5
	MaxCellResolution = 9
)

// Place is a durable catalog entry.
type Place struct {
	ID              string    `json:"id" validate:"required"`
	Name            string    `json:"name" validate:"required,max=100"`
	Address         string    `json:"address"`
	RoadAddress     string    `json:"roadAddress,omitempty"`
	Category        Category  `json:"category"`
	Telephone       string    `json:"telephone,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	ExternalLink    string    `json:"externalLink,omitempty"`
	ExternalPlaceID string    `json:"externalPlaceId,omitempty"`
	AverageRating   float64   `json:"averageRating" validate:"gte=0"`
	ReviewCount     int       `json:"reviewCount" validate:"gte=0"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// H3 cells indexed by resolution - MinCellResolution.
	Cells [MaxCellResolution - MinCellResolution + 1]int64 `json:"-"`
}

// Point returns the position of the place.
func (p *Place) Point() spatial.Point {
	return spatial.Point{Lat: p.Latitude, Lng: p.Longitude}
}

// Marker projects the place into its map marker.
func (p *Place) Marker() PlaceMarker {
	return PlaceMarker{
		ID:            p.ID,
		Name:          p.Name,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Category:      p.Category,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

func (p *Place) computeH3() error {
	latLng := h3.NewLatLng(p.Latitude, p.Longitude)
	for res := MinCellResolution; res <= MaxCellResolution; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		p.Cells[res-MinCellResolution] = int64(cell)
	}

	return nil
}

// PlaceMarker is the reduced view of a place drawn on the map.
type PlaceMarker struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Category      Category `json:"category"`
	AverageRating float64  `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`
}

// CandidatePlace is an unresolved place description, already in canonical
// degrees. Category is free text and gets classified on creation.
type CandidatePlace struct {
	Name            string  `json:"name" validate:"required,max=100"`
	Address         string  `json:"address" validate:"max=500"`
	RoadAddress     string  `json:"roadAddress,omitempty" validate:"max=500"`
	Category        string  `json:"category" validate:"max=200"`
	Telephone       string  `json:"telephone,omitempty" validate:"max=50"`
	Latitude        float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude       float64 `json:"longitude" validate:"gte=-180,lte=180"`
	ExternalLink    string  `json:"externalLink,omitempty" validate:"max=1000"`
	ExternalPlaceID string  `json:"externalPlaceId,omitempty" validate:"max=200"`
}

// Point returns the position of the candidate.
func (c *CandidatePlace) Point() spatial.Point {
	return spatial.Point{Lat: c.Latitude, Lng: c.Longitude}
}

// RawCandidate is a candidate as the search provider reports it, with the
// position still in provider units.
type RawCandidate struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	RoadAddress     string `json:"roadAddress,omitempty"`
	Category        string `json:"category"`
	Telephone       string `json:"telephone,omitempty"`
	MapX            string `json:"mapx"`
	MapY            string `json:"mapy"`
	ExternalLink    string `json:"externalLink,omitempty"`
	ExternalPlaceID string `json:"externalPlaceId,omitempty"`
}

// Normalize converts the raw position and returns the resolvable candidate.
func (r *RawCandidate) Normalize() (*CandidatePlace, error) {
	p, err := NormalizeCoordinates(r.MapX, r.MapY)
	if err != nil {
		return nil, err
	}

	return &CandidatePlace{
		Name:            r.Name,
		Address:         r.Address,
		RoadAddress:     r.RoadAddress,
		Category:        r.Category,
		Telephone:       r.Telephone,
		Latitude:        p.Lat,
		Longitude:       p.Lng,
		ExternalLink:    r.ExternalLink,
		ExternalPlaceID: r.ExternalPlaceID,
	}, nil
}

// Outcome tells how a candidate was resolved.
type Outcome int

const (
	// Found means the candidate matched an existing place.
	Found Outcome = iota + 1
	// Created means a new place was inserted.
	Created
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Created:
		return "created"
	default:
		return "unknown"
	}
}

// MatchKind is the rule that matched an existing place.
type MatchKind string

// Match rules, in evaluation order.
const (
	MatchNone         MatchKind = ""
	MatchExternalLink MatchKind = "external_link"
	MatchProximity    MatchKind = "name_proximity"
)

// Resolution is the result of resolving a candidate.
type Resolution struct {
	PlaceID   string
	Outcome   Outcome
	MatchedBy MatchKind
}

// IsNew reports whether the place was created by this resolution.
func (r Resolution) IsNew() bool {
	return r.Outcome == Created
}

// MarshalJSON renders the resolution as {"placeId", "isNew"}.
func (r Resolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PlaceID string `json:"placeId"`
		IsNew   bool   `json:"isNew"`
	}{r.PlaceID, r.IsNew()})
}

// CellSummary aggregates the reviewed places of one H3 cell.
type CellSummary struct {
	Cell        string        `json:"cell"`
	Resolution  int           `json:"resolution"`
	Center      spatial.Point `json:"center"`
	PlaceCount  int           `json:"placeCount"`
	ReviewCount int           `json:"reviewCount"`
}
