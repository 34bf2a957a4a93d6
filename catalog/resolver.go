// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jcodagnone/matjip/spatial"
)

// ProximityDelta is the half side, in degrees, of the box searched for a
// place with the same name. Roughly 11 meters of latitude.
const ProximityDelta = 0.0001

// Service exposes the catalog operations on top of a Repository.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Resolve finds the catalog place a candidate refers to, creating it when
// nothing matches. Rules are tried in order: same external link, then same
// name within ProximityDelta degrees on both axes.
func (s *Service) Resolve(ctx context.Context, candidate *CandidatePlace) (Resolution, error) {
	if candidate == nil {
		return Resolution{}, NewValidationError("candidate can't be nil", nil)
	}

	c := *candidate
	sanitizeCandidate(&c)

	if err := validateCandidate(&c); err != nil {
		return Resolution{}, err
	}

	if c.ExternalLink != "" {
		existing, err := s.repo.FindByExternalLink(ctx, c.ExternalLink)
		if err != nil {
			return Resolution{}, err
		}

		if existing != nil {
			return found(existing, MatchExternalLink), nil
		}
	}

	existing, err := s.repo.FindByNameWithin(ctx, c.Name, spatial.Around(c.Point(), ProximityDelta))
	if err != nil {
		return Resolution{}, err
	}

	if existing != nil {
		at, other := c.Point(), existing.Point()
		log.Printf("resolved %q to %s by proximity (%.1fm)", c.Name, existing.ID, at.HaversineDistance(&other))

		return found(existing, MatchProximity), nil
	}

	now := s.now()
	place := &Place{
		ID:              s.newID(),
		Name:            c.Name,
		Address:         c.Address,
		RoadAddress:     c.RoadAddress,
		Category:        Classify(c.Category),
		Telephone:       c.Telephone,
		Latitude:        c.Latitude,
		Longitude:       c.Longitude,
		ExternalLink:    c.ExternalLink,
		ExternalPlaceID: c.ExternalPlaceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, place); err != nil {
		if !errors.Is(err, ErrDuplicateLink) {
			return Resolution{}, err
		}

		// A concurrent resolve inserted the same link first.
		winner, findErr := s.repo.FindByExternalLink(ctx, c.ExternalLink)
		if findErr != nil {
			return Resolution{}, findErr
		}

		if winner == nil {
			return Resolution{}, err
		}

		return found(winner, MatchExternalLink), nil
	}

	log.Printf("created place %s %q (%s)", place.ID, place.Name, place.Category)

	return Resolution{PlaceID: place.ID, Outcome: Created}, nil
}

func found(p *Place, by MatchKind) Resolution {
	return Resolution{PlaceID: p.ID, Outcome: Found, MatchedBy: by}
}
