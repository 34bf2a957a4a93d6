// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jcodagnone/matjip/spatial"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCoordinates verifies the point is finite and inside WGS84 ranges.
func validateCoordinates(lat, lng float64) error {
	if !(spatial.Point{Lat: lat, Lng: lng}).Valid() {
		return fmt.Errorf("latitude must be within [-90, 90] and longitude within [-180, 180] (got %f, %f)", lat, lng)
	}

	return nil
}

// sanitizeCandidate trims every text field in place.
func sanitizeCandidate(c *CandidatePlace) {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.RoadAddress = strings.TrimSpace(c.RoadAddress)
	c.Category = strings.TrimSpace(c.Category)
	c.Telephone = strings.TrimSpace(c.Telephone)
	c.ExternalLink = strings.TrimSpace(c.ExternalLink)
	c.ExternalPlaceID = strings.TrimSpace(c.ExternalPlaceID)
}

// validateCandidate rejects candidates that must never reach the store.
func validateCandidate(c *CandidatePlace) error {
	if c == nil {
		return NewValidationError("candidate can't be nil", nil)
	}

	if err := structError("invalid candidate", validate.Struct(c)); err != nil {
		return err
	}

	// NaN and infinities are rejected here as well.
	if err := validateCoordinates(c.Latitude, c.Longitude); err != nil {
		return NewValidationError("invalid candidate", err)
	}

	return nil
}

// validatePlace rejects stored places breaking the data model, as found in
// backup files.
func validatePlace(p *Place) error {
	if err := structError("invalid place "+p.ID, validate.Struct(p)); err != nil {
		return err
	}

	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return NewValidationError("invalid place "+p.ID, err)
	}

	return nil
}

func structError(prefix string, err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}

		return NewValidationError(prefix+": "+strings.Join(msgs, ", "), err)
	}

	return NewValidationError(prefix, err)
}
