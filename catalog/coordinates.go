// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jcodagnone/matjip/spatial"
)

// coordinateScale is the fixed-point factor the search provider applies to
// both axes.
const coordinateScale = 10_000_000

// NormalizeCoordinates converts the provider's raw mapx (longitude) and mapy
// (latitude) strings into WGS84 degrees. The division is unconditional: the
// provider always returns the scaled form, whatever the magnitude.
//
// The conversion is one way. Feeding an already normalized value back in
// yields a point near the origin, not the same point.
func NormalizeCoordinates(rawX, rawY string) (spatial.Point, error) {
	x, err := parseScaled(rawX)
	if err != nil {
		return spatial.Point{}, NewValidationError(fmt.Sprintf("invalid mapx %q", rawX), err)
	}

	y, err := parseScaled(rawY)
	if err != nil {
		return spatial.Point{}, NewValidationError(fmt.Sprintf("invalid mapy %q", rawY), err)
	}

	p := spatial.Point{Lat: y / coordinateScale, Lng: x / coordinateScale}
	if err := validateCoordinates(p.Lat, p.Lng); err != nil {
		return spatial.Point{}, NewValidationError("provider returned out of range coordinates", err)
	}

	return p, nil
}

func parseScaled(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty value")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}

	return v, nil
}
