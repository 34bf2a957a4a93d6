// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCoordinates(t *testing.T) {
	p, err := NormalizeCoordinates("1269780000", "375665000")
	require.NoError(t, err)
	assert.InDelta(t, 126.978, p.Lng, 1e-9)
	assert.InDelta(t, 37.5665, p.Lat, 1e-9)
}

func TestNormalizeCoordinatesTrimsAndAcceptsNegative(t *testing.T) {
	p, err := NormalizeCoordinates(" -586000000 ", "-348800000")
	require.NoError(t, err)
	assert.InDelta(t, -58.6, p.Lng, 1e-9)
	assert.InDelta(t, -34.88, p.Lat, 1e-9)
}

func TestNormalizeCoordinatesIsOneWay(t *testing.T) {
	p, err := NormalizeCoordinates("126.978", "37.5665")
	require.NoError(t, err)
	assert.NotEqual(t, 126.978, p.Lng)
	assert.InDelta(t, 0, p.Lat, 1e-5)
	assert.InDelta(t, 0, p.Lng, 1e-4)
}

func TestNormalizeCoordinatesRejects(t *testing.T) {
	tests := []struct {
		name string
		x, y string
	}{
		{"empty x", "", "375665000"},
		{"empty y", "1269780000", "  "},
		{"not a number", "abc", "375665000"},
		{"nan", "NaN", "375665000"},
		{"infinite", "1269780000", "Inf"},
		{"latitude out of range", "1269780000", "950000000"},
		{"longitude out of range", "1900000000", "375665000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeCoordinates(tt.x, tt.y)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
}

func TestRawCandidateNormalize(t *testing.T) {
	raw := &RawCandidate{
		Name:         "스타벅스 강남점",
		Category:     "카페,디저트",
		MapX:         "1270276000",
		MapY:         "374979000",
		ExternalLink: "https://example.com/starbucks",
	}

	c, err := raw.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "스타벅스 강남점", c.Name)
	assert.Equal(t, "카페,디저트", c.Category)
	assert.InDelta(t, 37.4979, c.Latitude, 1e-9)
	assert.InDelta(t, 127.0276, c.Longitude, 1e-9)
	assert.Equal(t, "https://example.com/starbucks", c.ExternalLink)
}
