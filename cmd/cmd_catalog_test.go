// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jcodagnone/matjip/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCandidatesRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.json")
	data := `[{"name":"스타벅스 강남점","category":"카페","mapx":"1270276000","mapy":"374979000"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	candidates, err := readCandidates(path, true)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 37.4979, candidates[0].Latitude, 1e-9)
	assert.InDelta(t, 127.0276, candidates[0].Longitude, 1e-9)

	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"A","mapx":"","mapy":"1"}]`), 0o600))

	_, err = readCandidates(path, true)
	assert.True(t, catalog.IsValidation(err), "got %v", err)
}

func TestResolveAll(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := catalog.NewRepository(db)
	require.NoError(t, repo.CreateSchema())

	var candidates []*catalog.CandidatePlace
	for i := range 10 {
		candidates = append(candidates, &catalog.CandidatePlace{
			Name:         fmt.Sprintf("Place %d", i),
			Latitude:     37.5 + float64(i)*0.01,
			Longitude:    127.0,
			ExternalLink: fmt.Sprintf("https://example.com/%d", i),
		})
	}

	// Same link twice, and one invalid.
	candidates = append(candidates,
		&catalog.CandidatePlace{Name: "Place 0 again", Latitude: 35, Longitude: 129, ExternalLink: "https://example.com/0"},
		&catalog.CandidatePlace{Name: "", Latitude: 35, Longitude: 129},
	)

	m := resolveAll(context.Background(), catalog.NewService(repo), candidates[:10], 4)
	assert.Equal(t, ResolveMetrics{Created: 10}, m)

	m = resolveAll(context.Background(), catalog.NewService(repo), candidates[10:], 1)
	assert.Equal(t, ResolveMetrics{Found: 1, Failed: 1}, m)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "abc  ", padRight("abc", 5))
	assert.Equal(t, "abcde", padRight("abcdefgh", 5))
	assert.Equal(t, "한식  ", padRight("한식", 6))
	assert.Equal(t, "한식 ", padRight("한식당", 5))
}
