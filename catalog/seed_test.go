// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	_, src := setupTestDB(t)
	ctx := context.Background()

	a := newTestPlace("b-place", "B", 37.55, 126.95)
	a.ExternalLink = "https://example.com/b"
	a.Telephone = "02-123-4567"
	insertReviewed(t, src, a, 3)
	insertReviewed(t, src, newTestPlace("a-place", "A", 35.1, 129.0), 0)

	path := filepath.Join(t.TempDir(), "places.json")

	exported, err := ExportToJSON(ctx, src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	_, dst := setupTestDB(t)

	imported, err := ImportFromJSON(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	want, err := src.ListAllSorted(ctx)
	require.NoError(t, err)

	got, err := dst.ListAllSorted(ctx)
	require.NoError(t, err)

	opts := cmpopts.EquateApproxTime(0)
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("restored catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRefusesNonEmptyCatalog(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "places.json")
	_, err := ExportToJSON(ctx, repo, path)
	require.NoError(t, err)

	require.NoError(t, repo.Insert(ctx, newTestPlace("p1", "A", 37.5, 127.0)))

	_, err = ImportFromJSON(ctx, repo, path)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestImportRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"latitude", `{"id":"p1","name":"A","latitude":99,"longitude":127}`},
		{"missing id", `{"name":"A","latitude":37.5,"longitude":127}`},
		{"blank name", `{"id":"p1","name":"   ","latitude":37.5,"longitude":127}`},
		{"long name", `{"id":"p1","name":"` + strings.Repeat("가", 101) + `","latitude":37.5,"longitude":127}`},
		{"negative rating", `{"id":"p1","name":"A","latitude":37.5,"longitude":127,"averageRating":-3}`},
		{"negative review count", `{"id":"p1","name":"A","latitude":37.5,"longitude":127,"reviewCount":-7}`},
		{"null row", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := setupTestDB(t)
			path := filepath.Join(t.TempDir(), "places.json")

			data := `{"version":"1.0","places":[` + tt.row + `]}`
			require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

			_, err := ImportFromJSON(context.Background(), repo, path)
			require.Error(t, err)
			assert.True(t, IsValidation(err), "got %v", err)

			count, err := repo.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestImportAcceptsHundredRuneName(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "places.json")

	name := strings.Repeat("가", 100)
	data := `{"version":"1.0","places":[{"id":"p1","name":"` + name + `","latitude":37.5,"longitude":127,"reviewCount":2,"averageRating":4}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	n, err := ImportFromJSON(ctx, repo, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
	assert.Equal(t, 2, p.ReviewCount)
}

func TestImportClassifiesCategories(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "places.json")

	data := `{"version":"1.0","places":[
		{"id":"p1","name":"A","category":"카페","latitude":37.5,"longitude":127},
		{"id":"p2","name":"B","category":"일식>초밥","latitude":37.5,"longitude":127},
		{"id":"p3","name":"C","latitude":37.5,"longitude":127}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	n, err := ImportFromJSON(ctx, repo, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := repo.ListAllSorted(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, CategoryCafe, all[0].Category)
	assert.Equal(t, CategoryJapanese, all[1].Category)
	assert.Equal(t, CategoryOther, all[2].Category)
}

func TestSeedIfEmpty(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	seeded, _, err := SeedIfEmpty(ctx, repo, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.False(t, seeded)

	path := filepath.Join(t.TempDir(), "places.json")
	data := `{"version":"1.0","places":[{"id":"p1","name":"A","latitude":37.5,"longitude":127}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	seeded, n, err := SeedIfEmpty(ctx, repo, path)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, 1, n)

	seeded, n, err = SeedIfEmpty(ctx, repo, path)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 1, n)
}
