// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// SeedData represents the JSON backup file format.
type SeedData struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Places      []*Place  `json:"places"`
}

// ExportToJSON exports all places to a JSON file.
func ExportToJSON(ctx context.Context, repo Repository, filepath string) (int, error) {
	places, err := repo.ListAllSorted(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing places: %w", err)
	}

	if places == nil {
		places = []*Place{}
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now().UTC(),
		Places:      places,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	err = os.WriteFile(filepath, data, 0o600)
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(places), nil
}

// ImportFromJSON restores places from a JSON file into an empty catalog.
func ImportFromJSON(ctx context.Context, repo Repository, filepath string) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting places: %w", err)
	}

	if count > 0 {
		return 0, NewValidationError(fmt.Sprintf("catalog already has %d places", count), nil)
	}

	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	now := time.Now().UTC()

	for _, p := range seed.Places {
		if p == nil {
			return 0, NewValidationError("null place in backup", nil)
		}

		p.Name = strings.TrimSpace(p.Name)

		if err := validatePlace(p); err != nil {
			return 0, err
		}

		p.Category = Classify(string(p.Category))

		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
	}

	if err := repo.BulkInsert(ctx, seed.Places); err != nil {
		return 0, err
	}

	return len(seed.Places), nil
}

// SeedIfEmpty restores the catalog from a JSON file if no places exist.
func SeedIfEmpty(ctx context.Context, repo Repository, filepath string) (bool, int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("counting places: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	// Database is empty, try to seed
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return false, 0, nil
	}

	imported, err := ImportFromJSON(ctx, repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
