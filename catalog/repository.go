// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	duckdb "github.com/duckdb/duckdb-go/v2"
	"github.com/jcodagnone/matjip/spatial"
	"github.com/uber/h3-go/v4"
)

// ErrDuplicateLink is returned by Insert when another row already owns the
// external link.
var ErrDuplicateLink = errors.New("external link already cataloged")

// Repository handles persistence of catalog places.
type Repository interface {
	// CreateSchema creates the places table
	CreateSchema() error

	// FindByExternalLink returns the place owning link, or nil when absent.
	FindByExternalLink(ctx context.Context, link string) (*Place, error)

	// FindByNameWithin returns the earliest created place named exactly name
	// inside bounds, or nil when absent.
	FindByNameWithin(ctx context.Context, name string, bounds spatial.Bounds) (*Place, error)

	// Insert stores a new place.
	Insert(ctx context.Context, place *Place) error

	// Get returns a place by id or a not found error.
	Get(ctx context.Context, id string) (*Place, error)

	// ListReviewedWithin returns places with reviews inside bounds, most
	// reviewed first, optionally filtered by category.
	ListReviewedWithin(ctx context.Context, bounds spatial.Bounds, categories []Category, limit int) ([]*Place, error)

	// SummarizeCells groups the places ListReviewedWithin would see by H3 cell.
	SummarizeCells(ctx context.Context, bounds spatial.Bounds, categories []Category, res int) ([]*CellSummary, error)

	// RecordReviewStats overwrites the denormalized rating and review count.
	// Only the review subsystem calls it.
	RecordReviewStats(ctx context.Context, id string, averageRating float64, reviewCount int) error

	// ListAllSorted returns every place sorted by id
	ListAllSorted(ctx context.Context) ([]*Place, error)

	// BulkInsert inserts a slice of places in a single transaction
	BulkInsert(ctx context.Context, places []*Place) error

	// Count returns the total number of places
	Count(ctx context.Context) (int, error)
}

type sqlPlaceRepository struct {
	db *sql.DB
}

// NewRepository creates a new place repository.
func NewRepository(db *sql.DB) Repository {
	return &sqlPlaceRepository{db: db}
}

func (r *sqlPlaceRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS places (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			address VARCHAR,
			road_address VARCHAR,
			category VARCHAR NOT NULL,
			telephone VARCHAR,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			external_link VARCHAR UNIQUE,
			external_place_id VARCHAR,
			average_rating DOUBLE NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			h3_res5 BIGINT,
			h3_res6 BIGINT,
			h3_res7 BIGINT,
			h3_res8 BIGINT,
			h3_res9 BIGINT
		);

		CREATE INDEX IF NOT EXISTS places_name_idx ON places(name);
	`)

	return err
}

var baseSelect = `
	SELECT id, name, address, road_address, category, telephone,
	       latitude, longitude, external_link, external_place_id,
	       average_rating, review_count, created_at, updated_at,
	       h3_res5, h3_res6, h3_res7, h3_res8, h3_res9
	FROM places
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (*Place, error) {
	place := &Place{}

	var address, roadAddress, telephone, link, externalID sql.NullString

	var category string

	var cells [MaxCellResolution - MinCellResolution + 1]sql.NullInt64

	err := row.Scan(
		&place.ID, &place.Name, &address, &roadAddress, &category, &telephone,
		&place.Latitude, &place.Longitude, &link, &externalID,
		&place.AverageRating, &place.ReviewCount, &place.CreatedAt, &place.UpdatedAt,
		&cells[0], &cells[1], &cells[2], &cells[3], &cells[4],
	)
	if err != nil {
		return nil, err
	}

	place.Address = address.String
	place.RoadAddress = roadAddress.String
	place.Telephone = telephone.String
	place.ExternalLink = link.String
	place.ExternalPlaceID = externalID.String
	place.Category = Category(category)

	for i, c := range cells {
		if c.Valid {
			place.Cells[i] = c.Int64
		}
	}

	return place, nil
}

func (r *sqlPlaceRepository) list(ctx context.Context, query string, args []any) ([]*Place, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*Place

	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}

		places = append(places, place)
	}

	return places, rows.Err()
}

func (r *sqlPlaceRepository) first(ctx context.Context, query string, args ...any) (*Place, error) {
	place, err := scanPlace(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return place, err
}

func (r *sqlPlaceRepository) FindByExternalLink(ctx context.Context, link string) (*Place, error) {
	place, err := r.first(ctx, baseSelect+` WHERE external_link = ?`, link)
	if err != nil {
		return nil, NewStoreError("looking up place by external link", err)
	}

	return place, nil
}

func (r *sqlPlaceRepository) FindByNameWithin(ctx context.Context, name string, bounds spatial.Bounds) (*Place, error) {
	place, err := r.first(ctx, baseSelect+`
		WHERE name = ?
		  AND latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		ORDER BY created_at, id
		LIMIT 1
	`, name, bounds.Min.Lat, bounds.Max.Lat, bounds.Min.Lng, bounds.Max.Lng)
	if err != nil {
		return nil, NewStoreError("looking up place by name and position", err)
	}

	return place, nil
}

func (r *sqlPlaceRepository) Get(ctx context.Context, id string) (*Place, error) {
	place, err := r.first(ctx, baseSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, NewStoreError("getting place", err)
	}

	if place == nil {
		return nil, NewNotFoundError(fmt.Sprintf("place %s not found", id))
	}

	return place, nil
}

const insertPlace = `
	INSERT INTO places(
		id,
		name,
		address,
		road_address,
		category,
		telephone,
		latitude,
		longitude,
		external_link,
		external_place_id,
		average_rating,
		review_count,
		created_at,
		updated_at,
		h3_res5,
		h3_res6,
		h3_res7,
		h3_res8,
		h3_res9
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func insertArgs(p *Place) []any {
	return []any{
		p.ID,
		p.Name,
		nullIfEmpty(p.Address),
		nullIfEmpty(p.RoadAddress),
		string(p.Category),
		nullIfEmpty(p.Telephone),
		p.Latitude,
		p.Longitude,
		nullIfEmpty(p.ExternalLink),
		nullIfEmpty(p.ExternalPlaceID),
		p.AverageRating,
		p.ReviewCount,
		p.CreatedAt,
		p.UpdatedAt,
		p.Cells[0],
		p.Cells[1],
		p.Cells[2],
		p.Cells[3],
		p.Cells[4],
	}
}

// isConstraintError reports whether err is a uniqueness violation. Conflicts
// between concurrent writers surface at commit time as transaction errors,
// so the message is checked for any other duckdb error type.
func isConstraintError(err error) bool {
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) && duckErr.Type == duckdb.ErrorTypeConstraint {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "constraint") ||
		strings.Contains(errStr, "duplicate key")
}

func (r *sqlPlaceRepository) Insert(ctx context.Context, place *Place) error {
	if err := place.computeH3(); err != nil {
		return NewStoreError("indexing place", err)
	}

	_, err := r.db.ExecContext(ctx, insertPlace, insertArgs(place)...)
	if err != nil {
		if place.ExternalLink != "" && isConstraintError(err) {
			return NewStoreError("inserting place", fmt.Errorf("%w: %w", ErrDuplicateLink, err))
		}

		return NewStoreError("inserting place", err)
	}

	return nil
}

func (r *sqlPlaceRepository) BulkInsert(ctx context.Context, places []*Place) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError("starting transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPlace)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return NewStoreError("preparing insert", err)
	}
	defer stmt.Close()

	for _, p := range places {
		if err = p.computeH3(); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return NewStoreError("indexing place "+p.ID, err)
		}

		if _, err = stmt.ExecContext(ctx, insertArgs(p)...); err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = rErr
			}

			return NewStoreError("inserting place "+p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("committing places", err)
	}

	return nil
}

// boundedFilter builds the WHERE clause shared by viewport queries.
func boundedFilter(bounds spatial.Bounds, categories []Category) (string, []any) {
	where := `
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		  AND review_count > 0`
	args := []any{bounds.Min.Lat, bounds.Max.Lat, bounds.Min.Lng, bounds.Max.Lng}

	if len(categories) > 0 {
		placeholders := make([]string, len(categories))
		for i, c := range categories {
			placeholders[i] = "?"

			args = append(args, string(c))
		}

		where += " AND category IN (" + strings.Join(placeholders, ", ") + ")"
	}

	return where, args
}

func (r *sqlPlaceRepository) ListReviewedWithin(
	ctx context.Context,
	bounds spatial.Bounds,
	categories []Category,
	limit int,
) ([]*Place, error) {
	where, args := boundedFilter(bounds, categories)
	query := baseSelect + where + " ORDER BY review_count DESC, id"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	places, err := r.list(ctx, query, args)
	if err != nil {
		return nil, NewStoreError("listing places in bounds", err)
	}

	return places, nil
}

func (r *sqlPlaceRepository) SummarizeCells(
	ctx context.Context,
	bounds spatial.Bounds,
	categories []Category,
	res int,
) ([]*CellSummary, error) {
	if res < MinCellResolution || res > MaxCellResolution {
		return nil, NewValidationError(
			fmt.Sprintf("resolution must be between %d and %d", MinCellResolution, MaxCellResolution), nil)
	}

	where, args := boundedFilter(bounds, categories)
	column := fmt.Sprintf("h3_res%d", res)
	query := `SELECT ` + column + `, COUNT(*), SUM(review_count)::BIGINT FROM places` + where +
		` AND ` + column + ` IS NOT NULL GROUP BY 1 ORDER BY 2 DESC, 1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStoreError("summarizing cells", err)
	}
	defer rows.Close()

	var summaries []*CellSummary

	for rows.Next() {
		var (
			cellID  int64
			places  int
			reviews int
		)

		if err := rows.Scan(&cellID, &places, &reviews); err != nil {
			return nil, NewStoreError("summarizing cells", err)
		}

		cell := h3.Cell(cellID)

		center, err := h3.CellToLatLng(cell)
		if err != nil {
			return nil, NewStoreError(fmt.Sprintf("decoding h3 cell %d", cellID), err)
		}

		summaries = append(summaries, &CellSummary{
			Cell:        cell.String(),
			Resolution:  res,
			Center:      spatial.Point{Lat: center.Lat, Lng: center.Lng},
			PlaceCount:  places,
			ReviewCount: reviews,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, NewStoreError("summarizing cells", err)
	}

	return summaries, nil
}

func (r *sqlPlaceRepository) RecordReviewStats(ctx context.Context, id string, averageRating float64, reviewCount int) error {
	if averageRating < 0 || reviewCount < 0 {
		return NewValidationError("rating and review count can't be negative", nil)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE places
		SET average_rating = ?, review_count = ?, updated_at = ?
		WHERE id = ?
	`, averageRating, reviewCount, time.Now().UTC(), id)
	if err != nil {
		return NewStoreError("recording review stats", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("recording review stats", err)
	}

	if affected == 0 {
		return NewNotFoundError(fmt.Sprintf("place %s not found", id))
	}

	return nil
}

func (r *sqlPlaceRepository) ListAllSorted(ctx context.Context) ([]*Place, error) {
	places, err := r.list(ctx, baseSelect+` ORDER BY id`, nil)
	if err != nil {
		return nil, NewStoreError("listing places", err)
	}

	return places, nil
}

func (r *sqlPlaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM places").Scan(&count); err != nil {
		return 0, NewStoreError("counting places", err)
	}

	return count, nil
}
