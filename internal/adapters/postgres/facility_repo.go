package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/pkg/geospatial"
)

// FacilityRepo implements ports.FacilityRepository with pgx.
type FacilityRepo struct {
	db *DB
}

// NewFacilityRepo creates a new FacilityRepo.
func NewFacilityRepo(db *DB) *FacilityRepo {
	return &FacilityRepo{db: db}
}

// Create inserts a facility and fills its generated id and timestamp.
func (r *FacilityRepo) Create(ctx context.Context, f *domain.Facility) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO facilities (name, category, location, capacity, required, metadata)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
		RETURNING id, created_at
	`, f.Name, f.Category, f.Location.Lon, f.Location.Lat,
		f.Capacity, f.Required, f.Metadata,
	).Scan(&f.ID, &f.CreatedAt)
}

// UpsertBatch inserts many facilities using pgx.Batch, keyed by name and
// category so repeated imports stay idempotent.
func (r *FacilityRepo) UpsertBatch(ctx context.Context, facilities []domain.Facility) error {
	batch := &pgx.Batch{}
	for _, f := range facilities {
		batch.Queue(`
			INSERT INTO facilities (name, category, location, capacity, required, metadata)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
			ON CONFLICT (name, category) DO UPDATE
			SET location = EXCLUDED.location,
			    capacity = EXCLUDED.capacity,
			    required = EXCLUDED.required,
			    metadata = EXCLUDED.metadata
		`, f.Name, f.Category, f.Location.Lon, f.Location.Lat,
			f.Capacity, f.Required, f.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range facilities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const facilityColumns = `
	id, name, COALESCE(category, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	capacity, required, COALESCE(metadata, '{}'), created_at`

func scanFacility(row pgx.Row) (*domain.Facility, error) {
	var f domain.Facility
	err := row.Scan(
		&f.ID, &f.Name, &f.Category,
		&f.Location.Lat, &f.Location.Lon,
		&f.Capacity, &f.Required, &f.Metadata, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID returns a facility by UUID.
func (r *FacilityRepo) GetByID(ctx context.Context, id string) (*domain.Facility, error) {
	return scanFacility(r.db.Pool.QueryRow(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE id = $1`, id))
}

// GetByIDs returns multiple facilities by UUID, ordered by name.
func (r *FacilityRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Facility, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	return collectFacilities(rows)
}

// List returns facilities, optionally filtered by category.
func (r *FacilityRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.Facility, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+facilityColumns+`
		FROM facilities
		WHERE ($1 = '' OR category = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, category, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectFacilities(rows)
}

// Count returns the number of facilities, optionally by category.
func (r *FacilityRepo) Count(ctx context.Context, category string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM facilities WHERE ($1 = '' OR category = $1)
	`, category).Scan(&count)
	return count, err
}

// FindNearby returns facilities within radiusMeters using PostGIS
// ST_DWithin, nearest first, with the computed distance filled in. An
// envelope pre-filter narrows the candidate set through the GIST index
// before the exact geodesic check runs.
func (r *FacilityRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Facility, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+facilityColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM facilities
		WHERE location && ST_MakeEnvelope($5, $6, $7, $8, 4326)
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit, minLon, minLat, maxLon, maxLat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []domain.Facility
	for rows.Next() {
		var f domain.Facility
		var distance float64
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Category,
			&f.Location.Lat, &f.Location.Lon,
			&f.Capacity, &f.Required, &f.Metadata, &f.CreatedAt,
			&distance,
		); err != nil {
			return nil, err
		}
		f.Distance = &distance
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// Delete removes a facility.
func (r *FacilityRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("facility %s not found", id)
	}
	return nil
}

func collectFacilities(rows pgx.Rows) ([]domain.Facility, error) {
	defer rows.Close()
	var facilities []domain.Facility
	for rows.Next() {
		var f domain.Facility
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Category,
			&f.Location.Lat, &f.Location.Lon,
			&f.Capacity, &f.Required, &f.Metadata, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}
