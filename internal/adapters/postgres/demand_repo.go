package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ryanwparks/georeach/internal/core/domain"
)

// DemandRepo implements ports.DemandPointRepository with pgx.
type DemandRepo struct {
	db *DB
}

// NewDemandRepo creates a new DemandRepo.
func NewDemandRepo(db *DB) *DemandRepo {
	return &DemandRepo{db: db}
}

const demandColumns = `
	id, COALESCE(name, ''),
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	weight, COALESCE(group_name, ''), COALESCE(metadata, '{}'), created_at`

// Create inserts a demand point and fills its generated id and timestamp.
func (r *DemandRepo) Create(ctx context.Context, p *domain.DemandPoint) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO demand_points (name, location, weight, group_name, metadata)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6)
		RETURNING id, created_at
	`, p.Name, p.Location.Lon, p.Location.Lat, p.Weight, p.GroupName, p.Metadata,
	).Scan(&p.ID, &p.CreatedAt)
}

// UpsertBatch inserts many demand points using pgx.Batch, keyed by name
// and group.
func (r *DemandRepo) UpsertBatch(ctx context.Context, points []domain.DemandPoint) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(`
			INSERT INTO demand_points (name, location, weight, group_name, metadata)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6)
			ON CONFLICT (name, group_name) DO UPDATE
			SET location = EXCLUDED.location,
			    weight = EXCLUDED.weight,
			    metadata = EXCLUDED.metadata
		`, p.Name, p.Location.Lon, p.Location.Lat, p.Weight, p.GroupName, p.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByIDs returns multiple demand points by UUID.
func (r *DemandRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.DemandPoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+demandColumns+` FROM demand_points WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectDemandPoints(rows)
}

// ListByGroup returns demand points in a named group. An empty group
// lists everything.
func (r *DemandRepo) ListByGroup(ctx context.Context, group string, limit, offset int) ([]domain.DemandPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+demandColumns+`
		FROM demand_points
		WHERE ($1 = '' OR group_name = $1)
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, group, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDemandPoints(rows)
}

// CountByGroup returns the number of demand points in a group.
func (r *DemandRepo) CountByGroup(ctx context.Context, group string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM demand_points WHERE ($1 = '' OR group_name = $1)
	`, group).Scan(&count)
	return count, err
}

// Delete removes a demand point.
func (r *DemandRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM demand_points WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("demand point %s not found", id)
	}
	return nil
}

func collectDemandPoints(rows pgx.Rows) ([]domain.DemandPoint, error) {
	defer rows.Close()
	var points []domain.DemandPoint
	for rows.Next() {
		var p domain.DemandPoint
		if err := rows.Scan(
			&p.ID, &p.Name,
			&p.Location.Lat, &p.Location.Lon,
			&p.Weight, &p.GroupName, &p.Metadata, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
