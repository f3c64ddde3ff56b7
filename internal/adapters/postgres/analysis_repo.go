package postgres

import (
	"context"
	"fmt"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// AnalysisRepo implements ports.AnalysisRepository with pgx. Parameters
// and results land in JSONB columns.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo creates a new AnalysisRepo.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

// Create inserts an analysis and fills its generated id and timestamp.
func (r *AnalysisRepo) Create(ctx context.Context, a *domain.Analysis) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO analyses (name, kind, params, result)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.Name, a.Kind, a.Params, a.Result).Scan(&a.ID, &a.CreatedAt)
}

// GetByID returns an analysis by UUID.
func (r *AnalysisRepo) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	var a domain.Analysis
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), kind, params, COALESCE(result, '{}'), created_at
		FROM analyses WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Kind, &a.Params, &a.Result, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns analyses newest first, optionally filtered by kind. The
// result column is left out to keep listings small.
func (r *AnalysisRepo) List(ctx context.Context, kind string, limit, offset int) ([]domain.Analysis, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), kind, params, created_at
		FROM analyses
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, kind, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		if err := rows.Scan(&a.ID, &a.Name, &a.Kind, &a.Params, &a.CreatedAt); err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Count returns the number of analyses, optionally by kind.
func (r *AnalysisRepo) Count(ctx context.Context, kind string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM analyses WHERE ($1 = '' OR kind = $1)
	`, kind).Scan(&count)
	return count, err
}

// SetResult stores the result of a finished solve.
func (r *AnalysisRepo) SetResult(ctx context.Context, id string, result map[string]any) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE analyses SET result = $2 WHERE id = $1`, id, result)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}

// Delete removes an analysis.
func (r *AnalysisRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("analysis %s not found", id)
	}
	return nil
}
