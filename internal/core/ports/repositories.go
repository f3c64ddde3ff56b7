package ports

import (
	"context"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// FacilityRepository persists candidate facilities.
type FacilityRepository interface {
	Create(ctx context.Context, facility *domain.Facility) error
	UpsertBatch(ctx context.Context, facilities []domain.Facility) error
	GetByID(ctx context.Context, id string) (*domain.Facility, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Facility, error)
	List(ctx context.Context, category string, limit, offset int) ([]domain.Facility, error)
	Count(ctx context.Context, category string) (int, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Facility, error)
	Delete(ctx context.Context, id string) error
}

// DemandPointRepository persists demand points.
type DemandPointRepository interface {
	Create(ctx context.Context, point *domain.DemandPoint) error
	UpsertBatch(ctx context.Context, points []domain.DemandPoint) error
	GetByIDs(ctx context.Context, ids []string) ([]domain.DemandPoint, error)
	ListByGroup(ctx context.Context, group string, limit, offset int) ([]domain.DemandPoint, error)
	CountByGroup(ctx context.Context, group string) (int, error)
	Delete(ctx context.Context, id string) error
}

// AnalysisRepository persists solved analyses and their results.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *domain.Analysis) error
	GetByID(ctx context.Context, id string) (*domain.Analysis, error)
	List(ctx context.Context, kind string, limit, offset int) ([]domain.Analysis, error)
	Count(ctx context.Context, kind string) (int, error)
	SetResult(ctx context.Context, id string, result map[string]any) error
	Delete(ctx context.Context, id string) error
}

// SolveJobRepository persists queued solve jobs.
type SolveJobRepository interface {
	Create(ctx context.Context, job *domain.SolveJob) error
	GetByID(ctx context.Context, id string) (*domain.SolveJob, error)
	UpdateStatus(ctx context.Context, id string, status, remoteJobID, errMsg string) error
	SetAnalysis(ctx context.Context, id, analysisID string) error
	ListActive(ctx context.Context, limit int) ([]domain.SolveJob, error)
}
