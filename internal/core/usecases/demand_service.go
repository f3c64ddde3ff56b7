package usecases

import (
	"context"
	"fmt"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
)

// DemandService handles demand point business logic.
type DemandService struct {
	demand ports.DemandPointRepository
}

// NewDemandService creates a new DemandService.
func NewDemandService(demand ports.DemandPointRepository) *DemandService {
	return &DemandService{demand: demand}
}

// Create stores a new demand point. A zero weight defaults to one unit.
func (s *DemandService) Create(ctx context.Context, point *domain.DemandPoint) error {
	if !point.Location.Valid() {
		return fmt.Errorf("demand point location out of range")
	}
	if point.Weight < 0 {
		return fmt.Errorf("demand weight must not be negative")
	}
	if point.Weight == 0 {
		point.Weight = 1
	}
	return s.demand.Create(ctx, point)
}

// ImportBatch upserts a batch of demand points.
func (s *DemandService) ImportBatch(ctx context.Context, points []domain.DemandPoint) error {
	if len(points) == 0 {
		return nil
	}
	for i := range points {
		if !points[i].Location.Valid() {
			return fmt.Errorf("demand point %d: location out of range", i)
		}
		if points[i].Weight < 0 {
			return fmt.Errorf("demand point %d: weight must not be negative", i)
		}
		if points[i].Weight == 0 {
			points[i].Weight = 1
		}
	}
	return s.demand.UpsertBatch(ctx, points)
}

// ListByGroup returns demand points in a named group.
func (s *DemandService) ListByGroup(ctx context.Context, group string, limit, offset int) ([]domain.DemandPoint, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.demand.ListByGroup(ctx, group, limit, offset)
}

// CountByGroup returns the number of demand points in a group.
func (s *DemandService) CountByGroup(ctx context.Context, group string) (int, error) {
	return s.demand.CountByGroup(ctx, group)
}

// Delete removes a demand point.
func (s *DemandService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("demand point id is required")
	}
	return s.demand.Delete(ctx, id)
}
