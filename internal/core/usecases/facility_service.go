package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/pkg/metrics"
)

// FacilityService handles candidate facility business logic.
type FacilityService struct {
	facilities ports.FacilityRepository
	cache      ports.CacheService
}

// NewFacilityService creates a new FacilityService.
func NewFacilityService(facilities ports.FacilityRepository, cache ports.CacheService) *FacilityService {
	return &FacilityService{facilities: facilities, cache: cache}
}

// Create stores a new facility.
func (s *FacilityService) Create(ctx context.Context, facility *domain.Facility) error {
	if facility.Name == "" {
		return fmt.Errorf("facility name is required")
	}
	if !facility.Location.Valid() {
		return fmt.Errorf("facility location out of range")
	}
	return s.facilities.Create(ctx, facility)
}

// ImportBatch upserts a batch of facilities, e.g. from a CSV load.
func (s *FacilityService) ImportBatch(ctx context.Context, facilities []domain.Facility) error {
	if len(facilities) == 0 {
		return nil
	}
	for i, f := range facilities {
		if f.Name == "" {
			return fmt.Errorf("facility %d: name is required", i)
		}
		if !f.Location.Valid() {
			return fmt.Errorf("facility %d: location out of range", i)
		}
	}
	return s.facilities.UpsertBatch(ctx, facilities)
}

// Get returns a single facility.
func (s *FacilityService) Get(ctx context.Context, id string) (*domain.Facility, error) {
	if id == "" {
		return nil, fmt.Errorf("facility id is required")
	}
	return s.facilities.GetByID(ctx, id)
}

// List returns facilities, optionally filtered by category.
func (s *FacilityService) List(ctx context.Context, category string, limit, offset int) ([]domain.Facility, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.facilities.List(ctx, category, limit, offset)
}

// Count returns the number of facilities, optionally by category.
func (s *FacilityService) Count(ctx context.Context, category string) (int, error) {
	return s.facilities.Count(ctx, category)
}

// FindNearby returns facilities within radiusMeters of the given point.
func (s *FacilityService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Facility, error) {
	if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
		return nil, fmt.Errorf("coordinates out of range")
	}
	if radiusMeters <= 0 || radiusMeters > 100000 {
		radiusMeters = 5000
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("facilities:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var facilities []domain.Facility
			if err := json.Unmarshal(data, &facilities); err == nil {
				metrics.CacheHits.WithLabelValues("facilities_nearby").Inc()
				return facilities, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("facilities_nearby").Inc()
	}

	facilities, err := s.facilities.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// Facilities change rarely; 5 minutes is plenty.
	if s.cache != nil {
		if data, err := json.Marshal(facilities); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}
	return facilities, nil
}

// Delete removes a facility.
func (s *FacilityService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("facility id is required")
	}
	return s.facilities.Delete(ctx, id)
}
