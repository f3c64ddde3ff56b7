package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/pkg/metrics"
)

// ServiceAreaService runs service-area solves and persists their results.
type ServiceAreaService struct {
	solver     ports.NetworkSolver
	facilities ports.FacilityRepository
	analyses   ports.AnalysisRepository
	cache      ports.CacheService

	maxBreaks       int
	maxBreakMinutes float64
	cacheTTL        int // seconds
}

// NewServiceAreaService creates a new ServiceAreaService.
func NewServiceAreaService(
	solver ports.NetworkSolver,
	facilities ports.FacilityRepository,
	analyses ports.AnalysisRepository,
	cache ports.CacheService,
	maxBreaks int,
	maxBreakMinutes float64,
	cacheTTL int,
) *ServiceAreaService {
	if maxBreaks <= 0 {
		maxBreaks = 10
	}
	if maxBreakMinutes <= 0 {
		maxBreakMinutes = 300
	}
	return &ServiceAreaService{
		solver:          solver,
		facilities:      facilities,
		analyses:        analyses,
		cache:           cache,
		maxBreaks:       maxBreaks,
		maxBreakMinutes: maxBreakMinutes,
		cacheTTL:        cacheTTL,
	}
}

// Solve validates the parameters, assembles the facility feature set,
// runs the remote solve, and persists the reshaped result as an analysis.
// Identical requests within the cache TTL are answered from cache without
// touching the remote service.
func (s *ServiceAreaService) Solve(ctx context.Context, params domain.ServiceAreaParams) (*domain.Analysis, error) {
	if err := params.Validate(s.maxBreaks, s.maxBreakMinutes); err != nil {
		return nil, err
	}

	cacheKey := solveCacheKey("servicearea", params)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var analysis domain.Analysis
			if err := json.Unmarshal(data, &analysis); err == nil {
				metrics.CacheHits.WithLabelValues("service_area").Inc()
				return &analysis, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("service_area").Inc()
	}

	featureSet, err := assembleFacilitySet(ctx, s.facilities, params.FacilityIDs, params.Points)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.solver.SolveServiceArea(ctx, featureSet, params)
	metrics.SolveDuration.WithLabelValues(domain.AnalysisServiceArea).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SolvesTotal.WithLabelValues(domain.AnalysisServiceArea, "error").Inc()
		return nil, fmt.Errorf("service area solve: %w", err)
	}
	metrics.SolvesTotal.WithLabelValues(domain.AnalysisServiceArea, "ok").Inc()

	analysis := &domain.Analysis{
		Name:   params.Name,
		Kind:   domain.AnalysisServiceArea,
		Params: toMap(params),
		Result: toMap(result),
	}
	if err := s.analyses.Create(ctx, analysis); err != nil {
		return nil, internalErr(fmt.Errorf("persist analysis: %w", err))
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(analysis); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return analysis, nil
}

// TravelModes lists the travel modes the routing service offers. The
// listing changes rarely, so it is cached for an hour.
func (s *ServiceAreaService) TravelModes(ctx context.Context) ([]domain.TravelMode, error) {
	const cacheKey = "travelmodes"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var modes []domain.TravelMode
			if err := json.Unmarshal(data, &modes); err == nil {
				metrics.CacheHits.WithLabelValues("travel_modes").Inc()
				return modes, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("travel_modes").Inc()
	}

	modes, err := s.solver.TravelModes(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(modes); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}
	return modes, nil
}

// assembleFacilitySet builds the solver input from stored facilities and
// literal points. Stored facilities carry their name, capacity, and
// required flag as solver attributes.
func assembleFacilitySet(ctx context.Context, repo ports.FacilityRepository, ids []string, points []domain.GeoPoint) (domain.FeatureSet, error) {
	features := make([]domain.Feature, 0, len(ids)+len(points))

	if len(ids) > 0 {
		stored, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return domain.FeatureSet{}, fmt.Errorf("load facilities: %w", err)
		}
		if len(stored) != len(ids) {
			return domain.FeatureSet{}, fmt.Errorf("unknown facility ids: requested %d, found %d", len(ids), len(stored))
		}
		for _, f := range stored {
			facilityType := domain.FacilityCandidate
			if f.Required {
				facilityType = domain.FacilityRequired
			}
			attrs := map[string]any{
				domain.AttrName:         f.Name,
				domain.AttrFacilityType: facilityType,
			}
			if f.Capacity > 0 {
				attrs["Capacity"] = f.Capacity
			}
			features = append(features, domain.PointFeature(f.Location.Lon, f.Location.Lat, attrs))
		}
	}

	for i, p := range points {
		if !p.Valid() {
			return domain.FeatureSet{}, fmt.Errorf("point %d: coordinates out of range", i)
		}
		features = append(features, domain.PointFeature(p.Lon, p.Lat, map[string]any{
			domain.AttrName: fmt.Sprintf("Location %d", i+1),
		}))
	}

	return domain.PointSet(features)
}

// solveCacheKey derives a stable cache key from the solve parameters.
func solveCacheKey(prefix string, params any) string {
	data, _ := json.Marshal(params)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:8])
}

// toMap round-trips a typed value through JSON into a generic map for
// JSONB persistence.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// fromMap is the inverse of toMap.
func fromMap(m map[string]any, v any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
