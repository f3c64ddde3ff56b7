package usecases

import (
	"context"
	"fmt"
	"math"

	"github.com/ryanwparks/georeach/internal/core/domain"
	"github.com/ryanwparks/georeach/internal/core/ports"
	"github.com/ryanwparks/georeach/internal/pkg/geospatial"
)

// AnalysisService reads back persisted solve results.
type AnalysisService struct {
	analyses ports.AnalysisRepository
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(analyses ports.AnalysisRepository) *AnalysisService {
	return &AnalysisService{analyses: analyses}
}

// Get returns a single analysis.
func (s *AnalysisService) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	if id == "" {
		return nil, fmt.Errorf("analysis id is required")
	}
	return s.analyses.GetByID(ctx, id)
}

// List returns analyses, optionally filtered by kind.
func (s *AnalysisService) List(ctx context.Context, kind string, limit, offset int) ([]domain.Analysis, error) {
	switch kind {
	case "", domain.AnalysisServiceArea, domain.AnalysisAllocation:
	default:
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.analyses.List(ctx, kind, limit, offset)
}

// Count returns the number of analyses, optionally by kind.
func (s *AnalysisService) Count(ctx context.Context, kind string) (int, error) {
	return s.analyses.Count(ctx, kind)
}

// Delete removes an analysis.
func (s *AnalysisService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("analysis id is required")
	}
	return s.analyses.Delete(ctx, id)
}

// Result feature set keys per analysis kind, in export order.
var geoJSONKeys = map[string][]string{
	domain.AnalysisServiceArea: {"polygons", "facilities"},
	domain.AnalysisAllocation:  {"facilities", "demand_points", "allocation_lines"},
}

// GeoJSON converts a stored analysis result into a single GeoJSON
// feature collection, merging the result's feature sets.
func (s *AnalysisService) GeoJSON(ctx context.Context, id string) (*domain.GeoJSONFeatureCollection, error) {
	analysis, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if analysis.Result == nil {
		return nil, fmt.Errorf("analysis %s has no result", id)
	}

	keys, ok := geoJSONKeys[analysis.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown analysis kind %q", analysis.Kind)
	}

	merged := &domain.GeoJSONFeatureCollection{Type: "FeatureCollection"}
	var bounds domain.Bounds
	for _, key := range keys {
		raw, ok := analysis.Result[key].(map[string]any)
		if !ok {
			continue
		}
		var fs domain.FeatureSet
		if err := fromMap(raw, &fs); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", key, err)
		}
		annotateMeasurements(&fs)
		extendBounds(&bounds, &fs)
		part := fs.ToGeoJSON()
		for i := range part.Features {
			if part.Features[i].Properties == nil {
				part.Features[i].Properties = map[string]any{}
			}
			part.Features[i].Properties["layer"] = key
		}
		merged.Features = append(merged.Features, part.Features...)
	}
	merged.BBox = bounds.BBox()
	return merged, nil
}

func extendBounds(b *domain.Bounds, fs *domain.FeatureSet) {
	for i := range fs.Features {
		g := fs.Features[i].Geometry
		if g == nil {
			continue
		}
		if g.X != nil && g.Y != nil {
			b.Extend(*g.X, *g.Y)
		}
		for _, ring := range g.Rings {
			for _, pt := range ring {
				b.Extend(pt[0], pt[1])
			}
		}
		for _, path := range g.Paths {
			for _, pt := range path {
				b.Extend(pt[0], pt[1])
			}
		}
	}
}

// annotateMeasurements stamps polygon features with their area and line
// features with their length so map clients can label them without
// re-deriving geometry math.
func annotateMeasurements(fs *domain.FeatureSet) {
	for i := range fs.Features {
		g := fs.Features[i].Geometry
		if g == nil {
			continue
		}

		var attr string
		var value float64
		switch {
		case len(g.Rings) > 0:
			for _, ring := range g.Rings {
				value += geospatial.RingArea(ring)
			}
			attr, value = "area_km2", math.Abs(value)/1e6
		case len(g.Paths) > 0:
			for _, path := range g.Paths {
				value += geospatial.PathLength(path)
			}
			attr, value = "length_km", value/1e3
		default:
			continue
		}

		if fs.Features[i].Attributes == nil {
			fs.Features[i].Attributes = map[string]any{}
		}
		fs.Features[i].Attributes[attr] = math.Round(value*1000) / 1000
	}
}
