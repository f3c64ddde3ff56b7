package domain

// GeoJSONFeatureCollection is a standard GeoJSON FeatureCollection, the
// export format for solve results so any map client can render them.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	BBox     []float64        `json:"bbox,omitempty"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature is a single GeoJSON feature.
type GeoJSONFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   GeoJSONGeometry `json:"geometry"`
}

// GeoJSONGeometry holds a GeoJSON geometry. Coordinates nesting depends on
// Type: Point []float64, MultiLineString/Polygon [][][]float64.
type GeoJSONGeometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// ToGeoJSON converts a feature set into a GeoJSON FeatureCollection.
// Attributes become properties unchanged; ring/path coordinate order is
// preserved (the service already emits lon/lat pairs in WGS84).
func (fs FeatureSet) ToGeoJSON() GeoJSONFeatureCollection {
	out := GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(fs.Features)),
	}

	for _, f := range fs.Features {
		gf := GeoJSONFeature{
			Type:       "Feature",
			Properties: f.Attributes,
		}
		if gf.Properties == nil {
			gf.Properties = map[string]any{}
		}

		switch {
		case f.Geometry.IsPoint():
			gf.Geometry = GeoJSONGeometry{
				Type:        "Point",
				Coordinates: []float64{*f.Geometry.X, *f.Geometry.Y},
			}
		case f.Geometry != nil && len(f.Geometry.Rings) > 0:
			gf.Geometry = GeoJSONGeometry{
				Type:        "Polygon",
				Coordinates: pairsToSlices(f.Geometry.Rings),
			}
		case f.Geometry != nil && len(f.Geometry.Paths) > 0:
			gf.Geometry = GeoJSONGeometry{
				Type:        "MultiLineString",
				Coordinates: pairsToSlices(f.Geometry.Paths),
			}
		default:
			continue // no geometry, nothing to draw
		}

		out.Features = append(out.Features, gf)
	}

	return out
}

func pairsToSlices(in [][][2]float64) [][][]float64 {
	out := make([][][]float64, len(in))
	for i, part := range in {
		out[i] = make([][]float64, len(part))
		for j, p := range part {
			out[i][j] = []float64{p[0], p[1]}
		}
	}
	return out
}
