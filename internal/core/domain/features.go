package domain

import "fmt"

// Geometry type identifiers used by the hosted GIS service.
const (
	GeometryPoint    = "esriGeometryPoint"
	GeometryPolyline = "esriGeometryPolyline"
	GeometryPolygon  = "esriGeometryPolygon"
)

// WGS84 is the spatial reference every public endpoint speaks.
var WGS84 = SpatialReference{WKID: 4326}

// SpatialReference identifies the coordinate system of a geometry.
type SpatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid,omitempty"`
}

// Geometry is the wire geometry of a single feature. Exactly one of the
// point coordinates, Paths, or Rings is populated depending on the owning
// feature set's geometry type.
type Geometry struct {
	X                *float64          `json:"x,omitempty"`
	Y                *float64          `json:"y,omitempty"`
	Paths            [][][2]float64    `json:"paths,omitempty"`
	Rings            [][][2]float64    `json:"rings,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// IsPoint reports whether the geometry carries point coordinates.
func (g *Geometry) IsPoint() bool {
	return g != nil && g.X != nil && g.Y != nil
}

// Feature is a geometry plus a free-form attribute table, a direct
// passthrough of the remote service's feature schema.
type Feature struct {
	Geometry   *Geometry      `json:"geometry,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// PointFeature builds a point feature in WGS84.
func PointFeature(x, y float64, attrs map[string]any) Feature {
	return Feature{
		Geometry:   &Geometry{X: &x, Y: &y},
		Attributes: attrs,
	}
}

// AttrString returns a string attribute, or "" when absent.
func (f Feature) AttrString(name string) string {
	if v, ok := f.Attributes[name].(string); ok {
		return v
	}
	return ""
}

// AttrFloat returns a numeric attribute as float64, or 0 when absent.
// JSON numbers decode as float64; integer-typed values are accepted too.
func (f Feature) AttrFloat(name string) float64 {
	switch v := f.Attributes[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// AttrInt returns a numeric attribute truncated to int, or 0 when absent.
func (f Feature) AttrInt(name string) int {
	return int(f.AttrFloat(name))
}

// FeatureSet is a named collection of features with a declared geometry
// type and spatial reference: the input and output unit of every solve.
type FeatureSet struct {
	DisplayFieldName string           `json:"displayFieldName,omitempty"`
	GeometryType     string           `json:"geometryType"`
	SpatialReference SpatialReference `json:"spatialReference"`
	Features         []Feature        `json:"features"`
}

// PointSet assembles a point feature set in WGS84 from the given features.
// It rejects features whose geometry is not a point.
func PointSet(features []Feature) (FeatureSet, error) {
	for i, f := range features {
		if !f.Geometry.IsPoint() {
			return FeatureSet{}, fmt.Errorf("feature %d: geometry is not a point", i)
		}
	}
	return FeatureSet{
		GeometryType:     GeometryPoint,
		SpatialReference: WGS84,
		Features:         features,
	}, nil
}

// Len returns the number of features in the set.
func (fs FeatureSet) Len() int { return len(fs.Features) }
