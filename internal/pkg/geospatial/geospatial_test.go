package geospatial

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistance(t *testing.T) {
	// Redlands, CA to San Bernardino, CA: roughly 9.7 km
	d := Haversine(34.0556, -117.1825, 34.1083, -117.2898)
	if d < 9000 || d > 12000 {
		t.Errorf("expected ~10km, got %.0f m", d)
	}
}

func TestHaversine_ZeroDistance(t *testing.T) {
	d := Haversine(34.05, -117.18, 34.05, -117.18)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestBoundingBox_ContainsPoint(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(34.05, -117.18, 1000)
	if minLat >= 34.05 || maxLat <= 34.05 {
		t.Errorf("lat bounds do not contain point: %f..%f", minLat, maxLat)
	}
	if minLon >= -117.18 || maxLon <= -117.18 {
		t.Errorf("lon bounds do not contain point: %f..%f", minLon, maxLon)
	}
}

func TestRingArea_Square(t *testing.T) {
	// ~1.11km x 1.11km square at the equator (0.01 degrees per side)
	ring := [][2]float64{
		{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0},
	}
	area := math.Abs(RingArea(ring))
	expected := 1113.2 * 1113.2 // meters squared
	if area < expected*0.98 || area > expected*1.02 {
		t.Errorf("expected ~%.0f m2, got %.0f m2", expected, area)
	}
}

func TestRingArea_Degenerate(t *testing.T) {
	if a := RingArea([][2]float64{{0, 0}, {1, 1}}); a != 0 {
		t.Errorf("expected 0 for degenerate ring, got %f", a)
	}
}

func TestPathLength(t *testing.T) {
	path := [][2]float64{
		{-117.1825, 34.0556},
		{-117.2898, 34.1083},
	}
	l := PathLength(path)
	if l < 9000 || l > 12000 {
		t.Errorf("expected ~10km, got %.0f m", l)
	}
}
