package geospatial

import "math"

// Mean earth radius in meters, per IUGG.
const earthRadiusM = 6371000.0

const metersPerDegreeLat = 111320.0

// Haversine returns the great-circle distance in meters between two
// WGS84 points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	sinLat := math.Sin(toRad(lat2-lat1) / 2)
	sinLon := math.Sin(toRad(lon2-lon1) / 2)

	a := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLon*sinLon
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns the lat/lon envelope that encloses a circle of
// radiusMeters around the given point. The longitude delta widens with
// latitude; near the poles the box degenerates and callers should fall
// back to an exact distance check.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / metersPerDegreeLat
	lonDelta := latDelta / math.Cos(toRad(lat))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
