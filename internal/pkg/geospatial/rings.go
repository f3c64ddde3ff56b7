package geospatial

import "math"

// RingArea returns the approximate geodesic area of a closed ring in square
// meters, using the spherical excess formula. Counter-clockwise rings yield
// positive area, clockwise (holes) negative.
func RingArea(ring [][2]float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}

	var total float64
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		total += toRad(p2[0]-p1[0]) * (2 + math.Sin(toRad(p1[1])) + math.Sin(toRad(p2[1])))
	}

	return total * earthRadiusM * earthRadiusM / 2
}

// PathLength returns the length of a polyline path in meters.
func PathLength(path [][2]float64) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Haversine(path[i-1][1], path[i-1][0], path[i][1], path[i][0])
	}
	return total
}
