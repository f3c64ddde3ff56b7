package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside WGS 84 bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds accumulates a geographic bounding box over a set of
// coordinates. The zero value is empty; Extend grows it.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`

	set bool
}

// Extend grows the box to include the given lon/lat coordinate.
func (b *Bounds) Extend(lon, lat float64) {
	if !b.set {
		b.MinLat, b.MaxLat = lat, lat
		b.MinLon, b.MaxLon = lon, lon
		b.set = true
		return
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
}

// Empty reports whether Extend has ever been called.
func (b *Bounds) Empty() bool {
	return !b.set
}

// BBox returns the box as a GeoJSON bbox member, [west south east north],
// or nil when empty.
func (b *Bounds) BBox() []float64 {
	if !b.set {
		return nil
	}
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}
