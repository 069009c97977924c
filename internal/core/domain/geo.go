package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether both coordinates are exactly 0, the catalog's
// sentinel for "no coordinate".
func (p GeoPoint) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// UserPosition is the latest reported device position. Heading is derived
// from the previous sample and is nil until the user has moved.
type UserPosition struct {
	Location GeoPoint `json:"location"`
	Heading  *float64 `json:"heading,omitempty"`
}
