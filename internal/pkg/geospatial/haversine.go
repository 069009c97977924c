package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used by every distance in the tour.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// InitialBearing returns the compass bearing in degrees [0, 360) from the
// first point towards the second.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
// The box is padded so that every point within radiusMeters by Haversine lies inside it.
// When the circle reaches a pole the box spans every longitude.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	padded := radiusMeters * 1.01
	latDelta := padded / metersPerDegree
	minLat, maxLat = lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), -180, math.Min(maxLat, 90), 180
	}

	// Widest longitude reached by a small circle of angular radius padded/R.
	ratio := math.Sin(padded/EarthRadiusMeters) / math.Cos(toRad(lat))
	if ratio >= 1 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := math.Asin(ratio) * 180 / math.Pi

	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

// metersPerDegree is the arc length of one degree on the Haversine sphere.
var metersPerDegree = EarthRadiusMeters * math.Pi / 180

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
