package geospatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePoints = [][2]float64{
	{38.9820, -76.9440},
	{38.9826, -76.9441},
	{43.263, -2.935},
	{-33.8688, 151.2093},
	{0, 0},
	{89.9, 179.9},
	{-45.5, -179.99},
}

func TestHaversine_Symmetric(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			ab := Haversine(a[0], a[1], b[0], b[1])
			ba := Haversine(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9, "distance(%v,%v)", a, b)
		}
	}
}

func TestHaversine_ZeroAtIdentity(t *testing.T) {
	for _, p := range samplePoints {
		assert.Equal(t, 0.0, Haversine(p[0], p[1], p[0], p[1]))
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	// One degree of latitude on the 6 371 km sphere.
	assert.InDelta(t, 111194.93, Haversine(0, 0, 1, 0), 0.01)

	// Campus sample: ~67 m apart, mostly north-south.
	d := Haversine(38.9820, -76.9440, 38.9826, -76.9441)
	assert.InDelta(t, 67.2, d, 0.5)
}

func TestHaversine_NonNegative(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			assert.GreaterOrEqual(t, Haversine(a[0], a[1], b[0], b[1]), 0.0)
		}
	}
}

func TestInitialBearing_Cardinal(t *testing.T) {
	assert.InDelta(t, 0, InitialBearing(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, InitialBearing(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, 180, InitialBearing(1, 0, 0, 0), 1e-9)
	assert.InDelta(t, 270, InitialBearing(0, 1, 0, 0), 1e-9)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	lat, lon := 38.9820, -76.9440
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, 10)

	require.Less(t, minLat, lat)
	require.Greater(t, maxLat, lat)

	// A point exactly 10 m north by Haversine must fall inside the box.
	north := lat + 10/metersPerDegree
	assert.InDelta(t, 10, Haversine(lat, lon, north, lon), 1e-6)
	assert.LessOrEqual(t, north, maxLat)

	east := lon + 10/(metersPerDegree*math.Cos(toRad(lat)))
	assert.LessOrEqual(t, east, maxLon)
	assert.GreaterOrEqual(t, lon-(east-lon), minLon)
}

func TestBoundingBox_NearPole(t *testing.T) {
	lat, lon := 89.9999, 0.0
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, 10)

	// 9.9 m away but 55.5 degrees of longitude east.
	pLat, pLon := 89.99990970, 55.5
	require.LessOrEqual(t, Haversine(lat, lon, pLat, pLon), 10.0)

	assert.True(t, pLat >= minLat && pLat <= maxLat, "lat %v outside [%v, %v]", pLat, minLat, maxLat)
	assert.True(t, pLon >= minLon && pLon <= maxLon, "lon %v outside [%v, %v]", pLon, minLon, maxLon)
}

func TestBoundingBox_CoversPole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(-89.99995, 120, 10)

	assert.Equal(t, -90.0, minLat)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
	assert.Greater(t, maxLat, -89.99995)
}
