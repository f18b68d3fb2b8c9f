package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCoordinates(t *testing.T) {
	require.NoError(t, ValidateCoordinates(0, 0))
	require.NoError(t, ValidateCoordinates(-90, 180))
	require.NoError(t, ValidateCoordinates(90, -180))

	assert.ErrorIs(t, ValidateCoordinates(90.0001, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(-91, 0), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, 180.5), ErrInvalidCoordinates)
	assert.ErrorIs(t, ValidateCoordinates(0, -200), ErrInvalidCoordinates)
}

func TestHaversineKm(t *testing.T) {
	// одинаковые точки
	assert.Zero(t, HaversineKm(-22.9068, -43.1729, -22.9068, -43.1729))

	// Копакабана → Ипанема, примерно 2 км
	dist := HaversineKm(-22.9711, -43.1822, -22.9838, -43.2096)
	assert.InDelta(t, 3.1, dist, 0.5)

	// метры согласованы с километрами
	assert.InDelta(t, dist*1000, HaversineM(-22.9711, -43.1822, -22.9838, -43.2096), 0.001)

	// симметрия
	assert.InDelta(t,
		HaversineKm(10, 20, 30, 40),
		HaversineKm(30, 40, 10, 20),
		1e-9,
	)
}

func TestPolygonContains(t *testing.T) {
	square := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}

	assert.True(t, square.Contains(Point{Lat: 5, Lng: 5}))
	assert.False(t, square.Contains(Point{Lat: 15, Lng: 5}))
	assert.False(t, square.Contains(Point{Lat: -1, Lng: -1}))

	// вырожденный контур ничего не содержит
	line := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	assert.False(t, line.Contains(Point{Lat: 0.5, Lng: 0.5}))
}

func TestPolygonArea(t *testing.T) {
	small := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
	}
	big := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}

	assert.InDelta(t, 1.0, small.Area(), 1e-9)
	assert.InDelta(t, 100.0, big.Area(), 1e-9)
	assert.Less(t, small.Area(), big.Area())
}

func TestPolygonCentroid(t *testing.T) {
	square := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
	}
	center := square.Centroid()
	assert.InDelta(t, 1.0, center.Lat, 1e-9)
	assert.InDelta(t, 1.0, center.Lng, 1e-9)
}
