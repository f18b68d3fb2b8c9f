package domain

import (
	"fmt"
	"math"
)

// Point — географическая точка (WGS84)
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon — замкнутый контур; первая и последняя вершины могут не совпадать
type Polygon []Point

// ValidateCoordinates проверяет корректность координат
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidCoordinates)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidCoordinates)
	}
	return nil
}

// HaversineKm вычисляет расстояние между двумя точками в километрах
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0 // км

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// HaversineM — то же расстояние в метрах
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineKm(lat1, lon1, lat2, lon2) * 1000
}

// Contains проверяет попадание точки в полигон (ray casting).
// В production попадание считает PostGIS; эта реализация служит
// in-memory хранилищам и тестам.
func (p Polygon) Contains(pt Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := p[i], p[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) {
			x := (vj.Lng-vi.Lng)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if pt.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Area — планарная площадь полигона в квадратных градусах (shoelace).
// Используется только для сравнения "какой полигон меньше" внутри слоя.
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}

	sum := 0.0
	j := n - 1
	for i := 0; i < n; i++ {
		sum += (p[j].Lng + p[i].Lng) * (p[j].Lat - p[i].Lat)
		j = i
	}
	return math.Abs(sum) / 2
}

// Centroid — центроид полигона (среднее вершин, достаточно для геозон)
func (p Polygon) Centroid() Point {
	if len(p) == 0 {
		return Point{}
	}
	var lat, lng float64
	for _, pt := range p {
		lat += pt.Lat
		lng += pt.Lng
	}
	n := float64(len(p))
	return Point{Lat: lat / n, Lng: lng / n}
}
