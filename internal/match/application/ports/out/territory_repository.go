package out

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// TerritoryRepository — geo-хранилище двух административных слоев.
// Запросы point-in-polygon возвращают наименьший по площади содержащий
// полигон слоя; nil без ошибки означает "не найдено".
type TerritoryRepository interface {
	// FindCommunityAt возвращает комьюнити, содержащее точку
	FindCommunityAt(ctx context.Context, lng, lat float64) (*domain.Community, error)

	// FindNeighborhoodAt возвращает район, содержащий точку
	FindNeighborhoodAt(ctx context.Context, lng, lat float64) (*domain.Neighborhood, error)

	// FindNearestNeighborhood возвращает ближайший район, чей центр лежит
	// в radiusM метрах от точки, и расстояние до него
	FindNearestNeighborhood(ctx context.Context, lng, lat, radiusM float64) (*domain.Neighborhood, float64, error)

	// FindNeighborhoodByID возвращает район по ID
	FindNeighborhoodByID(ctx context.Context, id string) (*domain.Neighborhood, error)
}
