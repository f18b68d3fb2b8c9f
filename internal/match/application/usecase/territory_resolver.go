package usecase

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// TerritoryResolver резолвит координату в территорию по иерархии:
// комьюнити → район → ближайший центр района в fallback-радиусе → outside.
// Ошибки хранилища деградируют к outside (fail-closed) и не пробрасываются.
type TerritoryResolver struct {
	territories     out.TerritoryRepository
	fallbackRadiusM float64
	log             *logger.Logger
}

// NewTerritoryResolver создает резолвер территорий
func NewTerritoryResolver(territories out.TerritoryRepository, fallbackRadiusM float64, log *logger.Logger) *TerritoryResolver {
	return &TerritoryResolver{
		territories:     territories,
		fallbackRadiusM: fallbackRadiusM,
		log:             log,
	}
}

// Resolve выполняет резолв точки. Невалидные координаты сразу дают outside,
// без единого запроса к geo-хранилищу.
func (r *TerritoryResolver) Resolve(ctx context.Context, lng, lat float64) domain.Resolution {
	if err := domain.ValidateCoordinates(lat, lng); err != nil {
		r.log.Warn(logger.Entry{
			Action:  "territory_resolve_invalid_coordinates",
			Message: err.Error(),
			Additional: map[string]any{
				"lat": lat,
				"lng": lng,
			},
		})
		return domain.Resolution{Method: domain.ResolveMethodOutside}
	}

	// (a) слой комьюнити: наименьший содержащий полигон
	community, err := r.territories.FindCommunityAt(ctx, lng, lat)
	if err != nil {
		return r.degrade(err, lat, lng)
	}

	// (b) слой районов: резолвим всегда, даже при найденном комьюнити —
	// поездке нужен и объемлющий район
	neighborhood, err := r.territories.FindNeighborhoodAt(ctx, lng, lat)
	if err != nil {
		return r.degrade(err, lat, lng)
	}

	if community != nil {
		return domain.Resolution{
			Resolved:     true,
			Community:    community,
			Neighborhood: neighborhood,
			Method:       domain.ResolveMethodCommunity,
		}
	}

	if neighborhood != nil {
		return domain.Resolution{
			Resolved:     true,
			Neighborhood: neighborhood,
			Method:       domain.ResolveMethodNeighborhood,
		}
	}

	// (c) fallback: ближайший центр района в пределах фиксированного радиуса
	nearest, meters, err := r.territories.FindNearestNeighborhood(ctx, lng, lat, r.fallbackRadiusM)
	if err != nil {
		return r.degrade(err, lat, lng)
	}
	if nearest != nil {
		return domain.Resolution{
			Resolved:       true,
			Neighborhood:   nearest,
			Method:         domain.ResolveMethodFallback800m,
			FallbackMeters: meters,
		}
	}

	// (d) вне всех территорий
	return domain.Resolution{Method: domain.ResolveMethodOutside}
}

// degrade — ошибка geo-хранилища деградирует к outside
func (r *TerritoryResolver) degrade(err error, lat, lng float64) domain.Resolution {
	r.log.Error(logger.Entry{
		Action:  "territory_resolve_store_failed",
		Message: err.Error(),
		Error:   &logger.ErrObj{Msg: err.Error()},
		Additional: map[string]any{
			"lat": lat,
			"lng": lng,
		},
	})
	return domain.Resolution{Method: domain.ResolveMethodOutside}
}
