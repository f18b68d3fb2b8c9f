package usecase

import (
	"context"
	"fmt"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// FeeInput — входные данные расчета комиссии
type FeeInput struct {
	DriverHomeID        *string
	DriverVirtualCenter *domain.Point

	PickupNeighborhoodID  *string
	DropoffNeighborhoodID *string
	Pickup                domain.Point
	Dropoff               domain.Point

	Fare float64
}

// FeeTierCalculator выбирает tier комиссии по территориальному отношению
// pickup/dropoff к домашнему району водителя. Конфигурация процентов
// читается из хранилища заново при каждом вызове.
type FeeTierCalculator struct {
	feeConfig       out.FeeConfigRepository
	territories     out.TerritoryRepository
	fallbackRadiusM float64
	log             *logger.Logger
}

// NewFeeTierCalculator создает калькулятор комиссий
func NewFeeTierCalculator(feeConfig out.FeeConfigRepository, territories out.TerritoryRepository, fallbackRadiusM float64, log *logger.Logger) *FeeTierCalculator {
	return &FeeTierCalculator{
		feeConfig:       feeConfig,
		territories:     territories,
		fallbackRadiusM: fallbackRadiusM,
		log:             log,
	}
}

// Compute выбирает tier в строгом порядке приоритетов:
//  1. нет домашнего района → OUTSIDE_FENCE
//  2. pickup == dropoff == home → SAME_NEIGHBORHOOD
//  3. pickup == home ИЛИ dropoff == home → ADJACENT_NEIGHBORHOOD
//  4. обе точки вне официальных районов, но в fallback-радиусе от центра
//     домашней территории → FALLBACK_RADIUS
//  5. иначе → OUTSIDE_FENCE
func (c *FeeTierCalculator) Compute(ctx context.Context, input FeeInput) (*domain.FeeBreakdown, error) {
	cfg, err := c.feeConfig.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fee config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tier, reason := c.selectTier(ctx, input)

	fb := domain.NewFeeBreakdown(tier, cfg.PctFor(tier), input.Fare, reason)
	fb.PickupNeighborhoodID = input.PickupNeighborhoodID
	fb.DropoffNeighborhoodID = input.DropoffNeighborhoodID
	fb.DriverHomeID = input.DriverHomeID

	c.log.Debug(logger.Entry{
		Action:  "fee_tier_computed",
		Message: reason,
		Additional: map[string]any{
			"tier":    tier,
			"fee_pct": fb.FeePct,
			"fare":    input.Fare,
		},
	})

	return &fb, nil
}

func (c *FeeTierCalculator) selectTier(ctx context.Context, input FeeInput) (tier, reason string) {
	home := input.DriverHomeID
	pickup := input.PickupNeighborhoodID
	dropoff := input.DropoffNeighborhoodID

	// 1. водитель без домашнего района всегда платит максимум
	if home == nil {
		return domain.TierOutsideFence, "driver has no home neighborhood"
	}

	pickupHome := pickup != nil && *pickup == *home
	dropoffHome := dropoff != nil && *dropoff == *home

	// 2. вся поездка внутри домашнего района
	if pickupHome && dropoffHome {
		return domain.TierSameNeighborhood, "pickup and dropoff inside driver home neighborhood"
	}

	// 3. домашний район на одном из концов поездки
	if pickupHome || dropoffHome {
		return domain.TierAdjacentNeighborhood, "one endpoint inside driver home neighborhood"
	}

	// 4. оба конца вне официальных районов, но рядом с домашней территорией
	if pickup == nil && dropoff == nil {
		if center, ok := c.homeCenter(ctx, *home, input.DriverVirtualCenter); ok {
			pickupM := domain.HaversineM(input.Pickup.Lat, input.Pickup.Lng, center.Lat, center.Lng)
			dropoffM := domain.HaversineM(input.Dropoff.Lat, input.Dropoff.Lng, center.Lat, center.Lng)
			if pickupM <= c.fallbackRadiusM && dropoffM <= c.fallbackRadiusM {
				return domain.TierFallbackRadius, "both endpoints within fallback radius of driver home center"
			}
		}
	}

	// 5. все остальное — вне "забора"
	return domain.TierOutsideFence, "ride outside driver home territory"
}

// homeCenter — центр домашней территории: центр геозоны района,
// иначе заявленный водителем виртуальный центр
func (c *FeeTierCalculator) homeCenter(ctx context.Context, homeID string, virtual *domain.Point) (domain.Point, bool) {
	hood, err := c.territories.FindNeighborhoodByID(ctx, homeID)
	if err == nil && hood != nil {
		return hood.Center, true
	}
	if err != nil {
		c.log.Warn(logger.Entry{
			Action:  "fee_home_center_lookup_failed",
			Message: err.Error(),
			Additional: map[string]any{
				"neighborhood_id": homeID,
			},
		})
	}
	if virtual != nil {
		return *virtual, true
	}
	return domain.Point{}, false
}
