package domain

import (
	"fmt"
	"math"
)

// Match tier — классификация отношения pickup/dropoff/домашнего района водителя
const (
	TierSameNeighborhood     = "SAME_NEIGHBORHOOD"
	TierAdjacentNeighborhood = "ADJACENT_NEIGHBORHOOD"
	TierFallbackRadius       = "FALLBACK_RADIUS"
	TierOutsideFence         = "OUTSIDE_FENCE"
)

// FeeConfig — проценты комиссии платформы по tier'ам.
// Единственная мутабельная запись; читается заново при каждом расчете.
// ADJACENT и FALLBACK настраиваются независимо, даже если значения совпадают.
type FeeConfig struct {
	SameNeighborhoodPct float64 `json:"same_neighborhood_pct" db:"same_neighborhood_pct"`
	AdjacentPct         float64 `json:"adjacent_pct" db:"adjacent_pct"`
	FallbackPct         float64 `json:"fallback_pct" db:"fallback_pct"`
	OutsidePct          float64 `json:"outside_pct" db:"outside_pct"`
}

// Validate проверяет контракт SAME < (ADJACENT|FALLBACK) < OUTSIDE
func (c FeeConfig) Validate() error {
	if c.SameNeighborhoodPct < 0 || c.OutsidePct > 100 {
		return fmt.Errorf("%w: percentages must be within [0,100]", ErrInvalidFeeConfig)
	}
	if c.SameNeighborhoodPct >= c.AdjacentPct || c.SameNeighborhoodPct >= c.FallbackPct {
		return fmt.Errorf("%w: same_neighborhood_pct must be lowest", ErrInvalidFeeConfig)
	}
	if c.AdjacentPct >= c.OutsidePct || c.FallbackPct >= c.OutsidePct {
		return fmt.Errorf("%w: outside_pct must be highest", ErrInvalidFeeConfig)
	}
	return nil
}

// PctFor возвращает процент комиссии для tier
func (c FeeConfig) PctFor(tier string) float64 {
	switch tier {
	case TierSameNeighborhood:
		return c.SameNeighborhoodPct
	case TierAdjacentNeighborhood:
		return c.AdjacentPct
	case TierFallbackRadius:
		return c.FallbackPct
	default:
		return c.OutsidePct
	}
}

// FeeBreakdown — результат расчета комиссии для поездки
type FeeBreakdown struct {
	Tier           string  `json:"tier"`
	FeePct         float64 `json:"fee_pct"`
	FeeAmount      float64 `json:"fee_amount"`
	DriverEarnings float64 `json:"driver_earnings"`
	Reason         string  `json:"reason"`

	PickupNeighborhoodID  *string `json:"pickup_neighborhood_id,omitempty"`
	DropoffNeighborhoodID *string `json:"dropoff_neighborhood_id,omitempty"`
	DriverHomeID          *string `json:"driver_home_neighborhood_id,omitempty"`
}

// NewFeeBreakdown считает суммы от fare и процента
func NewFeeBreakdown(tier string, pct, fare float64, reason string) FeeBreakdown {
	feeAmount := round2(fare * pct / 100)
	return FeeBreakdown{
		Tier:           tier,
		FeePct:         pct,
		FeeAmount:      feeAmount,
		DriverEarnings: round2(fare - feeAmount),
		Reason:         reason,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
