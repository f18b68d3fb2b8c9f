package usecase

import (
	"context"
	"fmt"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// QuoteFeeService — предварительный расчет комиссии для пары точек без
// создания поездки. Использует тот же калькулятор, что и принятие offer.
type QuoteFeeService struct {
	drivers  out.DriverRepository
	resolver in.ResolveTerritoryUseCase
	feeCalc  *FeeTierCalculator
}

// NewQuoteFeeService создает сервис котировки комиссий
func NewQuoteFeeService(drivers out.DriverRepository, resolver in.ResolveTerritoryUseCase, feeCalc *FeeTierCalculator) *QuoteFeeService {
	return &QuoteFeeService{
		drivers:  drivers,
		resolver: resolver,
		feeCalc:  feeCalc,
	}
}

// Execute возвращает tier и комиссию, которые получит водитель driver_id
// на гипотетической поездке pickup→dropoff
func (s *QuoteFeeService) Execute(ctx context.Context, input in.QuoteFeeInput) (*domain.FeeBreakdown, error) {
	if input.DriverID == "" {
		return nil, fmt.Errorf("driver_id is required")
	}
	if err := domain.ValidateCoordinates(input.PickupLat, input.PickupLng); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	if err := domain.ValidateCoordinates(input.DropoffLat, input.DropoffLng); err != nil {
		return nil, fmt.Errorf("dropoff: %w", err)
	}

	status, err := s.drivers.FindStatus(ctx, input.DriverID)
	if err != nil {
		return nil, err
	}

	pickupRes := s.resolver.Resolve(ctx, input.PickupLng, input.PickupLat)
	dropoffRes := s.resolver.Resolve(ctx, input.DropoffLng, input.DropoffLat)

	return s.feeCalc.Compute(ctx, FeeInput{
		DriverHomeID:          status.HomeNeighborhoodID,
		DriverVirtualCenter:   status.VirtualCenter,
		PickupNeighborhoodID:  pickupRes.NeighborhoodRef(),
		DropoffNeighborhoodID: dropoffRes.NeighborhoodRef(),
		Pickup:                domain.Point{Lat: input.PickupLat, Lng: input.PickupLng},
		Dropoff:               domain.Point{Lat: input.DropoffLat, Lng: input.DropoffLng},
		Fare:                  input.Fare,
	})
}
