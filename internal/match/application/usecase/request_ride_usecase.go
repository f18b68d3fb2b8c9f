package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/utils"
)

// RequestRideService создает поездку и фиксирует ее территориальные привязки.
// Привязки (район/комьюнити pickup и район dropoff) резолвятся один раз
// здесь и далее не пересчитываются.
type RequestRideService struct {
	rides     out.RideRepository
	resolver  in.ResolveTerritoryUseCase
	dispatch  in.DispatchRideUseCase
	publisher out.EventPublisher

	log *logger.Logger
	now func() time.Time
}

// NewRequestRideService создает сервис приема поездок
func NewRequestRideService(
	rides out.RideRepository,
	resolver in.ResolveTerritoryUseCase,
	dispatch in.DispatchRideUseCase,
	publisher out.EventPublisher,
	log *logger.Logger,
) *RequestRideService {
	return &RequestRideService{
		rides:     rides,
		resolver:  resolver,
		dispatch:  dispatch,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Execute создает поездку в статусе REQUESTED и запускает первую попытку
// диспетчеризации
func (s *RequestRideService) Execute(ctx context.Context, input in.RequestRideInput) (*in.RequestRideOutput, error) {
	if input.PassengerID == "" {
		return nil, fmt.Errorf("passenger_id is required")
	}
	if err := domain.ValidateCoordinates(input.PickupLat, input.PickupLng); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	if err := domain.ValidateCoordinates(input.DropoffLat, input.DropoffLng); err != nil {
		return nil, fmt.Errorf("dropoff: %w", err)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("price must be non-negative")
	}

	pickupRes := s.resolver.Resolve(ctx, input.PickupLng, input.PickupLat)
	dropoffRes := s.resolver.Resolve(ctx, input.DropoffLng, input.DropoffLat)

	now := s.now()
	ride := &domain.Ride{
		ID:                    utils.NewUUID(),
		PassengerID:           input.PassengerID,
		Status:                domain.RideStatusRequested,
		PickupLat:             input.PickupLat,
		PickupLng:             input.PickupLng,
		PickupAddress:         input.PickupAddress,
		DropoffLat:            input.DropoffLat,
		DropoffLng:            input.DropoffLng,
		DropoffAddress:        input.DropoffAddress,
		NeighborhoodID:        pickupRes.NeighborhoodRef(),
		CommunityID:           pickupRes.CommunityRef(),
		DropoffNeighborhoodID: dropoffRes.NeighborhoodRef(),
		Price:                 input.Price,
		RequestedAt:           now,
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		s.log.Error(logger.Entry{
			Action:  "ride_create_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("create ride: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:  "ride_requested",
		Message: "ride created with territory anchors",
		RideID:  ride.ID,
		Additional: map[string]any{
			"pickup_method":  pickupRes.Method,
			"dropoff_method": dropoffRes.Method,
		},
	})

	if err := s.publisher.PublishRideEvent(ctx, out.EventRideRequested, out.RideEventData{
		RideID:      ride.ID,
		PassengerID: ride.PassengerID,
		Status:      ride.Status,
	}); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "publish_ride_requested_failed",
			Message: err.Error(),
			RideID:  ride.ID,
		})
	}

	// первая попытка матчинга сразу; неудача не фейлит создание,
	// sweep повторит попытку
	if err := s.dispatch.Execute(ctx, ride.ID); err != nil {
		s.log.Error(logger.Entry{
			Action:  "initial_dispatch_failed",
			Message: err.Error(),
			RideID:  ride.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	return &in.RequestRideOutput{
		RideID:              ride.ID,
		Status:              ride.Status,
		PickupMethod:        pickupRes.Method,
		PickupNeighborhood:  ride.NeighborhoodID,
		PickupCommunity:     ride.CommunityID,
		DropoffMethod:       dropoffRes.Method,
		DropoffNeighborhood: ride.DropoffNeighborhoodID,
	}, nil
}
