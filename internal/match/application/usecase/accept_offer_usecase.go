package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// AcceptOfferService — принятие offer водителем.
// Сами шаги принятия (проверки, смена статусов, driver→BUSY) выполняются
// одной изолированной транзакцией хранилища; при конкурентных вызовах
// выигрывает ровно один, остальные получают типизированный отказ.
type AcceptOfferService struct {
	offers    out.OfferRepository
	rides     out.RideRepository
	drivers   out.DriverRepository
	feeCalc   *FeeTierCalculator
	publisher out.EventPublisher

	log *logger.Logger
	now func() time.Time
}

// NewAcceptOfferService создает сервис принятия offers
func NewAcceptOfferService(
	offers out.OfferRepository,
	rides out.RideRepository,
	drivers out.DriverRepository,
	feeCalc *FeeTierCalculator,
	publisher out.EventPublisher,
	log *logger.Logger,
) *AcceptOfferService {
	return &AcceptOfferService{
		offers:    offers,
		rides:     rides,
		drivers:   drivers,
		feeCalc:   feeCalc,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Execute принимает offer от имени водителя
func (s *AcceptOfferService) Execute(ctx context.Context, input in.AcceptOfferInput) (*in.AcceptOfferOutput, error) {
	if input.OfferID == "" || input.DriverID == "" {
		return nil, fmt.Errorf("%w: offer_id and driver_id are required", domain.ErrOfferNotFound)
	}

	acc, err := s.offers.Accept(ctx, input.OfferID, input.DriverID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOfferNotPending), errors.Is(err, domain.ErrOfferExpired):
			// ожидаемые гонки: двойной accept или поздний accept после sweep
			s.log.Warn(logger.Entry{
				Action:   "offer_accept_conflict",
				Message:  err.Error(),
				OfferID:  input.OfferID,
				DriverID: input.DriverID,
			})
		case errors.Is(err, domain.ErrNotOfferOwner):
			s.log.Warn(logger.Entry{
				Action:   "offer_accept_forbidden",
				Message:  "driver tried to accept someone else's offer",
				OfferID:  input.OfferID,
				DriverID: input.DriverID,
			})
		case errors.Is(err, domain.ErrOfferNotFound):
			s.log.Warn(logger.Entry{
				Action:   "offer_accept_not_found",
				Message:  err.Error(),
				OfferID:  input.OfferID,
				DriverID: input.DriverID,
			})
		default:
			s.log.Error(logger.Entry{
				Action:  "offer_accept_failed",
				Message: err.Error(),
				OfferID: input.OfferID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
		return nil, err
	}

	ride := acc.Ride

	s.log.Info(logger.Entry{
		Action:   "offer_accepted",
		Message:  "driver assigned to ride",
		RideID:   ride.ID,
		OfferID:  acc.Offer.ID,
		DriverID: input.DriverID,
	})

	output := &in.AcceptOfferOutput{
		RideID:      ride.ID,
		PassengerID: ride.PassengerID,
		Status:      domain.RideStatusAccepted,
	}

	// Комиссия считается один раз на поездку, когда известен водитель.
	// Неудача расчета не откатывает принятие.
	if fb := s.computeFee(ctx, ride, input.DriverID); fb != nil {
		output.FeeTier = fb.Tier
		output.FeePct = fb.FeePct
		output.DriverEarnings = fb.DriverEarnings

		if err := s.rides.UpdateFee(ctx, ride.ID, *fb); err != nil {
			s.log.Error(logger.Entry{
				Action:  "persist_fee_failed",
				Message: err.Error(),
				RideID:  ride.ID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}

	if err := s.publisher.PublishRideEvent(ctx, out.EventRideAccepted, out.RideEventData{
		RideID:      ride.ID,
		PassengerID: ride.PassengerID,
		DriverID:    input.DriverID,
		OfferID:     acc.Offer.ID,
		Status:      domain.RideStatusAccepted,
		AdditionalData: map[string]any{
			"fee_tier": output.FeeTier,
		},
	}); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "publish_ride_accepted_failed",
			Message: err.Error(),
			RideID:  ride.ID,
		})
	}

	return output, nil
}

func (s *AcceptOfferService) computeFee(ctx context.Context, ride *domain.Ride, driverID string) *domain.FeeBreakdown {
	status, err := s.drivers.FindStatus(ctx, driverID)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:   "fee_driver_lookup_failed",
			Message:  err.Error(),
			RideID:   ride.ID,
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
		return nil
	}

	fb, err := s.feeCalc.Compute(ctx, FeeInput{
		DriverHomeID:          status.HomeNeighborhoodID,
		DriverVirtualCenter:   status.VirtualCenter,
		PickupNeighborhoodID:  ride.NeighborhoodID,
		DropoffNeighborhoodID: ride.DropoffNeighborhoodID,
		Pickup:                domain.Point{Lat: ride.PickupLat, Lng: ride.PickupLng},
		Dropoff:               domain.Point{Lat: ride.DropoffLat, Lng: ride.DropoffLng},
		Fare:                  ride.Price,
	})
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "fee_compute_failed",
			Message: err.Error(),
			RideID:  ride.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil
	}
	return fb
}
