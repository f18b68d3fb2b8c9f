package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/utils"
)

// DispatchRideService — одна попытка диспетчеризации поездки:
// выбор лучшего кандидата, создание PENDING offer, push водителю.
// Вызов идемпотентен и НЕ зацикливается: повторные попытки инициирует
// только sweep истекших offers или внешний триггер.
type DispatchRideService struct {
	rides     out.RideRepository
	offers    out.OfferRepository
	finder    *CandidateFinder
	notifier  out.OfferNotifier
	publisher out.EventPublisher

	offerTTL    time.Duration
	maxAttempts int

	log *logger.Logger
	now func() time.Time
}

// NewDispatchRideService создает сервис диспетчеризации
func NewDispatchRideService(
	rides out.RideRepository,
	offers out.OfferRepository,
	finder *CandidateFinder,
	notifier out.OfferNotifier,
	publisher out.EventPublisher,
	offerTTL time.Duration,
	maxAttempts int,
	log *logger.Logger,
) *DispatchRideService {
	return &DispatchRideService{
		rides:       rides,
		offers:      offers,
		finder:      finder,
		notifier:    notifier,
		publisher:   publisher,
		offerTTL:    offerTTL,
		maxAttempts: maxAttempts,
		log:         log,
		now:         time.Now,
	}
}

// Execute выполняет одну попытку диспетчеризации.
// Отсутствие поездки и уже продвинувшийся статус — безобидные no-op.
func (s *DispatchRideService) Execute(ctx context.Context, rideID string) error {
	ride, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, domain.ErrRideNotFound) {
			s.log.Warn(logger.Entry{
				Action:  "dispatch_ride_not_found",
				Message: "ride missing, nothing to dispatch",
				RideID:  rideID,
			})
			return nil
		}
		return fmt.Errorf("find ride: %w", err)
	}

	// idempotent re-entry guard
	if !ride.Dispatchable() {
		s.log.Info(logger.Entry{
			Action:  "dispatch_skipped_ride_progressed",
			Message: fmt.Sprintf("ride in status %s", ride.Status),
			RideID:  rideID,
		})
		return nil
	}

	// активный PENDING offer означает, что цикл уже идет
	pending, err := s.offers.HasPendingByRide(ctx, rideID)
	if err != nil {
		return fmt.Errorf("check pending offers: %w", err)
	}
	if pending {
		s.log.Debug(logger.Entry{
			Action:  "dispatch_skipped_offer_pending",
			Message: "ride already has a pending offer",
			RideID:  rideID,
		})
		return nil
	}

	attempts, err := s.offers.CountTerminalByRide(ctx, rideID)
	if err != nil {
		return fmt.Errorf("count terminal offers: %w", err)
	}
	if attempts >= s.maxAttempts {
		return s.giveUp(ctx, ride, "max dispatch attempts reached", attempts)
	}

	pickup := domain.Point{Lat: ride.PickupLat, Lng: ride.PickupLng}
	candidates := s.finder.Find(ctx, pickup, ride.NeighborhoodID)
	if len(candidates) == 0 {
		return s.giveUp(ctx, ride, "no eligible drivers found", attempts)
	}

	best := candidates[0]
	now := s.now()

	offer := &domain.Offer{
		ID:        utils.NewUUID(),
		RideID:    ride.ID,
		DriverID:  best.DriverID,
		Status:    domain.OfferStatusPending,
		RankScore: best.Score,
		ExpiresAt: now.Add(s.offerTTL),
		CreatedAt: now,
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}

	if err := s.rides.TransitionStatus(ctx, ride.ID, ride.Status, domain.RideStatusOffered, now); err != nil {
		// поездка продвинулась конкурентно — снимаем только что созданный offer
		if errors.Is(err, domain.ErrIllegalTransition) {
			_ = s.offers.Cancel(ctx, offer.ID, now)
			s.log.Warn(logger.Entry{
				Action:  "dispatch_aborted_ride_progressed",
				Message: "ride status changed concurrently, offer cancelled",
				RideID:  ride.ID,
				OfferID: offer.ID,
			})
			return nil
		}
		return fmt.Errorf("mark ride offered: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:   "offer_dispatched",
		Message:  fmt.Sprintf("attempt %d/%d", attempts+1, s.maxAttempts),
		RideID:   ride.ID,
		OfferID:  offer.ID,
		DriverID: best.DriverID,
		Additional: map[string]any{
			"candidate_count": len(candidates),
			"rank_score":      best.Score,
			"distance_km":     best.DistanceKm,
			"locality_bonus":  best.LocalityBonus,
			"expires_at":      offer.ExpiresAt,
		},
	})

	// fire-and-forget: неудача доставки не откатывает offer
	if err := s.notifier.NotifyOffer(ctx, best.DriverID, out.OfferNotification{
		OfferID:        offer.ID,
		RideID:         ride.ID,
		ExpiresAt:      offer.ExpiresAt,
		PickupLat:      ride.PickupLat,
		PickupLng:      ride.PickupLng,
		PickupAddress:  ride.PickupAddress,
		DropoffLat:     ride.DropoffLat,
		DropoffLng:     ride.DropoffLng,
		DropoffAddress: ride.DropoffAddress,
		Price:          ride.Price,
		DistanceKm:     best.DistanceKm,
	}); err != nil {
		s.log.Warn(logger.Entry{
			Action:   "offer_push_failed",
			Message:  err.Error(),
			RideID:   ride.ID,
			OfferID:  offer.ID,
			DriverID: best.DriverID,
		})
	}

	if err := s.publisher.PublishRideEvent(ctx, out.EventRideOffered, out.RideEventData{
		RideID:   ride.ID,
		DriverID: best.DriverID,
		OfferID:  offer.ID,
		Status:   domain.RideStatusOffered,
	}); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "publish_ride_offered_failed",
			Message: err.Error(),
			RideID:  ride.ID,
		})
	}

	return nil
}

// giveUp переводит поездку в NO_DRIVER
func (s *DispatchRideService) giveUp(ctx context.Context, ride *domain.Ride, reason string, attempts int) error {
	if err := s.rides.TransitionStatus(ctx, ride.ID, ride.Status, domain.RideStatusNoDriver, s.now()); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			return nil
		}
		return fmt.Errorf("mark ride no_driver: %w", err)
	}

	s.log.Info(logger.Entry{
		Action:  "ride_no_driver",
		Message: reason,
		RideID:  ride.ID,
		Additional: map[string]any{
			"attempts": attempts,
		},
	})

	if err := s.publisher.PublishRideEvent(ctx, out.EventRideNoDriver, out.RideEventData{
		RideID:      ride.ID,
		PassengerID: ride.PassengerID,
		Status:      domain.RideStatusNoDriver,
		AdditionalData: map[string]any{
			"reason":   reason,
			"attempts": attempts,
		},
	}); err != nil {
		s.log.Warn(logger.Entry{
			Action:  "publish_ride_no_driver_failed",
			Message: err.Error(),
			RideID:  ride.ID,
		})
	}

	return nil
}
