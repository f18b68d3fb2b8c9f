package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// ExpireOffersService — периодический sweep истекших offers.
// Это единственный механизм повтора диспетчеризации: истекший offer
// возвращает поездку в REQUESTED и повторно вызывает dispatch
// (потолок попыток применяется внутри dispatch).
type ExpireOffersService struct {
	offers    out.OfferRepository
	rides     out.RideRepository
	dispatch  in.DispatchRideUseCase
	notifier  out.OfferNotifier
	publisher out.EventPublisher

	log *logger.Logger
	now func() time.Time
}

// NewExpireOffersService создает sweep-сервис
func NewExpireOffersService(
	offers out.OfferRepository,
	rides out.RideRepository,
	dispatch in.DispatchRideUseCase,
	notifier out.OfferNotifier,
	publisher out.EventPublisher,
	log *logger.Logger,
) *ExpireOffersService {
	return &ExpireOffersService{
		offers:    offers,
		rides:     rides,
		dispatch:  dispatch,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Sweep помечает истекшие PENDING offers как EXPIRED и перезапускает
// диспетчеризацию их поездок, затем подбирает поездки, застрявшие в
// OFFERED без активного offer. Ошибки логируются, sweep не падает.
// Возвращает количество истекших offers.
func (s *ExpireOffersService) Sweep(ctx context.Context) int {
	now := s.now()

	expired, err := s.offers.ExpireDue(ctx, now)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "expire_sweep_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return 0
	}

	for _, offer := range expired {
		s.log.Info(logger.Entry{
			Action:   "offer_expired",
			Message:  "offer deadline passed",
			RideID:   offer.RideID,
			OfferID:  offer.ID,
			DriverID: offer.DriverID,
		})

		// best-effort: сообщаем водителю, что offer больше не действителен
		if err := s.notifier.NotifyOfferRevoked(ctx, offer.DriverID, offer.ID, "expired"); err != nil {
			s.log.Debug(logger.Entry{
				Action:   "offer_revoke_push_failed",
				Message:  err.Error(),
				OfferID:  offer.ID,
				DriverID: offer.DriverID,
			})
		}

		if err := s.publisher.PublishRideEvent(ctx, out.EventRideOfferExpired, out.RideEventData{
			RideID:   offer.RideID,
			DriverID: offer.DriverID,
			OfferID:  offer.ID,
			Status:   domain.RideStatusRequested,
		}); err != nil {
			s.log.Warn(logger.Entry{
				Action:  "publish_offer_expired_failed",
				Message: err.Error(),
				RideID:  offer.RideID,
			})
		}

		// поездка возвращается в REQUESTED, если она все еще OFFERED
		err := s.rides.TransitionStatus(ctx, offer.RideID, domain.RideStatusOffered, domain.RideStatusRequested, now)
		if err != nil {
			if errors.Is(err, domain.ErrIllegalTransition) {
				// поездка уже продвинулась (принята/отменена) — пропускаем
				continue
			}
			s.log.Error(logger.Entry{
				Action:  "expire_reset_ride_failed",
				Message: err.Error(),
				RideID:  offer.RideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			continue
		}

		if err := s.dispatch.Execute(ctx, offer.RideID); err != nil {
			s.log.Error(logger.Entry{
				Action:  "redispatch_failed",
				Message: err.Error(),
				RideID:  offer.RideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}

	s.recoverStranded(ctx, now)

	return len(expired)
}

// recoverStranded возвращает в пул поездки, оставшиеся в OFFERED без
// активного offer: так выглядит след любого сбоя между закрытием offer
// и возвратом поездки в REQUESTED. Каждый sweep повторяет попытку,
// пока возврат не удастся.
func (s *ExpireOffersService) recoverStranded(ctx context.Context, now time.Time) {
	stranded, err := s.rides.FindStrandedOffered(ctx)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "stranded_ride_scan_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	for _, rideID := range stranded {
		err := s.rides.TransitionStatus(ctx, rideID, domain.RideStatusOffered, domain.RideStatusRequested, now)
		if err != nil {
			if errors.Is(err, domain.ErrIllegalTransition) {
				// поездка продвинулась между выборкой и CAS
				continue
			}
			s.log.Error(logger.Entry{
				Action:  "stranded_ride_reset_failed",
				Message: err.Error(),
				RideID:  rideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			continue
		}

		s.log.Warn(logger.Entry{
			Action:  "stranded_ride_recovered",
			Message: "ride was OFFERED with no pending offer, requeued",
			RideID:  rideID,
		})

		if err := s.dispatch.Execute(ctx, rideID); err != nil {
			s.log.Error(logger.Entry{
				Action:  "redispatch_failed",
				Message: err.Error(),
				RideID:  rideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}
}

// Run запускает периодический sweep до отмены контекста
func (s *ExpireOffersService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info(logger.Entry{
		Action:  "expire_sweep_started",
		Message: interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.log.Info(logger.Entry{Action: "expire_sweep_stopped", Message: "context cancelled"})
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
