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

// RejectOfferService — отклонение offer водителем.
// Отклоненный offer терминален и идет в счетчик попыток; поездка
// возвращается в REQUESTED и немедленно диспетчеризуется снова.
type RejectOfferService struct {
	offers   out.OfferRepository
	dispatch in.DispatchRideUseCase

	log *logger.Logger
	now func() time.Time
}

// NewRejectOfferService создает сервис отклонения offers
func NewRejectOfferService(offers out.OfferRepository, dispatch in.DispatchRideUseCase, log *logger.Logger) *RejectOfferService {
	return &RejectOfferService{
		offers:   offers,
		dispatch: dispatch,
		log:      log,
		now:      time.Now,
	}
}

// Execute отклоняет offer от имени водителя
func (s *RejectOfferService) Execute(ctx context.Context, input in.RejectOfferInput) error {
	if input.OfferID == "" || input.DriverID == "" {
		return fmt.Errorf("%w: offer_id and driver_id are required", domain.ErrOfferNotFound)
	}

	offer, err := s.offers.Reject(ctx, input.OfferID, input.DriverID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrOfferNotPending) || errors.Is(err, domain.ErrOfferExpired) || errors.Is(err, domain.ErrOfferNotFound) {
			// offer уже истек/отменен — reject опоздал, это не ошибка потока
			s.log.Warn(logger.Entry{
				Action:   "offer_reject_conflict",
				Message:  err.Error(),
				OfferID:  input.OfferID,
				DriverID: input.DriverID,
			})
		}
		return err
	}

	s.log.Info(logger.Entry{
		Action:   "offer_rejected",
		Message:  input.Reason,
		RideID:   offer.RideID,
		OfferID:  offer.ID,
		DriverID: input.DriverID,
	})

	// следующая попытка сразу же; потолок применяется внутри dispatch
	if err := s.dispatch.Execute(ctx, offer.RideID); err != nil {
		s.log.Error(logger.Entry{
			Action:  "redispatch_after_reject_failed",
			Message: err.Error(),
			RideID:  offer.RideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	return nil
}
