package usecase

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// ReleaseDriverService возвращает водителя в пул после завершения поездки.
// Вызывается consumer'ом событий ride.completed; идемпотентен.
type ReleaseDriverService struct {
	drivers out.DriverRepository
	log     *logger.Logger
}

// NewReleaseDriverService создает сервис освобождения водителей
func NewReleaseDriverService(drivers out.DriverRepository, log *logger.Logger) *ReleaseDriverService {
	return &ReleaseDriverService{drivers: drivers, log: log}
}

// Execute переводит водителя BUSY→ONLINE
func (s *ReleaseDriverService) Execute(ctx context.Context, driverID, rideID string) error {
	if driverID == "" {
		return domain.ErrDriverNotFound
	}

	if err := s.drivers.SetAvailability(ctx, driverID, domain.DriverOnline); err != nil {
		s.log.Error(logger.Entry{
			Action:   "driver_release_failed",
			Message:  err.Error(),
			RideID:   rideID,
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
		return err
	}

	s.log.Info(logger.Entry{
		Action:   "driver_released",
		Message:  "driver back to online pool",
		RideID:   rideID,
		DriverID: driverID,
	})
	return nil
}
