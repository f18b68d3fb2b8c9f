package out

import (
	"context"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// RideRepository — репозиторий поездок
type RideRepository interface {
	// Create создает новую поездку
	Create(ctx context.Context, ride *domain.Ride) error

	// FindByID возвращает поездку по ID
	FindByID(ctx context.Context, rideID string) (*domain.Ride, error)

	// TransitionStatus переводит поездку from→to атомарно (WHERE status=from).
	// Возвращает domain.ErrIllegalTransition, если поездка уже не в статусе from.
	// При to=OFFERED проставляет offered_at.
	TransitionStatus(ctx context.Context, rideID, from, to string, at time.Time) error

	// UpdateFee сохраняет рассчитанную комиссию на поездке
	UpdateFee(ctx context.Context, rideID string, fb domain.FeeBreakdown) error

	// FindStrandedOffered возвращает ID поездок, застрявших в OFFERED без
	// единого PENDING offer. В нормальном потоке таких нет: состояние
	// возникает только после сбоя между закрытием offer и возвратом
	// поездки в пул.
	FindStrandedOffered(ctx context.Context) ([]string, error)
}
