package in

import "context"

// DispatchRideUseCase — одна попытка диспетчеризации поездки.
// Вызов идемпотентен: поездка вне {REQUESTED, OFFERED} — no-op.
type DispatchRideUseCase interface {
	Execute(ctx context.Context, rideID string) error
}
