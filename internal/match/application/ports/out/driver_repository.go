package out

import (
	"context"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// OnlineDriver — водитель ONLINE со свежей локацией (join status+location)
type OnlineDriver struct {
	DriverID           string
	HomeNeighborhoodID *string
	Latitude           float64
	Longitude          float64
	LocationUpdatedAt  time.Time
}

// DriverRepository — статус и локации водителей.
// Локации пишет внешний location-фид (consumer), ядро их только читает.
type DriverRepository interface {
	// FindOnlineWithFreshLocation возвращает ONLINE водителей,
	// чья локация обновлялась не раньше since. Порядок выдачи стабилен.
	FindOnlineWithFreshLocation(ctx context.Context, since time.Time) ([]OnlineDriver, error)

	// FindStatus возвращает статус водителя
	FindStatus(ctx context.Context, driverID string) (*domain.DriverStatus, error)

	// SetAvailability обновляет доступность водителя (last-write-wins)
	SetAvailability(ctx context.Context, driverID, availability string) error

	// UpsertLocation сохраняет последнюю позицию водителя
	UpsertLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error
}
