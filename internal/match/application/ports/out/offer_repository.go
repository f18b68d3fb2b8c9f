package out

import (
	"context"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// OfferRepository — репозиторий offers.
// Accept и Reject выполняются одной транзакцией на стороне хранилища:
// проверка статуса и его изменение изолированы от конкурентных вызовов
// (compare-and-swap), частичное применение шагов недопустимо.
type OfferRepository interface {
	// Create создает новый PENDING offer
	Create(ctx context.Context, offer *domain.Offer) error

	// FindByID возвращает offer по ID
	FindByID(ctx context.Context, offerID string) (*domain.Offer, error)

	// CountTerminalByRide считает терминальные (EXPIRED ∪ REJECTED) offers поездки
	CountTerminalByRide(ctx context.Context, rideID string) (int, error)

	// HasPendingByRide проверяет наличие активного PENDING offer у поездки
	HasPendingByRide(ctx context.Context, rideID string) (bool, error)

	// ExpireDue помечает все PENDING offers с expires_at < now как EXPIRED
	// и возвращает их
	ExpireDue(ctx context.Context, now time.Time) ([]*domain.Offer, error)

	// Cancel помечает offer отмененным, если он еще PENDING (no-op иначе)
	Cancel(ctx context.Context, offerID string, now time.Time) error

	// Accept атомарно принимает offer: проверки владельца/статуса/дедлайна,
	// отмена прочих pending offers поездки, ride→ACCEPTED + driver_id,
	// водитель→BUSY. Ошибки: domain.ErrOfferNotFound, domain.ErrNotOfferOwner,
	// domain.ErrOfferNotPending, domain.ErrOfferExpired.
	Accept(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Acceptance, error)

	// Reject атомарно отклоняет offer (те же проверки владельца и PENDING);
	// поездка OFFERED→REQUESTED для повторной диспетчеризации.
	Reject(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Offer, error)
}
