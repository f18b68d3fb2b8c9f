package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// OfferPgRepository — PostgreSQL репозиторий offers.
// Accept и Reject выполняются одной транзакцией: SELECT ... FOR UPDATE
// на строке offer сериализует конкурентные ответы водителей.
type OfferPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewOfferPgRepository создает новый экземпляр репозитория
func NewOfferPgRepository(pool *pgxpool.Pool, log *logger.Logger) *OfferPgRepository {
	return &OfferPgRepository{
		pool: pool,
		log:  log,
	}
}

const offerColumns = `id, ride_id, driver_id, status, rank_score, expires_at, responded_at, created_at`

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	offer := &domain.Offer{}
	err := row.Scan(
		&offer.ID,
		&offer.RideID,
		&offer.DriverID,
		&offer.Status,
		&offer.RankScore,
		&offer.ExpiresAt,
		&offer.RespondedAt,
		&offer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Create создает новый PENDING offer.
// Частичный уникальный индекс на (ride_id) WHERE status='PENDING'
// отвергает второй активный offer той же поездки.
func (r *OfferPgRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (id, ride_id, driver_id, status, rank_score, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		offer.ID,
		offer.RideID,
		offer.DriverID,
		offer.Status,
		offer.RankScore,
		offer.ExpiresAt,
		offer.CreatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_create_offer_failed",
			Message: err.Error(),
			RideID:  offer.RideID,
			OfferID: offer.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert offer: %w", err)
	}

	return nil
}

// FindByID возвращает offer по ID
func (r *OfferPgRepository) FindByID(ctx context.Context, offerID string) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	offer, err := scanOffer(r.pool.QueryRow(ctx, query, offerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("query offer by id: %w", err)
	}

	return offer, nil
}

// CountTerminalByRide считает истекшие и отклоненные offers поездки.
// Отмененные (CANCELLED) в потолок попыток не входят.
func (r *OfferPgRepository) CountTerminalByRide(ctx context.Context, rideID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM offers
		WHERE ride_id = $1
		  AND status IN ('EXPIRED', 'REJECTED')
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, rideID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count terminal offers: %w", err)
	}

	return count, nil
}

// HasPendingByRide проверяет наличие активного PENDING offer у поездки
func (r *OfferPgRepository) HasPendingByRide(ctx context.Context, rideID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM offers WHERE ride_id = $1 AND status = 'PENDING')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, rideID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending offer: %w", err)
	}

	return exists, nil
}

// ExpireDue помечает просроченные PENDING offers как EXPIRED и возвращает их
func (r *OfferPgRepository) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Offer, error) {
	query := `
		UPDATE offers SET
			status = 'EXPIRED',
			responded_at = $1
		WHERE status = 'PENDING'
		  AND expires_at < $1
		RETURNING ` + offerColumns

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_expire_offers_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("expire due offers: %w", err)
	}
	defer rows.Close()

	var expired []*domain.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired offer: %w", err)
		}
		expired = append(expired, offer)
	}

	return expired, rows.Err()
}

// Cancel помечает offer отмененным, если он еще PENDING
func (r *OfferPgRepository) Cancel(ctx context.Context, offerID string, now time.Time) error {
	query := `
		UPDATE offers SET
			status = 'CANCELLED',
			responded_at = $2
		WHERE id = $1
		  AND status = 'PENDING'
	`

	if _, err := r.pool.Exec(ctx, query, offerID, now); err != nil {
		return fmt.Errorf("cancel offer: %w", err)
	}

	return nil
}

// Accept атомарно принимает offer. Все шаги идут одной транзакцией:
//  1. строка offer блокируется FOR UPDATE;
//  2. проверки владельца, статуса PENDING и дедлайна;
//  3. offer → ACCEPTED;
//  4. прочие PENDING offers поездки → CANCELLED;
//  5. поездка OFFERED → ACCEPTED с назначением driver_id;
//  6. водитель → BUSY.
//
// Истекший по времени, но еще не свипнутый offer отказом не закрывается:
// его терминальный статус и возврат поездки в пул принадлежат sweep'у.
func (r *OfferPgRepository) Accept(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Acceptance, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	offer, err := r.lockOffer(ctx, tx, offerID, driverID, now)
	if err != nil {
		return nil, err
	}

	offer.Status = domain.OfferStatusAccepted
	offer.RespondedAt = &now
	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'ACCEPTED', responded_at = $2 WHERE id = $1`,
		offerID, now,
	); err != nil {
		return nil, fmt.Errorf("mark offer accepted: %w", err)
	}

	// защитная отмена: при соблюдении инварианта "один PENDING на поездку"
	// это no-op
	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'CANCELLED', responded_at = $2
		 WHERE ride_id = $1 AND status = 'PENDING'`,
		offer.RideID, now,
	); err != nil {
		return nil, fmt.Errorf("cancel sibling offers: %w", err)
	}

	result, err := tx.Exec(ctx,
		`UPDATE rides SET
			status = 'ACCEPTED',
			driver_id = $2,
			accepted_at = $3,
			updated_at = $3
		 WHERE id = $1
		   AND status = 'OFFERED'`,
		offer.RideID, driverID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("assign driver to ride: %w", err)
	}
	if result.RowsAffected() == 0 {
		// поездка ушла из OFFERED (отмена пассажиром, гонка со sweep'ом)
		return nil, fmt.Errorf("%w: ride %s is not OFFERED", domain.ErrOfferNotPending, offer.RideID)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO driver_status (driver_id, availability, updated_at)
		 VALUES ($1, 'BUSY', $2)
		 ON CONFLICT (driver_id) DO UPDATE SET availability = 'BUSY', updated_at = $2`,
		driverID, now,
	); err != nil {
		return nil, fmt.Errorf("mark driver busy: %w", err)
	}

	ride, err := scanRide(tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, offer.RideID))
	if err != nil {
		return nil, fmt.Errorf("reload accepted ride: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit accept tx: %w", err)
	}

	return &domain.Acceptance{Offer: offer, Ride: ride, AcceptedAt: now}, nil
}

// Reject атомарно отклоняет offer; поездка возвращается в REQUESTED
func (r *OfferPgRepository) Reject(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Offer, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin reject tx: %w", err)
	}
	defer tx.Rollback(ctx)

	offer, err := r.lockOffer(ctx, tx, offerID, driverID, now)
	if err != nil {
		return nil, err
	}

	offer.Status = domain.OfferStatusRejected
	offer.RespondedAt = &now
	if _, err := tx.Exec(ctx,
		`UPDATE offers SET status = 'REJECTED', responded_at = $2 WHERE id = $1`,
		offerID, now,
	); err != nil {
		return nil, fmt.Errorf("mark offer rejected: %w", err)
	}

	// поездка возвращается в пул; если она уже не OFFERED, ничего не трогаем
	if _, err := tx.Exec(ctx,
		`UPDATE rides SET status = 'REQUESTED', updated_at = $2
		 WHERE id = $1 AND status = 'OFFERED'`,
		offer.RideID, now,
	); err != nil {
		return nil, fmt.Errorf("requeue ride: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reject tx: %w", err)
	}

	return offer, nil
}

// lockOffer блокирует строку offer и выполняет общие для accept/reject
// проверки владельца, статуса и дедлайна
func (r *OfferPgRepository) lockOffer(ctx context.Context, tx pgx.Tx, offerID, driverID string, now time.Time) (*domain.Offer, error) {
	offer, err := scanOffer(tx.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`,
		offerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("lock offer: %w", err)
	}

	if offer.DriverID != driverID {
		return nil, domain.ErrNotOfferOwner
	}
	if offer.Status != domain.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer %s is %s", domain.ErrOfferNotPending, offerID, offer.Status)
	}
	if offer.Expired(now) {
		// ответ опоздал: offer остается PENDING, его закроет sweep —
		// он же вернет поездку в REQUESTED и перезапустит диспетчеризацию
		return nil, domain.ErrOfferExpired
	}

	return offer, nil
}
