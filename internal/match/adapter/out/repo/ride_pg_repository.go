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

// RidePgRepository — PostgreSQL репозиторий поездок
type RidePgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewRidePgRepository создает новый экземпляр репозитория
func NewRidePgRepository(pool *pgxpool.Pool, log *logger.Logger) *RidePgRepository {
	return &RidePgRepository{
		pool: pool,
		log:  log,
	}
}

const rideColumns = `
	id, passenger_id, driver_id, status,
	pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address,
	neighborhood_id, community_id, dropoff_neighborhood_id,
	price, fee_tier, fee_pct, fee_amount, driver_earnings,
	requested_at, offered_at, accepted_at, created_at, updated_at
`

func scanRide(row pgx.Row) (*domain.Ride, error) {
	ride := &domain.Ride{}
	err := row.Scan(
		&ride.ID,
		&ride.PassengerID,
		&ride.DriverID,
		&ride.Status,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.PickupAddress,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.DropoffAddress,
		&ride.NeighborhoodID,
		&ride.CommunityID,
		&ride.DropoffNeighborhoodID,
		&ride.Price,
		&ride.FeeTier,
		&ride.FeePct,
		&ride.FeeAmount,
		&ride.DriverEarnings,
		&ride.RequestedAt,
		&ride.OfferedAt,
		&ride.AcceptedAt,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// Create создает новую поездку
func (r *RidePgRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (
			id, passenger_id, status,
			pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			neighborhood_id, community_id, dropoff_neighborhood_id,
			price, requested_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.Status,
		ride.PickupLat,
		ride.PickupLng,
		ride.PickupAddress,
		ride.DropoffLat,
		ride.DropoffLng,
		ride.DropoffAddress,
		ride.NeighborhoodID,
		ride.CommunityID,
		ride.DropoffNeighborhoodID,
		ride.Price,
		ride.RequestedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_create_ride_failed",
			Message: err.Error(),
			RideID:  ride.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert ride: %w", err)
	}

	return nil
}

// FindByID возвращает поездку по ID
func (r *RidePgRepository) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.pool.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRideNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_find_ride_by_id_failed",
			Message: err.Error(),
			RideID:  rideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query ride by id: %w", err)
	}

	return ride, nil
}

// TransitionStatus переводит поездку from→to атомарно.
// Условие WHERE status = from служит compare-and-swap: ноль затронутых строк
// означает, что поездка уже в другом статусе.
func (r *RidePgRepository) TransitionStatus(ctx context.Context, rideID, from, to string, at time.Time) error {
	if !domain.CanRideTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, to)
	}

	query := `
		UPDATE rides SET
			status = $3,
			offered_at = CASE WHEN $3 = 'OFFERED' THEN $4 ELSE offered_at END,
			accepted_at = CASE WHEN $3 = 'ACCEPTED' THEN $4 ELSE accepted_at END,
			updated_at = $4
		WHERE id = $1
		  AND status = $2
	`

	result, err := r.pool.Exec(ctx, query, rideID, from, to, at)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_transition_ride_failed",
			Message: err.Error(),
			RideID:  rideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("transition ride status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: ride %s is no longer %s", domain.ErrIllegalTransition, rideID, from)
	}

	return nil
}

// UpdateFee сохраняет рассчитанную комиссию на поездке
func (r *RidePgRepository) UpdateFee(ctx context.Context, rideID string, fb domain.FeeBreakdown) error {
	query := `
		UPDATE rides SET
			fee_tier = $2,
			fee_pct = $3,
			fee_amount = $4,
			driver_earnings = $5,
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, rideID, fb.Tier, fb.FeePct, fb.FeeAmount, fb.DriverEarnings)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_update_fee_failed",
			Message: err.Error(),
			RideID:  rideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("update ride fee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRideNotFound
	}

	return nil
}

// FindStrandedOffered возвращает ID поездок в OFFERED без активного offer.
// Диспетчеризация создает offer ДО перевода поездки в OFFERED, поэтому
// такие пары в нормальном потоке не встречаются.
func (r *RidePgRepository) FindStrandedOffered(ctx context.Context) ([]string, error) {
	query := `
		SELECT r.id
		FROM rides r
		WHERE r.status = 'OFFERED'
		  AND NOT EXISTS (
			SELECT 1 FROM offers o
			WHERE o.ride_id = r.id
			  AND o.status = 'PENDING'
		  )
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_find_stranded_rides_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query stranded rides: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stranded ride id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
