package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// DriverPgRepository — PostgreSQL репозиторий статусов и локаций водителей
type DriverPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewDriverPgRepository создает новый экземпляр репозитория
func NewDriverPgRepository(pool *pgxpool.Pool, log *logger.Logger) *DriverPgRepository {
	return &DriverPgRepository{
		pool: pool,
		log:  log,
	}
}

// FindOnlineWithFreshLocation возвращает ONLINE водителей со свежей локацией.
// ORDER BY driver_id дает стабильный порядок для детерминированного ранжирования.
func (r *DriverPgRepository) FindOnlineWithFreshLocation(ctx context.Context, since time.Time) ([]out.OnlineDriver, error) {
	query := `
		SELECT s.driver_id, s.home_neighborhood_id, l.latitude, l.longitude, l.updated_at
		FROM driver_status s
		JOIN driver_locations l ON l.driver_id = s.driver_id
		WHERE s.availability = 'ONLINE'
		  AND l.updated_at >= $1
		ORDER BY s.driver_id
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_find_online_drivers_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query online drivers: %w", err)
	}
	defer rows.Close()

	var drivers []out.OnlineDriver
	for rows.Next() {
		var d out.OnlineDriver
		if err := rows.Scan(&d.DriverID, &d.HomeNeighborhoodID, &d.Latitude, &d.Longitude, &d.LocationUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan online driver: %w", err)
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}

// FindStatus возвращает статус водителя
func (r *DriverPgRepository) FindStatus(ctx context.Context, driverID string) (*domain.DriverStatus, error) {
	query := `
		SELECT driver_id, availability, home_neighborhood_id,
		       virtual_center_lat, virtual_center_lng, updated_at
		FROM driver_status
		WHERE driver_id = $1
	`

	status := &domain.DriverStatus{}
	var vcLat, vcLng *float64
	err := r.pool.QueryRow(ctx, query, driverID).Scan(
		&status.DriverID,
		&status.Availability,
		&status.HomeNeighborhoodID,
		&vcLat,
		&vcLng,
		&status.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDriverNotFound
		}
		return nil, fmt.Errorf("query driver status: %w", err)
	}

	if vcLat != nil && vcLng != nil {
		status.VirtualCenter = &domain.Point{Lat: *vcLat, Lng: *vcLng}
	}

	return status, nil
}

// SetAvailability обновляет доступность водителя (last-write-wins)
func (r *DriverPgRepository) SetAvailability(ctx context.Context, driverID, availability string) error {
	query := `
		INSERT INTO driver_status (driver_id, availability, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (driver_id) DO UPDATE SET availability = $2, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, driverID, availability); err != nil {
		r.log.Error(logger.Entry{
			Action:   "db_set_availability_failed",
			Message:  err.Error(),
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("set driver availability: %w", err)
	}

	return nil
}

// UpsertLocation сохраняет последнюю позицию водителя.
// Условие l.updated_at < $4 отбрасывает устаревшие сообщения фида.
func (r *DriverPgRepository) UpsertLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	query := `
		INSERT INTO driver_locations (driver_id, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id) DO UPDATE
		SET latitude = $2, longitude = $3, updated_at = $4
		WHERE driver_locations.updated_at < $4
	`

	if _, err := r.pool.Exec(ctx, query, driverID, lat, lng, at); err != nil {
		return fmt.Errorf("upsert driver location: %w", err)
	}

	return nil
}
