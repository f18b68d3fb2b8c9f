package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// TerritoryPgRepository — geo-хранилище территориальных слоев поверх PostGIS.
// Point-in-polygon и расстояния считает база; полигоны в домен не
// гидрируются, наружу идут только id, имя и центр.
type TerritoryPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewTerritoryPgRepository создает новый экземпляр репозитория
func NewTerritoryPgRepository(pool *pgxpool.Pool, log *logger.Logger) *TerritoryPgRepository {
	return &TerritoryPgRepository{
		pool: pool,
		log:  log,
	}
}

// FindCommunityAt возвращает комьюнити, содержащее точку.
// При перекрытии выигрывает наименьший по площади полигон.
func (r *TerritoryPgRepository) FindCommunityAt(ctx context.Context, lng, lat float64) (*domain.Community, error) {
	query := `
		SELECT id, name, parent_neighborhood_id
		FROM communities
		WHERE ST_Contains(polygon, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY ST_Area(polygon) ASC
		LIMIT 1
	`

	community := &domain.Community{}
	err := r.pool.QueryRow(ctx, query, lng, lat).Scan(
		&community.ID,
		&community.Name,
		&community.ParentNeighborhoodID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query community at point: %w", err)
	}

	return community, nil
}

// FindNeighborhoodAt возвращает район, содержащий точку
func (r *TerritoryPgRepository) FindNeighborhoodAt(ctx context.Context, lng, lat float64) (*domain.Neighborhood, error) {
	query := `
		SELECT id, name, ST_Y(center), ST_X(center)
		FROM neighborhoods
		WHERE ST_Contains(polygon, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY ST_Area(polygon) ASC
		LIMIT 1
	`

	hood := &domain.Neighborhood{}
	err := r.pool.QueryRow(ctx, query, lng, lat).Scan(
		&hood.ID,
		&hood.Name,
		&hood.Center.Lat,
		&hood.Center.Lng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query neighborhood at point: %w", err)
	}

	return hood, nil
}

// FindNearestNeighborhood возвращает ближайший район, чей центр лежит
// в radiusM метрах от точки, и расстояние до него.
// ST_DWithin по geography дает метры и использует GIST индекс.
func (r *TerritoryPgRepository) FindNearestNeighborhood(ctx context.Context, lng, lat, radiusM float64) (*domain.Neighborhood, float64, error) {
	query := `
		SELECT id, name, ST_Y(center), ST_X(center),
		       ST_Distance(center::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		FROM neighborhoods
		WHERE ST_DWithin(center::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY center::geography <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		LIMIT 1
	`

	hood := &domain.Neighborhood{}
	var meters float64
	err := r.pool.QueryRow(ctx, query, lng, lat, radiusM).Scan(
		&hood.ID,
		&hood.Name,
		&hood.Center.Lat,
		&hood.Center.Lng,
		&meters,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("query nearest neighborhood: %w", err)
	}

	return hood, meters, nil
}

// FindNeighborhoodByID возвращает район по ID
func (r *TerritoryPgRepository) FindNeighborhoodByID(ctx context.Context, id string) (*domain.Neighborhood, error) {
	query := `SELECT id, name, ST_Y(center), ST_X(center) FROM neighborhoods WHERE id = $1`

	hood := &domain.Neighborhood{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&hood.ID,
		&hood.Name,
		&hood.Center.Lat,
		&hood.Center.Lng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query neighborhood by id: %w", err)
	}

	return hood, nil
}
