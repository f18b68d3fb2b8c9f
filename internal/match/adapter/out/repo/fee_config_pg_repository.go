package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// FeeConfigPgRepository читает единственную запись fee_config.
// Намеренно без кэша: админские правки процентов действуют
// со следующего расчета.
type FeeConfigPgRepository struct {
	pool *pgxpool.Pool
}

// NewFeeConfigPgRepository создает новый экземпляр репозитория
func NewFeeConfigPgRepository(pool *pgxpool.Pool) *FeeConfigPgRepository {
	return &FeeConfigPgRepository{pool: pool}
}

// Get возвращает текущую конфигурацию комиссий
func (r *FeeConfigPgRepository) Get(ctx context.Context) (domain.FeeConfig, error) {
	query := `
		SELECT same_neighborhood_pct, adjacent_pct, fallback_pct, outside_pct
		FROM fee_config
		WHERE id = 1
	`

	var cfg domain.FeeConfig
	err := r.pool.QueryRow(ctx, query).Scan(
		&cfg.SameNeighborhoodPct,
		&cfg.AdjacentPct,
		&cfg.FallbackPct,
		&cfg.OutsidePct,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FeeConfig{}, fmt.Errorf("%w: fee_config row missing", domain.ErrInvalidFeeConfig)
		}
		return domain.FeeConfig{}, fmt.Errorf("query fee config: %w", err)
	}

	return cfg, nil
}
