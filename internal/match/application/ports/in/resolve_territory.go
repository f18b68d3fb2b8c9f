package in

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// ResolveTerritoryUseCase — резолв координаты в территорию
type ResolveTerritoryUseCase interface {
	Resolve(ctx context.Context, lng, lat float64) domain.Resolution
}
