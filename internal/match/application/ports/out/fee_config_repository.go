package out

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// FeeConfigRepository — хранилище конфигурации комиссий.
// Конфигурация мутабельна и читается заново при каждом расчете;
// кэширование в памяти процесса не допускается.
type FeeConfigRepository interface {
	Get(ctx context.Context) (domain.FeeConfig, error)
}
