package in

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

// QuoteFeeInput — запрос расчета комиссии
type QuoteFeeInput struct {
	DriverID   string  `json:"driver_id"`
	PickupLat  float64 `json:"pickup_lat"`
	PickupLng  float64 `json:"pickup_lng"`
	DropoffLat float64 `json:"dropoff_lat"`
	DropoffLng float64 `json:"dropoff_lng"`
	Fare       float64 `json:"fare"`
}

// QuoteFeeUseCase — расчет tier и комиссии для пары точек и водителя
type QuoteFeeUseCase interface {
	Execute(ctx context.Context, input QuoteFeeInput) (*domain.FeeBreakdown, error)
}
