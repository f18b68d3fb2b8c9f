package in

import "context"

// AcceptOfferInput — ответ водителя "принимаю"
type AcceptOfferInput struct {
	OfferID  string `json:"offer_id"`
	DriverID string `json:"driver_id"`
}

// AcceptOfferOutput — результат принятия offer
type AcceptOfferOutput struct {
	RideID         string  `json:"ride_id"`
	PassengerID    string  `json:"passenger_id"`
	Status         string  `json:"status"`
	FeeTier        string  `json:"fee_tier"`
	FeePct         float64 `json:"fee_pct"`
	DriverEarnings float64 `json:"driver_earnings"`
}

// AcceptOfferUseCase — атомарное принятие offer водителем.
// При конкурентных вызовах выигрывает ровно один.
type AcceptOfferUseCase interface {
	Execute(ctx context.Context, input AcceptOfferInput) (*AcceptOfferOutput, error)
}

// RejectOfferInput — ответ водителя "отклоняю"
type RejectOfferInput struct {
	OfferID  string `json:"offer_id"`
	DriverID string `json:"driver_id"`
	Reason   string `json:"reason,omitempty"`
}

// RejectOfferUseCase — отклонение offer с повторной диспетчеризацией поездки
type RejectOfferUseCase interface {
	Execute(ctx context.Context, input RejectOfferInput) error
}
