package domain

import "time"

// Offer — ограниченное по времени предложение поездки одному водителю.
// Инвариант: в любой момент у поездки не более одного offer в статусе PENDING.
type Offer struct {
	ID          string     `json:"id" db:"id"`
	RideID      string     `json:"ride_id" db:"ride_id"`
	DriverID    string     `json:"driver_id" db:"driver_id"`
	Status      string     `json:"status" db:"status"`
	RankScore   float64    `json:"rank_score" db:"rank_score"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Expired — дедлайн offer прошел (мягкий, принудительно закрывается sweep'ом)
func (o *Offer) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// Acceptance — результат атомарного принятия offer
type Acceptance struct {
	Offer      *Offer
	Ride       *Ride
	AcceptedAt time.Time
}
