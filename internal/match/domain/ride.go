package domain

import "time"

// Ride представляет поездку в рамках матчинга.
// Территориальные привязки (NeighborhoodID, CommunityID) фиксируются один раз
// при создании и далее не меняются; цена и адреса принадлежат внешнему
// ride-management и этим ядром не мутируются.
type Ride struct {
	ID                    string     `json:"id" db:"id"`
	PassengerID           string     `json:"passenger_id" db:"passenger_id"`
	DriverID              *string    `json:"driver_id,omitempty" db:"driver_id"`
	Status                string     `json:"status" db:"status"`
	PickupLat             float64    `json:"pickup_lat" db:"pickup_lat"`
	PickupLng             float64    `json:"pickup_lng" db:"pickup_lng"`
	PickupAddress         string     `json:"pickup_address" db:"pickup_address"`
	DropoffLat            float64    `json:"dropoff_lat" db:"dropoff_lat"`
	DropoffLng            float64    `json:"dropoff_lng" db:"dropoff_lng"`
	DropoffAddress        string     `json:"dropoff_address" db:"dropoff_address"`
	NeighborhoodID        *string    `json:"neighborhood_id,omitempty" db:"neighborhood_id"`
	CommunityID           *string    `json:"community_id,omitempty" db:"community_id"`
	DropoffNeighborhoodID *string    `json:"dropoff_neighborhood_id,omitempty" db:"dropoff_neighborhood_id"`
	Price                 float64    `json:"price" db:"price"`
	FeeTier               *string    `json:"fee_tier,omitempty" db:"fee_tier"`
	FeePct                *float64   `json:"fee_pct,omitempty" db:"fee_pct"`
	FeeAmount             *float64   `json:"fee_amount,omitempty" db:"fee_amount"`
	DriverEarnings        *float64   `json:"driver_earnings,omitempty" db:"driver_earnings"`
	RequestedAt           time.Time  `json:"requested_at" db:"requested_at"`
	OfferedAt             *time.Time `json:"offered_at,omitempty" db:"offered_at"`
	AcceptedAt            *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// Dispatchable — поездка участвует в цикле диспетчеризации
func (r *Ride) Dispatchable() bool {
	return r.Status == RideStatusRequested || r.Status == RideStatusOffered
}
