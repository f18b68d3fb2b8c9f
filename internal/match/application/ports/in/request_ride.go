package in

import "context"

// RequestRideInput — входные данные для создания поездки
type RequestRideInput struct {
	PassengerID    string  `json:"passenger_id"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	DropoffAddress string  `json:"dropoff_address"`
	Price          float64 `json:"price"`
}

// RequestRideOutput — результат создания поездки
type RequestRideOutput struct {
	RideID              string  `json:"ride_id"`
	Status              string  `json:"status"`
	PickupMethod        string  `json:"pickup_resolve_method"`
	PickupNeighborhood  *string `json:"pickup_neighborhood_id,omitempty"`
	PickupCommunity     *string `json:"pickup_community_id,omitempty"`
	DropoffMethod       string  `json:"dropoff_resolve_method"`
	DropoffNeighborhood *string `json:"dropoff_neighborhood_id,omitempty"`
}

// RequestRideUseCase — создание поездки с фиксацией территориальных привязок
type RequestRideUseCase interface {
	Execute(ctx context.Context, input RequestRideInput) (*RequestRideOutput, error)
}
