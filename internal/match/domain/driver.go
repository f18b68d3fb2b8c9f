package domain

import "time"

// DriverStatus — доступность водителя и его территориальная привязка.
// Availability мутируется acceptance-транзакцией (→BUSY) и внешним
// коллаборатором после завершения поездки (→ONLINE).
type DriverStatus struct {
	DriverID           string    `json:"driver_id" db:"driver_id"`
	Availability       string    `json:"availability" db:"availability"`
	HomeNeighborhoodID *string   `json:"home_neighborhood_id,omitempty" db:"home_neighborhood_id"`
	VirtualCenter      *Point    `json:"virtual_center,omitempty"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// DriverLocation — последняя известная позиция водителя.
// Пишется внешним location-фидом, ядро ее только читает.
type DriverLocation struct {
	DriverID  string    `json:"driver_id" db:"driver_id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Candidate — водитель-кандидат на offer с посчитанным score.
// Меньший score выигрывает.
type Candidate struct {
	DriverID           string  `json:"driver_id"`
	DistanceKm         float64 `json:"distance_km"`
	Score              float64 `json:"score"`
	HomeNeighborhoodID *string `json:"home_neighborhood_id,omitempty"`
	LocalityBonus      bool    `json:"locality_bonus"`
}
