package domain

import "time"

// Neighborhood — официальный район (bairro), верхний территориальный слой
type Neighborhood struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Polygon   Polygon   `json:"polygon" db:"polygon"`
	Center    Point     `json:"center" db:"center"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Community — комьюнити внутри района, более специфичный слой
type Community struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Polygon              Polygon   `json:"polygon" db:"polygon"`
	ParentNeighborhoodID *string   `json:"parent_neighborhood_id,omitempty" db:"parent_neighborhood_id"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// Методы резолва территории
const (
	ResolveMethodCommunity    = "community"
	ResolveMethodNeighborhood = "neighborhood"
	ResolveMethodFallback800m = "fallback_800m"
	ResolveMethodOutside      = "outside"
)

// Resolution — результат территориального резолва координаты
type Resolution struct {
	Resolved       bool          `json:"resolved"`
	Community      *Community    `json:"community,omitempty"`
	Neighborhood   *Neighborhood `json:"neighborhood,omitempty"`
	Method         string        `json:"method"`
	FallbackMeters float64       `json:"fallback_meters,omitempty"`
}

// NeighborhoodRef возвращает id района, если он зарезолвлен
func (r Resolution) NeighborhoodRef() *string {
	if r.Neighborhood == nil {
		return nil
	}
	id := r.Neighborhood.ID
	return &id
}

// CommunityRef возвращает id комьюнити, если оно зарезолвлено
func (r Resolution) CommunityRef() *string {
	if r.Community == nil {
		return nil
	}
	id := r.Community.ID
	return &id
}
