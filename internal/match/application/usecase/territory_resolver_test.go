package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

func squareAround(lat, lng, half float64) domain.Polygon {
	return domain.Polygon{
		{Lat: lat - half, Lng: lng - half},
		{Lat: lat - half, Lng: lng + half},
		{Lat: lat + half, Lng: lng + half},
		{Lat: lat + half, Lng: lng - half},
	}
}

func rioTerritories() *fakeTerritoryRepo {
	parent := "hood-copacabana"
	return &fakeTerritoryRepo{
		neighborhoods: []domain.Neighborhood{
			{
				ID:      "hood-copacabana",
				Name:    "Copacabana",
				Polygon: squareAround(-22.97, -43.19, 0.02),
				Center:  domain.Point{Lat: -22.97, Lng: -43.19},
			},
			{
				ID:      "hood-ipanema",
				Name:    "Ipanema",
				Polygon: squareAround(-22.984, -43.215, 0.004),
				Center:  domain.Point{Lat: -22.984, Lng: -43.215},
			},
		},
		communities: []domain.Community{
			{
				ID:                   "comm-pavao",
				Name:                 "Pavao-Pavaozinho",
				Polygon:              squareAround(-22.975, -43.193, 0.003),
				ParentNeighborhoodID: &parent,
			},
		},
	}
}

func TestResolveCommunityWins(t *testing.T) {
	repo := rioTerritories()
	r := NewTerritoryResolver(repo, 800, testLogger())

	// точка внутри комьюнити и внутри объемлющего района
	res := r.Resolve(context.Background(), -43.193, -22.975)

	require.True(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodCommunity, res.Method)
	require.NotNil(t, res.Community)
	assert.Equal(t, "comm-pavao", res.Community.ID)
	require.NotNil(t, res.Neighborhood)
	assert.Equal(t, "hood-copacabana", res.Neighborhood.ID)
}

func TestResolveNeighborhoodLayer(t *testing.T) {
	repo := rioTerritories()
	r := NewTerritoryResolver(repo, 800, testLogger())

	// внутри района, вне всех комьюнити
	res := r.Resolve(context.Background(), -43.215, -22.984)

	require.True(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodNeighborhood, res.Method)
	assert.Equal(t, "hood-ipanema", res.Neighborhood.ID)
	assert.Nil(t, res.Community)
}

func TestResolveSmallestPolygonWins(t *testing.T) {
	repo := rioTerritories()
	// большой район, полностью накрывающий Ипанему
	repo.neighborhoods = append(repo.neighborhoods, domain.Neighborhood{
		ID:      "hood-zona-sul",
		Name:    "Zona Sul",
		Polygon: squareAround(-22.98, -43.20, 0.1),
		Center:  domain.Point{Lat: -22.98, Lng: -43.20},
	})
	r := NewTerritoryResolver(repo, 800, testLogger())

	res := r.Resolve(context.Background(), -43.215, -22.984)

	require.True(t, res.Resolved)
	assert.Equal(t, "hood-ipanema", res.Neighborhood.ID)
}

func TestResolveFallbackRadius(t *testing.T) {
	repo := rioTerritories()
	r := NewTerritoryResolver(repo, 800, testLogger())

	// чуть южнее границы Ипанемы: вне полигонов, но центр района ближе 800м
	res := r.Resolve(context.Background(), -43.215, -22.9895)

	require.True(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodFallback800m, res.Method)
	assert.Equal(t, "hood-ipanema", res.Neighborhood.ID)
	assert.Greater(t, res.FallbackMeters, 0.0)
	assert.LessOrEqual(t, res.FallbackMeters, 800.0)
}

func TestResolveOutside(t *testing.T) {
	repo := rioTerritories()
	r := NewTerritoryResolver(repo, 800, testLogger())

	// далеко от всех территорий
	res := r.Resolve(context.Background(), -43.5, -23.2)

	assert.False(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodOutside, res.Method)
	assert.Nil(t, res.Neighborhood)
	assert.Nil(t, res.Community)
}

func TestResolveInvalidCoordinatesShortCircuit(t *testing.T) {
	repo := rioTerritories()
	r := NewTerritoryResolver(repo, 800, testLogger())

	res := r.Resolve(context.Background(), -43.19, 95)

	assert.False(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodOutside, res.Method)
	// ни одного запроса к geo-хранилищу
	assert.Zero(t, repo.queries)
}

func TestResolveStoreErrorDegradesToOutside(t *testing.T) {
	repo := rioTerritories()
	repo.err = errors.New("connection refused")
	r := NewTerritoryResolver(repo, 800, testLogger())

	res := r.Resolve(context.Background(), -43.193, -22.975)

	assert.False(t, res.Resolved)
	assert.Equal(t, domain.ResolveMethodOutside, res.Method)
}
