package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

// CandidateFinder ищет и ранжирует водителей-кандидатов для поездки.
// Score = расстояние до pickup в км; "свой" район pickup дает бонус
// (множитель < 1). Меньший score выигрывает. Пустой результат —
// нормальный исход, не ошибка.
type CandidateFinder struct {
	drivers           out.DriverRepository
	locationFreshness time.Duration
	searchRadiusKm    float64
	localityBonus     float64
	log               *logger.Logger
	now               func() time.Time
}

// NewCandidateFinder создает поисковик кандидатов
func NewCandidateFinder(drivers out.DriverRepository, freshness time.Duration, searchRadiusKm, localityBonus float64, log *logger.Logger) *CandidateFinder {
	return &CandidateFinder{
		drivers:           drivers,
		locationFreshness: freshness,
		searchRadiusKm:    searchRadiusKm,
		localityBonus:     localityBonus,
		log:               log,
		now:               time.Now,
	}
}

// Find возвращает кандидатов, отсортированных по score по возрастанию.
// Порядок при равных score сохраняется (stable sort). Ошибка хранилища
// деградирует к пустому списку.
func (f *CandidateFinder) Find(ctx context.Context, pickup domain.Point, pickupNeighborhoodID *string) []domain.Candidate {
	since := f.now().Add(-f.locationFreshness)

	drivers, err := f.drivers.FindOnlineWithFreshLocation(ctx, since)
	if err != nil {
		f.log.Error(logger.Entry{
			Action:  "candidate_query_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil
	}

	candidates := make([]domain.Candidate, 0, len(drivers))
	for _, d := range drivers {
		distKm := domain.HaversineKm(pickup.Lat, pickup.Lng, d.Latitude, d.Longitude)
		if distKm > f.searchRadiusKm {
			continue
		}

		score := distKm
		bonus := false
		if pickupNeighborhoodID != nil && d.HomeNeighborhoodID != nil && *d.HomeNeighborhoodID == *pickupNeighborhoodID {
			score *= f.localityBonus
			bonus = true
		}

		candidates = append(candidates, domain.Candidate{
			DriverID:           d.DriverID,
			DistanceKm:         distKm,
			Score:              score,
			HomeNeighborhoodID: d.HomeNeighborhoodID,
			LocalityBonus:      bonus,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})

	return candidates
}
