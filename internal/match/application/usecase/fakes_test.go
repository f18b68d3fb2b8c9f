package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("match-test")
}

// ---- rides ----

type fakeRideRepo struct {
	mu     sync.Mutex
	rides  map[string]*domain.Ride
	offers *fakeOfferRepo
	err    error
}

func newFakeRideRepo(rides ...*domain.Ride) *fakeRideRepo {
	r := &fakeRideRepo{rides: make(map[string]*domain.Ride)}
	for _, ride := range rides {
		r.rides[ride.ID] = ride
	}
	return r
}

func (r *fakeRideRepo) Create(ctx context.Context, ride *domain.Ride) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rides[ride.ID] = ride
	return nil
}

func (r *fakeRideRepo) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return nil, domain.ErrRideNotFound
	}
	copy := *ride
	return &copy, nil
}

func (r *fakeRideRepo) TransitionStatus(ctx context.Context, rideID, from, to string, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	if !domain.CanRideTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, from, to)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok || ride.Status != from {
		return fmt.Errorf("%w: ride %s is no longer %s", domain.ErrIllegalTransition, rideID, from)
	}
	ride.Status = to
	switch to {
	case domain.RideStatusOffered:
		ride.OfferedAt = &at
	case domain.RideStatusAccepted:
		ride.AcceptedAt = &at
	}
	return nil
}

func (r *fakeRideRepo) UpdateFee(ctx context.Context, rideID string, fb domain.FeeBreakdown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return domain.ErrRideNotFound
	}
	ride.FeeTier = &fb.Tier
	ride.FeePct = &fb.FeePct
	ride.FeeAmount = &fb.FeeAmount
	ride.DriverEarnings = &fb.DriverEarnings
	return nil
}

func (r *fakeRideRepo) FindStrandedOffered(ctx context.Context) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	var offered []string
	for _, ride := range r.rides {
		if ride.Status == domain.RideStatusOffered {
			offered = append(offered, ride.ID)
		}
	}
	r.mu.Unlock()

	var ids []string
	for _, rideID := range offered {
		pending, err := r.offers.HasPendingByRide(ctx, rideID)
		if err != nil {
			return nil, err
		}
		if !pending {
			ids = append(ids, rideID)
		}
	}
	return ids, nil
}

func (r *fakeRideRepo) get(rideID string) *domain.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rides[rideID]
}

// ---- offers ----

// fakeOfferRepo повторяет транзакционную семантику PG реализации:
// Accept/Reject держат общий мьютекс, поэтому конкурентные ответы
// сериализуются так же, как SELECT ... FOR UPDATE.
type fakeOfferRepo struct {
	mu      sync.Mutex
	offers  map[string]*domain.Offer
	rides   *fakeRideRepo
	drivers *fakeDriverRepo
	err     error
}

func newFakeOfferRepo(rides *fakeRideRepo, drivers *fakeDriverRepo) *fakeOfferRepo {
	return &fakeOfferRepo{
		offers:  make(map[string]*domain.Offer),
		rides:   rides,
		drivers: drivers,
	}
}

func (r *fakeOfferRepo) Create(ctx context.Context, offer *domain.Offer) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.RideID == offer.RideID && o.Status == domain.OfferStatusPending {
			return fmt.Errorf("pending offer already exists for ride %s", offer.RideID)
		}
	}
	copy := *offer
	r.offers[offer.ID] = &copy
	return nil
}

func (r *fakeOfferRepo) FindByID(ctx context.Context, offerID string) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[offerID]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	copy := *offer
	return &copy, nil
}

func (r *fakeOfferRepo) CountTerminalByRide(ctx context.Context, rideID string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, o := range r.offers {
		if o.RideID == rideID && domain.IsTerminalOfferStatus(o.Status) {
			count++
		}
	}
	return count, nil
}

func (r *fakeOfferRepo) HasPendingByRide(ctx context.Context, rideID string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.offers {
		if o.RideID == rideID && o.Status == domain.OfferStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOfferRepo) ExpireDue(ctx context.Context, now time.Time) ([]*domain.Offer, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*domain.Offer
	for _, o := range r.offers {
		if o.Status == domain.OfferStatusPending && o.ExpiresAt.Before(now) {
			o.Status = domain.OfferStatusExpired
			o.RespondedAt = &now
			copy := *o
			expired = append(expired, &copy)
		}
	}
	return expired, nil
}

func (r *fakeOfferRepo) Cancel(ctx context.Context, offerID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.offers[offerID]; ok && o.Status == domain.OfferStatusPending {
		o.Status = domain.OfferStatusCancelled
		o.RespondedAt = &now
	}
	return nil
}

func (r *fakeOfferRepo) Accept(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Acceptance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, err := r.check(offerID, driverID, now)
	if err != nil {
		return nil, err
	}

	offer.Status = domain.OfferStatusAccepted
	offer.RespondedAt = &now

	for _, o := range r.offers {
		if o.RideID == offer.RideID && o.Status == domain.OfferStatusPending {
			o.Status = domain.OfferStatusCancelled
		}
	}

	if err := r.rides.TransitionStatus(ctx, offer.RideID, domain.RideStatusOffered, domain.RideStatusAccepted, now); err != nil {
		return nil, fmt.Errorf("%w: ride %s is not OFFERED", domain.ErrOfferNotPending, offer.RideID)
	}
	ride := r.rides.get(offer.RideID)
	ride.DriverID = &driverID

	_ = r.drivers.SetAvailability(ctx, driverID, domain.DriverBusy)

	offerCopy, rideCopy := *offer, *ride
	return &domain.Acceptance{Offer: &offerCopy, Ride: &rideCopy, AcceptedAt: now}, nil
}

func (r *fakeOfferRepo) Reject(ctx context.Context, offerID, driverID string, now time.Time) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, err := r.check(offerID, driverID, now)
	if err != nil {
		return nil, err
	}

	offer.Status = domain.OfferStatusRejected
	offer.RespondedAt = &now

	_ = r.rides.TransitionStatus(ctx, offer.RideID, domain.RideStatusOffered, domain.RideStatusRequested, now)

	copy := *offer
	return &copy, nil
}

func (r *fakeOfferRepo) check(offerID, driverID string, now time.Time) (*domain.Offer, error) {
	offer, ok := r.offers[offerID]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	if offer.DriverID != driverID {
		return nil, domain.ErrNotOfferOwner
	}
	if offer.Status != domain.OfferStatusPending {
		return nil, fmt.Errorf("%w: offer %s is %s", domain.ErrOfferNotPending, offerID, offer.Status)
	}
	if offer.Expired(now) {
		// offer остается PENDING до sweep'а, как в PG реализации
		return nil, domain.ErrOfferExpired
	}
	return offer, nil
}

func (r *fakeOfferRepo) byRide(rideID string) []*domain.Offer {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Offer
	for _, o := range r.offers {
		if o.RideID == rideID {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result
}

// ---- drivers ----

type fakeDriverRepo struct {
	mu       sync.Mutex
	online   []out.OnlineDriver
	statuses map[string]*domain.DriverStatus
	err      error
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{statuses: make(map[string]*domain.DriverStatus)}
}

func (r *fakeDriverRepo) FindOnlineWithFreshLocation(ctx context.Context, since time.Time) ([]out.OnlineDriver, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var fresh []out.OnlineDriver
	for _, d := range r.online {
		if !d.LocationUpdatedAt.Before(since) {
			fresh = append(fresh, d)
		}
	}
	return fresh, nil
}

func (r *fakeDriverRepo) FindStatus(ctx context.Context, driverID string) (*domain.DriverStatus, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[driverID]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}
	copy := *status
	return &copy, nil
}

func (r *fakeDriverRepo) SetAvailability(ctx context.Context, driverID, availability string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[driverID]; ok {
		status.Availability = availability
	} else {
		r.statuses[driverID] = &domain.DriverStatus{DriverID: driverID, Availability: availability}
	}
	return nil
}

func (r *fakeDriverRepo) UpsertLocation(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	return nil
}

// ---- territories ----

type fakeTerritoryRepo struct {
	neighborhoods []domain.Neighborhood
	communities   []domain.Community
	err           error
	queries       int
}

func (r *fakeTerritoryRepo) FindCommunityAt(ctx context.Context, lng, lat float64) (*domain.Community, error) {
	r.queries++
	if r.err != nil {
		return nil, r.err
	}
	pt := domain.Point{Lat: lat, Lng: lng}
	var best *domain.Community
	for i := range r.communities {
		c := &r.communities[i]
		if !c.Polygon.Contains(pt) {
			continue
		}
		if best == nil || c.Polygon.Area() < best.Polygon.Area() {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	copy := *best
	return &copy, nil
}

func (r *fakeTerritoryRepo) FindNeighborhoodAt(ctx context.Context, lng, lat float64) (*domain.Neighborhood, error) {
	r.queries++
	if r.err != nil {
		return nil, r.err
	}
	pt := domain.Point{Lat: lat, Lng: lng}
	var best *domain.Neighborhood
	for i := range r.neighborhoods {
		n := &r.neighborhoods[i]
		if !n.Polygon.Contains(pt) {
			continue
		}
		if best == nil || n.Polygon.Area() < best.Polygon.Area() {
			best = n
		}
	}
	if best == nil {
		return nil, nil
	}
	copy := *best
	return &copy, nil
}

func (r *fakeTerritoryRepo) FindNearestNeighborhood(ctx context.Context, lng, lat, radiusM float64) (*domain.Neighborhood, float64, error) {
	r.queries++
	if r.err != nil {
		return nil, 0, r.err
	}
	var best *domain.Neighborhood
	bestM := radiusM
	for i := range r.neighborhoods {
		n := &r.neighborhoods[i]
		m := domain.HaversineM(lat, lng, n.Center.Lat, n.Center.Lng)
		if m <= bestM {
			best = n
			bestM = m
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	copy := *best
	return &copy, bestM, nil
}

func (r *fakeTerritoryRepo) FindNeighborhoodByID(ctx context.Context, id string) (*domain.Neighborhood, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.neighborhoods {
		if r.neighborhoods[i].ID == id {
			copy := r.neighborhoods[i]
			return &copy, nil
		}
	}
	return nil, nil
}

// ---- fee config ----

type fakeFeeConfigRepo struct {
	cfg domain.FeeConfig
	err error
}

func (r *fakeFeeConfigRepo) Get(ctx context.Context) (domain.FeeConfig, error) {
	if r.err != nil {
		return domain.FeeConfig{}, r.err
	}
	return r.cfg, nil
}

// ---- notifier ----

type notifiedOffer struct {
	DriverID     string
	Notification out.OfferNotification
}

type fakeNotifier struct {
	mu       sync.Mutex
	offers   []notifiedOffer
	revoked  []string
	failNext bool
}

func (n *fakeNotifier) NotifyOffer(ctx context.Context, driverID string, notification out.OfferNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext {
		n.failNext = false
		return fmt.Errorf("driver %s not connected", driverID)
	}
	n.offers = append(n.offers, notifiedOffer{DriverID: driverID, Notification: notification})
	return nil
}

func (n *fakeNotifier) NotifyOfferRevoked(ctx context.Context, driverID, offerID, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revoked = append(n.revoked, offerID)
	return nil
}

func (n *fakeNotifier) IsDriverConnected(driverID string) bool {
	return true
}

// ---- publisher ----

type publishedEvent struct {
	Type string
	Data out.RideEventData
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishRideEvent(ctx context.Context, eventType string, data out.RideEventData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Data: data})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}
