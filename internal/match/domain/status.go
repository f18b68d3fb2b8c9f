package domain

// ==== Ride Status ====
// requested → offered → {accepted | requested (redispatch) | no_driver}
// accepted → {completed | cancelled} переводятся внешним ride-management.
const (
	RideStatusRequested = "REQUESTED"
	RideStatusOffered   = "OFFERED"
	RideStatusAccepted  = "ACCEPTED"
	RideStatusNoDriver  = "NO_DRIVER"
	RideStatusCompleted = "COMPLETED"
	RideStatusCancelled = "CANCELLED"
)

// ==== Offer Status ====
// pending → {accepted | rejected | expired | cancelled}
const (
	OfferStatusPending   = "PENDING"
	OfferStatusAccepted  = "ACCEPTED"
	OfferStatusRejected  = "REJECTED"
	OfferStatusExpired   = "EXPIRED"
	OfferStatusCancelled = "CANCELLED"
)

// ==== Driver Availability ====
const (
	DriverOnline  = "ONLINE"
	DriverBusy    = "BUSY"
	DriverOffline = "OFFLINE"
)

// rideTransitions — таблица легальных переходов статуса поездки
var rideTransitions = map[string][]string{
	RideStatusRequested: {RideStatusOffered, RideStatusNoDriver, RideStatusCancelled},
	RideStatusOffered:   {RideStatusAccepted, RideStatusRequested, RideStatusNoDriver, RideStatusCancelled},
	RideStatusAccepted:  {RideStatusCompleted, RideStatusCancelled},
	RideStatusNoDriver:  {},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

// offerTransitions — таблица легальных переходов статуса offer
var offerTransitions = map[string][]string{
	OfferStatusPending:   {OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired, OfferStatusCancelled},
	OfferStatusAccepted:  {},
	OfferStatusRejected:  {},
	OfferStatusExpired:   {},
	OfferStatusCancelled: {},
}

// CanRideTransition проверяет легальность перехода статуса поездки
func CanRideTransition(from, to string) bool {
	for _, s := range rideTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanOfferTransition проверяет легальность перехода статуса offer
func CanOfferTransition(from, to string) bool {
	for _, s := range offerTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalOfferStatus — offer считается терминальным для подсчета попыток,
// если он истек или был отклонен водителем
func IsTerminalOfferStatus(status string) bool {
	return status == OfferStatusExpired || status == OfferStatusRejected
}
