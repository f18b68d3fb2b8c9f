package domain

import "errors"

var (
	// ErrInvalidCoordinates возвращается при невалидных координатах
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrRideNotFound возвращается когда поездка не найдена
	ErrRideNotFound = errors.New("ride not found")

	// ErrOfferNotFound возвращается когда offer не найден
	ErrOfferNotFound = errors.New("offer not found")

	// ErrOfferNotPending возвращается когда offer уже не в статусе PENDING
	// (двойной accept, гонка с reject или sweep'ом)
	ErrOfferNotPending = errors.New("offer is not pending")

	// ErrOfferExpired возвращается при попытке принять истекший offer
	ErrOfferExpired = errors.New("offer expired")

	// ErrNotOfferOwner возвращается когда водитель отвечает на чужой offer
	ErrNotOfferOwner = errors.New("offer belongs to another driver")

	// ErrIllegalTransition возвращается при нелегальном переходе статуса
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrInvalidFeeConfig возвращается когда конфигурация комиссий
	// нарушает контракт SAME < (ADJACENT|FALLBACK) < OUTSIDE
	ErrInvalidFeeConfig = errors.New("invalid fee configuration")

	// ErrDriverNotFound возвращается когда водитель не найден
	ErrDriverNotFound = errors.New("driver not found")
)
