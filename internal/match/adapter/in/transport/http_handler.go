package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
)

const maxBodySize = 1 << 20 // 1MB

// HTTPHandler обрабатывает HTTP запросы Match Service
type HTTPHandler struct {
	requestRideUC in.RequestRideUseCase
	resolveUC     in.ResolveTerritoryUseCase
	quoteFeeUC    in.QuoteFeeUseCase
	rides         out.RideRepository
	log           *logger.Logger
}

// NewHTTPHandler создает новый HTTP handler
func NewHTTPHandler(
	requestRideUC in.RequestRideUseCase,
	resolveUC in.ResolveTerritoryUseCase,
	quoteFeeUC in.QuoteFeeUseCase,
	rides out.RideRepository,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		requestRideUC: requestRideUC,
		resolveUC:     resolveUC,
		quoteFeeUC:    quoteFeeUC,
		rides:         rides,
		log:           log,
	}
}

// RegisterRoutes регистрирует все HTTP маршруты
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	// liveness
	mux.HandleFunc("GET /health", h.handleHealth)

	// business
	mux.HandleFunc("POST /rides", authMiddleware(h.handleRequestRide))
	mux.HandleFunc("GET /rides/{ride_id}", authMiddleware(h.handleGetRide))
	mux.HandleFunc("GET /territories/resolve", authMiddleware(h.handleResolveTerritory))
	mux.HandleFunc("GET /fees/quote", authMiddleware(h.handleQuoteFee))

	h.log.Info(logger.Entry{
		Action:  "http_routes_registered",
		Message: "match routes registered",
	})
}

// handleHealth обрабатывает health check
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// RequestRideHTTPRequest — HTTP DTO для запроса поездки
type RequestRideHTTPRequest struct {
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	DropoffAddress string  `json:"dropoff_address"`
	Price          float64 `json:"price"`
}

// handleRequestRide обрабатывает POST /rides
func (h *HTTPHandler) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req RequestRideHTTPRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "empty request body")
			return
		}
		h.respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	output, err := h.requestRideUC.Execute(ctx, in.RequestRideInput{
		PassengerID:    userID,
		PickupLat:      req.PickupLat,
		PickupLng:      req.PickupLng,
		PickupAddress:  req.PickupAddress,
		DropoffLat:     req.DropoffLat,
		DropoffLng:     req.DropoffLng,
		DropoffAddress: req.DropoffAddress,
		Price:          req.Price,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, output)
}

// handleGetRide обрабатывает GET /rides/{ride_id}
func (h *HTTPHandler) handleGetRide(w http.ResponseWriter, r *http.Request) {
	rideID := r.PathValue("ride_id")
	if rideID == "" {
		h.respondError(w, http.StatusBadRequest, "ride_id is required")
		return
	}

	ride, err := h.rides.FindByID(r.Context(), rideID)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, ride)
}

// handleResolveTerritory обрабатывает GET /territories/resolve?lat=&lng=
func (h *HTTPHandler) handleResolveTerritory(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		h.respondError(w, http.StatusBadRequest, "lat and lng query params are required")
		return
	}

	resolution := h.resolveUC.Resolve(r.Context(), lng, lat)
	h.respondJSON(w, http.StatusOK, resolution)
}

// handleQuoteFee обрабатывает GET /fees/quote
func (h *HTTPHandler) handleQuoteFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	driverID := q.Get("driver_id")
	pickupLat, e1 := strconv.ParseFloat(q.Get("pickup_lat"), 64)
	pickupLng, e2 := strconv.ParseFloat(q.Get("pickup_lng"), 64)
	dropoffLat, e3 := strconv.ParseFloat(q.Get("dropoff_lat"), 64)
	dropoffLng, e4 := strconv.ParseFloat(q.Get("dropoff_lng"), 64)
	if driverID == "" || e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		h.respondError(w, http.StatusBadRequest, "driver_id and pickup/dropoff coordinates are required")
		return
	}

	fare := 0.0
	if v := q.Get("fare"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			h.respondError(w, http.StatusBadRequest, "fare must be a non-negative number")
			return
		}
		fare = parsed
	}

	quote, err := h.quoteFeeUC.Execute(r.Context(), in.QuoteFeeInput{
		DriverID:   driverID,
		PickupLat:  pickupLat,
		PickupLng:  pickupLng,
		DropoffLat: dropoffLat,
		DropoffLng: dropoffLng,
		Fare:       fare,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, quote)
}

// handleUseCaseError маппит доменные ошибки на HTTP статусы
func (h *HTTPHandler) handleUseCaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinates):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRideNotFound),
		errors.Is(err, domain.ErrDriverNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidFeeConfig):
		h.respondError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error(logger.Entry{
			Action:  "usecase_error",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON отправляет JSON ответ
func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error(logger.Entry{
			Action:  "encode_response_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

// respondError отправляет JSON ошибку
func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
