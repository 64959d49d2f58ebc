package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// RideHandler handles HTTP requests for directly bookable rides.
type RideHandler struct {
	rideService *service.RideService
	logger      *slog.Logger
	now         func() time.Time
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, logger *slog.Logger) *RideHandler {
	return &RideHandler{rideService: rideService, logger: logger, now: time.Now}
}

// CreateRideRequest is the HTTP request body for publishing a ride.
type CreateRideRequest struct {
	Origin         LocationBody `json:"origin"`
	Destination    LocationBody `json:"destination"`
	DepartAt       time.Time    `json:"depart_at"`
	CostPerKm      float64      `json:"cost_per_km"`
	DistanceMeters *float64     `json:"distance_meters,omitempty"`
	SeatsTotal     int          `json:"seats_total"`
}

// SearchRidesQuery holds the query parameters of a ride search.
type SearchRidesQuery struct {
	OriginLat    *float64  `form:"origin_lat" binding:"required"`
	OriginLng    *float64  `form:"origin_lng" binding:"required"`
	DestLat      *float64  `form:"dest_lat" binding:"required"`
	DestLng      *float64  `form:"dest_lng" binding:"required"`
	RadiusMeters *int      `form:"radius_meters"`
	DepartAfter  time.Time `form:"depart_after" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	ride, err := h.rideService.Create(c.Request.Context(), service.CreateRideRequest{
		DriverID:       middleware.CallerID(c),
		Origin:         req.Origin.toDomain(),
		Destination:    req.Destination.toDomain(),
		DepartAt:       req.DepartAt,
		CostPerKm:      req.CostPerKm,
		DistanceMeters: req.DistanceMeters,
		SeatsTotal:     req.SeatsTotal,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusCreated, newRideResponse(ride))
}

// ListMine handles GET /v1/rides/mine
func (h *RideHandler) ListMine(c *gin.Context) {
	rides, err := h.rideService.ListMine(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondJSON(c, http.StatusOK, ridesResponse(rides))
}

// Search handles GET /v1/rides/search
func (h *RideHandler) Search(c *gin.Context) {
	var q SearchRidesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadBody(c, err)
		return
	}

	departAfter := q.DepartAfter
	if departAfter.IsZero() {
		departAfter = h.now()
	}

	rides, err := h.rideService.Search(c.Request.Context(), service.SearchRidesRequest{
		Origin:       domain.Location{Lat: *q.OriginLat, Lng: *q.OriginLng},
		Destination:  domain.Location{Lat: *q.DestLat, Lng: *q.DestLng},
		RadiusMeters: q.RadiusMeters,
		DepartAfter:  departAfter,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondJSON(c, http.StatusOK, ridesResponse(rides))
}

func ridesResponse(rides []*domain.Ride) []*RideResponse {
	response := make([]*RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, newRideResponse(r))
	}
	return response
}
