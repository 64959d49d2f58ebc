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

// RequestHandler handles HTTP requests for rider requests.
type RequestHandler struct {
	requestService *service.RequestService
	logger         *slog.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestService *service.RequestService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, logger: logger}
}

// CreateTripRequestBody is the HTTP request body for creating a request.
type CreateTripRequestBody struct {
	Origin            LocationBody `json:"origin"`
	Destination       LocationBody `json:"destination"`
	PickupTime        time.Time    `json:"pickup_time"`
	TimeWindowMinutes *int         `json:"time_window_minutes,omitempty"`
	SeatsNeeded       *int         `json:"seats_needed,omitempty"`
	Mode              string       `json:"mode,omitempty"` // POOL, PRIVATE, TRANSIT
}

// CreateRequest handles POST /v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var req CreateTripRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	created, err := h.requestService.Create(c.Request.Context(), service.CreateTripRequest{
		RiderID:           middleware.CallerID(c),
		Origin:            req.Origin.toDomain(),
		Destination:       req.Destination.toDomain(),
		PickupTime:        req.PickupTime,
		TimeWindowMinutes: req.TimeWindowMinutes,
		SeatsNeeded:       req.SeatsNeeded,
		Mode:              domain.TripMode(req.Mode),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusCreated, newRequestResponse(created))
}

// ListMine handles GET /v1/requests/mine
func (h *RequestHandler) ListMine(c *gin.Context) {
	reqs, err := h.requestService.ListMine(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]*RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		response = append(response, newRequestResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// CancelRequest handles POST /v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	req, err := h.requestService.Cancel(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, newRequestResponse(req))
}
