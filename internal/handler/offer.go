package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/service"
)

// OfferHandler handles HTTP requests for driver offers.
type OfferHandler struct {
	offerService *service.OfferService
	logger       *slog.Logger
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(offerService *service.OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{offerService: offerService, logger: logger}
}

// CreateOfferRequest is the HTTP request body for creating an offer.
type CreateOfferRequest struct {
	Origin            LocationBody `json:"origin"`
	Destination       LocationBody `json:"destination"`
	PickupTime        time.Time    `json:"pickup_time"`
	TimeWindowMinutes *int         `json:"time_window_minutes,omitempty"`
	SeatsTotal        *int         `json:"seats_total,omitempty"`
}

// CreateOffer handles POST /v1/offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), service.CreateOfferRequest{
		DriverID:          middleware.CallerID(c),
		Origin:            req.Origin.toDomain(),
		Destination:       req.Destination.toDomain(),
		PickupTime:        req.PickupTime,
		TimeWindowMinutes: req.TimeWindowMinutes,
		SeatsTotal:        req.SeatsTotal,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusCreated, newOfferResponse(offer))
}

// ListMine handles GET /v1/offers/mine
func (h *OfferHandler) ListMine(c *gin.Context) {
	offers, err := h.offerService.ListMine(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]*OfferResponse, 0, len(offers))
	for _, o := range offers {
		response = append(response, newOfferResponse(o))
	}
	respondJSON(c, http.StatusOK, response)
}
