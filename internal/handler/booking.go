package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/service"
)

// BookingHandler handles HTTP requests for direct bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	logger         *slog.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, logger: logger}
}

// BookRequest is the HTTP request body for booking seats on a ride.
type BookRequest struct {
	RideID string `json:"ride_id"`
	Seats  int    `json:"seats"`
}

// Book handles POST /v1/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	detail, err := h.bookingService.Book(c.Request.Context(), service.BookRequest{
		RideID:  req.RideID,
		RiderID: middleware.CallerID(c),
		Seats:   req.Seats,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusCreated, newBookingResponse(detail))
}

// ListMine handles GET /v1/bookings/mine
func (h *BookingHandler) ListMine(c *gin.Context) {
	details, err := h.bookingService.ListMine(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]BookingResponse, 0, len(details))
	for _, d := range details {
		response = append(response, newBookingResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}
