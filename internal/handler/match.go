package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// MatchHandler handles HTTP requests for matching.
type MatchHandler struct {
	matchService *service.MatchService
	logger       *slog.Logger
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService *service.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matchService: matchService, logger: logger}
}

// FindMatchesRequest is the HTTP request body for finding matches.
type FindMatchesRequest struct {
	RequestID               string `json:"request_id"`
	OriginRadiusMeters      *int   `json:"origin_radius_meters,omitempty"`
	DestinationRadiusMeters *int   `json:"destination_radius_meters,omitempty"`
}

// FindMatches handles POST /v1/matches/find
func (h *MatchHandler) FindMatches(c *gin.Context) {
	var req FindMatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadBody(c, err)
		return
	}

	details, err := h.matchService.FindMatches(c.Request.Context(), service.FindMatchesRequest{
		RequestID: req.RequestID,
		FindOptions: service.FindOptions{
			OriginRadiusMeters:      req.OriginRadiusMeters,
			DestinationRadiusMeters: req.DestinationRadiusMeters,
		},
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]MatchResponse, 0, len(details))
	for _, d := range details {
		response = append(response, newMatchResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// AcceptMatch handles POST /v1/matches/:id/accept
func (h *MatchHandler) AcceptMatch(c *gin.Context) {
	h.resolve(c, h.matchService.AcceptMatch)
}

// RejectMatch handles POST /v1/matches/:id/reject
func (h *MatchHandler) RejectMatch(c *gin.Context) {
	h.resolve(c, h.matchService.RejectMatch)
}

type resolveFunc func(ctx context.Context, matchID, callerID string) (*domain.MatchDetail, error)

func (h *MatchHandler) resolve(c *gin.Context, fn resolveFunc) {
	detail, err := fn(c.Request.Context(), c.Param("id"), middleware.CallerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondJSON(c, http.StatusOK, newMatchResponse(detail))
}
