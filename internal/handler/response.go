package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Unexpected errors are logged and never leak their text to the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	code, kind := mapError(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(code, ErrorResponse{Error: msg, Code: kind})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondBadBody answers a request whose body could not be decoded.
func respondBadBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_body"})
}

// mapError maps domain error kinds to an HTTP status and a stable code.
//
// Authorization failures deliberately answer 404, the same status as an
// unknown id. The code field tells the two apart.
func mapError(err error) (int, string) {
	var (
		validation domain.ValidationError
		notFound   domain.NotFoundError
		authz      domain.AuthorizationError
		exhausted  domain.CapacityExhaustedError
		conflict   domain.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_argument"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &authz):
		return http.StatusNotFound, "not_allowed"
	case errors.As(err, &exhausted):
		return http.StatusConflict, "capacity_exhausted"
	case errors.As(err, &conflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
