package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"carpool/internal/middleware"
	"carpool/internal/realtime"
)

// StreamHandler upgrades authenticated clients to a websocket that receives
// the notifications addressed to them.
type StreamHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates a new StreamHandler. An empty origin list, or
// one containing "*", accepts every origin.
func NewStreamHandler(hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 ||
					slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Stream handles GET /v1/ws
func (h *StreamHandler) Stream(c *gin.Context) {
	caller := middleware.CallerID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}

	// Clear the server read timeout; the stream stays open until the client leaves.
	_ = conn.SetReadDeadline(time.Time{})

	session := h.hub.Register(caller, conn)
	h.logger.InfoContext(c.Request.Context(), "websocket connected", "caller_id", caller)
	h.hub.Serve(session)
	h.logger.Info("websocket disconnected", "caller_id", caller)
}
