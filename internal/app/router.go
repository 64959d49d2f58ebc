package app

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RequestHandler *handler.RequestHandler
	OfferHandler   *handler.OfferHandler
	MatchHandler   *handler.MatchHandler
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	StreamHandler  *handler.StreamHandler
	Auth           *middleware.Authenticator
	// ResponseCache backs the idempotency middleware; nil disables it.
	ResponseCache  middleware.ResponseCache
	AllowedOrigins []string
	NewRelicApp    *newrelic.Application
	Logger         *slog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := deps.Auth.Required()
	idempotent := middleware.Idempotency(deps.ResponseCache, deps.Logger)
	driverOnly := middleware.RequireRole("driver", "admin")

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Rider request routes.
		requests := v1.Group("/requests", authed)
		{
			requests.POST("", idempotent, deps.RequestHandler.CreateRequest)
			requests.GET("/mine", deps.RequestHandler.ListMine)
			requests.POST("/:id/cancel", deps.RequestHandler.CancelRequest)
		}

		// Driver offer routes.
		offers := v1.Group("/offers", authed, driverOnly)
		{
			offers.POST("", idempotent, deps.OfferHandler.CreateOffer)
			offers.GET("/mine", deps.OfferHandler.ListMine)
		}

		// Matching routes.
		matches := v1.Group("/matches")
		{
			matches.POST("/find", deps.Auth.Optional(), deps.MatchHandler.FindMatches)
			matches.POST("/:id/accept", authed, deps.MatchHandler.AcceptMatch)
			matches.POST("/:id/reject", authed, deps.MatchHandler.RejectMatch)
		}

		// Direct ride routes.
		rides := v1.Group("/rides")
		{
			rides.GET("/search", deps.RideHandler.Search)
			rides.POST("", authed, driverOnly, idempotent, deps.RideHandler.CreateRide)
			rides.GET("/mine", authed, driverOnly, deps.RideHandler.ListMine)
		}

		// Booking routes.
		bookings := v1.Group("/bookings", authed)
		{
			bookings.POST("", idempotent, deps.BookingHandler.Book)
			bookings.GET("/mine", deps.BookingHandler.ListMine)
		}

		v1.GET("/ws", authed, deps.StreamHandler.Stream)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		// Echo the request origin; "*" is invalid alongside credentials.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
