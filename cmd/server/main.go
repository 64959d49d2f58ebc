package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/events"
	"carpool/internal/handler"
	"carpool/internal/logging"
	"carpool/internal/middleware"
	"carpool/internal/realtime"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository"
	"carpool/internal/repository/memory"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	store, closeStore, err := openStore(initCtx, cfg, nrApp, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient, err := app.NewRedisClient(initCtx, cfg.Redis, nrApp)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	hub := realtime.NewHub()
	sinks, closeSinks := notificationSinks(cfg.Notifier, hub, logger)
	defer closeSinks()
	notifier := service.NewNotificationService(logger, sinks...)

	server, sweeper := wireServer(initCtx, cfg, store, redisClient, hub, notifier, nrApp, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	// Graceful shutdown.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	// Let in-flight notifications finish before the sinks are closed.
	notifier.Wait()
	return err
}

// openStore returns the configured entity store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, logger *slog.Logger) (repository.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.DBName)
	return postgres.NewStore(db), func() { db.Close() }, nil
}

// notificationSinks always includes the websocket hub plus the configured
// broker backend.
func notificationSinks(cfg config.NotifierConfig, hub *realtime.Hub, logger *slog.Logger) ([]service.Sink, func()) {
	sinks := []service.Sink{{Name: "websocket", Publisher: hub}}
	var closers []io.Closer

	switch cfg.Backend {
	case "kafka":
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, service.Sink{Name: "kafka", Publisher: kp})
		closers = append(closers, kp)
	case "amqp":
		ap := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		sinks = append(sinks, service.Sink{Name: "amqp", Publisher: ap})
		closers = append(closers, ap)
	default:
		sinks = append(sinks, service.Sink{Name: "log", Publisher: events.NewLogPublisher(logger)})
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close notification sink", "error", err)
			}
		}
	}
}

// wireServer wires all dependencies and returns the HTTP server and the
// proposal sweeper.
func wireServer(
	ctx context.Context,
	cfg *config.Config,
	store repository.Store,
	redisClient *redis.Client,
	hub *realtime.Hub,
	notifier service.Notifier,
	nrApp *newrelic.Application,
	logger *slog.Logger,
) (*http.Server, *service.MatchSweeper) {
	defaults := service.MatchingDefaults{
		OriginRadiusMeters:      cfg.Matching.OriginRadiusMeters,
		DestinationRadiusMeters: cfg.Matching.DestinationRadiusMeters,
		ResultLimit:             cfg.Matching.ResultLimit,
		OverFetch:               cfg.Matching.OverFetch,
	}

	// Redis-backed pieces stay nil interfaces when Redis is disabled.
	var (
		source    service.CandidateSource = store.Offers()
		indexer   service.OfferIndexer
		locks     internalRedis.LockStoreInterface
		respCache middleware.ResponseCache
	)
	if redisClient != nil {
		locks = internalRedis.NewLockStore(redisClient)
		respCache = internalRedis.NewResponseCache(redisClient)
		if cfg.Matching.GeoIndex == "redis" {
			index := internalRedis.NewOfferIndex(redisClient, cfg.Matching.GeoKey)
			candidates := service.NewIndexedCandidates(index, store.Offers(), logger)
			// Backfill offers created while the index was off or out of reach.
			if err := candidates.Rebuild(ctx); err != nil {
				logger.Warn("failed to rebuild offer index, searches use the store until it succeeds", "error", err)
			}
			indexer = candidates
			source = candidates
		}
	}

	// Initialize services.
	allocator := service.NewCapacityAllocator(store, logger)
	offerService := service.NewOfferService(store.Offers(), indexer, logger)
	requestService := service.NewRequestService(store.Requests(), notifier, logger)
	matchService := service.NewMatchService(store, source, allocator, notifier, indexer, defaults, logger)
	rideService := service.NewRideService(store.Rides(), service.RideSearchDefaults{
		RadiusMeters: cfg.Matching.RideSearchRadiusMeters,
		Limit:        cfg.Matching.RideSearchLimit,
	}, logger)
	bookingService := service.NewBookingService(store, allocator, notifier, logger)
	sweeper := service.NewMatchSweeper(store.Matches(), locks, nrApp, cfg.Sweep.ProposalTTL, cfg.Sweep.Interval, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RequestHandler: handler.NewRequestHandler(requestService, logger),
		OfferHandler:   handler.NewOfferHandler(offerService, logger),
		MatchHandler:   handler.NewMatchHandler(matchService, logger),
		RideHandler:    handler.NewRideHandler(rideService, logger),
		BookingHandler: handler.NewBookingHandler(bookingService, logger),
		StreamHandler:  handler.NewStreamHandler(hub, cfg.Server.AllowedOrigins, logger),
		Auth:           middleware.NewAuthenticator(cfg.Auth.JWTSecret),
		ResponseCache:  respCache,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		NewRelicApp:    nrApp,
		Logger:         logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}
