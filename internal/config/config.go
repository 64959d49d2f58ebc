package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
	Matching MatchingConfig
	Sweep    SweepConfig
	Notifier NotifierConfig
	Log      LogConfig
	Store    StoreConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Migrate  bool
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds the HS256 secret used to verify caller tokens.
type AuthConfig struct {
	JWTSecret string
}

// MatchingConfig holds candidate search defaults.
type MatchingConfig struct {
	OriginRadiusMeters      int
	DestinationRadiusMeters int
	ResultLimit             int
	OverFetch               int
	RideSearchRadiusMeters  int
	RideSearchLimit         int
	// GeoIndex selects the candidate source: "store" or "redis".
	GeoIndex string
	GeoKey   string
}

// SweepConfig holds the proposal expiry sweeper settings. A zero TTL
// disables the sweeper.
type SweepConfig struct {
	Interval    time.Duration
	ProposalTTL time.Duration
}

// NotifierConfig selects where lifecycle events are published besides the
// websocket hub.
type NotifierConfig struct {
	// Backend is one of "log", "kafka" or "amqp".
	Backend      string
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPQueue    string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// StoreConfig selects the entity store: "postgres" or "memory".
type StoreConfig struct {
	Driver string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "carpool"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Migrate:  getBoolEnv("DB_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "carpool-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Matching: MatchingConfig{
			OriginRadiusMeters:      getIntEnv("MATCH_ORIGIN_RADIUS_M", 3000),
			DestinationRadiusMeters: getIntEnv("MATCH_DEST_RADIUS_M", 3500),
			ResultLimit:             getIntEnv("MATCH_RESULT_LIMIT", 10),
			OverFetch:               getIntEnv("MATCH_OVER_FETCH", 50),
			RideSearchRadiusMeters:  getIntEnv("RIDE_SEARCH_RADIUS_M", 4000),
			RideSearchLimit:         getIntEnv("RIDE_SEARCH_LIMIT", 30),
			GeoIndex:                strings.ToLower(getEnv("MATCH_GEO_INDEX", "store")),
			GeoKey:                  getEnv("MATCH_GEO_KEY", "offers:geo"),
		},
		Sweep: SweepConfig{
			Interval:    getDurationEnv("MATCH_SWEEP_INTERVAL", time.Minute),
			ProposalTTL: getDurationEnv("MATCH_PROPOSAL_TTL", 30*time.Minute),
		},
		Notifier: NotifierConfig{
			Backend:      strings.ToLower(getEnv("NOTIFIER_BACKEND", "log")),
			KafkaBrokers: getListEnv("KAFKA_BROKERS", nil),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "carpool-events"),
			AMQPURL:      getEnv("AMQP_URL", ""),
			AMQPQueue:    getEnv("AMQP_QUEUE", "carpool.events"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Store.Driver))
	}

	m := c.Matching
	if m.OriginRadiusMeters < 500 || m.OriginRadiusMeters > 15000 {
		errs = append(errs, fmt.Errorf("MATCH_ORIGIN_RADIUS_M must be within 500..15000, got %d", m.OriginRadiusMeters))
	}
	if m.DestinationRadiusMeters < 500 || m.DestinationRadiusMeters > 15000 {
		errs = append(errs, fmt.Errorf("MATCH_DEST_RADIUS_M must be within 500..15000, got %d", m.DestinationRadiusMeters))
	}
	if m.ResultLimit <= 0 {
		errs = append(errs, errors.New("MATCH_RESULT_LIMIT must be > 0"))
	}
	if m.OverFetch < m.ResultLimit {
		errs = append(errs, errors.New("MATCH_OVER_FETCH must be >= MATCH_RESULT_LIMIT"))
	}
	if m.RideSearchRadiusMeters <= 0 || m.RideSearchLimit <= 0 {
		errs = append(errs, errors.New("RIDE_SEARCH_RADIUS_M and RIDE_SEARCH_LIMIT must be > 0"))
	}
	switch m.GeoIndex {
	case "store":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("MATCH_GEO_INDEX=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("MATCH_GEO_INDEX must be store or redis, got %q", m.GeoIndex))
	}

	if c.Sweep.ProposalTTL < 0 {
		errs = append(errs, errors.New("MATCH_PROPOSAL_TTL must be >= 0"))
	}
	if c.Sweep.ProposalTTL > 0 && c.Sweep.Interval <= 0 {
		errs = append(errs, errors.New("MATCH_SWEEP_INTERVAL must be > 0"))
	}

	switch c.Notifier.Backend {
	case "log":
	case "kafka":
		if len(c.Notifier.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("NOTIFIER_BACKEND=kafka requires KAFKA_BROKERS"))
		}
	case "amqp":
		if c.Notifier.AMQPURL == "" {
			errs = append(errs, errors.New("NOTIFIER_BACKEND=amqp requires AMQP_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER_BACKEND must be log, kafka or amqp, got %q", c.Notifier.Backend))
	}

	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		errs = append(errs, errors.New("NEW_RELIC_ENABLED requires NEW_RELIC_LICENSE_KEY"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
