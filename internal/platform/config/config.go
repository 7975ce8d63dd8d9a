package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Lock backends used by the pessimistic strategy.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	StorageBackend        string
	ConcurrencyStrategy   string
	OptimisticMaxAttempts int
	LockBackend           string
	RedisAddr             string
	TransferMode          string

	ReconciliationInterval time.Duration
	RabbitMQURL            string
	EventsExchange         string

	DefaultCurrency string
	// RateLimit uses the ulule/limiter format, e.g. "100-M".
	RateLimit          string
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "aid-portal")
	v.SetDefault("STORAGE_BACKEND", StoragePostgres)
	v.SetDefault("CONCURRENCY_STRATEGY", "optimistic")
	v.SetDefault("OPTIMISTIC_MAX_ATTEMPTS", 3)
	v.SetDefault("LOCK_BACKEND", LockMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("TRANSFER_MODE", "atomic")
	v.SetDefault("RECONCILIATION_INTERVAL", "5m")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "ledger.events")
	v.SetDefault("DEFAULT_CURRENCY", "TND")
	v.SetDefault("RATE_LIMIT", "100-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	// Environment variables override defaults and .env values.
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:           v.GetString("PGSQL_URL"),
		Port:                  v.GetString("PORT"),
		IsProduction:          v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:         v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		JWTIssuer:             v.GetString("JWT_ISSUER"),
		StorageBackend:        strings.ToLower(v.GetString("STORAGE_BACKEND")),
		ConcurrencyStrategy:   strings.ToLower(v.GetString("CONCURRENCY_STRATEGY")),
		OptimisticMaxAttempts: v.GetInt("OPTIMISTIC_MAX_ATTEMPTS"),
		LockBackend:           strings.ToLower(v.GetString("LOCK_BACKEND")),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		TransferMode:          strings.ToLower(v.GetString("TRANSFER_MODE")),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		EventsExchange:        v.GetString("EVENTS_EXCHANGE"),
		DefaultCurrency:       strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
		RateLimit:             v.GetString("RATE_LIMIT"),
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	intervalStr := v.GetString("RECONCILIATION_INTERVAL")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil || interval <= 0 {
		interval = 5 * time.Minute
		log.Printf("Warning: Invalid value for RECONCILIATION_INTERVAL ('%s'). Defaulting to %s.\n", intervalStr, interval)
	}
	cfg.ReconciliationInterval = interval

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.StorageBackend == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: must be %s or %s", c.StorageBackend, StoragePostgres, StorageMemory)
	}
	switch c.ConcurrencyStrategy {
	case "optimistic", "pessimistic":
	default:
		return fmt.Errorf("invalid CONCURRENCY_STRATEGY %q: must be optimistic or pessimistic", c.ConcurrencyStrategy)
	}
	switch c.LockBackend {
	case LockMemory, LockRedis:
	default:
		return fmt.Errorf("invalid LOCK_BACKEND %q: must be %s or %s", c.LockBackend, LockMemory, LockRedis)
	}
	switch c.TransferMode {
	case "atomic", "two_phase":
	default:
		return fmt.Errorf("invalid TRANSFER_MODE %q: must be atomic or two_phase", c.TransferMode)
	}
	if c.OptimisticMaxAttempts < 1 {
		return fmt.Errorf("invalid OPTIMISTIC_MAX_ATTEMPTS %d: must be at least 1", c.OptimisticMaxAttempts)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid DEFAULT_CURRENCY %q: must be a 3-letter code", c.DefaultCurrency)
	}
	return nil
}
