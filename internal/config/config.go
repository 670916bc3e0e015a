package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tair/stockroom/pkg/database"
)

// Storage and feed backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	FeedKafka = "kafka"
	FeedLocal = "local"
)

// Config holds the stockd configuration
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	HTTPPort       string
	GRPCPort       string
	JaegerEndpoint string

	Database     database.Config
	StoreBackend string
	FeedBackend  string
	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string

	JWTSecret string
	JWTTTL    time.Duration

	RemoteTimeout      time.Duration
	MaxCommitAttempts  int
	SessionIdleTimeout time.Duration
	RoleCacheTTL       time.Duration
	LoginRateLimit     int
	BreakerMaxFailures int
	BreakerOpenTimeout time.Duration
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// RedisEnabled reports whether a Redis address was configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "stockd"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "8082"),
		GRPCPort:       getEnv("GRPC_PORT", "9092"),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "inventorydb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		StoreBackend: getEnv("STORE_BACKEND", StorePostgres),
		FeedBackend:  getEnv("FEED_BACKEND", FeedLocal),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "inventory-item-changes"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
	}

	var err error
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"JWT_TTL", 24 * time.Hour, &cfg.JWTTTL},
		{"REMOTE_TIMEOUT", 5 * time.Second, &cfg.RemoteTimeout},
		{"SESSION_IDLE_TIMEOUT", 30 * time.Minute, &cfg.SessionIdleTimeout},
		{"ROLE_CACHE_TTL", 5 * time.Minute, &cfg.RoleCacheTTL},
		{"BREAKER_OPEN_TIMEOUT", 30 * time.Second, &cfg.BreakerOpenTimeout},
	}
	for _, d := range durations {
		if *d.dest, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"MAX_COMMIT_ATTEMPTS", 3, &cfg.MaxCommitAttempts},
		{"LOGIN_RATE_LIMIT", 10, &cfg.LoginRateLimit},
		{"BREAKER_MAX_FAILURES", 5, &cfg.BreakerMaxFailures},
	}
	for _, n := range ints {
		if *n.dest, err = getInt(n.key, n.def); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StorePostgres, StoreMemory, c.StoreBackend)
	}
	switch c.FeedBackend {
	case FeedKafka, FeedLocal:
	default:
		return fmt.Errorf("FEED_BACKEND must be %q or %q, got %q", FeedKafka, FeedLocal, c.FeedBackend)
	}
	if c.FeedBackend == FeedKafka && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when FEED_BACKEND=%s", FeedKafka)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		c.JWTSecret = "development-secret"
	}
	if c.MaxCommitAttempts < 1 {
		return fmt.Errorf("MAX_COMMIT_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
