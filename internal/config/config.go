package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultEnv      = "development"
	defaultHTTPHost = "0.0.0.0"
	defaultHTTPPort = 8080

	defaultStartingBalance  = 5000.0
	defaultWarningThreshold = 1000.0
	defaultCommission       = 2.50
	defaultWarmupCandles    = 250
	defaultPlaybackSpeed    = 1.0

	defaultFeedSource = "synthetic"
	defaultStartPrice = 25000.0

	defaultRedisDB         = 0
	defaultCacheTTLSeconds = 2
)

// Config keeps the runtime configuration for the simulator.
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Account  AccountConfig
	Feed     FeedConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Cache    CacheConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// AccountConfig holds the risk parameters of the simulated account.
type AccountConfig struct {
	StartingBalance       float64
	WarningThreshold      float64
	CommissionPerContract float64
	WarmupCandles         int
	PlaybackSpeed         float64
}

// FeedConfig selects and tunes the candle source.
type FeedConfig struct {
	// Source is "synthetic" or "csv".
	Source     string
	CSVPath    string
	Seed       int64
	StartPrice float64
}

// PostgresConfig stores the optional candle archive connection; empty DSN
// disables archiving.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores the optional response cache connection; empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// Load builds Config from environment variables, reading a .env file first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	balance, err := getFloat("STARTING_BALANCE", defaultStartingBalance)
	if err != nil {
		return nil, fmt.Errorf("parse STARTING_BALANCE: %w", err)
	}
	threshold, err := getFloat("MARGIN_WARNING_THRESHOLD", defaultWarningThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse MARGIN_WARNING_THRESHOLD: %w", err)
	}
	commission, err := getFloat("COMMISSION_PER_CONTRACT", defaultCommission)
	if err != nil {
		return nil, fmt.Errorf("parse COMMISSION_PER_CONTRACT: %w", err)
	}
	warmup, err := getInt("WARMUP_CANDLES", defaultWarmupCandles)
	if err != nil {
		return nil, fmt.Errorf("parse WARMUP_CANDLES: %w", err)
	}
	speed, err := getFloat("PLAYBACK_SPEED", defaultPlaybackSpeed)
	if err != nil {
		return nil, fmt.Errorf("parse PLAYBACK_SPEED: %w", err)
	}

	seed, err := getInt64("FEED_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("parse FEED_SEED: %w", err)
	}
	startPrice, err := getFloat("FEED_START_PRICE", defaultStartPrice)
	if err != nil {
		return nil, fmt.Errorf("parse FEED_START_PRICE: %w", err)
	}

	source := getString("FEED_SOURCE", defaultFeedSource)
	csvPath := os.Getenv("FEED_CSV_PATH")
	if source == "csv" && csvPath == "" {
		return nil, fmt.Errorf("FEED_CSV_PATH is required when FEED_SOURCE=csv")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	return &Config{
		Env: getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{
			Host: getString("HTTP_HOST", defaultHTTPHost),
			Port: port,
		},
		Account: AccountConfig{
			StartingBalance:       balance,
			WarningThreshold:      threshold,
			CommissionPerContract: commission,
			WarmupCandles:         warmup,
			PlaybackSpeed:         speed,
		},
		Feed: FeedConfig{
			Source:     source,
			CSVPath:    csvPath,
			Seed:       seed,
			StartPrice: startPrice,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_DSN"),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", ""),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int64: %w", key, value, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to float: %w", key, value, err)
	}
	return parsed, nil
}
