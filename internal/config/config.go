package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paisa-pay/paisa_pay/internal/money"
)

const (
	defaultAppName          = "PaisaPay"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultMinAmount        = "0.01"
	defaultMaxAmount        = "10000.00"
	defaultRateLimit        = 100
	defaultRateWindow       = time.Hour
	defaultWalletRateLimit  = 10
	defaultWalletRateWindow = 5 * time.Minute
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Transaction amount bounds enforced on wallet mutations.
	MinAmount money.Money
	MaxAmount money.Money

	// Fixed-window rate limit budgets. The wallet budget applies to balance
	// mutations and is tighter than the general one.
	RateLimitRequests       int
	RateLimitWindow         time.Duration
	WalletRateLimitRequests int
	WalletRateLimitWindow   time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. Outside development, DATABASE_URL and REDIS_URL must be set.
func Load() (Config, error) {
	cfg := Config{
		AppName:     getEnv("APP_NAME", defaultAppName),
		AppEnv:      getEnv("APP_ENV", defaultAppEnv),
		Port:        getEnv("PORT", defaultPort),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	if cfg.MinAmount, err = amountEnv("MIN_TRANSACTION_AMOUNT", defaultMinAmount); err != nil {
		return Config{}, err
	}
	if cfg.MaxAmount, err = amountEnv("MAX_TRANSACTION_AMOUNT", defaultMaxAmount); err != nil {
		return Config{}, err
	}
	if cfg.MaxAmount.LessThan(cfg.MinAmount) {
		return Config{}, fmt.Errorf("MAX_TRANSACTION_AMOUNT %s is below MIN_TRANSACTION_AMOUNT %s", cfg.MaxAmount, cfg.MinAmount)
	}

	if cfg.RateLimitRequests, err = intEnv("RATE_LIMIT_REQUESTS", defaultRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", defaultRateWindow); err != nil {
		return Config{}, err
	}
	if cfg.WalletRateLimitRequests, err = intEnv("WALLET_RATE_LIMIT_REQUESTS", defaultWalletRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.WalletRateLimitWindow, err = durationEnv("WALLET_RATE_LIMIT_WINDOW", defaultWalletRateWindow); err != nil {
		return Config{}, err
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment, where
// in-memory fallbacks replace missing Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads <key>_SECONDS as an integer first, then <key> as a Go
// duration string.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func amountEnv(key, fallback string) (money.Money, error) {
	v := getEnv(key, fallback)
	m, err := money.Parse(v)
	if err != nil {
		return money.Money{}, fmt.Errorf("invalid %s: %q", key, v)
	}
	return m, nil
}
