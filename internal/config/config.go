// Package config assembles the full runtime configuration for the
// stockclass services on top of the shared base config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	base "github.com/hyunwoopark/stockclass/libs/config"
)

type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

func (c DBConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether Redis-backed caching and rate limiting should
// be used. An empty addr falls back to the in-process implementations.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type TradingConfig struct {
	CommissionRate decimal.Decimal
	Cooldown       time.Duration
	InitialCash    decimal.Decimal
	MaxRetries     int
	RetryBackoff   time.Duration
}

type RateLimitConfig struct {
	AuthLimit  int
	AuthWindow time.Duration
	Prefix     string
}

type PriceFeedConfig struct {
	BaseURL  string
	APIKey   string
	Interval time.Duration
	Timeout  time.Duration
}

type CacheConfig struct {
	QuoteTTL time.Duration
	Prefix   string
}

type Config struct {
	App       base.AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Trading   TradingConfig
	RateLimit RateLimitConfig
	PriceFeed PriceFeedConfig
	Cache     CacheConfig
}

func Load() (*Config, error) {
	appCfg, err := base.Load(os.Getenv("STOCKCLASS_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: *appCfg,
		DB: DBConfig{
			Host:     envString("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			Name:     envString("POSTGRES_DB", "stockclass"),
			User:     envString("POSTGRES_USER", "stockclass"),
			Password: envString("POSTGRES_PASSWORD", "stockclass"),
			SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     envString("STOCKCLASS_REDIS_ADDR", ""),
			Password: envString("STOCKCLASS_REDIS_PASSWORD", ""),
			DB:       envInt("STOCKCLASS_REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:          envString("STOCKCLASS_JWT_SECRET", ""),
			Issuer:          envString("STOCKCLASS_JWT_ISSUER", "stockclass"),
			AccessTokenTTL:  envDuration("STOCKCLASS_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: envDuration("STOCKCLASS_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		},
		Trading: TradingConfig{
			CommissionRate: envDecimal("STOCKCLASS_COMMISSION_RATE", "0.00015"),
			Cooldown:       envDuration("STOCKCLASS_PURCHASE_COOLDOWN", 24*time.Hour),
			InitialCash:    envDecimal("STOCKCLASS_INITIAL_CASH", "1000000"),
			MaxRetries:     envInt("STOCKCLASS_TRADE_MAX_RETRIES", 3),
			RetryBackoff:   envDuration("STOCKCLASS_TRADE_RETRY_BACKOFF", 25*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			AuthLimit:  envInt("STOCKCLASS_AUTH_RATE_LIMIT", 10),
			AuthWindow: envDuration("STOCKCLASS_AUTH_RATE_WINDOW", time.Minute),
			Prefix:     envString("STOCKCLASS_RATE_LIMIT_PREFIX", "stockclass:rl:"),
		},
		PriceFeed: PriceFeedConfig{
			BaseURL:  envString("STOCKCLASS_PRICEFEED_URL", ""),
			APIKey:   envString("STOCKCLASS_PRICEFEED_API_KEY", ""),
			Interval: envDuration("STOCKCLASS_PRICEFEED_INTERVAL", time.Minute),
			Timeout:  envDuration("STOCKCLASS_PRICEFEED_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			QuoteTTL: envDuration("STOCKCLASS_QUOTE_CACHE_TTL", 30*time.Second),
			Prefix:   envString("STOCKCLASS_QUOTE_CACHE_PREFIX", "stockclass:quote:"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("STOCKCLASS_JWT_SECRET must be set")
	}
	if cfg.Trading.CommissionRate.IsNegative() {
		return nil, fmt.Errorf("commission rate must not be negative")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envDecimal(key, def string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(def)
}
