package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hyunwoopark/stockclass/internal/cache"
	"github.com/hyunwoopark/stockclass/internal/config"
	"github.com/hyunwoopark/stockclass/internal/pricefeed"
	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/libs/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.PriceFeed.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "STOCKCLASS_PRICEFEED_URL must be set")
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, "stockclass-pricefeed", cfg.App.Env)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := pgxpool.New(ctx, cfg.DB.ConnString())
	if err == nil {
		err = pool.Ping(ctx)
	}
	cancel()
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := storage.New(pool, logger)

	var quoteCache cache.QuoteCache
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		quoteCache = cache.NewRedis(redisClient, cfg.Cache.QuoteTTL, cfg.Cache.Prefix)
	} else {
		// Without Redis each process has its own cache; invalidation
		// here cannot reach the API's map, the TTL covers that case.
		quoteCache = cache.NewMemory(cfg.Cache.QuoteTTL)
	}
	quotes := service.NewQuoteService(quoteCache, store, logger, nil)

	client := pricefeed.NewClient(cfg.PriceFeed.BaseURL, cfg.PriceFeed.APIKey, cfg.PriceFeed.Timeout)
	updater := pricefeed.NewUpdater(store, client, quotes, logger, cfg.PriceFeed.Interval)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("price feed starting",
		"interval", cfg.PriceFeed.Interval.String(),
		"upstream", cfg.PriceFeed.BaseURL,
	)
	updater.Run(runCtx)
	logger.Info("price feed stopped")
}
