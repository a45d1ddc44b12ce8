package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hyunwoopark/stockclass/internal/cache"
	"github.com/hyunwoopark/stockclass/internal/config"
	"github.com/hyunwoopark/stockclass/internal/handlers"
	"github.com/hyunwoopark/stockclass/internal/rate"
	"github.com/hyunwoopark/stockclass/internal/security"
	"github.com/hyunwoopark/stockclass/internal/service"
	"github.com/hyunwoopark/stockclass/internal/storage"
	"github.com/hyunwoopark/stockclass/internal/trading"
	"github.com/hyunwoopark/stockclass/libs/auth"
	"github.com/hyunwoopark/stockclass/libs/health"
	"github.com/hyunwoopark/stockclass/libs/httpmiddleware"
	"github.com/hyunwoopark/stockclass/libs/logging"
	"github.com/hyunwoopark/stockclass/libs/metrics"
	"github.com/hyunwoopark/stockclass/libs/trace"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, cfg.App.ServiceName, cfg.App.Env)
	slog.SetDefault(logger)

	shutdownTracer, err := trace.InitTracer(cfg.App.ServiceName, cfg.App.Env)
	if err != nil {
		logger.Error("tracer init failed", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)
	svcMetrics := service.NewMetrics(registry)

	pool, err := connectDB(cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := storage.New(pool, logger)

	var redisClient *redis.Client
	var quoteCache cache.QuoteCache
	var limiter rate.Limiter
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		quoteCache = cache.NewRedis(redisClient, cfg.Cache.QuoteTTL, cfg.Cache.Prefix)
		limiter = rate.NewRedis(redisClient, cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow, cfg.RateLimit.Prefix)
		logger.Info("redis enabled", "addr", cfg.Redis.Addr)
	} else {
		quoteCache = cache.NewMemory(cfg.Cache.QuoteTTL)
		limiter = rate.NewMemory(cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow)
	}

	tradingParams := trading.Params{
		CommissionRate: cfg.Trading.CommissionRate,
		Cooldown:       cfg.Trading.Cooldown,
	}

	quoteSvc := service.NewQuoteService(quoteCache, store, logger, svcMetrics)
	tradingSvc := service.NewTradingService(store, logger, svcMetrics, tradingParams, cfg.Trading.MaxRetries, cfg.Trading.RetryBackoff)
	portfolioSvc := service.NewPortfolioService(store, quoteSvc)
	teacherSvc := service.NewTeacherService(store, logger)
	leaderboardSvc := service.NewLeaderboardService(store, quoteSvc)
	watchlistSvc := service.NewWatchlistService(store, logger)

	authHandler := handlers.NewAuthHandler(store, logger, handlers.AuthHandlerConfig{
		JWTSecret:   cfg.JWT.Secret,
		Issuer:      cfg.JWT.Issuer,
		AccessTTL:   cfg.JWT.AccessTokenTTL,
		RefreshTTL:  cfg.JWT.RefreshTokenTTL,
		InitialCash: cfg.Trading.InitialCash,
		Argon2:      security.DefaultArgon2Params(),
	}, limiter)

	ready := health.NewManager(false)
	router := buildRouter(cfg, logger, registry, ready)

	authHandler.RegisterRoutes(router)

	authed := router.Group("/", auth.Middleware([]byte(cfg.JWT.Secret)))
	handlers.NewTradingHandler(tradingSvc, logger).RegisterRoutes(authed)
	handlers.NewPortfolioHandler(portfolioSvc, logger).RegisterRoutes(authed)
	handlers.NewStocksHandler(quoteSvc, logger).RegisterRoutes(authed)
	handlers.NewTeacherHandler(teacherSvc, leaderboardSvc, logger).RegisterRoutes(authed)
	handlers.NewLeaderboardHandler(leaderboardSvc, logger).RegisterRoutes(authed)
	handlers.NewWatchlistHandler(watchlistSvc, logger).RegisterRoutes(authed)

	addr := fmt.Sprintf("%s:%d", cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.App.HTTP.ReadTimeout,
		WriteTimeout: cfg.App.HTTP.WriteTimeout,
		IdleTimeout:  cfg.App.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("api listening", "addr", addr)
		ready.SetReady(true)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	waitForShutdown(server, ready, shutdownTracer, logger)
}

func connectDB(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DB.ConnString())
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func buildRouter(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry, ready *health.Manager) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(httpmiddleware.RequestID())
	router.Use(httpmiddleware.Logger(logger))
	router.Use(httpmiddleware.Recovery(logger))
	router.Use(trace.Middleware(cfg.App.ServiceName))

	router.GET("/healthz", health.LivenessHandler)
	router.GET("/readyz", health.ReadinessHandler(ready))
	router.GET(cfg.App.MetricsPath, gin.WrapH(metrics.Handler(registry)))
	return router
}

func waitForShutdown(server *http.Server, ready *health.Manager, shutdownTracer func(context.Context) error, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ready.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Error("tracer shutdown error", "error", err)
	}
	logger.Info("stopped")
}
