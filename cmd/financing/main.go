package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knowak/carmarket-financing-go/internal/config"
	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/handler"
	"github.com/knowak/carmarket-financing-go/internal/infra/cache"
	"github.com/knowak/carmarket-financing-go/internal/infra/client"
	"github.com/knowak/carmarket-financing-go/internal/infra/observability"
	"github.com/knowak/carmarket-financing-go/internal/infra/resilience"
	"github.com/knowak/carmarket-financing-go/internal/port"
	"github.com/knowak/carmarket-financing-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("catalog_api_url", cfg.CatalogAPIURL),
		zap.String("calculator_api_url", cfg.CalculatorAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("catalog_ttl", cfg.CatalogTTL),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "carmarket-financing")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	var catalogCache port.Cache[*domain.Catalog]
	if cfg.RedisAddr != "" {
		logger.Info("using Redis catalog cache", zap.String("redis_addr", cfg.RedisAddr))
		catalogCache = cache.NewRedis[*domain.Catalog](cfg.RedisAddr, "financing:catalog", cfg.CatalogTTL, logger)
	} else {
		catalogCache = cache.New[*domain.Catalog](cfg.CatalogTTL)
	}
	sessionCache := cache.New[*service.Session](cfg.SessionTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	catalogCB := resilience.NewCircuitBreaker("catalog-api")
	calculatorCB := resilience.NewCircuitBreaker("calculator-api")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	catalogClient := client.NewCatalogClient(httpClient, cfg.CatalogAPIURL, catalogCB, resilienceCfg)
	calculatorClient := client.NewCalculatorClient(httpClient, cfg.CalculatorAPIURL, calculatorCB, cfg.MaxConcurrency)

	// --- Services ---
	financingSvc := service.NewFinancingService(
		catalogClient,
		calculatorClient,
		catalogCache,
		sessionCache,
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(financingSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
