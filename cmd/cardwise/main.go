package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/config"
	"github.com/jpolanco/cardwise/internal/engine"
	"github.com/jpolanco/cardwise/internal/handler"
	"github.com/jpolanco/cardwise/internal/infra/cache"
	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/infra/resilience"
	"github.com/jpolanco/cardwise/internal/infra/sqlite"
	"github.com/jpolanco/cardwise/internal/infra/supabase"
	"github.com/jpolanco/cardwise/internal/port"
	"github.com/jpolanco/cardwise/internal/service"
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
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.String("sqlite_path", cfg.SQLitePath),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cardwise")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Scoring policy ---
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		logger.Fatal("failed to load scoring policy", zap.Error(err))
	}

	// --- Store ---
	var store port.LedgerStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as persistence backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		store = supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			metrics,
			logger,
		)
	} else {
		logger.Info("using SQLite as persistence backend", zap.String("path", cfg.SQLitePath))
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()
		store = db
	}

	// --- Cache ---
	snapshots := cache.New[*engine.Snapshot](cfg.CacheTTL)

	// --- Services ---
	ledgerSvc := service.NewLedgerService(store, snapshots, metrics, logger)
	recSvc := service.NewRecommendationService(store, ledgerSvc, engine.NewScorer(policy), metrics, logger)
	savSvc := service.NewSavingsService(store, ledgerSvc, logger)

	// --- Router ---
	router := handler.NewRouter(ledgerSvc, recSvc, savSvc, metrics, logger)

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
