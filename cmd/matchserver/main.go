// cmd/matchserver/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grantmatch/internal/cache"
	"grantmatch/internal/common/config"
	"grantmatch/internal/common/database"
	"grantmatch/internal/common/logger"
	"grantmatch/internal/common/observability"
	"grantmatch/internal/matching"
	"grantmatch/internal/ratelimit"
	"grantmatch/internal/search"
	"grantmatch/internal/server"
	"grantmatch/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting match server...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry (optional remote cache tier) ---
	var remoteTier cache.RemoteTier
	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		remoteTier = cache.NewRedisTier(redis.Client)
	} else {
		zapLog.Info("Redis disabled, caches run local-only")
	}

	resultCache, err := cache.New(cfg.Cache.LocalMaxEntries, remoteTier, log)
	if err != nil {
		zapLog.Fatal("result cache init failed", zap.Error(err))
	}

	profileCache, err := cache.New(cfg.Cache.LocalMaxEntries, remoteTier, log)
	if err != nil {
		zapLog.Fatal("profile cache init failed", zap.Error(err))
	}

	// --- Stores & Search ---
	pgStore := store.NewPostgresStore(pg.DB)
	profiles := store.NewCachedProfiles(pgStore, profileCache,
		cfg.Cache.ProfileExpiry(), cfg.Cache.ProfileCap())

	searcher := search.NewElasticsearchSearcher(esClient.Client,
		cfg.Database.Elasticsearch.Index, log)

	// --- Orchestrator ---
	orchestrator := matching.NewOrchestrator(searcher, profiles, resultCache, matching.Options{
		DefaultLimit:         cfg.Matching.DefaultLimit,
		MaxLimit:             cfg.Matching.MaxLimit,
		DefaultMinSimilarity: cfg.Matching.DefaultMinSimilarity,
		CandidatePoolSize:    cfg.Matching.CandidatePoolSize,
		SearchTimeout:        time.Duration(cfg.Matching.SearchTimeout) * time.Millisecond,
		ResultTTL:            cfg.Cache.ResultExpiry(),
	}, log)

	// --- Rate Limiter ---
	limiter := ratelimit.NewDefault(cfg.RateLimit.PerMinute, cfg.RateLimit.PerFiveMinute)
	limiterStop := make(chan struct{})
	go limiter.RunGC(time.Minute, limiterStop)

	// --- HTTP Server ---
	handlers := server.NewHandlers(orchestrator, obs, log)
	router := server.NewRouter(handlers, limiter, log)
	srv := server.New(cfg.Server, router, log)

	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	close(limiterStop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown error", zap.Error(err))
	}

	zapLog.Info("Match server stopped gracefully")
}
