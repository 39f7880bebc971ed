package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeffgoval/estetic-sub001/internal/config"
	"github.com/jeffgoval/estetic-sub001/internal/db"
	redisclient "github.com/jeffgoval/estetic-sub001/internal/redis"
	"github.com/jeffgoval/estetic-sub001/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "resolve-worker").Logger()
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("resolve-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	store := scheduling.NewPgStore(pgPool)
	locker := redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
	svc := scheduling.NewService(store, locker, cfg, logger)

	// Run once at startup
	runOnce(rootCtx, store, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping resolve worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, store, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, store scheduling.Store, svc *scheduling.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()

	tenants, err := store.ListTenantsWithWaiting(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("list tenants error")
		return
	}

	assigned, failed := 0, 0
	for _, tenantID := range tenants {
		results, err := svc.ResolveWaiting(runCtx, tenantID)
		if err != nil {
			logger.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("resolve run error")
			continue
		}
		for _, res := range results {
			if res.Err != nil {
				failed++
			} else {
				assigned++
			}
		}
	}

	logger.Info().
		Int("tenants", len(tenants)).
		Int("assigned", assigned).
		Int("unresolved", failed).
		Dur("duration", time.Since(start)).
		Msg("resolve run complete")
}
