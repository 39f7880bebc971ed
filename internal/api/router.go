package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Service SchedulingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Tenant-scoped scheduling endpoints
	r.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Get("/slots", listSlotsHandler(cfg.Service))
		r.Get("/waitlist/{id}", getEntryHandler(cfg.Service))
		r.Post("/waitlist/{id}/assign", assignEntryHandler(cfg.Service))
		r.Post("/waitlist/{id}/status", updateEntryStatusHandler(cfg.Service))
		r.Post("/waitlist/resolve", resolveWaitlistHandler(cfg.Service))
	})

	return r
}
