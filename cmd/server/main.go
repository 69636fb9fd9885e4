package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/memepie/backend/internal/handlers"
	"github.com/anonto42/memepie/backend/internal/metrics"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/router"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/anonto42/memepie/backend/pkg/cache"
	"github.com/anonto42/memepie/backend/pkg/config"
	"github.com/anonto42/memepie/backend/pkg/firebase"
	"github.com/anonto42/memepie/backend/pkg/logger"
	"github.com/anonto42/memepie/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Caller: !cfg.IsProduction()})

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize databases")
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate PostgreSQL")
	}

	ctx := context.Background()
	repos := router.PersistentRepositories(db.Postgres, db.Mongo.Database(cfg.MongoDatabase))
	if memes, ok := repos.Memes.(*repositories.MongoMemeRepository); ok {
		if err := memes.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create meme indexes")
		}
	}

	checks := router.DatabaseChecks(db.Postgres, db.Mongo)
	suggestionCache := initCache(ctx, cfg, checks)

	// Initialize Firebase
	deps := router.Deps{
		Repos:         repos,
		Cache:         suggestionCache,
		JWTSecret:     cfg.JWTSecret,
		SuggestionTTL: cfg.SuggestionCacheTTL,
		HealthChecks:  checks,
	}
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Firebase")
	}
	if firebaseApp != nil {
		deps.FirebaseAuth = firebaseApp.Auth()
	}

	metrics.Register(prometheus.DefaultRegisterer)
	go serveMetrics(cfg.MetricsPort)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e)
	router.RegisterRoutes(e, deps)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// initCache connects redis when configured. Without it suggestions are computed on every request.
func initCache(ctx context.Context, cfg *config.Config, checks map[string]handlers.HealthCheck) services.Cache {
	if cfg.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR not set, suggestion cache disabled")
		return cache.Noop{}
	}

	rc := cache.NewRedisCache(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, suggestion cache disabled")
		return cache.Noop{}
	}

	checks["redis"] = rc.Ping
	log.Info().Str("addr", cfg.RedisAddr).Msg("Redis suggestion cache connected")
	return rc
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("port", port).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server stopped")
	}
}
