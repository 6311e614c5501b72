// Package main is the entry point for the Travel Companion API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/travel-companion/internal/chat"
	"github.com/pkordes/travel-companion/internal/config"
	"github.com/pkordes/travel-companion/internal/extract"
	"github.com/pkordes/travel-companion/internal/handler"
	"github.com/pkordes/travel-companion/internal/middleware"
	"github.com/pkordes/travel-companion/internal/mirror"
	"github.com/pkordes/travel-companion/internal/repo"
	"github.com/pkordes/travel-companion/internal/service"
	"github.com/pkordes/travel-companion/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// goose needs a database/sql handle; share the pool's connections.
	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	_ = sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Services ---------------------------------------------------------
	trips := mirror.New()
	trips.Subscribe(func(c mirror.Change) {
		logger.Debug("mirror change", "kind", c.Kind, "trip", c.TripName)
	})

	extractor := extract.New(cfg.Location)
	extractor.Logger = logger

	// Every service that writes a trip shares one set of per-trip locks.
	locks := service.NewTripLocks()
	tripSvc := service.NewTripService(repo.NewTripRepo(pool), trips, locks)
	itinerarySvc := service.NewItineraryService(repo.NewItineraryRepo(pool), trips, extractor, locks, cfg.Location)
	sessionSvc := service.NewSessionService(
		repo.NewMessageRepo(pool),
		itinerarySvc,
		trips,
		chat.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
		service.SessionConfig{Model: cfg.OpenAIModel, Timeout: cfg.ChatTimeout, Logger: logger, Locks: locks},
	)
	exportSvc := service.NewExportService(trips, cfg.Location)

	loaded, err := tripSvc.Load(ctx)
	if err != nil {
		slog.Error("failed to load trips", "error", err)
		os.Exit(1)
	}
	slog.Info("trips loaded", "count", loaded)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(tripSvc, sessionSvc, itinerarySvc, exportSvc, logger)
	srv.HandlerFromMux(r)

	// --- HTTP Server ------------------------------------------------------
	// A chat turn holds its request open until the assistant replies, so the
	// write timeout must outlast the chat timeout.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ChatTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ChatTimeout+5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
