package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pointlab/poinavi/internal/adapters/googleplaces"
	"github.com/pointlab/poinavi/internal/adapters/http"
	natsadapter "github.com/pointlab/poinavi/internal/adapters/nats"
	"github.com/pointlab/poinavi/internal/adapters/postgres"
	"github.com/pointlab/poinavi/internal/adapters/valkey"
	"github.com/pointlab/poinavi/internal/core/hours"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/core/usecases"
	"github.com/pointlab/poinavi/internal/pkg/config"
	"github.com/pointlab/poinavi/internal/pkg/logging"
	"github.com/pointlab/poinavi/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("poinavi-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Venue-local clock for availability decisions
	loc, err := time.LoadLocation(cfg.Places.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Places.Timezone, err)
	}

	// Upstream place search
	places := googleplaces.NewClient(cfg.Places.APIKey,
		googleplaces.WithLanguage(cfg.Places.Language))

	resolver := hours.NewResolver(hours.Config{
		TodayOnly24hScan: cfg.Places.StrictTwentyFourHour,
	})

	// Repos
	tagRepo := postgres.NewTagRepo(db)
	searchLogRepo := postgres.NewSearchLogRepo(db)

	// Use cases
	placeSvc := usecases.NewPlaceService(places, places, cacheSvc, publisher,
		resolver, usecases.SystemClock{Loc: loc})
	tagSvc := usecases.NewTagService(tagRepo)

	deps := &http.Dependencies{
		Places:    placeSvc,
		Tags:      tagSvc,
		SearchLog: searchLogRepo,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Poinavi API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.pointlab.jp",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
