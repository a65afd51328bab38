// Command analytics consumes search events from NATS JetStream and persists
// them to the search_log table for offline analysis.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/pointlab/poinavi/internal/adapters/nats"
	"github.com/pointlab/poinavi/internal/adapters/postgres"
	"github.com/pointlab/poinavi/internal/core/domain"
	"github.com/pointlab/poinavi/internal/core/ports"
	"github.com/pointlab/poinavi/internal/pkg/config"
	"github.com/pointlab/poinavi/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("poinavi-analytics")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	searchLog := postgres.NewSearchLogRepo(db)

	// NATS
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeSearchEvents(ctx, func(ctx context.Context, ev *domain.SearchEvent) error {
		entry := &ports.SearchLogEntry{
			Time:           ev.Time,
			Query:          ev.Query,
			Category:       ev.Category,
			AlternateQuery: ev.AlternateQuery,
			Origin:         ev.Origin,
			Results:        ev.Results,
			Retried:        ev.Retried,
			CacheHit:       ev.CacheHit,
		}
		if err := searchLog.Insert(ctx, entry); err != nil {
			slog.Error("persist search event", "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("analytics consumer started")

	// Periodic volume report
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			count, err := searchLog.CountSince(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				slog.Warn("search volume query failed", "error", err)
				continue
			}
			slog.Info("search volume", "window", "24h", "searches", count)
		case sig := <-quit:
			slog.Info("shutting down analytics consumer", "signal", sig.String())
			cancel()
			return
		}
	}
}
