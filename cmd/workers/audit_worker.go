package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/config"
	"bluetrust/registry-backend/internal/storage"
)

// AuditWorker periodically aggregates the archived audit log and reports
// whether the archived volumes are consistent. It runs against the archive
// database only; the live conservation audit happens inside the API process,
// which owns the authoritative ledger.
type AuditWorker struct {
	archive *storage.ArchiveStore
	logger  *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(archive *storage.ArchiveStore, logger *zap.Logger) *AuditWorker {
	return &AuditWorker{archive: archive, logger: logger}
}

// Run performs one archived-ledger audit pass.
func (w *AuditWorker) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	totals, err := w.archive.Totals(ctx)
	if err != nil {
		w.logger.Error("Archive audit failed", zap.Error(err))
		return
	}

	circulatingBound := totals.Minted - totals.Retired
	if circulatingBound < 0 {
		w.logger.Error("Archived retirements exceed archived mints",
			zap.Int64("minted", totals.Minted),
			zap.Int64("retired", totals.Retired))
		return
	}

	w.logger.Info("Archive audit passed",
		zap.Int64("entries", totals.Entries),
		zap.Int64("minted", totals.Minted),
		zap.Int64("retired", totals.Retired),
		zap.Int64("circulating_bound", circulatingBound))
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	_ = godotenv.Load()
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Database.Host == "" {
		logger.Fatal("Audit worker requires an archive database (set DATABASE_HOST)")
	}

	archive, err := storage.NewArchiveStore(cfg.Database.GetDatabaseURL(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to archive", zap.Error(err))
	}
	defer archive.Close()

	worker := NewAuditWorker(archive, logger)

	schedule := os.Getenv("AUDIT_SCHEDULE")
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	c := cron.New()
	if _, err := c.AddJob(schedule, worker); err != nil {
		logger.Fatal("Invalid audit schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	logger.Info("Audit worker started", zap.String("schedule", schedule))
	worker.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Audit worker exiting")
}
