// Package main is the audit archiver job. It moves audit records older than
// the configured retention out of PostgreSQL into gzip-compressed NDJSON
// files, batch by batch, then exits. It is meant to run on a schedule (cron,
// ECS scheduled task) rather than as a long-lived service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"printbridge/internal/audit"
	"printbridge/internal/config"
	"printbridge/internal/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("audit archiver starting",
		"retention", cfg.Archive.Retention.String(),
		"dir", cfg.Archive.Dir,
		"batch_size", cfg.Archive.BatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	archiver := audit.NewArchiver(db.NewAuditLogRepository(pool), cfg.Archive, logger)

	archived, err := archiver.Run(ctx)
	if err != nil {
		return fmt.Errorf("archiving audit records: %w", err)
	}

	logger.Info("audit archiver finished", "archived", archived)
	return nil
}
