// Package main is the entry point for the printbridge API server.
//
// It loads configuration, opens the PostgreSQL pool and AWS clients, wires
// the webhook ingestion pipeline (registry → verifiers → decoders →
// classifiers → dispatcher → handlers) together with the audit trail and the
// ops surface, and serves HTTP until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"printbridge/internal/audit"
	"printbridge/internal/config"
	"printbridge/internal/core"
	"printbridge/internal/db"
	"printbridge/internal/external"
	"printbridge/internal/metrics"
	"printbridge/internal/ops"
	"printbridge/internal/queue"
	"printbridge/internal/types"
	"printbridge/internal/webhooks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("printbridge API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database pool. Repositories share it through the DBTX interface.
	pool, err := pgxpool.New(ctx, cfg.Database.URL.Unmask())
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	auditRepo := db.NewAuditLogRepository(pool)
	orderRepo := db.NewOrderStateRepository(pool)
	paymentRepo := db.NewPaymentEventRepository(pool)

	// AWS clients for alerting and metrics. Both degrade to log-only when
	// unconfigured, so local development needs no AWS credentials.
	notifier, cwMetrics := buildAWSClients(ctx, cfg.AWS, logger)

	trail := audit.NewStoreTrail(auditRepo, logger)

	dispatcher := webhooks.NewDispatcher(logger)
	orderHandler := webhooks.NewOrderEventsHandler(orderRepo, logger)
	dispatcher.Register(orderHandler, orderHandler.Kinds()...)
	paymentHandler := webhooks.NewPaymentEventsHandler(paymentRepo, notifier, logger)
	dispatcher.Register(paymentHandler, paymentHandler.Kinds()...)

	ingress := webhooks.NewIngress(
		webhooks.NewRegistry(),
		cfg.Providers,
		dispatcher,
		trail,
		cwMetrics,
		cfg.Webhooks,
		logger,
	)

	opsHandler := ops.NewHandler(
		auditRepo,
		orderRepo,
		buildVendorFetchers(cfg.Vendors),
		cfg.Ops,
		logger,
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	ingress.RegisterRoutes(srv.Router())
	opsHandler.RegisterRoutes(srv.Router())
	srv.Router().Get("/health", core.HealthHandler(pool))

	return serve(ctx, srv, cfg, logger)
}

// buildAWSClients constructs the SQS alert notifier and CloudWatch metrics
// publisher. When AWS configuration fails or pieces are unconfigured, both
// fall back to log-only behavior rather than blocking startup.
func buildAWSClients(ctx context.Context, awsCfg config.AWSConfig, logger *slog.Logger) (*queue.AlertNotifier, webhooks.Metrics) {
	loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
	if err != nil {
		logger.Warn("AWS config unavailable; alerts and metrics are log-only", "error", err)
		return queue.NewAlertNotifier(nil, awsCfg, logger), webhooks.NoopMetrics{}
	}

	endpoint := awsCfg.EndpointURL

	sqsClient := sqs.NewFromConfig(loaded, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	cwClient := cloudwatch.NewFromConfig(loaded, func(o *cloudwatch.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	notifier := queue.NewAlertNotifier(sqsClient, awsCfg, logger)
	cwMetrics := metrics.NewCloudWatchMetrics(cwClient, awsCfg.MetricsNamespace, logger)
	return notifier, cwMetrics
}

// buildVendorFetchers constructs the outbound vendor API clients for
// providers with credentials configured. Each client gets its own circuit
// breaker so one vendor's outage never trips the other's.
func buildVendorFetchers(cfg config.VendorConfig) map[types.Provider]external.OrderFetcher {
	fetchers := make(map[types.Provider]external.OrderFetcher)
	httpClient := &http.Client{Timeout: cfg.CallTimeout}
	policy := external.RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}

	if !cfg.PrintfulAPIKey.IsZero() {
		base := external.NewBaseClient(httpClient, "printful", policy, cfg.UserAgent)
		fetchers[types.ProviderPrintful] = external.NewPrintfulClient(base, cfg.PrintfulAPIKey)
	}
	if !cfg.PrintifyAPIKey.IsZero() && cfg.PrintifyShopID != "" {
		base := external.NewBaseClient(httpClient, "printify", policy, cfg.UserAgent)
		fetchers[types.ProviderPrintify] = external.NewPrintifyClient(base, cfg.PrintifyAPIKey, cfg.PrintifyShopID)
	}
	return fetchers
}

// serve runs the HTTP server until the context is canceled, then shuts down
// gracefully within the configured timeout.
func serve(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log
// level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
