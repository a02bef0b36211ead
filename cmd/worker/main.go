package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/temporal"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/saaslens/internal/activity"
	"github.com/edvin/saaslens/internal/analytics"
	"github.com/edvin/saaslens/internal/billing"
	"github.com/edvin/saaslens/internal/config"
	"github.com/edvin/saaslens/internal/core"
	"github.com/edvin/saaslens/internal/crypto"
	"github.com/edvin/saaslens/internal/db"
	"github.com/edvin/saaslens/internal/logging"
	"github.com/edvin/saaslens/internal/metrics"
	"github.com/edvin/saaslens/internal/workflow"
)

const snapshotScheduleID = "metric-snapshot-cron"

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "worker"
	}
	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)
	zerolog.DefaultContextLogger = &logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServiceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPoolMetrics(pool)

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	key, err := crypto.ParseKey(cfg.TokenEncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid TOKEN_ENCRYPTION_KEY")
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token sealer")
	}
	services := core.NewServices(pool, tc, sealer, analytics.SystemClock{}, cfg.LTVLifetimeMonths)
	ingestor := billing.NewIngestor(services.Customers, services.Products, services.Subscriptions)

	w := worker.New(tc, core.TaskQueue, worker.Options{})

	w.RegisterActivity(activity.NewBillingSync(services.Connections, billing.NewStripeClient(), ingestor, cfg.SyncActivityConcurrency))
	w.RegisterActivity(activity.NewMetrics(services.Metrics))

	w.RegisterWorkflow(workflow.SyncConnectionWorkflow)
	w.RegisterWorkflow(workflow.MetricSnapshotWorkflow)

	if cfg.MetricsListenAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsListenAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", core.TaskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	if cfg.SnapshotSchedule != "" {
		registerSnapshotSchedule(ctx, tc, cfg.SnapshotSchedule, logger)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

// registerSnapshotSchedule creates the daily snapshot schedule. An existing
// schedule is left as it is so redeploys do not fail.
func registerSnapshotSchedule(ctx context.Context, tc temporalclient.Client, cron string, logger zerolog.Logger) {
	_, err := tc.ScheduleClient().Create(ctx, temporalclient.ScheduleOptions{
		ID: snapshotScheduleID,
		Spec: temporalclient.ScheduleSpec{
			CronExpressions: []string{cron},
		},
		Action: &temporalclient.ScheduleWorkflowAction{
			ID:        snapshotScheduleID,
			Workflow:  workflow.MetricSnapshotWorkflow,
			TaskQueue: core.TaskQueue,
		},
	})
	switch {
	case errors.Is(err, temporal.ErrScheduleAlreadyRunning):
		logger.Info().Str("id", snapshotScheduleID).Msg("snapshot schedule already exists, skipping")
	case err != nil:
		logger.Fatal().Err(err).Str("id", snapshotScheduleID).Msg("failed to create snapshot schedule")
	default:
		logger.Info().Str("id", snapshotScheduleID).Str("cron", cron).Msg("created snapshot schedule")
	}
}
