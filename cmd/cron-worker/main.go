package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcoalvarez/boostgrid-backend/internal/cron"
	"github.com/marcoalvarez/boostgrid-backend/internal/notifications"
	"github.com/marcoalvarez/boostgrid-backend/internal/orders"
	"github.com/marcoalvarez/boostgrid-backend/internal/reconcile"
	"github.com/marcoalvarez/boostgrid-backend/pkg/config"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/metrics"
	"github.com/marcoalvarez/boostgrid-backend/pkg/migrate"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/redis"
	"github.com/marcoalvarez/boostgrid-backend/pkg/secsers"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	providerMetrics := metrics.NewProviderMetrics(prometheus.DefaultRegisterer)
	secsersClient, err := secsers.NewClient(ctx, cfg.Secsers, logg, providerMetrics)
	requireResource(ctx, logg, "secsers client", err)

	ordersRepo := orders.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	reconcileService, err := reconcile.NewService(ordersRepo, secsersClient, outboxService, dbClient, logg, cfg.Reconcile.OpenStatuses, cfg.Reconcile.PageSize)
	requireResource(ctx, logg, "reconcile service", err)

	reconcileJob, err := cron.NewOrderReconcileJob(cron.OrderReconcileJobParams{
		Logger:    logg,
		Reconcile: reconcileService,
	})
	requireResource(ctx, logg, "order reconcile job", err)

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	requireResource(ctx, logg, "outbox retention job", err)

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notificationsRepo,
	})
	requireResource(ctx, logg, "notification cleanup job", err)

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	// The provider sweep and the daily housekeeping run on different
	// cadences, so each loop carries its own leader lock.
	sweepLock, err := cron.NewRedisLock(redisClient, lockKey(redisClient, "sweep", cfg.App.Env), 0)
	requireResource(ctx, logg, "sweep lock", err)

	sweepService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     sweepLock,
		Metrics:  cronMetrics,
		Interval: cfg.Reconcile.Interval,
	})
	requireResource(ctx, logg, "sweep service", err)

	dailyLock, err := cron.NewRedisLock(redisClient, lockKey(redisClient, "daily", cfg.App.Env), 0)
	requireResource(ctx, logg, "daily lock", err)

	dailyService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(outboxRetentionJob, notificationCleanupJob),
		Lock:     dailyLock,
		Metrics:  cronMetrics,
	})
	requireResource(ctx, logg, "daily service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "starting cron worker")

	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		if err := metricsServer.Close(); err != nil {
			logg.Error(runCtx, "error closing metrics server", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- sweepService.Run(runCtx)
	}()
	go func() {
		errCh <- dailyService.Run(runCtx)
	}()

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func lockKey(client *redis.Client, group, env string) string {
	if env == "" {
		env = "local"
	}
	return client.LockKey(fmt.Sprintf("cron-worker:%s:%s", group, env))
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
