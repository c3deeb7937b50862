package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marcoalvarez/boostgrid-backend/api/routes"
	"github.com/marcoalvarez/boostgrid-backend/internal/auth"
	"github.com/marcoalvarez/boostgrid-backend/internal/catalog"
	"github.com/marcoalvarez/boostgrid-backend/internal/deposits"
	"github.com/marcoalvarez/boostgrid-backend/internal/notifications"
	"github.com/marcoalvarez/boostgrid-backend/internal/orders"
	"github.com/marcoalvarez/boostgrid-backend/internal/reconcile"
	"github.com/marcoalvarez/boostgrid-backend/internal/users"
	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	"github.com/marcoalvarez/boostgrid-backend/pkg/auth/session"
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
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	providerMetrics := metrics.NewProviderMetrics(prometheus.DefaultRegisterer)
	secsersClient, err := secsers.NewClient(ctx, cfg.Secsers, logg, providerMetrics)
	requireResource(ctx, logg, "secsers client", err)

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	walletRepo := wallet.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	requireResource(ctx, logg, "auth service", err)

	signupService, err := auth.NewSignupService(auth.SignupServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		Outbox:         outboxService,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	requireResource(ctx, logg, "signup service", err)

	usersService, err := users.NewService(usersRepo, dbClient)
	requireResource(ctx, logg, "users service", err)

	catalogService, err := catalog.NewService(catalogRepo, cfg.CDN.BaseURL)
	requireResource(ctx, logg, "catalog service", err)

	walletService, err := wallet.NewService(walletRepo, dbClient)
	requireResource(ctx, logg, "wallet service", err)

	depositsService, err := deposits.NewService(walletService, outboxService, dbClient)
	requireResource(ctx, logg, "deposits service", err)

	ordersService, err := orders.NewService(ordersRepo, catalogRepo, walletService, secsersClient, outboxService, dbClient, logg, cfg.App.Currency)
	requireResource(ctx, logg, "orders service", err)

	reconcileService, err := reconcile.NewService(ordersRepo, secsersClient, outboxService, dbClient, logg, cfg.Reconcile.OpenStatuses, cfg.Reconcile.PageSize)
	requireResource(ctx, logg, "reconcile service", err)

	notificationsService, err := notifications.NewService(notificationsRepo)
	requireResource(ctx, logg, "notifications service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			secsersClient,
			authService,
			signupService,
			usersService,
			catalogService,
			walletService,
			depositsService,
			ordersService,
			reconcileService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
