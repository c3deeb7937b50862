package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marcoalvarez/boostgrid-backend/api/controllers"
	"github.com/marcoalvarez/boostgrid-backend/api/middleware"
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
	"github.com/marcoalvarez/boostgrid-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	providerClient controllers.ProviderBalanceFetcher,
	authService auth.Service,
	signupService auth.SignupService,
	usersService users.Service,
	catalogService catalog.Service,
	walletService wallet.Service,
	depositsService deposits.Service,
	ordersService orders.Service,
	reconcileService reconcile.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, dbP, redisClient))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).Post("/signup", controllers.AuthSignup(signupService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/password", controllers.AuthChangePassword(authService, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogTree(catalogService, logg))
			r.Get("/services", controllers.CatalogServices(catalogService, logg))
		})
		r.Get("/v1/services/{serviceId}", controllers.ServiceDetail(catalogService, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.With(middleware.OrderRateLimit(cfg.OrderLimit, redisClient, logg)).Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Get("/{orderId}/status", controllers.OrderStatus(reconcileService, logg))
			r.Post("/{orderId}/refill", controllers.OrderRefill(ordersService, logg))
		})

		r.Route("/v1/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(walletService, cfg.App.Currency, logg))
			r.Get("/transactions", controllers.WalletTransactions(walletService, logg))
		})

		r.Route("/v1/deposits", func(r chi.Router) {
			r.Post("/", controllers.DepositCreate(depositsService, logg))
			r.Get("/", controllers.DepositList(depositsService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/", controllers.Me(usersService, logg))
			r.Patch("/", controllers.UpdateMe(usersService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Post("/{orderId}/refresh", controllers.AdminOrderRefresh(reconcileService, logg))
			r.Post("/{orderId}/confirm", controllers.AdminOrderConfirm(ordersService, logg))
			r.Post("/{orderId}/reject", controllers.AdminOrderReject(ordersService, logg))
		})

		r.Route("/deposits", func(r chi.Router) {
			r.Get("/", controllers.AdminDepositList(depositsService, logg))
			r.Post("/{transactionId}/confirm", controllers.AdminDepositConfirm(depositsService, logg))
			r.Post("/{transactionId}/reject", controllers.AdminDepositReject(depositsService, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(usersService, logg))
			r.Get("/{userId}", controllers.AdminUserDetail(usersService, logg))
			r.Post("/{userId}/ban", controllers.AdminUserBan(usersService, logg))
			r.Post("/{userId}/unban", controllers.AdminUserUnban(usersService, logg))
			r.Post("/{userId}/balance", controllers.AdminUserAdjustBalance(walletService, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(usersService, logg))
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminCategoryList(catalogService, logg))
				r.Post("/", controllers.AdminCategoryCreate(catalogService, logg))
				r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(catalogService, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoryDelete(catalogService, logg))
			})
			r.Route("/platforms", func(r chi.Router) {
				r.Get("/", controllers.AdminPlatformList(catalogService, logg))
				r.Post("/", controllers.AdminPlatformCreate(catalogService, logg))
				r.Patch("/{platformId}", controllers.AdminPlatformUpdate(catalogService, logg))
				r.Delete("/{platformId}", controllers.AdminPlatformDelete(catalogService, logg))
			})
			r.Route("/titles", func(r chi.Router) {
				r.Get("/", controllers.AdminServiceTitleList(catalogService, logg))
				r.Post("/", controllers.AdminServiceTitleCreate(catalogService, logg))
				r.Patch("/{titleId}", controllers.AdminServiceTitleUpdate(catalogService, logg))
				r.Delete("/{titleId}", controllers.AdminServiceTitleDelete(catalogService, logg))
			})
			r.Route("/services", func(r chi.Router) {
				r.Get("/", controllers.AdminServiceList(catalogService, logg))
				r.Post("/", controllers.AdminServiceCreate(catalogService, logg))
				r.Patch("/{serviceId}", controllers.AdminServiceUpdate(catalogService, logg))
				r.Delete("/{serviceId}", controllers.AdminServiceDelete(catalogService, logg))
			})
		})

		r.Get("/provider/balance", controllers.AdminProviderBalance(providerClient, logg))
		r.Get("/transactions", controllers.AdminTransactionList(walletService, logg))
	})

	return r
}
