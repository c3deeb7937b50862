package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/internal/auth"
	"github.com/marcoalvarez/boostgrid-backend/internal/catalog"
	"github.com/marcoalvarez/boostgrid-backend/internal/deposits"
	"github.com/marcoalvarez/boostgrid-backend/internal/notifications"
	"github.com/marcoalvarez/boostgrid-backend/internal/orders"
	"github.com/marcoalvarez/boostgrid-backend/internal/reconcile"
	"github.com/marcoalvarez/boostgrid-backend/internal/users"
	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	pkgAuth "github.com/marcoalvarez/boostgrid-backend/pkg/auth"
	"github.com/marcoalvarez/boostgrid-backend/pkg/auth/session"
	"github.com/marcoalvarez/boostgrid-backend/pkg/config"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/redis"
	"github.com/marcoalvarez/boostgrid-backend/pkg/secsers"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

func (stubAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req auth.ChangePasswordRequest) error {
	return nil
}

type stubSignupService struct{}

func (stubSignupService) Signup(ctx context.Context, req auth.SignupRequest) (*auth.LoginResponse, error) {
	panic("unimplemented")
}

type stubUsersService struct{}

func (stubUsersService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, userID uuid.UUID, req users.UpdateProfileRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (stubUsersService) ListUsers(ctx context.Context, query users.UserListQuery) (*users.UserList, error) {
	return &users.UserList{}, nil
}

func (stubUsersService) GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: id}, nil
}

func (stubUsersService) BanUser(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubUsersService) UnbanUser(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (stubUsersService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) Tree(ctx context.Context) ([]catalog.CategoryNode, error) {
	return []catalog.CategoryNode{}, nil
}

func (stubCatalogService) ListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]catalog.ServiceSummary, error) {
	return []catalog.ServiceSummary{}, nil
}

func (stubCatalogService) GetService(ctx context.Context, serviceID uuid.UUID) (*catalog.ServiceSummary, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	return []catalog.CategoryDTO{}, nil
}

// CreateCategory implements [catalog.Service].
func (stubCatalogService) CreateCategory(ctx context.Context, input catalog.CreateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

// UpdateCategory implements [catalog.Service].
func (stubCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input catalog.UpdateCategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

// DeleteCategory implements [catalog.Service].
func (stubCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

// ListPlatforms implements [catalog.Service].
func (stubCatalogService) ListPlatforms(ctx context.Context, categoryID uuid.UUID) ([]catalog.PlatformDTO, error) {
	panic("unimplemented")
}

// CreatePlatform implements [catalog.Service].
func (stubCatalogService) CreatePlatform(ctx context.Context, input catalog.CreatePlatformInput) (*catalog.PlatformDTO, error) {
	panic("unimplemented")
}

// UpdatePlatform implements [catalog.Service].
func (stubCatalogService) UpdatePlatform(ctx context.Context, id uuid.UUID, input catalog.UpdatePlatformInput) (*catalog.PlatformDTO, error) {
	panic("unimplemented")
}

// DeletePlatform implements [catalog.Service].
func (stubCatalogService) DeletePlatform(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

// ListServiceTitles implements [catalog.Service].
func (stubCatalogService) ListServiceTitles(ctx context.Context, platformID uuid.UUID) ([]catalog.ServiceTitleDTO, error) {
	panic("unimplemented")
}

// CreateServiceTitle implements [catalog.Service].
func (stubCatalogService) CreateServiceTitle(ctx context.Context, input catalog.CreateServiceTitleInput) (*catalog.ServiceTitleDTO, error) {
	panic("unimplemented")
}

// UpdateServiceTitle implements [catalog.Service].
func (stubCatalogService) UpdateServiceTitle(ctx context.Context, id uuid.UUID, input catalog.UpdateServiceTitleInput) (*catalog.ServiceTitleDTO, error) {
	panic("unimplemented")
}

// DeleteServiceTitle implements [catalog.Service].
func (stubCatalogService) DeleteServiceTitle(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

// AdminListServices implements [catalog.Service].
func (stubCatalogService) AdminListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]catalog.ServiceDTO, error) {
	panic("unimplemented")
}

// CreateService implements [catalog.Service].
func (stubCatalogService) CreateService(ctx context.Context, input catalog.CreateServiceInput) (*catalog.ServiceDTO, error) {
	panic("unimplemented")
}

// UpdateService implements [catalog.Service].
func (stubCatalogService) UpdateService(ctx context.Context, id uuid.UUID, input catalog.UpdateServiceInput) (*catalog.ServiceDTO, error) {
	panic("unimplemented")
}

// DeleteService implements [catalog.Service].
func (stubCatalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubWalletService struct{}

// RecordPendingCharge implements [wallet.Service].
func (stubWalletService) RecordPendingCharge(ctx context.Context, tx *gorm.DB, input wallet.RecordPendingChargeInput) (*models.Transaction, error) {
	panic("unimplemented")
}

// SettleCharge implements [wallet.Service].
func (stubWalletService) SettleCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error) {
	panic("unimplemented")
}

// VoidCharge implements [wallet.Service].
func (stubWalletService) VoidCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error) {
	panic("unimplemented")
}

// CreditDeposit implements [wallet.Service].
func (stubWalletService) CreditDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	panic("unimplemented")
}

// VoidDeposit implements [wallet.Service].
func (stubWalletService) VoidDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	panic("unimplemented")
}

// AllocateOrderNumber implements [wallet.Service].
func (stubWalletService) AllocateOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	panic("unimplemented")
}

// CreateDeposit implements [wallet.Service].
func (stubWalletService) CreateDeposit(ctx context.Context, input wallet.CreateDepositInput) (*models.Transaction, error) {
	panic("unimplemented")
}

// Adjust implements [wallet.Service].
func (stubWalletService) Adjust(ctx context.Context, input wallet.AdjustInput) (*models.Transaction, error) {
	panic("unimplemented")
}

func (stubWalletService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubWalletService) ListTransactions(ctx context.Context, query wallet.TransactionListQuery) (*wallet.TransactionList, error) {
	return &wallet.TransactionList{}, nil
}

type stubDepositsService struct{}

// CreateDeposit implements [deposits.Service].
func (stubDepositsService) CreateDeposit(ctx context.Context, userID uuid.UUID, req deposits.CreateDepositRequest) (*deposits.DepositDTO, error) {
	panic("unimplemented")
}

func (stubDepositsService) ListMine(ctx context.Context, userID uuid.UUID, query deposits.ListQuery) (*wallet.TransactionList, error) {
	return &wallet.TransactionList{}, nil
}

func (stubDepositsService) ListAll(ctx context.Context, query deposits.ListQuery) (*wallet.TransactionList, error) {
	return &wallet.TransactionList{}, nil
}

// Confirm implements [deposits.Service].
func (stubDepositsService) Confirm(ctx context.Context, actorID, transactionID uuid.UUID) (*deposits.DepositDTO, error) {
	panic("unimplemented")
}

// Reject implements [deposits.Service].
func (stubDepositsService) Reject(ctx context.Context, actorID, transactionID uuid.UUID, req deposits.RejectDepositRequest) (*deposits.DepositDTO, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

// CreateOrder implements [orders.Service].
func (stubOrdersService) CreateOrder(ctx context.Context, userID uuid.UUID, req orders.CreateOrderInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

// GetOrder implements [orders.Service].
func (stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListMine(ctx context.Context, userID uuid.UUID, query orders.ListQuery) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

// RequestRefill implements [orders.Service].
func (stubOrdersService) RequestRefill(ctx context.Context, userID, orderID uuid.UUID) (*orders.RefillDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListAdmin(ctx context.Context, query orders.AdminListQuery) (*orders.AdminOrderList, error) {
	return &orders.AdminOrderList{}, nil
}

// Confirm implements [orders.Service].
func (stubOrdersService) Confirm(ctx context.Context, input orders.ConfirmInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

// Reject implements [orders.Service].
func (stubOrdersService) Reject(ctx context.Context, input orders.RejectInput) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

type stubReconcileService struct{}

func (stubReconcileService) SweepOnce(ctx context.Context) (*reconcile.SweepResult, error) {
	return &reconcile.SweepResult{}, nil
}

func (stubReconcileService) RefreshOrder(ctx context.Context, orderID uuid.UUID, requester *uuid.UUID) (*reconcile.OrderStatusDTO, error) {
	return &reconcile.OrderStatusDTO{Status: "completed"}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubProviderClient struct{}

func (stubProviderClient) Balance(ctx context.Context) (*secsers.BalanceInfo, error) {
	return &secsers.BalanceInfo{Balance: decimal.NewFromInt(50), Currency: "USD"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", Currency: "USD"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},         // db.Pinger
		(*redis.Client)(nil), // *redis.Client
		stubSessionChecker{},
		stubProviderClient{},
		stubAuthService{},
		stubSignupService{},
		stubUsersService{},
		stubCatalogService{},
		stubWalletService{},
		stubDepositsService{},
		stubOrdersService{},
		stubReconcileService{},
		stubNotificationsService{},
	)
}

func TestHealthzReportsEnvironment(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-BoostGrid-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestReadyzDegradedWithoutRedis(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no redis got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for wallet got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminCatalogRoutesWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/catalog/categories", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin categories got %d", resp.Code)
	}
}

func TestAdminProviderBalanceWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/provider/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for provider balance got %d", resp.Code)
	}
}

func TestOrderStatusRouteWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString()+"/status", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order status got %d", resp.Code)
	}
}

func TestCatalogRequiresAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for catalog without token got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
