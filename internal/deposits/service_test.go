package deposits

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

type depositsTxRunner struct {
	db *gorm.DB
}

func (r depositsTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func setupDepositsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))),
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  banned INTEGER NOT NULL DEFAULT 0,
  balance NUMERIC NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(2))) || '-' || lower(hex(randomblob(6)))),
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  method TEXT NOT NULL DEFAULT 'balance',
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  reference TEXT UNIQUE,
  order_number INTEGER,
  note TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS counters (
  name TEXT PRIMARY KEY,
  value INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	if err := db.Exec("INSERT OR IGNORE INTO counters (name, value) VALUES ('orders', 0), ('deposits', 0)").Error; err != nil {
		t.Fatalf("seed counters: %v", err)
	}
	return db
}

func newDepositsService(t *testing.T, db *gorm.DB) (Service, *stubOutbox) {
	t.Helper()

	walletSvc, err := wallet.NewService(wallet.NewRepository(db), depositsTxRunner{db: db})
	if err != nil {
		t.Fatalf("construct wallet service: %v", err)
	}
	events := &stubOutbox{}
	svc, err := NewService(walletSvc, events, depositsTxRunner{db: db})
	if err != nil {
		t.Fatalf("construct deposits service: %v", err)
	}
	return svc, events
}

func newDepositUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	suffix := uuid.NewString()[:8]
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("dep_%s@example.com", suffix),
		Username:     fmt.Sprintf("dep_%s", suffix),
		PasswordHash: "hash",
		Balance:      decimal.Zero,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustAmount(t *testing.T, value string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal: %v", err)
	}
	return d
}

func userBalance(t *testing.T, db *gorm.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var row struct {
		Balance decimal.Decimal
	}
	if err := db.Model(&models.User{}).Select("balance").Where("id = ?", userID).Take(&row).Error; err != nil {
		t.Fatalf("load balance: %v", err)
	}
	return row.Balance
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s got %v", code, err)
	}
}

func TestDepositConfirmCreditsBalance(t *testing.T) {
	db := setupDepositsTestDB(t)
	svc, events := newDepositsService(t, db)
	ctx := context.Background()

	user := newDepositUser(t, db)
	admin := uuid.New()

	note := "wire ref 4512"
	created, err := svc.CreateDeposit(ctx, user.ID, CreateDepositRequest{
		Amount: mustAmount(t, "50"),
		Method: "bank_transfer",
		Note:   &note,
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if created.Status != enums.TransactionStatusPending {
		t.Fatalf("new deposit not pending: %s", created.Status)
	}
	if created.DepositNumber == nil || *created.DepositNumber <= 0 {
		t.Fatalf("deposit number not allocated: %+v", created)
	}
	if !userBalance(t, db, user.ID).IsZero() {
		t.Fatal("pending deposit touched the balance")
	}

	confirmed, err := svc.Confirm(ctx, admin, created.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.TransactionStatusCompleted {
		t.Fatalf("expected completed, got %s", confirmed.Status)
	}
	if !userBalance(t, db, user.ID).Equal(mustAmount(t, "50")) {
		t.Fatalf("balance not credited: %s", userBalance(t, db, user.ID))
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.EventType != enums.EventDepositConfirmed || event.AggregateID != created.ID {
		t.Fatalf("unexpected event %+v", event)
	}
	payload, ok := event.Data.(payloads.DepositConfirmedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.UserID != user.ID || !payload.Amount.Equal(mustAmount(t, "50")) {
		t.Fatalf("unexpected payload %+v", payload)
	}

	_, err = svc.Confirm(ctx, admin, created.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if len(events.events) != 1 {
		t.Fatal("terminal re-confirm queued another event")
	}
	if !userBalance(t, db, user.ID).Equal(mustAmount(t, "50")) {
		t.Fatal("re-confirm double-credited the balance")
	}
}

func TestDepositRejectLeavesBalance(t *testing.T) {
	db := setupDepositsTestDB(t)
	svc, events := newDepositsService(t, db)
	ctx := context.Background()

	user := newDepositUser(t, db)
	admin := uuid.New()

	created, err := svc.CreateDeposit(ctx, user.ID, CreateDepositRequest{
		Amount: mustAmount(t, "25"),
		Method: "crypto",
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	reason := "no payment received"
	rejected, err := svc.Reject(ctx, admin, created.ID, RejectDepositRequest{Reason: &reason})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != enums.TransactionStatusFailed {
		t.Fatalf("expected failed, got %s", rejected.Status)
	}
	if !userBalance(t, db, user.ID).IsZero() {
		t.Fatal("rejected deposit moved the balance")
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	payload, ok := events.events[0].Data.(payloads.DepositRejectedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", events.events[0].Data)
	}
	if payload.Reason != reason {
		t.Fatalf("reason not carried: %q", payload.Reason)
	}

	_, err = svc.Reject(ctx, admin, created.ID, RejectDepositRequest{})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	_, err = svc.Confirm(ctx, admin, created.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDepositConfirmRollsBackWhenEventFails(t *testing.T) {
	db := setupDepositsTestDB(t)
	svc, events := newDepositsService(t, db)
	ctx := context.Background()

	user := newDepositUser(t, db)

	created, err := svc.CreateDeposit(ctx, user.ID, CreateDepositRequest{
		Amount: mustAmount(t, "10"),
		Method: "bank_transfer",
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	events.err = fmt.Errorf("outbox unavailable")
	_, err = svc.Confirm(ctx, uuid.New(), created.ID)
	expectCode(t, err, pkgerrors.CodeDependency)

	var status string
	if err := db.Model(&models.Transaction{}).Select("status").Where("id = ?", created.ID).Take(&status).Error; err != nil {
		t.Fatalf("load status: %v", err)
	}
	if status != string(enums.TransactionStatusPending) {
		t.Fatalf("status leaked out of rolled-back confirm: %s", status)
	}
	if !userBalance(t, db, user.ID).IsZero() {
		t.Fatal("balance leaked out of rolled-back confirm")
	}
}

func TestDepositListsScopeAndFilter(t *testing.T) {
	db := setupDepositsTestDB(t)
	svc, _ := newDepositsService(t, db)
	ctx := context.Background()

	alice := newDepositUser(t, db)
	bob := newDepositUser(t, db)

	// An order charge for alice must never show up in deposit lists.
	reference := fmt.Sprintf("order-%s", uuid.NewString())
	charge := &models.Transaction{
		ID:        uuid.New(),
		UserID:    alice.ID,
		Type:      enums.TransactionTypeOrder,
		Method:    "balance",
		Amount:    mustAmount(t, "5"),
		Status:    enums.TransactionStatusPending,
		Reference: &reference,
	}
	if err := db.Create(charge).Error; err != nil {
		t.Fatalf("create charge fixture: %v", err)
	}

	if _, err := svc.CreateDeposit(ctx, alice.ID, CreateDepositRequest{Amount: mustAmount(t, "30"), Method: "bank_transfer"}); err != nil {
		t.Fatalf("alice deposit: %v", err)
	}
	if _, err := svc.CreateDeposit(ctx, bob.ID, CreateDepositRequest{Amount: mustAmount(t, "40"), Method: "crypto"}); err != nil {
		t.Fatalf("bob deposit: %v", err)
	}

	mine, err := svc.ListMine(ctx, alice.ID, ListQuery{Pagination: pagination.Params{Limit: 10}})
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Transactions) != 1 {
		t.Fatalf("expected 1 deposit for alice, got %d", len(mine.Transactions))
	}
	if mine.Transactions[0].Type != enums.TransactionTypeDeposit {
		t.Fatalf("non-deposit row in deposit list: %+v", mine.Transactions[0])
	}

	method := "crypto"
	filtered, err := svc.ListAll(ctx, ListQuery{Method: &method, Query: bob.Username})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(filtered.Transactions) != 1 || filtered.Transactions[0].UserID != bob.ID {
		t.Fatalf("method filter failed: %+v", filtered.Transactions)
	}

	_, err = svc.ListMine(ctx, uuid.Nil, ListQuery{})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateDepositValidation(t *testing.T) {
	db := setupDepositsTestDB(t)
	svc, _ := newDepositsService(t, db)
	ctx := context.Background()

	user := newDepositUser(t, db)

	_, err := svc.CreateDeposit(ctx, uuid.Nil, CreateDepositRequest{Amount: mustAmount(t, "5"), Method: "crypto"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateDeposit(ctx, user.ID, CreateDepositRequest{Amount: decimal.Zero, Method: "crypto"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateDeposit(ctx, user.ID, CreateDepositRequest{Amount: mustAmount(t, "5"), Method: "  "})
	expectCode(t, err, pkgerrors.CodeValidation)
}
