package wallet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
)

type walletTxRunner struct {
	db *gorm.DB
}

func (r walletTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newWalletService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), walletTxRunner{db: db})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func loadTransactions(t *testing.T, db *gorm.DB, userID uuid.UUID, txType enums.TransactionType) []models.Transaction {
	t.Helper()

	var rows []models.Transaction
	if err := db.Where("user_id = ? AND type = ?", userID, txType).Find(&rows).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	return rows
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s got %v", code, err)
	}
}

func TestChargeLifecycleSettles(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "100")
	reference := fmt.Sprintf("order-%s", uuid.NewString())

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.RecordPendingCharge(ctx, tx, RecordPendingChargeInput{
			UserID:      user.ID,
			Amount:      mustDecimal(t, "37.5"),
			Reference:   reference,
			OrderNumber: 510,
		})
		return err
	})
	if err != nil {
		t.Fatalf("record pending charge: %v", err)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "100")) {
		t.Fatalf("pending charge moved balance to %s", balance)
	}

	var settled *models.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		var inner error
		settled, inner = svc.SettleCharge(ctx, tx, reference)
		return inner
	})
	if err != nil {
		t.Fatalf("settle charge: %v", err)
	}
	if settled.Status != enums.TransactionStatusCompleted {
		t.Fatalf("unexpected status %s", settled.Status)
	}

	balance, err = svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "62.5")) {
		t.Fatalf("unexpected balance %s", balance)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.SettleCharge(ctx, tx, reference)
		return inner
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSettleChargeInsufficientBalanceRollsBack(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "10")
	reference := fmt.Sprintf("order-%s", uuid.NewString())

	err := db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.RecordPendingCharge(ctx, tx, RecordPendingChargeInput{
			UserID:      user.ID,
			Amount:      mustDecimal(t, "25"),
			Reference:   reference,
			OrderNumber: 511,
		})
		return inner
	})
	if err != nil {
		t.Fatalf("record pending charge: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.SettleCharge(ctx, tx, reference)
		return inner
	})
	expectCode(t, err, pkgerrors.CodeInsufficientFunds)

	txn, err := NewRepository(db).FindTransactionByReference(ctx, reference)
	if err != nil {
		t.Fatalf("reload charge: %v", err)
	}
	if txn.Status != enums.TransactionStatusPending {
		t.Fatalf("charge status changed to %s after rollback", txn.Status)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "10")) {
		t.Fatalf("balance moved to %s after rollback", balance)
	}
}

func TestVoidChargeLeavesBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "50")
	reference := fmt.Sprintf("order-%s", uuid.NewString())

	err := db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.RecordPendingCharge(ctx, tx, RecordPendingChargeInput{
			UserID:      user.ID,
			Amount:      mustDecimal(t, "30"),
			Reference:   reference,
			OrderNumber: 512,
		})
		return inner
	})
	if err != nil {
		t.Fatalf("record pending charge: %v", err)
	}

	var voided *models.Transaction
	err = db.Transaction(func(tx *gorm.DB) error {
		var inner error
		voided, inner = svc.VoidCharge(ctx, tx, reference)
		return inner
	})
	if err != nil {
		t.Fatalf("void charge: %v", err)
	}
	if voided.Status != enums.TransactionStatusFailed {
		t.Fatalf("unexpected status %s", voided.Status)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "50")) {
		t.Fatalf("void moved balance to %s", balance)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.VoidCharge(ctx, tx, reference)
		return inner
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDepositLifecycle(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "5")

	if _, err := svc.CreateDeposit(ctx, CreateDepositInput{
		UserID: user.ID,
		Amount: mustDecimal(t, "20"),
		Method: "PayPal",
	}); err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if _, err := svc.CreateDeposit(ctx, CreateDepositInput{
		UserID: user.ID,
		Amount: mustDecimal(t, "8"),
		Method: "Bitcoin",
	}); err != nil {
		t.Fatalf("create second deposit: %v", err)
	}

	rows := loadTransactions(t, db, user.ID, enums.TransactionTypeDeposit)
	if len(rows) != 2 {
		t.Fatalf("expected 2 deposits got %d", len(rows))
	}
	var numbers []int64
	var credit, reject models.Transaction
	for _, row := range rows {
		if row.Status != enums.TransactionStatusPending {
			t.Fatalf("unexpected status %s", row.Status)
		}
		if row.OrderNumber == nil {
			t.Fatal("deposit missing number")
		}
		numbers = append(numbers, *row.OrderNumber)
		if row.Method == "PayPal" {
			credit = row
		} else {
			reject = row
		}
	}
	diff := numbers[0] - numbers[1]
	if diff != 1 && diff != -1 {
		t.Fatalf("deposit numbers not sequential: %v", numbers)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.CreditDeposit(ctx, tx, credit.ID)
		return inner
	})
	if err != nil {
		t.Fatalf("credit deposit: %v", err)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "25")) {
		t.Fatalf("unexpected balance %s", balance)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.CreditDeposit(ctx, tx, credit.ID)
		return inner
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.VoidDeposit(ctx, tx, reject.ID)
		return inner
	})
	if err != nil {
		t.Fatalf("void deposit: %v", err)
	}

	balance, err = svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "25")) {
		t.Fatalf("void deposit moved balance to %s", balance)
	}
}

func TestCreditDepositRejectsOrderCharge(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "0")
	charge := newWalletTransaction(t, db, user, enums.TransactionTypeOrder, enums.TransactionStatusPending, "4", time.Now().UTC())

	err := db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.CreditDeposit(ctx, tx, charge.ID)
		return inner
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAdjustChangesBalanceBothWays(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "40")

	if _, err := svc.Adjust(ctx, AdjustInput{
		UserID: user.ID,
		Amount: mustDecimal(t, "10"),
		Note:   "goodwill credit",
	}); err != nil {
		t.Fatalf("credit adjustment: %v", err)
	}

	if _, err := svc.Adjust(ctx, AdjustInput{
		UserID: user.ID,
		Amount: mustDecimal(t, "-15"),
		Note:   "chargeback",
	}); err != nil {
		t.Fatalf("debit adjustment: %v", err)
	}

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "35")) {
		t.Fatalf("unexpected balance %s", balance)
	}

	rows := loadTransactions(t, db, user.ID, enums.TransactionTypeAdjustment)
	if len(rows) != 2 {
		t.Fatalf("expected 2 adjustments got %d", len(rows))
	}
	for _, row := range rows {
		if row.Status != enums.TransactionStatusCompleted {
			t.Fatalf("unexpected status %s", row.Status)
		}
		if row.Method != methodAdmin {
			t.Fatalf("unexpected method %s", row.Method)
		}
		if !row.Amount.IsPositive() {
			t.Fatalf("adjustment amount not a magnitude: %s", row.Amount)
		}
		if row.Note == nil {
			t.Fatal("adjustment missing note")
		}
	}
}

func TestAdjustInsufficientBalanceRollsBack(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	user := newWalletUser(t, db, "3")

	_, err := svc.Adjust(ctx, AdjustInput{
		UserID: user.ID,
		Amount: mustDecimal(t, "-9"),
	})
	expectCode(t, err, pkgerrors.CodeInsufficientFunds)

	balance, err := svc.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(mustDecimal(t, "3")) {
		t.Fatalf("unexpected balance %s", balance)
	}
	if rows := loadTransactions(t, db, user.ID, enums.TransactionTypeAdjustment); len(rows) != 0 {
		t.Fatalf("adjustment recorded despite rollback: %d rows", len(rows))
	}
}

func TestAllocateOrderNumber(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	var first, second int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var inner error
		if first, inner = svc.AllocateOrderNumber(ctx, tx); inner != nil {
			return inner
		}
		second, inner = svc.AllocateOrderNumber(ctx, tx)
		return inner
	})
	if err != nil {
		t.Fatalf("allocate order numbers: %v", err)
	}
	if second != first+1 {
		t.Fatalf("numbers not sequential: %d then %d", first, second)
	}

	if _, err := svc.AllocateOrderNumber(ctx, nil); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestWalletInputValidation(t *testing.T) {
	db := setupWalletTestDB(t)
	svc := newWalletService(t, db)
	ctx := context.Background()

	if _, err := svc.RecordPendingCharge(ctx, nil, RecordPendingChargeInput{}); err == nil {
		t.Fatal("expected error without transaction")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.RecordPendingCharge(ctx, tx, RecordPendingChargeInput{
			UserID:      uuid.New(),
			Amount:      mustDecimal(t, "0"),
			Reference:   "order-1",
			OrderNumber: 1,
		})
		expectCode(t, inner, pkgerrors.CodeValidation)
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	_, err = svc.CreateDeposit(ctx, CreateDepositInput{UserID: uuid.New(), Amount: mustDecimal(t, "-2"), Method: "PayPal"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateDeposit(ctx, CreateDepositInput{UserID: uuid.New(), Amount: mustDecimal(t, "2"), Method: "  "})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Adjust(ctx, AdjustInput{UserID: uuid.New(), Amount: mustDecimal(t, "0")})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Balance(ctx, uuid.Nil)
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Balance(ctx, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.ListTransactions(ctx, TransactionListQuery{
		Filters: TransactionFilters{Type: ptr(enums.TransactionType("bogus"))},
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, inner := svc.SettleCharge(ctx, tx, fmt.Sprintf("order-%s", uuid.NewString()))
		expectCode(t, inner, pkgerrors.CodeNotFound)
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}
