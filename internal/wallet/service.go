package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
)

// Methods stamped on ledger entries the wallet writes itself.
const (
	methodBalance = "balance"
	methodAdmin   = "admin"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every balance mutation and ledger write. A transaction's
// status change and its balance effect always commit together: callers
// that pass a tx participate in that guarantee, and a rolled-back tx
// reverts both sides.
type Service interface {
	// RecordPendingCharge writes a pending order charge without touching
	// the balance. The charge is settled or voided later by reference.
	RecordPendingCharge(ctx context.Context, tx *gorm.DB, input RecordPendingChargeInput) (*models.Transaction, error)
	// SettleCharge completes a pending charge and deducts its amount,
	// failing with an insufficient funds error when the balance cannot
	// cover it.
	SettleCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error)
	// VoidCharge fails a pending charge; the balance is untouched because
	// no deduction ever happened.
	VoidCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error)
	// CreditDeposit completes a pending deposit and credits its amount.
	CreditDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error)
	// VoidDeposit fails a pending deposit without a balance effect.
	VoidDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error)
	// AllocateOrderNumber draws the next order number inside the caller's
	// transaction so an aborted order never burns a visible gap silently.
	AllocateOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	CreateDeposit(ctx context.Context, input CreateDepositInput) (*models.Transaction, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, query TransactionListQuery) (*TransactionList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a wallet service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) RecordPendingCharge(ctx context.Context, tx *gorm.DB, input RecordPendingChargeInput) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for pending charge")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}
	if input.OrderNumber <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	orderNumber := input.OrderNumber
	txn := &models.Transaction{
		UserID:      input.UserID,
		Type:        enums.TransactionTypeOrder,
		Method:      methodBalance,
		Amount:      input.Amount,
		Status:      enums.TransactionStatusPending,
		Reference:   &reference,
		OrderNumber: &orderNumber,
	}
	if err := s.repo.WithTx(tx).CreateTransaction(ctx, txn); err != nil {
		if db.IsUniqueViolation(err, "ux_transactions_reference") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "charge already recorded for reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending charge")
	}
	return txn, nil
}

func (s *service) SettleCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for charge settlement")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}

	repo := s.repo.WithTx(tx)
	txn, err := s.loadCharge(ctx, repo, reference)
	if err != nil {
		return nil, err
	}

	claimed, err := repo.UpdateTransactionStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete charge")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "charge already settled or voided")
	}

	deducted, err := repo.DeductFromBalance(ctx, txn.UserID, txn.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct balance")
	}
	if !deducted {
		// The caller's tx rolls back, reverting the status claim above.
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance does not cover charge")
	}

	txn.Status = enums.TransactionStatusCompleted
	return txn, nil
}

func (s *service) VoidCharge(ctx context.Context, tx *gorm.DB, reference string) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for charge void")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge reference required")
	}

	repo := s.repo.WithTx(tx)
	txn, err := s.loadCharge(ctx, repo, reference)
	if err != nil {
		return nil, err
	}

	claimed, err := repo.UpdateTransactionStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusFailed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void charge")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "charge already settled or voided")
	}

	txn.Status = enums.TransactionStatusFailed
	return txn, nil
}

func (s *service) loadCharge(ctx context.Context, repo Repository, reference string) (*models.Transaction, error) {
	txn, err := repo.FindTransactionByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "charge not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load charge")
	}
	if txn.Type != enums.TransactionTypeOrder {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not an order charge")
	}
	return txn, nil
}

func (s *service) CreditDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for deposit credit")
	}

	repo := s.repo.WithTx(tx)
	txn, err := s.loadDeposit(ctx, repo, transactionID)
	if err != nil {
		return nil, err
	}

	claimed, err := repo.UpdateTransactionStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete deposit")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit already resolved")
	}

	credited, err := repo.AddToBalance(ctx, txn.UserID, txn.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}
	if !credited {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "balance credit affected no rows")
	}

	txn.Status = enums.TransactionStatusCompleted
	return txn, nil
}

func (s *service) VoidDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for deposit void")
	}

	repo := s.repo.WithTx(tx)
	txn, err := s.loadDeposit(ctx, repo, transactionID)
	if err != nil {
		return nil, err
	}

	claimed, err := repo.UpdateTransactionStatus(ctx, txn.ID, enums.TransactionStatusPending, enums.TransactionStatusFailed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void deposit")
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit already resolved")
	}

	txn.Status = enums.TransactionStatusFailed
	return txn, nil
}

func (s *service) loadDeposit(ctx context.Context, repo Repository, transactionID uuid.UUID) (*models.Transaction, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	txn, err := repo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deposit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deposit")
	}
	if txn.Type != enums.TransactionTypeDeposit {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not a deposit")
	}
	return txn, nil
}

func (s *service) AllocateOrderNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for order number allocation")
	}
	number, err := s.repo.WithTx(tx).NextCounterValue(ctx, CounterOrders)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}
	return number, nil
}

func (s *service) CreateDeposit(ctx context.Context, input CreateDepositInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit amount must be positive")
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextCounterValue(ctx, CounterDeposits)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate deposit number")
		}

		txn = &models.Transaction{
			UserID:      input.UserID,
			Type:        enums.TransactionTypeDeposit,
			Method:      method,
			Amount:      input.Amount,
			Status:      enums.TransactionStatusPending,
			OrderNumber: &number,
		}
		if note := strings.TrimSpace(input.Note); note != "" {
			txn.Note = &note
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create deposit")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount cannot be zero")
	}

	magnitude := input.Amount.Abs()
	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.Amount.IsNegative() {
			deducted, err := repo.DeductFromBalance(ctx, input.UserID, magnitude)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct balance")
			}
			if !deducted {
				return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "balance does not cover adjustment")
			}
		} else {
			credited, err := repo.AddToBalance(ctx, input.UserID, magnitude)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
			}
			if !credited {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
		}

		txn = &models.Transaction{
			UserID: input.UserID,
			Type:   enums.TransactionTypeAdjustment,
			Method: methodAdmin,
			Amount: magnitude,
			Status: enums.TransactionStatusCompleted,
		}
		if note := strings.TrimSpace(input.Note); note != "" {
			txn.Note = &note
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create adjustment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	return balance, nil
}

func (s *service) ListTransactions(ctx context.Context, query TransactionListQuery) (*TransactionList, error) {
	if query.UserID != nil && *query.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if query.Filters.Type != nil && !query.Filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type filter")
	}
	if query.Filters.Status != nil && !query.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction status filter")
	}

	list, err := s.repo.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return list, nil
}
