package deposits

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
)

type walletService interface {
	CreateDeposit(ctx context.Context, input wallet.CreateDepositInput) (*models.Transaction, error)
	CreditDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error)
	VoidDeposit(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, query wallet.TransactionListQuery) (*wallet.TransactionList, error)
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the deposit declaration flow and the admin
// confirmation surface. All money movement happens inside the wallet;
// this layer sequences it with the outbox notifications.
type Service interface {
	CreateDeposit(ctx context.Context, userID uuid.UUID, req CreateDepositRequest) (*DepositDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*wallet.TransactionList, error)
	ListAll(ctx context.Context, query ListQuery) (*wallet.TransactionList, error)
	// Confirm credits the pending deposit and queues the confirmation
	// notification in the same transaction.
	Confirm(ctx context.Context, actorID, transactionID uuid.UUID) (*DepositDTO, error)
	// Reject voids the pending deposit; the balance is never touched.
	Reject(ctx context.Context, actorID, transactionID uuid.UUID, req RejectDepositRequest) (*DepositDTO, error)
}

type service struct {
	wallet walletService
	outbox outboxPublisher
	tx     txRunner
}

// NewService wires a deposits service with the required dependencies.
func NewService(walletSvc walletService, outboxSvc outboxPublisher, tx txRunner) (Service, error) {
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{wallet: walletSvc, outbox: outboxSvc, tx: tx}, nil
}

func (s *service) CreateDeposit(ctx context.Context, userID uuid.UUID, req CreateDepositRequest) (*DepositDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	input := wallet.CreateDepositInput{
		UserID: userID,
		Amount: req.Amount,
		Method: strings.TrimSpace(req.Method),
	}
	if req.Note != nil {
		input.Note = *req.Note
	}

	txn, err := s.wallet.CreateDeposit(ctx, input)
	if err != nil {
		return nil, err
	}
	return newDepositDTO(txn), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, query ListQuery) (*wallet.TransactionList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.list(ctx, &userID, query)
}

func (s *service) ListAll(ctx context.Context, query ListQuery) (*wallet.TransactionList, error) {
	return s.list(ctx, nil, query)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, query ListQuery) (*wallet.TransactionList, error) {
	depositType := enums.TransactionTypeDeposit
	return s.wallet.ListTransactions(ctx, wallet.TransactionListQuery{
		UserID: userID,
		Filters: wallet.TransactionFilters{
			Type:   &depositType,
			Status: query.Status,
			Method: query.Method,
			Query:  query.Query,
		},
		Pagination: query.Pagination,
	})
}

func (s *service) Confirm(ctx context.Context, actorID, transactionID uuid.UUID) (*DepositDTO, error) {
	var confirmed *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.wallet.CreditDeposit(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositConfirmed,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.DepositConfirmedEvent{
				TransactionID: txn.ID,
				UserID:        txn.UserID,
				Amount:        txn.Amount,
				Method:        txn.Method,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit deposit confirmed")
		}

		confirmed = txn
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm deposit")
	}
	return newDepositDTO(confirmed), nil
}

func (s *service) Reject(ctx context.Context, actorID, transactionID uuid.UUID, req RejectDepositRequest) (*DepositDTO, error) {
	reason := ""
	if req.Reason != nil {
		reason = strings.TrimSpace(*req.Reason)
	}

	var rejected *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.wallet.VoidDeposit(ctx, tx, transactionID)
		if err != nil {
			return err
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDepositRejected,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.DepositRejectedEvent{
				TransactionID: txn.ID,
				UserID:        txn.UserID,
				Amount:        txn.Amount,
				Method:        txn.Method,
				Reason:        reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit deposit rejected")
		}

		rejected = txn
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject deposit")
	}
	return newDepositDTO(rejected), nil
}
