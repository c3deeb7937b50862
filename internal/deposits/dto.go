package deposits

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

// CreateDepositRequest declares a top-up the user intends to pay. The
// deposit stays pending until an operator confirms the money arrived.
type CreateDepositRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method string          `json:"method" validate:"required"`
	Note   *string         `json:"note,omitempty"`
}

// RejectDepositRequest carries the optional operator-supplied reason,
// surfaced to the user through the rejection notification.
type RejectDepositRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ListQuery narrows deposit listings. The service always pins the
// transaction type to deposit.
type ListQuery struct {
	Status     *enums.TransactionStatus
	Method     *string
	Query      string
	Pagination pagination.Params
}

// DepositDTO is the deposit-shaped view over a ledger transaction.
type DepositDTO struct {
	ID            uuid.UUID               `json:"id"`
	UserID        uuid.UUID               `json:"user_id"`
	Amount        decimal.Decimal         `json:"amount"`
	Method        string                  `json:"method"`
	Status        enums.TransactionStatus `json:"status"`
	DepositNumber *int64                  `json:"deposit_number,omitempty"`
	Note          *string                 `json:"note,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

func newDepositDTO(txn *models.Transaction) *DepositDTO {
	if txn == nil {
		return nil
	}
	return &DepositDTO{
		ID:            txn.ID,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Method:        txn.Method,
		Status:        txn.Status,
		DepositNumber: txn.OrderNumber,
		Note:          txn.Note,
		CreatedAt:     txn.CreatedAt,
	}
}
