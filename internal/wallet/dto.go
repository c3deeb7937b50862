package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

// RecordPendingChargeInput describes an order charge held against a user's
// balance until the order is confirmed or rejected.
type RecordPendingChargeInput struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Reference   string
	OrderNumber int64
}

// CreateDepositInput captures a user's request to top up their balance.
type CreateDepositInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Method string
	Note   string
}

// AdjustInput describes a manual admin balance correction. A negative
// amount deducts; the ledger entry records the magnitude.
type AdjustInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Note   string
}

// TransactionFilters describe the inputs supported by the transaction list.
type TransactionFilters struct {
	Type   *enums.TransactionType
	Status *enums.TransactionStatus
	Method *string
	Query  string
}

// TransactionListQuery scopes a cursor listing of ledger entries. A nil
// UserID lists across all users (admin surface only).
type TransactionListQuery struct {
	UserID     *uuid.UUID
	Filters    TransactionFilters
	Pagination pagination.Params
}

// TransactionSummary exposes the fields returned in transaction lists.
type TransactionSummary struct {
	ID          uuid.UUID               `json:"id"`
	UserID      uuid.UUID               `json:"user_id"`
	Username    string                  `json:"username"`
	Type        enums.TransactionType   `json:"type"`
	Method      string                  `json:"method"`
	Amount      decimal.Decimal         `json:"amount"`
	Status      enums.TransactionStatus `json:"status"`
	Reference   *string                 `json:"reference,omitempty"`
	OrderNumber *int64                  `json:"order_number,omitempty"`
	Note        *string                 `json:"note,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// TransactionList wraps the paginated entries plus the next page cursor.
type TransactionList struct {
	Transactions []TransactionSummary `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}
