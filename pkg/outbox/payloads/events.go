package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatusChangedEvent is emitted whenever reconciliation observes a new
// provider status for an order.
type OrderStatusChangedEvent struct {
	OrderNumber    int64     `json:"order_number"`
	UserID         uuid.UUID `json:"user_id"`
	PreviousStatus string    `json:"previous_status"`
	Status         string    `json:"status"`
	Remains        *int      `json:"remains,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}

// OrderConfirmedEvent is emitted when an admin approves a manual order and
// the charge settles against the user's balance.
type OrderConfirmedEvent struct {
	OrderNumber int64           `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	Charge      decimal.Decimal `json:"charge"`
	Currency    string          `json:"currency"`
}

// OrderRejectedEvent is emitted when an admin rejects a manual order.
type OrderRejectedEvent struct {
	OrderNumber int64     `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason,omitempty"`
}

// DepositConfirmedEvent is emitted when an admin confirms a deposit and the
// amount is credited to the user's balance.
type DepositConfirmedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
}

// DepositRejectedEvent is emitted when an admin rejects a deposit.
type DepositRejectedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reason        string          `json:"reason,omitempty"`
}

// UserSignedUpEvent is emitted once per successful signup.
type UserSignedUpEvent struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}
