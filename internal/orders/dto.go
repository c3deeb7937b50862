package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/pagination"
)

// CreateOrderInput captures a user's order request. Runs and
// IntervalMinutes are the optional drip-feed knobs and must be set
// together.
type CreateOrderInput struct {
	ServiceID       uuid.UUID
	Link            string
	Quantity        int
	Runs            *int
	IntervalMinutes *int
}

// ConfirmInput carries an admin's approval of a manual order.
type ConfirmInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Notes   *string
}

// RejectInput carries an admin's rejection of a manual order.
type RejectInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  *string
}

// Snapshot is the provider's reported view of one order. Pointer fields
// stay nil when the provider omitted them; absent fields never overwrite
// stored values.
type Snapshot struct {
	Status     string
	Charge     *decimal.Decimal
	StartCount *int
	Remains    *int
	Currency   *string
}

// SnapshotUpdates translates a provider snapshot into the column updates
// to persist against the stored order. The boolean reports whether the
// snapshot carries a status change at all: equal or absent status means
// no write and no notification, which is the sole de-duplication rule for
// status-change events. Comparison is exact string equality because the
// provider's status vocabulary is not under our control.
func SnapshotUpdates(current *models.Order, snap Snapshot) (map[string]any, bool) {
	if current == nil {
		return nil, false
	}
	status := strings.TrimSpace(snap.Status)
	if status == "" || status == current.Status {
		return nil, false
	}

	updates := map[string]any{"status": status}
	if snap.Charge != nil {
		updates["charge"] = *snap.Charge
	}
	if snap.StartCount != nil {
		updates["start_count"] = *snap.StartCount
	}
	if snap.Remains != nil {
		updates["remains"] = *snap.Remains
	}
	if snap.Currency != nil && strings.TrimSpace(*snap.Currency) != "" {
		updates["currency"] = strings.TrimSpace(*snap.Currency)
	}
	return updates, true
}

// ChargeReference derives the stable ledger correlation key for an order.
// Exactly one transaction per order carries it.
func ChargeReference(orderID uuid.UUID) string {
	return fmt.Sprintf("order-%s", orderID)
}

// ListQuery scopes a user's own order listing.
type ListQuery struct {
	Status     *string
	Pagination pagination.Params
}

// AdminListFilters are applied at the database level; Search is applied
// to the fetched page afterwards.
type AdminListFilters struct {
	Status    *string
	UserID    *uuid.UUID
	ServiceID *uuid.UUID
	Provider  *enums.OrderProvider
	Search    string
}

// AdminListQuery scopes the admin order listing.
type AdminListQuery struct {
	Filters    AdminListFilters
	Pagination pagination.Params
}

// OrderDTO exposes the fields returned for a single order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     int64               `json:"order_number"`
	ServiceID       uuid.UUID           `json:"service_id"`
	ServiceName     string              `json:"service_name,omitempty"`
	Link            string              `json:"link"`
	Quantity        int                 `json:"quantity"`
	Runs            *int                `json:"runs,omitempty"`
	IntervalMinutes *int                `json:"interval_minutes,omitempty"`
	Charge          decimal.Decimal     `json:"charge"`
	Currency        string              `json:"currency"`
	Provider        enums.OrderProvider `json:"provider"`
	ProviderOrderID *string             `json:"provider_order_id,omitempty"`
	Status          string              `json:"status"`
	StartCount      *int                `json:"start_count,omitempty"`
	Remains         *int                `json:"remains,omitempty"`
	AdminNotes      *string             `json:"admin_notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderList wraps a user's paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// AdminOrderSummary enriches an order with the owner and service context
// shown on the admin surface.
type AdminOrderSummary struct {
	OrderDTO
	UserID    uuid.UUID `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Username  string    `json:"username"`
}

// AdminOrderList wraps paginated admin order rows plus the next cursor.
type AdminOrderList struct {
	Orders     []AdminOrderSummary `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// RefillDTO acknowledges a refill request accepted by the provider.
type RefillDTO struct {
	OrderNumber int64  `json:"order_number"`
	RefillID    string `json:"refill_id"`
}

func newOrderDTO(order *models.Order, serviceName string) *OrderDTO {
	if order == nil {
		return nil
	}
	return &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		ServiceID:       order.ServiceID,
		ServiceName:     serviceName,
		Link:            order.Link,
		Quantity:        order.Quantity,
		Runs:            order.Runs,
		IntervalMinutes: order.IntervalMinutes,
		Charge:          order.Charge,
		Currency:        order.Currency,
		Provider:        order.Provider,
		ProviderOrderID: order.ProviderOrderID,
		Status:          order.Status,
		StartCount:      order.StartCount,
		Remains:         order.Remains,
		AdminNotes:      order.AdminNotes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
