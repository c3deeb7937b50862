package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindByIDForUser scopes the lookup to the owning user; a foreign order
	// surfaces as gorm.ErrRecordNotFound.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	// ClaimStatusUpdate applies updates only while the row still holds
	// fromStatus; the boolean reports whether this caller won the claim.
	// Both the approval state machine and the reconciliation merge run
	// through it so concurrent writers cannot double-apply a transition.
	ClaimStatusUpdate(ctx context.Context, id uuid.UUID, fromStatus string, updates map[string]any) (bool, error)
	// ListOpenProvider returns provider orders whose status sits in the
	// configured open set and which carry a provider order id, oldest first.
	ListOpenProvider(ctx context.Context, statuses []string, limit int) ([]models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) (*OrderList, error)
	// ListAdmin applies the database-level filters and cursor; the caller
	// applies the substring search to the returned page.
	ListAdmin(ctx context.Context, query AdminListQuery) (*AdminOrderList, error)
}
