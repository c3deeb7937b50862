package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
)

// Transaction is a ledger entry. Amount is always a positive magnitude;
// direction follows from Type and Status. Reference correlates an order
// charge to its Order (exactly one per manual order). OrderNumber is the
// human-facing number drawn from the deposits counter for deposit rows.
type Transaction struct {
	ID          uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.TransactionType   `gorm:"column:type;type:text;not null;index"`
	Method      string                  `gorm:"column:method;type:text;not null;default:'balance'"`
	Amount      decimal.Decimal         `gorm:"column:amount;type:numeric(18,4);not null"`
	Status      enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	Reference   *string                 `gorm:"column:reference;type:text;uniqueIndex"`
	OrderNumber *int64                  `gorm:"column:order_number"`
	Note        *string                 `gorm:"column:note;type:text"`
	User        *User                   `gorm:"foreignKey:UserID"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
