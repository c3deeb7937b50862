package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
)

// Order is one fulfillment request. Status is free-form text: provider
// orders carry whatever Secsers last reported, manual orders move through
// the local approval machine. ProviderOrderID is present iff the order was
// successfully placed upstream. Charge, Currency, StartCount, and Remains
// on provider orders are only ever written by the reconciliation path.
type Order struct {
	ID              uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64               `gorm:"column:order_number;not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ServiceID       uuid.UUID           `gorm:"column:service_id;type:uuid;not null;index"`
	Link            string              `gorm:"type:text;not null"`
	Quantity        int                 `gorm:"column:quantity;not null"`
	Runs            *int                `gorm:"column:runs"`
	IntervalMinutes *int                `gorm:"column:interval_minutes"`
	Charge          decimal.Decimal     `gorm:"column:charge;type:numeric(18,4);not null"`
	Currency        string              `gorm:"column:currency;type:text;not null;default:'USD'"`
	Provider        enums.OrderProvider `gorm:"column:provider;type:text;not null"`
	ProviderOrderID *string             `gorm:"column:provider_order_id;index"`
	Status          string              `gorm:"column:status;type:text;not null;index"`
	StartCount      *int                `gorm:"column:start_count"`
	Remains         *int                `gorm:"column:remains"`
	AdminNotes      *string             `gorm:"column:admin_notes;type:text"`
	User            *User               `gorm:"foreignKey:UserID"`
	Service         *Service            `gorm:"foreignKey:ServiceID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
