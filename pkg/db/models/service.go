package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
)

// Service is a sellable engagement package. ProviderServiceID is the
// upstream Secsers service id and is present iff Provider is secsers.
type Service struct {
	ID                uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceTitleID    uuid.UUID           `gorm:"column:service_title_id;type:uuid;not null;index"`
	Name              string              `gorm:"type:text;not null"`
	Provider          enums.OrderProvider `gorm:"column:provider;type:text;not null;default:'manual'"`
	ProviderServiceID *int64              `gorm:"column:provider_service_id"`
	UserPrice         decimal.Decimal     `gorm:"column:user_price;type:numeric(18,4);not null"`
	MinQty            int                 `gorm:"column:min_qty;not null;default:1"`
	MaxQty            int                 `gorm:"column:max_qty;not null"`
	Dripfeed          bool                `gorm:"column:dripfeed;not null;default:false"`
	Refill            bool                `gorm:"column:refill;not null;default:false"`
	Description       *string             `gorm:"column:description;type:text"`
	SortOrder         int                 `gorm:"column:sort_order;not null;default:0"`
	Active            bool                `gorm:"column:active;not null;default:true"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
