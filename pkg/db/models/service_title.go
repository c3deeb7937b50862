package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceTitle groups sellable services under a platform
// ("Instagram Followers", "TikTok Views", ...).
type ServiceTitle struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PlatformID uuid.UUID `gorm:"column:platform_id;type:uuid;not null;index"`
	Name       string    `gorm:"type:text;not null"`
	SortOrder  int       `gorm:"column:sort_order;not null;default:0"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	Services   []Service `gorm:"foreignKey:ServiceTitleID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
