package models

import (
	"time"

	"github.com/google/uuid"
)

// Platform is a social network inside a category (Instagram, TikTok, ...).
type Platform struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID    uuid.UUID      `gorm:"column:category_id;type:uuid;not null;index"`
	Name          string         `gorm:"type:text;not null"`
	ImagePath     *string        `gorm:"column:image_path"`
	SortOrder     int            `gorm:"column:sort_order;not null;default:0"`
	Active        bool           `gorm:"column:active;not null;default:true"`
	ServiceTitles []ServiceTitle `gorm:"foreignKey:PlatformID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
