package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is the top level of the catalog tree.
type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"type:text;not null;uniqueIndex"`
	ImagePath *string    `gorm:"column:image_path"`
	SortOrder int        `gorm:"column:sort_order;not null;default:0"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	Platforms []Platform `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
