package models

import "time"

// Counter is a named monotonic sequence. Allocation increments Value in a
// single atomic statement; the orders and deposits sequences live here.
type Counter struct {
	Name      string    `gorm:"column:name;type:text;primaryKey"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
