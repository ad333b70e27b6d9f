package models

import "time"

// OrderCounter is the single-row monotonic sequence behind order numbers.
type OrderCounter struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Sequence  int64     `gorm:"column:sequence;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
