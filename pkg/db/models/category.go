package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups catalog services (plumbing, electrical, and so on).
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description *string   `gorm:"type:text"`
	IconURL     *string   `gorm:"column:icon_url"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
