package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable catalog entry with a fixed price.
type Service struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:text;not null"`
	Description *string         `gorm:"type:text"`
	FixedRate   decimal.Decimal `gorm:"type:numeric(12,2);column:fixed_rate;not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Category *Category `gorm:"foreignKey:CategoryID"`
}
