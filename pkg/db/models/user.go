package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// User represents the canonical identity entity for every role.
type User struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string           `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FullName     string           `gorm:"column:full_name;not null"`
	Phone        *string          `gorm:"column:phone"`
	Role         enums.UserRole   `gorm:"type:user_role;not null"`
	Status       enums.UserStatus `gorm:"type:user_status;not null;default:'pending_verification'"`
	AvatarURL    *string          `gorm:"column:avatar_url"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool {
	return u.Status == enums.UserStatusActive
}
