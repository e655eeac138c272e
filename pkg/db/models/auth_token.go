package models

import (
	"time"

	"github.com/google/uuid"
)

// Token purposes for single-use auth tokens.
const (
	TokenPurposeEmailVerification = "email_verification"
	TokenPurposePasswordReset     = "password_reset"
)

// AuthToken is a single-use token emailed to a user for email
// verification or password reset.
type AuthToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Purpose   string     `gorm:"type:text;not null;index"`
	TokenHash string     `gorm:"column:token_hash;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// Usable reports whether the token is unconsumed and unexpired at now.
func (t AuthToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
