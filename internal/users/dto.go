package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// Profile is the public view of a user account.
type Profile struct {
	ID          uuid.UUID        `json:"id"`
	Email       string           `json:"email"`
	FullName    string           `json:"fullName"`
	Phone       *string          `json:"phone,omitempty"`
	Role        enums.UserRole   `json:"role"`
	Status      enums.UserStatus `json:"status"`
	AvatarURL   *string          `json:"avatarUrl,omitempty"`
	LastLoginAt *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	FullName string  `json:"fullName" validate:"required,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// AdminListParams pages through accounts with optional role/status filters.
// Filters arrive as raw query strings and are validated in the service.
type AdminListParams struct {
	Limit  int
	Cursor string
	Role   *string
	Status *string
}

// AdminListResult wraps one page of accounts.
type AdminListResult struct {
	Items  []Profile `json:"items"`
	Cursor string    `json:"cursor"`
}

// ToProfile maps the persistence model to its public view.
func ToProfile(user *models.User) Profile {
	return Profile{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		Role:        user.Role,
		Status:      user.Status,
		AvatarURL:   user.AvatarURL,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
