package auth

import (
	"github.com/fixmate-lk/fixmate-backend/internal/users"
)

// RegisterInput carries a new account registration.
type RegisterInput struct {
	FullName string  `json:"fullName" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,max=320"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Role     string  `json:"role" validate:"required,oneof=customer technician"`
	IP       string  `json:"-"`
}

// RegisterResult confirms the account awaiting email verification.
type RegisterResult struct {
	User users.Profile `json:"user"`
}

// LoginInput carries credentials plus the caller's address for rate limiting.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// TokenPair is the credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResult bundles tokens with the authenticated profile.
type LoginResult struct {
	TokenPair
	User users.Profile `json:"user"`
}

// RefreshInput rotates an expired-or-live access token by its refresh token.
type RefreshInput struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// VerifyEmailInput confirms ownership of a registered address.
type VerifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

// ForgotPasswordInput requests a reset email.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required"`
	IP    string `json:"-"`
}

// ResetPasswordInput consumes a reset token.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// ChangePasswordInput swaps credentials for a signed-in user.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}
