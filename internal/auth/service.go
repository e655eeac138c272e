package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	emailaddress "github.com/mcnijman/go-emailaddress"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/internal/technicians"
	"github.com/fixmate-lk/fixmate-backend/internal/users"
	pkgauth "github.com/fixmate-lk/fixmate-backend/pkg/auth"
	"github.com/fixmate-lk/fixmate-backend/pkg/auth/session"
	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/db"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/mailer"
	"github.com/fixmate-lk/fixmate-backend/pkg/security"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

// SessionManager is the slice of the Redis session manager used here.
type SessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// RateLimiter applies fixed-window counters keyed by scope.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AccountNotifier delivers in-app account notifications. Best-effort.
type AccountNotifier interface {
	Welcome(ctx context.Context, userID uuid.UUID, name string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines registration, login, and credential recovery.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, input VerifyEmailInput) error
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	ForgotPassword(ctx context.Context, input ForgotPasswordInput) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
}

// Deps bundles the collaborators the auth service needs.
type Deps struct {
	Tokens      Repository
	Users       users.Repository
	Technicians technicians.Repository
	Sessions    SessionManager
	Limiter     RateLimiter
	Mail        mailer.Sender
	Notifier    AccountNotifier
	Tx          txRunner
	Logger      *logger.Logger
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	RateLimits  config.AuthRateLimitConfig
	BaseURL     string
}

type service struct {
	deps Deps
	now  func() time.Time
}

// NewService wires the auth dependencies.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tokens == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth token repository required")
	case deps.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	case deps.Technicians == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technicians repository required")
	case deps.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session manager required")
	case deps.Limiter == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "rate limiter required")
	case deps.Mail == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	case deps.Notifier == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	case deps.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case deps.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		deps: deps,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates an account awaiting email verification. Technician
// registrations get their profile row in the same transaction.
func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := emailaddress.Parse(email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email address")
	}

	role, err := enums.ParseUserRole(strings.TrimSpace(input.Role))
	if err != nil || role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be customer or technician")
	}

	if err := s.allowRegister(ctx, email, input.IP); err != nil {
		return nil, err
	}

	existing, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
	}

	hash, err := security.HashPassword(input.Password, s.deps.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Role:         role,
		Status:       enums.UserStatusPendingVerification,
	}

	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		if role == enums.UserRoleTechnician {
			technician := &models.Technician{
				ID:                 uuid.New(),
				UserID:             user.ID,
				VerificationStatus: enums.VerificationStatusPending,
				Availability:       enums.AvailabilityStatusAvailable,
			}
			return s.deps.Technicians.WithTx(tx).Create(ctx, technician)
		}
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	s.issueEmailToken(ctx, user, models.TokenPurposeEmailVerification, verificationTokenTTL,
		"Verify your FixMate email",
		"Welcome to FixMate. Visit %s/verify-email?token=%s within 24 hours to activate your account.")

	result := ToRegisterResult(user)
	return &result, nil
}

// VerifyEmail consumes a verification token and activates the account.
func (s *service) VerifyEmail(ctx context.Context, input VerifyEmailInput) error {
	token, err := s.usableToken(ctx, models.TokenPurposeEmailVerification, input.Token)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired token")
	}

	now := s.now()
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Tokens.WithTx(tx).MarkTokenUsed(ctx, token.ID, now); err != nil {
			return err
		}
		return s.deps.Users.WithTx(tx).UpdateStatus(ctx, user.ID, enums.UserStatusActive)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate account")
	}

	if err := s.deps.Notifier.Welcome(ctx, user.ID, user.FullName); err != nil {
		s.deps.Logger.Error(ctx, "publishing welcome notification failed", err)
	}
	return nil
}

// Login checks credentials and returns a JWT plus refresh token.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.allowLogin(ctx, email, input.IP); err != nil {
		return nil, err
	}

	user, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	switch user.Status {
	case enums.UserStatusPendingVerification:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "email is not verified")
	case enums.UserStatusActive:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	pair, err := s.mintTokens(ctx, user, session.NewAccessID())
	if err != nil {
		return nil, err
	}

	if err := s.deps.Users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.deps.Logger.Error(ctx, "recording last login failed", err)
	}

	return &LoginResult{TokenPair: *pair, User: users.ToProfile(user)}, nil
}

// Refresh rotates the session tied to an access token. The token itself
// may already be expired; only its signature must hold.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.deps.JWT, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	user, err := s.deps.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil || !user.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is no longer active")
	}

	newAccessID, newRefresh, err := s.deps.Sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	access, err := pkgauth.MintAccessToken(s.deps.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(time.Duration(s.deps.JWT.ExpirationMinutes) * time.Minute / time.Second),
	}, nil
}

// Logout revokes the refresh session tied to the access identifier.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if err := s.deps.Sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// ForgotPassword issues a reset token. The response never reveals whether
// the address exists.
func (s *service) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.allowLogin(ctx, email, input.IP); err != nil {
		return err
	}

	user, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up email")
	}
	if user == nil {
		return nil
	}

	s.issueEmailToken(ctx, user, models.TokenPurposePasswordReset, resetTokenTTL,
		"Reset your FixMate password",
		"A password reset was requested for your account. Visit %s/reset-password?token=%s within 1 hour. Ignore this email if it wasn't you.")
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	token, err := s.usableToken(ctx, models.TokenPurposePasswordReset, input.Token)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired token")
	}

	hash, err := security.HashPassword(input.NewPassword, s.deps.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.now()
	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.deps.Tokens.WithTx(tx).MarkTokenUsed(ctx, token.ID, now); err != nil {
			return err
		}
		user.PasswordHash = hash
		return s.deps.Users.WithTx(tx).Update(ctx, user)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	match, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.deps.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user.PasswordHash = hash
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func (s *service) mintTokens(ctx context.Context, user *models.User, accessID string) (*TokenPair, error) {
	access, err := pkgauth.MintAccessToken(s.deps.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.deps.Sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Duration(s.deps.JWT.ExpirationMinutes) * time.Minute / time.Second),
	}, nil
}

// issueEmailToken invalidates prior tokens, stores a fresh one, and emails
// the link. Delivery failures are logged, never returned.
func (s *service) issueEmailToken(ctx context.Context, user *models.User, purpose string, ttl time.Duration, subject, bodyFormat string) {
	raw, err := security.GenerateToken()
	if err != nil {
		s.deps.Logger.Error(ctx, "generating auth token failed", err)
		return
	}

	token := &models.AuthToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Purpose:   purpose,
		TokenHash: security.HashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}

	err = s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.deps.Tokens.WithTx(tx)
		if err := repo.DeleteTokensForUser(ctx, user.ID, purpose); err != nil {
			return err
		}
		return repo.CreateToken(ctx, token)
	})
	if err != nil {
		s.deps.Logger.Error(ctx, "storing auth token failed", err)
		return
	}

	err = s.deps.Mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: subject,
		Body:    fmt.Sprintf(bodyFormat, s.deps.BaseURL, raw),
	})
	if err != nil {
		s.deps.Logger.Error(ctx, "sending auth email failed", err)
	}
}

func (s *service) usableToken(ctx context.Context, purpose, raw string) (*models.AuthToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	token, err := s.deps.Tokens.GetTokenByHash(ctx, purpose, security.HashToken(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up token")
	}
	if token == nil || !token.Usable(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired token")
	}
	return token, nil
}

func (s *service) allowLogin(ctx context.Context, email, ip string) error {
	limits := s.deps.RateLimits
	if err := s.allow(ctx, "login:email:"+email, int64(limits.LoginEmailLimit), limits.LoginWindow); err != nil {
		return err
	}
	if ip == "" {
		return nil
	}
	return s.allow(ctx, "login:ip:"+ip, int64(limits.LoginIPLimit), limits.LoginWindow)
}

func (s *service) allowRegister(ctx context.Context, email, ip string) error {
	limits := s.deps.RateLimits
	if err := s.allow(ctx, "register:email:"+email, int64(limits.RegisterEmailLimit), limits.RegisterWindow); err != nil {
		return err
	}
	if ip == "" {
		return nil
	}
	return s.allow(ctx, "register:ip:"+ip, int64(limits.RegisterIPLimit), limits.RegisterWindow)
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return nil
	}
	allowed, _, err := s.deps.Limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		// Redis being down must not lock everyone out.
		s.deps.Logger.Error(ctx, "rate limit check failed", err)
		return nil
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}

// ToRegisterResult shapes the registration response.
func ToRegisterResult(user *models.User) RegisterResult {
	return RegisterResult{User: users.ToProfile(user)}
}
