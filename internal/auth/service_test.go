package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/internal/technicians"
	"github.com/fixmate-lk/fixmate-backend/internal/users"
	"github.com/fixmate-lk/fixmate-backend/pkg/auth/session"
	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/mailer"
	"github.com/fixmate-lk/fixmate-backend/pkg/security"
)

type stubTokenRepo struct {
	byHash map[string]*models.AuthToken
	used   []uuid.UUID
}

func (r *stubTokenRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubTokenRepo) CreateToken(ctx context.Context, token *models.AuthToken) error {
	r.byHash[token.Purpose+":"+token.TokenHash] = token
	return nil
}

func (r *stubTokenRepo) GetTokenByHash(ctx context.Context, purpose, tokenHash string) (*models.AuthToken, error) {
	return r.byHash[purpose+":"+tokenHash], nil
}

func (r *stubTokenRepo) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.used = append(r.used, id)
	for _, token := range r.byHash {
		if token.ID == id {
			token.UsedAt = &at
		}
	}
	return nil
}

func (r *stubTokenRepo) DeleteTokensForUser(ctx context.Context, userID uuid.UUID, purpose string) error {
	for key, token := range r.byHash {
		if token.UserID == userID && token.Purpose == purpose {
			delete(r.byHash, key)
		}
	}
	return nil
}

type stubUserRepo struct {
	users.Repository
	byID     map[uuid.UUID]*models.User
	byEmail  map[string]*models.User
	statuses map[uuid.UUID]enums.UserStatus
	logins   int
}

func (r *stubUserRepo) WithTx(tx *gorm.DB) users.Repository { return r }

func (r *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.byID[id], nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.byEmail[email], nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.logins++
	return nil
}

func (r *stubUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) error {
	r.statuses[id] = status
	if user, ok := r.byID[id]; ok {
		user.Status = status
	}
	return nil
}

type stubTechRepo struct {
	technicians.Repository
	created []*models.Technician
}

func (r *stubTechRepo) WithTx(tx *gorm.DB) technicians.Repository { return r }

func (r *stubTechRepo) Create(ctx context.Context, t *models.Technician) error {
	r.created = append(r.created, t)
	return nil
}

type stubSessions struct {
	refreshTokens map[string]string
	revoked       []string
	rotateErr     error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.refreshTokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	if s.refreshTokens[oldAccessID] != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.refreshTokens, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.refreshTokens[newID] = token
	return newID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.refreshTokens, accessID)
	return nil
}

type stubLimiter struct {
	denyScopes map[string]bool
	seen       []string
}

func (l *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	l.seen = append(l.seen, scope)
	return !l.denyScopes[scope], 1, nil
}

type stubMailer struct {
	sent []mailer.Message
}

func (m *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type stubNotifier struct {
	welcomed []uuid.UUID
}

func (n *stubNotifier) Welcome(ctx context.Context, userID uuid.UUID, name string) error {
	n.welcomed = append(n.welcomed, userID)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc      Service
	tokens   *stubTokenRepo
	users    *stubUserRepo
	techs    *stubTechRepo
	sessions *stubSessions
	limiter  *stubLimiter
	mail     *stubMailer
	notifier *stubNotifier
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "fixmate-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens: &stubTokenRepo{byHash: make(map[string]*models.AuthToken)},
		users: &stubUserRepo{
			byID:     make(map[uuid.UUID]*models.User),
			byEmail:  make(map[string]*models.User),
			statuses: make(map[uuid.UUID]enums.UserStatus),
		},
		techs:    &stubTechRepo{},
		sessions: &stubSessions{refreshTokens: make(map[string]string)},
		limiter:  &stubLimiter{denyScopes: make(map[string]bool)},
		mail:     &stubMailer{},
		notifier: &stubNotifier{},
	}

	svc, err := NewService(Deps{
		Tokens:      f.tokens,
		Users:       f.users,
		Technicians: f.techs,
		Sessions:    f.sessions,
		Limiter:     f.limiter,
		Mail:        f.mail,
		Notifier:    f.notifier,
		Tx:          stubTx{},
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		JWT:         testJWTConfig(),
		Password:    config.PasswordConfig{},
		RateLimits: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    5,
			LoginIPLimit:       20,
			RegisterWindow:     5 * time.Minute,
			RegisterEmailLimit: 3,
			RegisterIPLimit:    20,
		},
		BaseURL: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func (f *fixture) addActiveUser(t *testing.T, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test User",
		Role:         role,
		Status:       enums.UserStatusActive,
	}
	f.users.byID[user.ID] = user
	f.users.byEmail[user.Email] = user
	return user
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	return coded.Code()
}

func TestRegisterCreatesPendingCustomer(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Kamala Silva",
		Email:    "Kamala@Example.com",
		Password: "hunter2hunter2",
		Role:     "customer",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.Email != "kamala@example.com" {
		t.Fatalf("email should be normalized, got %q", result.User.Email)
	}

	user := f.users.byEmail["kamala@example.com"]
	if user == nil {
		t.Fatal("user was not persisted")
	}
	if user.Status != enums.UserStatusPendingVerification {
		t.Fatalf("expected pending verification, got %s", user.Status)
	}
	if len(f.techs.created) != 0 {
		t.Fatal("customer registration must not create a technician row")
	}
	if len(f.mail.sent) != 1 || !strings.Contains(f.mail.sent[0].Body, "verify-email?token=") {
		t.Fatalf("expected verification email, got %v", f.mail.sent)
	}
}

func TestRegisterTechnicianCreatesProfileRow(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Nimal Perera",
		Email:    "nimal@example.com",
		Password: "hunter2hunter2",
		Role:     "technician",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(f.techs.created) != 1 {
		t.Fatalf("expected 1 technician row, got %d", len(f.techs.created))
	}
	if f.techs.created[0].VerificationStatus != enums.VerificationStatusPending {
		t.Fatalf("expected pending verification, got %s", f.techs.created[0].VerificationStatus)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "taken@example.com", "password123", enums.UserRoleCustomer)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Someone Else",
		Email:    "taken@example.com",
		Password: "hunter2hunter2",
		Role:     "customer",
	})
	if codeOf(t, err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Sneaky",
		Email:    "admin@example.com",
		Password: "hunter2hunter2",
		Role:     "admin",
	})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterRateLimited(t *testing.T) {
	f := newFixture(t)
	f.limiter.denyScopes["register:email:burst@example.com"] = true

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Burst",
		Email:    "burst@example.com",
		Password: "hunter2hunter2",
		Role:     "customer",
	})
	if codeOf(t, err) != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func registerAndGrabToken(t *testing.T, f *fixture, email string) string {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Test User",
		Email:    email,
		Password: "hunter2hunter2",
		Role:     "customer",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	body := f.mail.sent[len(f.mail.sent)-1].Body
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("no token in email body %q", body)
	}
	token := body[idx+len("token="):]
	if end := strings.IndexAny(token, " \n"); end >= 0 {
		token = token[:end]
	}
	return token
}

func TestVerifyEmailActivatesAccount(t *testing.T) {
	f := newFixture(t)
	token := registerAndGrabToken(t, f, "verify@example.com")
	user := f.users.byEmail["verify@example.com"]

	if err := f.svc.VerifyEmail(context.Background(), VerifyEmailInput{Token: token}); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if f.users.statuses[user.ID] != enums.UserStatusActive {
		t.Fatalf("expected active, got %s", f.users.statuses[user.ID])
	}
	if len(f.notifier.welcomed) != 1 || f.notifier.welcomed[0] != user.ID {
		t.Fatal("expected welcome notification")
	}
	if len(f.tokens.used) != 1 {
		t.Fatal("token should be consumed")
	}
}

func TestVerifyEmailRejectsConsumedToken(t *testing.T) {
	f := newFixture(t)
	token := registerAndGrabToken(t, f, "twice@example.com")

	if err := f.svc.VerifyEmail(context.Background(), VerifyEmailInput{Token: token}); err != nil {
		t.Fatalf("first VerifyEmail: %v", err)
	}
	err := f.svc.VerifyEmail(context.Background(), VerifyEmailInput{Token: token})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error on reuse, got %v", err)
	}
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.svc.VerifyEmail(context.Background(), VerifyEmailInput{Token: "bogus"})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginReturnsTokenPair(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "login@example.com", "password123", enums.UserRoleCustomer)

	result, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "login@example.com",
		Password: "password123",
		IP:       "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.ExpiresIn != 15*60 {
		t.Fatalf("expected 900s expiry, got %d", result.ExpiresIn)
	}
	if f.users.logins != 1 {
		t.Fatal("last login should be recorded")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "login@example.com", "password123", enums.UserRoleCustomer)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "password123",
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	user := f.addActiveUser(t, "pending@example.com", "password123", enums.UserRoleCustomer)
	user.Status = enums.UserStatusPendingVerification

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "pending@example.com",
		Password: "password123",
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginSuspendedAccount(t *testing.T) {
	f := newFixture(t)
	user := f.addActiveUser(t, "banned@example.com", "password123", enums.UserRoleCustomer)
	user.Status = enums.UserStatusSuspended

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "banned@example.com",
		Password: "password123",
	})
	if codeOf(t, err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "busy@example.com", "password123", enums.UserRoleCustomer)
	f.limiter.denyScopes["login:email:busy@example.com"] = true

	_, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "busy@example.com",
		Password: "password123",
	})
	if codeOf(t, err) != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "rotate@example.com", "password123", enums.UserRoleCustomer)

	login, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "rotate@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	pair, err := f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token should rotate")
	}

	// Prior refresh token is invalidated by rotation.
	_, err = f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestRefreshRejectsMismatchedToken(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "mismatch@example.com", "password123", enums.UserRoleCustomer)

	login, err := f.svc.Login(context.Background(), LoginInput{
		Email:    "mismatch@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = f.svc.Refresh(context.Background(), RefreshInput{
		AccessToken:  login.AccessToken,
		RefreshToken: "stolen-token",
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "ghost@example.com"}); err != nil {
		t.Fatalf("ForgotPassword should not reveal unknown emails: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Fatal("no email should be sent for unknown address")
	}
}

func TestResetPasswordUpdatesCredentials(t *testing.T) {
	f := newFixture(t)
	user := f.addActiveUser(t, "reset@example.com", "old-password1", enums.UserRoleCustomer)
	oldHash := user.PasswordHash

	if err := f.svc.ForgotPassword(context.Background(), ForgotPasswordInput{Email: "reset@example.com"}); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	body := f.mail.sent[0].Body
	idx := strings.Index(body, "token=")
	token := body[idx+len("token="):]
	if end := strings.IndexAny(token, " \n"); end >= 0 {
		token = token[:end]
	}

	if err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, NewPassword: "new-password1"}); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if f.users.byID[user.ID].PasswordHash == oldHash {
		t.Fatal("password hash should change")
	}

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{Token: token, NewPassword: "another-pass1"})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("reset token must be single use, got %v", err)
	}
}

func TestChangePasswordSwapsHash(t *testing.T) {
	f := newFixture(t)
	user := f.addActiveUser(t, "swap@example.com", "old-password1", enums.UserRoleCustomer)
	oldHash := user.PasswordHash

	err := f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "old-password1",
		NewPassword:     "new-password1",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if f.users.byID[user.ID].PasswordHash == oldHash {
		t.Fatal("password hash should change")
	}
	match, err := security.VerifyPassword("new-password1", f.users.byID[user.ID].PasswordHash)
	if err != nil || !match {
		t.Fatalf("new password should verify: match=%v err=%v", match, err)
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	f := newFixture(t)
	user := f.addActiveUser(t, "wrong@example.com", "old-password1", enums.UserRoleCustomer)

	err := f.svc.ChangePassword(context.Background(), user.ID, ChangePasswordInput{
		CurrentPassword: "not-my-password",
		NewPassword:     "new-password1",
	})
	if codeOf(t, err) != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ChangePassword(context.Background(), uuid.New(), ChangePasswordInput{
		CurrentPassword: "whatever12",
		NewPassword:     "new-password1",
	})
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	f.addActiveUser(t, "bye@example.com", "password123", enums.UserRoleCustomer)

	if _, err := f.svc.Login(context.Background(), LoginInput{Email: "bye@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var accessID string
	for id := range f.sessions.refreshTokens {
		accessID = id
	}
	if err := f.svc.Logout(context.Background(), accessID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(f.sessions.revoked) != 1 {
		t.Fatal("session should be revoked")
	}
}
