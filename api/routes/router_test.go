package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/internal/addresses"
	"github.com/fixmate-lk/fixmate-backend/internal/auth"
	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/internal/catalog"
	"github.com/fixmate-lk/fixmate-backend/internal/dashboard"
	"github.com/fixmate-lk/fixmate-backend/internal/notifications"
	"github.com/fixmate-lk/fixmate-backend/internal/technicians"
	"github.com/fixmate-lk/fixmate-backend/internal/users"
	pkgAuth "github.com/fixmate-lk/fixmate-backend/pkg/auth"
	"github.com/fixmate-lk/fixmate-backend/pkg/auth/session"
	"github.com/fixmate-lk/fixmate-backend/pkg/config"
	"github.com/fixmate-lk/fixmate-backend/pkg/db"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterInput) (*auth.RegisterResult, error) {
	panic("unimplemented")
}

func (stubAuthService) VerifyEmail(context.Context, auth.VerifyEmailInput) error {
	panic("unimplemented")
}

func (stubAuthService) Login(context.Context, auth.LoginInput) (*auth.LoginResult, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(context.Context, auth.RefreshInput) (*auth.TokenPair, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

func (stubAuthService) ForgotPassword(context.Context, auth.ForgotPasswordInput) error {
	panic("unimplemented")
}

func (stubAuthService) ResetPassword(context.Context, auth.ResetPasswordInput) error {
	panic("unimplemented")
}

func (stubAuthService) ChangePassword(context.Context, uuid.UUID, auth.ChangePasswordInput) error {
	panic("unimplemented")
}

type stubUsersService struct{}

func (stubUsersService) GetProfile(context.Context, uuid.UUID) (*users.Profile, error) {
	return &users.Profile{}, nil
}

func (stubUsersService) UpdateProfile(context.Context, uuid.UUID, users.UpdateProfileInput) (*users.Profile, error) {
	panic("unimplemented")
}

func (stubUsersService) UpdateAvatar(context.Context, uuid.UUID, string, io.Reader, int64) (*users.Profile, error) {
	panic("unimplemented")
}

func (stubUsersService) AdminList(context.Context, users.AdminListParams) (*users.AdminListResult, error) {
	return &users.AdminListResult{}, nil
}

func (stubUsersService) SetStatus(context.Context, uuid.UUID, string) (*users.Profile, error) {
	panic("unimplemented")
}

type stubAddressesService struct{}

func (stubAddressesService) List(context.Context, uuid.UUID) ([]models.Address, error) {
	return nil, nil
}

func (stubAddressesService) Create(context.Context, uuid.UUID, addresses.CreateAddressInput) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressesService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

func (stubAddressesService) SetDefault(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) ListCategories(context.Context) ([]models.Category, error) {
	return nil, nil
}

func (stubCatalogService) CreateCategory(context.Context, catalog.CreateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListServices(context.Context, catalog.ListServicesFilter) ([]models.Service, error) {
	return nil, nil
}

func (stubCatalogService) GetService(context.Context, uuid.UUID) (*models.Service, error) {
	panic("unimplemented")
}

func (stubCatalogService) CreateService(context.Context, catalog.CreateServiceInput) (*models.Service, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateService(context.Context, uuid.UUID, catalog.UpdateServiceInput) (*models.Service, error) {
	panic("unimplemented")
}

type stubBookingsService struct{}

func (stubBookingsService) Create(context.Context, uuid.UUID, bookings.CreateBookingInput) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingsService) AttachReferenceImage(context.Context, uuid.UUID, uuid.UUID, string, io.Reader, int64) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingsService) Get(context.Context, uuid.UUID, enums.UserRole, uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingsService) ListMine(context.Context, uuid.UUID, bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (stubBookingsService) ListAll(context.Context, bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (stubBookingsService) ListAvailable(context.Context, uuid.UUID, bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (stubBookingsService) ListAssigned(context.Context, uuid.UUID, bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (stubBookingsService) Accept(context.Context, uuid.UUID, uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingsService) UpdateStatus(context.Context, uuid.UUID, uuid.UUID, bookings.UpdateStatusInput) (*models.Booking, error) {
	panic("unimplemented")
}

func (stubBookingsService) Cancel(context.Context, uuid.UUID, uuid.UUID, bookings.CancelInput) (*models.Booking, error) {
	panic("unimplemented")
}

type stubTechniciansService struct{}

func (stubTechniciansService) GetOwn(context.Context, uuid.UUID) (*technicians.Profile, error) {
	return &technicians.Profile{}, nil
}

func (stubTechniciansService) UpdateProfile(context.Context, uuid.UUID, technicians.UpdateProfileInput) (*technicians.Profile, error) {
	panic("unimplemented")
}

func (stubTechniciansService) UploadDocument(context.Context, uuid.UUID, string, io.Reader, int64) (*technicians.Profile, error) {
	panic("unimplemented")
}

func (stubTechniciansService) ListPending(context.Context, technicians.ListPendingParams) (*technicians.ListPendingResult, error) {
	return &technicians.ListPendingResult{}, nil
}

func (stubTechniciansService) GetVerificationRequest(context.Context, uuid.UUID) (*technicians.Profile, error) {
	panic("unimplemented")
}

func (stubTechniciansService) Approve(context.Context, uuid.UUID) (*technicians.Profile, error) {
	panic("unimplemented")
}

func (stubTechniciansService) Reject(context.Context, uuid.UUID, string) (*technicians.Profile, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) Create(context.Context, notifications.CreateInput) (*notifications.CreateResult, error) {
	panic("unimplemented")
}

func (stubNotificationsService) ListAdmin(context.Context, notifications.AdminListParams) (*notifications.AdminListResult, error) {
	return &notifications.AdminListResult{}, nil
}

func (stubNotificationsService) Feed(context.Context, notifications.FeedParams) (*notifications.FeedResult, error) {
	return &notifications.FeedResult{}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	panic("unimplemented")
}

type stubDashboardService struct{}

func (stubDashboardService) Stats(context.Context) (*dashboard.Stats, error) {
	return &dashboard.Stats{}, nil
}

func (stubDashboardService) RecentActivity(context.Context) ([]dashboard.ActivityItem, error) {
	return nil, nil
}

func (stubDashboardService) CompletionTrends(context.Context, int) (*dashboard.Trends, error) {
	return &dashboard.Trends{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		Sessions:      stubSessions{},
		Pingers:       []db.Pinger{stubPinger{}},
		Auth:          stubAuthService{},
		Users:         stubUsersService{},
		Addresses:     stubAddressesService{},
		Catalog:       stubCatalogService{},
		Bookings:      stubBookingsService{},
		Technicians:   stubTechniciansService{},
		Notifications: stubNotificationsService{},
		Dashboard:     stubDashboardService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for health live got %d", resp.Code)
	}
}

func TestPublicCatalogNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/categories", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard/stats", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard/stats", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestTechnicianGroupRequiresTechnicianRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/available", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-technician got %d", resp.Code)
	}

	technician := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/available", nil)
	technician.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleTechnician))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, technician)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for technician got %d", resp.Code)
	}
}

func TestCustomerBookingListRejectsTechnician(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	technician := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/", nil)
	technician.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleTechnician))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, technician)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for technician on customer listing got %d", resp.Code)
	}

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer listing got %d", resp.Code)
	}
}
