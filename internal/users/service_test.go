package users

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

type stubRepo struct {
	Repository
	users    map[uuid.UUID]*models.User
	getErr   error
	updated  *models.User
	listed   *listUsersParams
	rows     []models.User
	statuses map[uuid.UUID]enums.UserStatus
}

func newStubRepo(users ...*models.User) *stubRepo {
	m := map[uuid.UUID]*models.User{}
	for _, u := range users {
		m[u.ID] = u
	}
	return &stubRepo{users: m, statuses: map[uuid.UUID]enums.UserStatus{}}
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.users[id], nil
}

func (s *stubRepo) Update(_ context.Context, user *models.User) error {
	s.updated = user
	return nil
}

func (s *stubRepo) List(_ context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error) {
	s.listed = &params
	return s.rows, nil, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.UserStatus) error {
	s.statuses[id] = status
	if user, ok := s.users[id]; ok {
		user.Status = status
	}
	return nil
}

type stubAvatarStore struct {
	savedURL string
	saveErr  error
	removed  []string
}

func (s *stubAvatarStore) Save(_ context.Context, scope, filename string, _ io.Reader, _ int64) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.savedURL = "/uploads/" + scope + "/" + filename
	return s.savedURL, nil
}

func (s *stubAvatarStore) Remove(_ context.Context, url string) error {
	s.removed = append(s.removed, url)
	return nil
}

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Email:    "jane@example.com",
		FullName: "Jane Perera",
		Role:     enums.UserRoleCustomer,
		Status:   enums.UserStatusActive,
	}
}

func mustService(t *testing.T, repo Repository, store AvatarStore) Service {
	t.Helper()
	svc, err := NewService(repo, store)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func codeOf(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	return coded.Code()
}

func TestGetProfile(t *testing.T) {
	user := testUser()
	svc := mustService(t, newStubRepo(user), &stubAvatarStore{})

	profile, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.Email != user.Email {
		t.Fatalf("email = %s", profile.Email)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc := mustService(t, newStubRepo(), &stubAvatarStore{})
	_, err := svc.GetProfile(context.Background(), uuid.New())
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileTrimsAndSaves(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc := mustService(t, repo, &stubAvatarStore{})

	phone := "  0771234567 "
	profile, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FullName: "  Jane A. Perera ",
		Phone:    &phone,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if profile.FullName != "Jane A. Perera" {
		t.Fatalf("fullName = %q", profile.FullName)
	}
	if profile.Phone == nil || *profile.Phone != "0771234567" {
		t.Fatalf("phone = %v", profile.Phone)
	}
	if repo.updated == nil {
		t.Fatal("expected repo.Update to be called")
	}
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	user := testUser()
	svc := mustService(t, newStubRepo(user), &stubAvatarStore{})

	_, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{FullName: "   "})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAvatarReplacesPrevious(t *testing.T) {
	user := testUser()
	old := "/uploads/avatars/old.png"
	user.AvatarURL = &old
	store := &stubAvatarStore{}
	svc := mustService(t, newStubRepo(user), store)

	profile, err := svc.UpdateAvatar(context.Background(), user.ID, "new.png", strings.NewReader("img"), 1024)
	if err != nil {
		t.Fatalf("UpdateAvatar returned error: %v", err)
	}
	if profile.AvatarURL == nil || *profile.AvatarURL != store.savedURL {
		t.Fatalf("avatarUrl = %v", profile.AvatarURL)
	}
	if len(store.removed) != 1 || store.removed[0] != old {
		t.Fatalf("expected old avatar removal, got %v", store.removed)
	}
}

func TestUpdateAvatarStoreFailure(t *testing.T) {
	user := testUser()
	store := &stubAvatarStore{saveErr: errors.New("bad extension")}
	svc := mustService(t, newStubRepo(user), store)

	_, err := svc.UpdateAvatar(context.Background(), user.ID, "new.bmp", strings.NewReader("img"), 1024)
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRepoErrorsMapToDependency(t *testing.T) {
	repo := newStubRepo()
	repo.getErr = errors.New("db down")
	svc := mustService(t, repo, &stubAvatarStore{})

	_, err := svc.GetProfile(context.Background(), uuid.New())
	if codeOf(t, err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAdminListParsesFilters(t *testing.T) {
	repo := newStubRepo()
	repo.rows = []models.User{
		{ID: uuid.New(), Email: "a@example.com", Role: enums.UserRoleTechnician, Status: enums.UserStatusActive, CreatedAt: time.Now()},
	}
	svc := mustService(t, repo, &stubAvatarStore{})

	role := "technician"
	status := "active"
	result, err := svc.AdminList(context.Background(), AdminListParams{Limit: 10, Role: &role, Status: &status})
	if err != nil {
		t.Fatalf("AdminList returned error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d", len(result.Items))
	}
	if repo.listed == nil || repo.listed.Role == nil || *repo.listed.Role != enums.UserRoleTechnician {
		t.Fatalf("role filter not forwarded: %+v", repo.listed)
	}
	if repo.listed.Status == nil || *repo.listed.Status != enums.UserStatusActive {
		t.Fatalf("status filter not forwarded: %+v", repo.listed)
	}
	if result.Cursor != "" {
		t.Fatalf("expected empty cursor, got %q", result.Cursor)
	}
}

func TestAdminListRejectsBadFilters(t *testing.T) {
	svc := mustService(t, newStubRepo(), &stubAvatarStore{})

	role := "superuser"
	_, err := svc.AdminList(context.Background(), AdminListParams{Limit: 10, Role: &role})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.AdminList(context.Background(), AdminListParams{Limit: 10, Cursor: "not-base64!"})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for cursor, got %v", err)
	}
}

func TestSetStatusSuspendsUser(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc := mustService(t, repo, &stubAvatarStore{})

	profile, err := svc.SetStatus(context.Background(), user.ID, "suspended")
	if err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if profile.Status != enums.UserStatusSuspended {
		t.Fatalf("status = %s", profile.Status)
	}
	if repo.statuses[user.ID] != enums.UserStatusSuspended {
		t.Fatal("expected repo.UpdateStatus to be called")
	}
}

func TestSetStatusIsIdempotent(t *testing.T) {
	user := testUser()
	repo := newStubRepo(user)
	svc := mustService(t, repo, &stubAvatarStore{})

	if _, err := svc.SetStatus(context.Background(), user.ID, "active"); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if _, ok := repo.statuses[user.ID]; ok {
		t.Fatal("unchanged status must not hit the repo")
	}
}

func TestSetStatusRejectsVerificationStates(t *testing.T) {
	user := testUser()
	svc := mustService(t, newStubRepo(user), &stubAvatarStore{})

	_, err := svc.SetStatus(context.Background(), user.ID, "pending_verification")
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
