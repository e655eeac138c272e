package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	categories map[uuid.UUID]*models.Category
	services   map[uuid.UUID]*models.Service
	created    *models.Service
	updated    *models.Service
	listParams listServicesParams
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		categories: map[uuid.UUID]*models.Category{},
		services:   map[uuid.UUID]*models.Service{},
	}
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) GetCategory(_ context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categories[id], nil
}

func (s *stubRepo) CreateService(_ context.Context, svc *models.Service) error {
	s.created = svc
	s.services[svc.ID] = svc
	return nil
}

func (s *stubRepo) UpdateService(_ context.Context, svc *models.Service) error {
	s.updated = svc
	return nil
}

func (s *stubRepo) GetService(_ context.Context, id uuid.UUID) (*models.Service, error) {
	return s.services[id], nil
}

func (s *stubRepo) ListServices(_ context.Context, params listServicesParams) ([]models.Service, error) {
	s.listParams = params
	out := make([]models.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, *svc)
	}
	return out, nil
}

func mustService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
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

func TestCreateServiceValidatesCategoryAndRate(t *testing.T) {
	repo := newStubRepo()
	category := &models.Category{ID: uuid.New(), Name: "Plumbing"}
	repo.categories[category.ID] = category
	svc := mustService(t, repo)

	created, err := svc.CreateService(context.Background(), CreateServiceInput{
		CategoryID: category.ID,
		Name:       " Leak Repair ",
		FixedRate:  decimal.NewFromInt(4500),
	})
	if err != nil {
		t.Fatalf("CreateService returned error: %v", err)
	}
	if created.Name != "Leak Repair" {
		t.Fatalf("name = %q", created.Name)
	}
	if !created.IsActive {
		t.Fatal("new services should default to active")
	}

	_, err = svc.CreateService(context.Background(), CreateServiceInput{
		CategoryID: uuid.New(),
		Name:       "Ghost",
		FixedRate:  decimal.NewFromInt(100),
	})
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}

	_, err = svc.CreateService(context.Background(), CreateServiceInput{
		CategoryID: category.ID,
		Name:       "Free Work",
		FixedRate:  decimal.Zero,
	})
	if codeOf(t, err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero rate, got %v", err)
	}
}

func TestUpdateServicePartialFields(t *testing.T) {
	repo := newStubRepo()
	existing := &models.Service{
		ID:        uuid.New(),
		Name:      "Wiring Check",
		FixedRate: decimal.NewFromInt(3000),
		IsActive:  true,
	}
	repo.services[existing.ID] = existing
	svc := mustService(t, repo)

	inactive := false
	rate := decimal.NewFromInt(3500)
	updated, err := svc.UpdateService(context.Background(), existing.ID, UpdateServiceInput{
		FixedRate: &rate,
		IsActive:  &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateService returned error: %v", err)
	}
	if !updated.FixedRate.Equal(rate) {
		t.Fatalf("fixedRate = %s", updated.FixedRate)
	}
	if updated.IsActive {
		t.Fatal("expected service to be deactivated")
	}
	if updated.Name != "Wiring Check" {
		t.Fatalf("untouched field changed: %q", updated.Name)
	}
}

func TestListServicesDefaultsToActiveOnly(t *testing.T) {
	repo := newStubRepo()
	svc := mustService(t, repo)

	if _, err := svc.ListServices(context.Background(), ListServicesFilter{}); err != nil {
		t.Fatalf("ListServices returned error: %v", err)
	}
	if !repo.listParams.ActiveOnly {
		t.Fatal("expected active-only listing by default")
	}

	if _, err := svc.ListServices(context.Background(), ListServicesFilter{IncludeInactive: true}); err != nil {
		t.Fatalf("ListServices returned error: %v", err)
	}
	if repo.listParams.ActiveOnly {
		t.Fatal("expected inactive services to be included")
	}
}

func TestGetServiceNotFound(t *testing.T) {
	svc := mustService(t, newStubRepo())
	_, err := svc.GetService(context.Background(), uuid.New())
	if codeOf(t, err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
