package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/db"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
)

// Service defines catalog browse and admin management operations.
type Service interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	ListServices(ctx context.Context, filter ListServicesFilter) ([]models.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*models.Service, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: input.Description,
		IconURL:     input.IconURL,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return category, nil
}

func (s *service) ListServices(ctx context.Context, filter ListServicesFilter) ([]models.Service, error) {
	services, err := s.repo.ListServices(ctx, listServicesParams{
		CategoryID: filter.CategoryID,
		ActiveOnly: !filter.IncludeInactive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return services, nil
}

func (s *service) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return svc, nil
}

func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name is required")
	}
	if input.FixedRate.IsNegative() || input.FixedRate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed rate must be positive")
	}

	category, err := s.repo.GetCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}

	svc := &models.Service{
		ID:          uuid.New(),
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: input.Description,
		FixedRate:   input.FixedRate,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service")
	}
	return svc, nil
}

func (s *service) UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*models.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name cannot be blank")
		}
		svc.Name = name
	}
	if input.Description != nil {
		svc.Description = input.Description
	}
	if input.FixedRate != nil {
		if input.FixedRate.IsNegative() || input.FixedRate.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed rate must be positive")
		}
		svc.FixedRate = *input.FixedRate
	}
	if input.ImageURL != nil {
		svc.ImageURL = input.ImageURL
	}
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update service")
	}
	return svc, nil
}
