package addresses

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
)

// CreateAddressInput carries fields for a saved location.
type CreateAddressInput struct {
	Label      string  `json:"label" validate:"required,min=1,max=60"`
	Line1      string  `json:"line1" validate:"required,min=3,max=200"`
	Line2      *string `json:"line2" validate:"omitempty,max=200"`
	City       string  `json:"city" validate:"required,min=2,max=80"`
	District   *string `json:"district" validate:"omitempty,max=80"`
	PostalCode *string `json:"postalCode" validate:"omitempty,max=12"`
	IsDefault  bool    `json:"isDefault"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines address book operations. Every operation is scoped to
// the owning user; acting on another user's address reads as not found.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires the addresses dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "addresses repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*models.Address, error) {
	label := strings.TrimSpace(input.Label)
	line1 := strings.TrimSpace(input.Line1)
	city := strings.TrimSpace(input.City)
	if label == "" || line1 == "" || city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label, line1, and city are required")
	}

	address := &models.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Label:      label,
		Line1:      line1,
		Line2:      input.Line2,
		City:       city,
		District:   input.District,
		PostalCode: input.PostalCode,
		IsDefault:  input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address == nil || address.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	affected, err := s.repo.Delete(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address == nil || address.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if address.IsDefault {
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		address.IsDefault = true
		return repo.Update(ctx, address)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return nil
}
