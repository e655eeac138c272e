package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCategoryInput carries fields for a new category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=80"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IconURL     *string `json:"iconUrl" validate:"omitempty,url"`
}

// CreateServiceInput carries fields for a new catalog service.
type CreateServiceInput struct {
	CategoryID  uuid.UUID       `json:"categoryId" validate:"required"`
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	FixedRate   decimal.Decimal `json:"fixedRate" validate:"required"`
	ImageURL    *string         `json:"imageUrl" validate:"omitempty,url"`
}

// UpdateServiceInput carries the editable fields of a catalog service.
type UpdateServiceInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	FixedRate   *decimal.Decimal `json:"fixedRate"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,url"`
	IsActive    *bool            `json:"isActive"`
}

// ListServicesFilter narrows the catalog listing.
type ListServicesFilter struct {
	CategoryID      *uuid.UUID
	IncludeInactive bool
}
