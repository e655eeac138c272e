package controllers

import (
	"net/http"
	"strings"

	"github.com/fixmate-lk/fixmate-backend/api/responses"
	"github.com/fixmate-lk/fixmate-backend/api/validators"
	"github.com/fixmate-lk/fixmate-backend/internal/catalog"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"

	"github.com/google/uuid"
)

// CatalogCategories returns every service category.
func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.ListCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CatalogCreateCategory registers a new category. Admin only.
func CatalogCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var input catalog.CreateCategoryInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateCategory(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CatalogServices lists services, optionally narrowed to one category.
// Passing includeInactive=true surfaces retired services for admin views.
func CatalogServices(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var filter catalog.ListServicesFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("categoryId")); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "categoryId must be a valid uuid"))
				return
			}
			filter.CategoryID = &categoryID
		}

		includeInactive, err := validators.ParseQueryBool(r, "includeInactive")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter.IncludeInactive = includeInactive

		items, err := svc.ListServices(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// CatalogGetService returns one service by id.
func CatalogGetService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := pathUUID(r, "serviceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.GetService(ctx, serviceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CatalogCreateService registers a new bookable service. Admin only.
func CatalogCreateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var input catalog.CreateServiceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateService(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CatalogUpdateService edits a service's fields or active flag. Admin only.
func CatalogUpdateService(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := pathUUID(r, "serviceID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input catalog.UpdateServiceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := svc.UpdateService(ctx, serviceID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
