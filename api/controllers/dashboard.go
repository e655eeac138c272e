package controllers

import (
	"net/http"

	"github.com/fixmate-lk/fixmate-backend/api/responses"
	"github.com/fixmate-lk/fixmate-backend/api/validators"
	"github.com/fixmate-lk/fixmate-backend/internal/dashboard"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
)

// DashboardStats returns headline counters for the admin overview.
func DashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// DashboardActivity returns the latest bookings shaped for the activity feed.
func DashboardActivity(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		items, err := svc.RecentActivity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// DashboardTrends returns monthly completed booking counts.
func DashboardTrends(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		months, err := validators.ParseQueryInt(r, "months", 6, 1, 24)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		trends, err := svc.CompletionTrends(ctx, months)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, trends)
	}
}
