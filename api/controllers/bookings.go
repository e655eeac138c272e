package controllers

import (
	"net/http"
	"strings"

	"github.com/fixmate-lk/fixmate-backend/api/middleware"
	"github.com/fixmate-lk/fixmate-backend/api/responses"
	"github.com/fixmate-lk/fixmate-backend/api/validators"
	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultBookingPageSize = 20
	maxBookingPageSize     = 100
	maxReferenceImageBytes = 5 << 20
)

func bookingListParams(r *http.Request) (bookings.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultBookingPageSize, 1, maxBookingPageSize)
	if err != nil {
		return bookings.ListParams{}, err
	}

	params := bookings.ListParams{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseBookingStatus(raw)
		if err != nil {
			return bookings.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		params.Status = &status
	}

	return params, nil
}

// BookingCreate opens a new booking request for the authenticated customer.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID := middleware.UserIDFromContext(ctx)
		if customerID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		var input bookings.CreateBookingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Create(ctx, customerID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// BookingAttachReferenceImage stores a photo of the problem on the
// customer's booking. The image is sent as multipart form data under the
// "image" field.
func BookingAttachReferenceImage(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID := middleware.UserIDFromContext(ctx)
		if customerID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		bookingID, err := pathUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxReferenceImageBytes)
		if err := r.ParseMultipartForm(maxReferenceImageBytes); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image file is required"))
			return
		}
		defer file.Close()

		booking, err := svc.AttachReferenceImage(ctx, customerID, bookingID, header.Filename, file, maxReferenceImageBytes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingGet returns one booking visible to the requesting actor.
func BookingGet(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actorID := middleware.UserIDFromContext(ctx)
		if actorID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role"))
			return
		}

		bookingID, err := pathUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Get(ctx, actorID, role, bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingListMine pages through the authenticated customer's bookings.
func BookingListMine(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID := middleware.UserIDFromContext(ctx)
		if customerID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListMine(ctx, customerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BookingListAll pages through every booking. Admin only.
func BookingListAll(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListAll(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BookingListAvailable pages through open requests a verified technician can accept.
func BookingListAvailable(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		technicianUserID := middleware.UserIDFromContext(ctx)
		if technicianUserID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListAvailable(ctx, technicianUserID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BookingListAssigned pages through jobs assigned to the authenticated technician.
func BookingListAssigned(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		technicianUserID := middleware.UserIDFromContext(ctx)
		if technicianUserID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ListAssigned(ctx, technicianUserID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BookingAccept claims a pending booking for the authenticated technician.
func BookingAccept(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		technicianUserID := middleware.UserIDFromContext(ctx)
		if technicianUserID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		bookingID, err := pathUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Accept(ctx, technicianUserID, bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingUpdateStatus moves an accepted booking along its lifecycle.
func BookingUpdateStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		technicianUserID := middleware.UserIDFromContext(ctx)
		if technicianUserID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		bookingID, err := pathUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input bookings.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.UpdateStatus(ctx, technicianUserID, bookingID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// BookingCancel lets the owning customer cancel a booking that has not started.
func BookingCancel(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID := middleware.UserIDFromContext(ctx)
		if customerID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		bookingID, err := pathUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input bookings.CancelInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Cancel(ctx, customerID, bookingID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}
