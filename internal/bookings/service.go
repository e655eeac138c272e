package bookings

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/metrics"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

// ServiceCatalog is the slice of the catalog the booking flow needs.
type ServiceCatalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// AddressBook resolves saved customer addresses.
type AddressBook interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
}

// ImageStore persists booking reference photos and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, scope, filename string, r io.Reader, maxBytes int64) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// TechnicianDirectory resolves technician profiles by account.
type TechnicianDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Technician, error)
}

// Notifier publishes booking lifecycle notifications. Implementations are
// best effort; failures are logged and never fail the transition.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.Booking) error
	BookingAccepted(ctx context.Context, booking *models.Booking) error
	BookingStatusChanged(ctx context.Context, booking *models.Booking) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the booking lifecycle.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateBookingInput) (*models.Booking, error)
	AttachReferenceImage(ctx context.Context, customerID, bookingID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*models.Booking, error)
	Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID) (*models.Booking, error)
	ListMine(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error)
	ListAll(ctx context.Context, params ListParams) (*ListResult, error)
	ListAvailable(ctx context.Context, technicianUserID uuid.UUID, params ListParams) (*ListResult, error)
	ListAssigned(ctx context.Context, technicianUserID uuid.UUID, params ListParams) (*ListResult, error)
	Accept(ctx context.Context, technicianUserID, bookingID uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, technicianUserID, bookingID uuid.UUID, input UpdateStatusInput) (*models.Booking, error)
	Cancel(ctx context.Context, customerID, bookingID uuid.UUID, input CancelInput) (*models.Booking, error)
}

type service struct {
	repo        Repository
	catalog     ServiceCatalog
	addresses   AddressBook
	technicians TechnicianDirectory
	notifier    Notifier
	images      ImageStore
	tx          txRunner
	logg        *logger.Logger
	domain      *metrics.DomainMetrics
	now         func() time.Time
}

// NewService wires the booking lifecycle dependencies.
func NewService(
	repo Repository,
	catalog ServiceCatalog,
	addresses AddressBook,
	technicians TechnicianDirectory,
	notifier Notifier,
	images ImageStore,
	tx txRunner,
	logg *logger.Logger,
	domain *metrics.DomainMetrics,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bookings repository required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "service catalog required")
	}
	if addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "address book required")
	}
	if technicians == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technician directory required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image store required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        repo,
		catalog:     catalog,
		addresses:   addresses,
		technicians: technicians,
		notifier:    notifier,
		images:      images,
		tx:          tx,
		logg:        logg,
		domain:      domain,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateBookingInput) (*models.Booking, error) {
	if input.ScheduledStart.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled window must start in the future")
	}
	if !input.ScheduledEnd.After(input.ScheduledStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled window must end after it starts")
	}

	svc, err := s.catalog.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if svc == nil || !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}

	address, err := s.addresses.GetByID(ctx, input.AddressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address == nil || address.UserID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	booking := &models.Booking{
		ID:             uuid.New(),
		CustomerID:     customerID,
		ServiceID:      svc.ID,
		AddressID:      address.ID,
		Status:         enums.BookingStatusPending,
		ScheduledStart: input.ScheduledStart.UTC(),
		ScheduledEnd:   input.ScheduledEnd.UTC(),
		Description:    input.Description,
		// Price is fixed at booking time; later catalog edits do not reprice.
		TotalAmount: svc.FixedRate,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}

	s.domain.IncBookingTransition(enums.BookingStatusPending.String())
	s.notify(ctx, booking, s.notifier.BookingCreated)
	return booking, nil
}

// AttachReferenceImage stores a photo of the problem on the customer's
// booking. Re-uploading replaces the previous image.
func (s *service) AttachReferenceImage(ctx context.Context, customerID, bookingID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil || booking.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already finalized")
	}

	url, err := s.images.Save(ctx, "booking-references", filename, r, maxBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "store reference image")
	}

	previous := booking.ReferenceImageURL
	booking.ReferenceImageURL = &url
	if err := s.repo.SetReferenceImage(ctx, booking.ID, url); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}

	if previous != nil {
		// Stale image cleanup is best effort.
		_ = s.images.Remove(ctx, *previous)
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	if !s.canView(ctx, actorID, actorRole, booking) {
		// Scoping reads as absence, not as a permissions hint.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return booking, nil
}

func (s *service) ListMine(ctx context.Context, customerID uuid.UUID, params ListParams) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListAll(ctx context.Context, params ListParams) (*ListResult, error) {
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListAll(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListAvailable(ctx context.Context, technicianUserID uuid.UUID, params ListParams) (*ListResult, error) {
	if _, err := s.verifiedTechnician(ctx, technicianUserID); err != nil {
		return nil, err
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListPendingUnassigned(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available bookings")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListAssigned(ctx context.Context, technicianUserID uuid.UUID, params ListParams) (*ListResult, error) {
	tech, err := s.technician(ctx, technicianUserID)
	if err != nil {
		return nil, err
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByTechnician(ctx, tech.ID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned bookings")
	}
	return buildListResult(rows, next), nil
}

// Accept claims a pending booking for the technician. Concurrent accepts
// race on a conditional update; exactly one wins.
func (s *service) Accept(ctx context.Context, technicianUserID, bookingID uuid.UUID) (*models.Booking, error) {
	tech, err := s.verifiedTechnician(ctx, technicianUserID)
	if err != nil {
		return nil, err
	}

	claimed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		claimed, txErr = s.repo.WithTx(tx).Claim(ctx, bookingID, tech.ID, s.now())
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim booking")
	}

	if !claimed {
		existing, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer available")
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}

	s.domain.IncBookingTransition(enums.BookingStatusAccepted.String())
	s.notify(ctx, booking, s.notifier.BookingAccepted)
	return booking, nil
}

func (s *service) UpdateStatus(ctx context.Context, technicianUserID, bookingID uuid.UUID, input UpdateStatusInput) (*models.Booking, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown booking status %q", input.Status))
	}

	tech, err := s.technician(ctx, technicianUserID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	if booking.TechnicianID == nil || *booking.TechnicianID != tech.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "booking is not assigned to this technician")
	}

	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already finalized")
	}
	if !booking.Status.CanTransitionTo(input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, input.Status)).
			WithDetails(map[string]any{"from": booking.Status, "to": input.Status})
	}

	from := booking.Status
	booking.Status = input.Status
	now := s.now()
	switch input.Status {
	case enums.BookingStatusCompleted:
		booking.CompletedAt = &now
	case enums.BookingStatusCancelled:
		booking.CancelledAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, txErr := repo.SetStatus(ctx, booking, from)
		if txErr != nil {
			return txErr
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer available")
		}
		if input.Status == enums.BookingStatusCompleted {
			return repo.IncrementTechnicianJobs(ctx, tech.ID)
		}
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}

	s.domain.IncBookingTransition(input.Status.String())
	s.notify(ctx, booking, s.notifier.BookingStatusChanged)
	return booking, nil
}

func (s *service) Cancel(ctx context.Context, customerID, bookingID uuid.UUID, input CancelInput) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil || booking.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}

	if booking.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is already finalized")
	}
	if booking.Status == enums.BookingStatusInProgress {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work in progress cannot be cancelled")
	}

	from := booking.Status
	now := s.now()
	booking.Status = enums.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancelReason = input.Reason

	moved, err := s.repo.SetStatus(ctx, booking, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "booking is no longer available")
	}

	s.domain.IncBookingTransition(enums.BookingStatusCancelled.String())
	s.notify(ctx, booking, s.notifier.BookingStatusChanged)
	return booking, nil
}

func (s *service) canView(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, booking *models.Booking) bool {
	switch actorRole {
	case enums.UserRoleAdmin:
		return true
	case enums.UserRoleCustomer:
		return booking.CustomerID == actorID
	case enums.UserRoleTechnician:
		if booking.TechnicianID == nil {
			return booking.Status == enums.BookingStatusPending
		}
		tech, err := s.technicians.GetByUserID(ctx, actorID)
		if err != nil || tech == nil {
			return false
		}
		return *booking.TechnicianID == tech.ID
	default:
		return false
	}
}

func (s *service) technician(ctx context.Context, userID uuid.UUID) (*models.Technician, error) {
	tech, err := s.technicians.GetByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	if tech == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician profile not found")
	}
	return tech, nil
}

func (s *service) verifiedTechnician(ctx context.Context, userID uuid.UUID) (*models.Technician, error) {
	tech, err := s.technician(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !tech.IsVerified() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "technician is not verified")
	}
	return tech, nil
}

func (s *service) notify(ctx context.Context, booking *models.Booking, publish func(context.Context, *models.Booking) error) {
	if booking == nil {
		return
	}
	if err := publish(ctx, booking); err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"bookingId": booking.ID.String()})
		s.logg.Error(ctx, "publishing booking notification failed", err)
	}
}

func buildListParams(params ListParams) (listBookingsParams, error) {
	query := listBookingsParams{
		Limit:  params.Limit,
		Status: params.Status,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listBookingsParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func buildListResult(rows []models.Booking, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}
}
