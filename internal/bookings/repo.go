package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

// Repository exposes persistence helpers for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
	ListPendingUnassigned(ctx context.Context, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
	ListAll(ctx context.Context, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
	SetReferenceImage(ctx context.Context, bookingID uuid.UUID, url string) error
	Claim(ctx context.Context, bookingID, technicianID uuid.UUID, now time.Time) (bool, error)
	SetStatus(ctx context.Context, booking *models.Booking, from enums.BookingStatus) (bool, error)
	IncrementTechnicianJobs(ctx context.Context, technicianID uuid.UUID) error
	CountByStatus(ctx context.Context, status enums.BookingStatus) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Booking, error)
	CountCompletedByMonth(ctx context.Context, months int) ([]MonthlyCount, error)
	SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// MonthlyCount is one month bucket of the completion trend.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a bookings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listBookingsParams struct {
	Limit  int
	Cursor *pagination.Cursor
	Status *enums.BookingStatus
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Service.Category").
		Preload("Address").
		Preload("Technician").
		First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{}).Where("customer_id = ?", customerID)
	return r.list(ctx, query, params)
}

func (r *repositoryImpl) ListByTechnician(ctx context.Context, technicianID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{}).Where("technician_id = ?", technicianID)
	return r.list(ctx, query, params)
}

func (r *repositoryImpl) ListAll(ctx context.Context, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	return r.list(ctx, query, params)
}

func (r *repositoryImpl) ListPendingUnassigned(ctx context.Context, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("status = ? AND technician_id IS NULL", enums.BookingStatusPending)
	params.Status = nil
	return r.list(ctx, query, params)
}

func (r *repositoryImpl) list(ctx context.Context, query *gorm.DB, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var bookings []models.Booking
	err := query.
		Preload("Service").
		Preload("Address").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, nil, err
	}

	if len(bookings) > normalized {
		next := bookings[normalized]
		bookings = bookings[:normalized]
		return bookings, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return bookings, nil, nil
}

func (r *repositoryImpl) SetReferenceImage(ctx context.Context, bookingID uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		UpdateColumn("reference_image_url", url).Error
}

// Claim assigns a pending unassigned booking to the technician. The
// conditional update makes the first accept win; rivals see zero rows.
func (r *repositoryImpl) Claim(ctx context.Context, bookingID, technicianID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND technician_id IS NULL", bookingID, enums.BookingStatusPending).
		Updates(map[string]any{
			"status":        enums.BookingStatusAccepted,
			"technician_id": technicianID,
			"accepted_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetStatus persists a transition guarded by the expected current status.
func (r *repositoryImpl) SetStatus(ctx context.Context, booking *models.Booking, from enums.BookingStatus) (bool, error) {
	updates := map[string]any{
		"status":        booking.Status,
		"cancel_reason": booking.CancelReason,
		"completed_at":  booking.CompletedAt,
		"cancelled_at":  booking.CancelledAt,
	}
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) IncrementTechnicianJobs(ctx context.Context, technicianID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("id = ?", technicianID).
		UpdateColumn("jobs_completed", gorm.Expr("jobs_completed + 1")).Error
}

func (r *repositoryImpl) CountByStatus(ctx context.Context, status enums.BookingStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Order("created_at DESC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *repositoryImpl) CountCompletedByMonth(ctx context.Context, months int) ([]MonthlyCount, error) {
	if months <= 0 {
		months = 6
	}
	since := time.Now().UTC().AddDate(0, -months, 0)

	var rows []MonthlyCount
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("to_char(completed_at, 'YYYY-MM') AS month, count(*) AS count").
		Where("status = ? AND completed_at >= ?", enums.BookingStatusCompleted, since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ?", enums.BookingStatusCompleted).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
