package technicians

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

// Repository exposes persistence for technician profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, technician *models.Technician) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Technician, error)
	Update(ctx context.Context, technician *models.Technician) error
	SetVerification(ctx context.Context, id uuid.UUID, update verificationUpdate) (bool, error)
	ListByVerificationStatus(ctx context.Context, status enums.VerificationStatus, params listParams) ([]models.Technician, *pagination.Cursor, error)
	CountByAvailability(ctx context.Context, availability enums.AvailabilityStatus) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a technician repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

// verificationUpdate is applied only while the row is still pending.
type verificationUpdate struct {
	Status          enums.VerificationStatus
	RejectionReason *string
	VerifiedAt      *time.Time
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, technician *models.Technician) error {
	return r.db.WithContext(ctx).Create(technician).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	var technician models.Technician
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&technician, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *repositoryImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Technician, error) {
	var technician models.Technician
	err := r.db.WithContext(ctx).
		First(&technician, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *repositoryImpl) Update(ctx context.Context, technician *models.Technician) error {
	return r.db.WithContext(ctx).Save(technician).Error
}

// SetVerification flips the verification state only while it is still
// pending. It reports whether a row was updated.
func (r *repositoryImpl) SetVerification(ctx context.Context, id uuid.UUID, update verificationUpdate) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("id = ? AND verification_status = ?", id, enums.VerificationStatusPending).
		Updates(map[string]any{
			"verification_status": update.Status,
			"rejection_reason":    update.RejectionReason,
			"verified_at":         update.VerifiedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListByVerificationStatus(ctx context.Context, status enums.VerificationStatus, params listParams) ([]models.Technician, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("User").
		Where("verification_status = ?", status).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit))
	if params.Cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var rows []models.Technician
	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}

func (r *repositoryImpl) CountByAvailability(ctx context.Context, availability enums.AvailabilityStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("availability = ? AND verification_status = ?", availability, enums.VerificationStatusVerified).
		Count(&count).Error
	return count, err
}
