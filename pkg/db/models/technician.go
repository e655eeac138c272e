package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// Technician extends a user with marketplace-facing professional data.
// Exactly one row exists per technician-role user.
type Technician struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	Bio                *string                  `gorm:"type:text"`
	Skills             *string                  `gorm:"type:text"`
	ServiceArea        *string                  `gorm:"column:service_area"`
	YearsOfExperience  int                      `gorm:"column:years_of_experience;not null;default:0"`
	VerificationStatus enums.VerificationStatus `gorm:"type:verification_status;not null;default:'pending'"`
	RejectionReason    *string                  `gorm:"column:rejection_reason"`
	Availability       enums.AvailabilityStatus `gorm:"type:availability_status;not null;default:'available'"`
	Rating             decimal.Decimal          `gorm:"type:numeric(3,2);not null;default:0"`
	JobsCompleted      int                      `gorm:"column:jobs_completed;not null;default:0"`
	DocumentURL        *string                  `gorm:"column:document_url"`
	VerifiedAt         *time.Time               `gorm:"column:verified_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID"`
}

// IsVerified reports whether the technician may accept jobs.
func (t Technician) IsVerified() bool {
	return t.VerificationStatus == enums.VerificationStatusVerified
}
