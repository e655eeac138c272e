package technicians

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// UpdateProfileInput carries the technician-editable profile fields.
// Nil pointers leave the stored value untouched.
type UpdateProfileInput struct {
	Bio               *string `json:"bio" validate:"omitempty,max=2000"`
	Skills            *string `json:"skills" validate:"omitempty,max=1000"`
	ServiceArea       *string `json:"serviceArea" validate:"omitempty,max=255"`
	YearsOfExperience *int    `json:"yearsOfExperience" validate:"omitempty,min=0,max=60"`
	Availability      *string `json:"availability" validate:"omitempty,oneof=available busy unavailable"`
}

// ListPendingParams pages through verification requests awaiting review.
type ListPendingParams struct {
	Limit  int
	Cursor string
}

// ListPendingResult wraps one page of verification requests.
type ListPendingResult struct {
	Items  []Profile `json:"items"`
	Cursor string    `json:"cursor"`
}

// Profile is the technician as exposed over the API.
type Profile struct {
	ID                 uuid.UUID                `json:"id"`
	UserID             uuid.UUID                `json:"userId"`
	FullName           string                   `json:"fullName,omitempty"`
	Email              string                   `json:"email,omitempty"`
	Bio                *string                  `json:"bio,omitempty"`
	Skills             *string                  `json:"skills,omitempty"`
	ServiceArea        *string                  `json:"serviceArea,omitempty"`
	YearsOfExperience  int                      `json:"yearsOfExperience"`
	VerificationStatus enums.VerificationStatus `json:"verificationStatus"`
	RejectionReason    *string                  `json:"rejectionReason,omitempty"`
	Availability       enums.AvailabilityStatus `json:"availability"`
	Rating             decimal.Decimal          `json:"rating"`
	JobsCompleted      int                      `json:"jobsCompleted"`
	DocumentURL        *string                  `json:"documentUrl,omitempty"`
	VerifiedAt         *time.Time               `json:"verifiedAt,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
}

// ToProfile flattens a technician row and its user into the API shape.
func ToProfile(t *models.Technician) Profile {
	profile := Profile{
		ID:                 t.ID,
		UserID:             t.UserID,
		Bio:                t.Bio,
		Skills:             t.Skills,
		ServiceArea:        t.ServiceArea,
		YearsOfExperience:  t.YearsOfExperience,
		VerificationStatus: t.VerificationStatus,
		RejectionReason:    t.RejectionReason,
		Availability:       t.Availability,
		Rating:             t.Rating,
		JobsCompleted:      t.JobsCompleted,
		DocumentURL:        t.DocumentURL,
		VerifiedAt:         t.VerifiedAt,
		CreatedAt:          t.CreatedAt,
	}
	if t.User != nil {
		profile.FullName = t.User.FullName
		profile.Email = t.User.Email
	}
	return profile
}
