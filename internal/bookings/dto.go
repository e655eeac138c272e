package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// CreateBookingInput carries the fields of a new service request. The
// customer asks for a visit inside the start/end window.
type CreateBookingInput struct {
	ServiceID      uuid.UUID `json:"serviceId" validate:"required"`
	AddressID      uuid.UUID `json:"addressId" validate:"required"`
	ScheduledStart time.Time `json:"scheduledStart" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduledEnd" validate:"required"`
	Description    *string   `json:"description" validate:"omitempty,max=1000"`
}

// UpdateStatusInput carries a technician-driven status move.
type UpdateStatusInput struct {
	Status enums.BookingStatus `json:"status" validate:"required"`
}

// CancelInput carries an optional reason for a customer cancellation.
type CancelInput struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// ListParams configures a paginated booking listing.
type ListParams struct {
	Limit  int
	Cursor string
	Status *enums.BookingStatus
}

// ListResult wraps returned bookings and the cursor for the next page.
type ListResult struct {
	Items  []models.Booking `json:"items"`
	Cursor string           `json:"cursor"`
}
