package enums

import "fmt"

// BookingStatus maps to the booking_status enum in Postgres.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// bookingTransitions lists the forward moves a technician may drive after a
// booking has been claimed. Pending bookings only leave pending through the
// accept flow or a customer cancellation, so they are absent here.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusAccepted:   {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted},
}

// String implements fmt.Stringer.
func (s BookingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingStatus.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether the assigned technician may move a booking
// from the current status to the target one.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, candidate := range bookingTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
