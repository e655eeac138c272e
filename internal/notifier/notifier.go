// Package notifier turns domain events into in-app notifications. It sits
// between the domain services and the notifications store so that services
// never depend on notification wording or audience rules.
package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/internal/notifications"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
)

// creator is the slice of the notifications service the notifier needs.
type creator interface {
	Create(ctx context.Context, input notifications.CreateInput) (*notifications.CreateResult, error)
}

// Notifier produces the canned notifications emitted by the platform itself.
type Notifier struct {
	notifications creator
	logg          *logger.Logger
}

// New wires a Notifier. Both dependencies are required.
func New(svc creator, logg *logger.Logger) (*Notifier, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Notifier{notifications: svc, logg: logg}, nil
}

// BookingCreated tells every technician that a new job is waiting.
func (n *Notifier) BookingCreated(ctx context.Context, booking *models.Booking) error {
	role := enums.UserRoleTechnician.String()
	return n.send(ctx, notifications.CreateInput{
		Title:      "New booking available",
		Message:    bookingMessage(booking, "A new booking is waiting for a technician."),
		Category:   enums.NotificationCategoryBooking.String(),
		TargetType: enums.NotificationTargetRole.String(),
		TargetRole: &role,
	})
}

// BookingAccepted tells the customer which technician took the job.
func (n *Notifier) BookingAccepted(ctx context.Context, booking *models.Booking) error {
	customerID := booking.CustomerID
	return n.send(ctx, notifications.CreateInput{
		Title:        "Booking accepted",
		Message:      bookingMessage(booking, "A technician has accepted your booking."),
		Category:     enums.NotificationCategoryBooking.String(),
		TargetType:   enums.NotificationTargetUser.String(),
		TargetUserID: &customerID,
	})
}

// BookingStatusChanged tells both parties about progress and cancellation.
// Each party gets their own notification since a direct target addresses
// exactly one user.
func (n *Notifier) BookingStatusChanged(ctx context.Context, booking *models.Booking) error {
	targets := []uuid.UUID{booking.CustomerID}
	if booking.Technician != nil {
		targets = append(targets, booking.Technician.UserID)
	}
	for _, target := range targets {
		userID := target
		err := n.send(ctx, notifications.CreateInput{
			Title:        fmt.Sprintf("Booking %s", booking.Status),
			Message:      bookingMessage(booking, fmt.Sprintf("Your booking is now %s.", booking.Status)),
			Category:     enums.NotificationCategoryBooking.String(),
			TargetType:   enums.NotificationTargetUser.String(),
			TargetUserID: &userID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// TechnicianVerified informs a technician that their documents were approved.
func (n *Notifier) TechnicianVerified(ctx context.Context, userID uuid.UUID) error {
	return n.send(ctx, notifications.CreateInput{
		Title:        "Verification approved",
		Message:      "Your technician profile has been verified. You can now accept bookings.",
		Category:     enums.NotificationCategoryAccount.String(),
		TargetType:   enums.NotificationTargetUser.String(),
		TargetUserID: &userID,
	})
}

// TechnicianRejected informs a technician that verification failed.
func (n *Notifier) TechnicianRejected(ctx context.Context, userID uuid.UUID, reason string) error {
	message := "Your technician verification was rejected."
	if reason != "" {
		message = fmt.Sprintf("Your technician verification was rejected: %s", reason)
	}
	return n.send(ctx, notifications.CreateInput{
		Title:        "Verification rejected",
		Message:      message,
		Category:     enums.NotificationCategoryAccount.String(),
		TargetType:   enums.NotificationTargetUser.String(),
		TargetUserID: &userID,
	})
}

// Welcome greets a freshly registered user.
func (n *Notifier) Welcome(ctx context.Context, userID uuid.UUID, name string) error {
	return n.send(ctx, notifications.CreateInput{
		Title:        "Welcome to FixMate",
		Message:      fmt.Sprintf("Hi %s, thanks for joining FixMate.", name),
		Category:     enums.NotificationCategoryAccount.String(),
		TargetType:   enums.NotificationTargetUser.String(),
		TargetUserID: &userID,
	})
}

func (n *Notifier) send(ctx context.Context, input notifications.CreateInput) error {
	result, err := n.notifications.Create(ctx, input)
	if err != nil {
		return err
	}
	n.logg.Info(ctx, fmt.Sprintf("notification %q delivered to %d recipients", input.Title, result.Recipients))
	return nil
}

func bookingMessage(booking *models.Booking, fallback string) string {
	if booking.Service != nil && booking.Service.Name != "" {
		return fmt.Sprintf("%s Service: %s.", fallback, booking.Service.Name)
	}
	return fallback
}
