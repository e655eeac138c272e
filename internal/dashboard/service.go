package dashboard

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
)

const (
	recentActivityLimit = 10
	registrationWindow  = 7 * 24 * time.Hour
)

// statusColors feed the admin UI's badge rendering.
var statusColors = map[enums.BookingStatus]string{
	enums.BookingStatusPending:    "yellow",
	enums.BookingStatusAccepted:   "blue",
	enums.BookingStatusInProgress: "purple",
	enums.BookingStatusCompleted:  "green",
	enums.BookingStatusCancelled:  "red",
}

// BookingStats is the slice of the bookings repository the dashboard reads.
type BookingStats interface {
	CountByStatus(ctx context.Context, status enums.BookingStatus) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]models.Booking, error)
	CountCompletedByMonth(ctx context.Context, months int) ([]bookings.MonthlyCount, error)
	SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// UserStats is the slice of the users repository the dashboard reads.
type UserStats interface {
	CountByRole(ctx context.Context, role enums.UserRole) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

// TechnicianStats counts verified technicians by availability.
type TechnicianStats interface {
	CountByAvailability(ctx context.Context, availability enums.AvailabilityStatus) (int64, error)
}

// CatalogStats counts active catalog services.
type CatalogStats interface {
	CountServices(ctx context.Context) (int64, error)
}

// Service aggregates read-only admin overview data.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	RecentActivity(ctx context.Context) ([]ActivityItem, error)
	CompletionTrends(ctx context.Context, months int) (*Trends, error)
}

type service struct {
	bookings    BookingStats
	users       UserStats
	technicians TechnicianStats
	catalog     CatalogStats
	now         func() time.Time
}

// NewService wires the dashboard dependencies.
func NewService(bookingStats BookingStats, userStats UserStats, technicianStats TechnicianStats, catalogStats CatalogStats) (Service, error) {
	if bookingStats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "booking stats required")
	}
	if userStats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user stats required")
	}
	if technicianStats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technician stats required")
	}
	if catalogStats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog stats required")
	}
	return &service{
		bookings:    bookingStats,
		users:       userStats,
		technicians: technicianStats,
		catalog:     catalogStats,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	revenue, err := s.bookings.SumCompletedRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	stats.TotalRevenue = revenue

	counters := []struct {
		dest  *int64
		fetch func(context.Context) (int64, error)
	}{
		{&stats.ActiveTechnicians, func(ctx context.Context) (int64, error) {
			return s.technicians.CountByAvailability(ctx, enums.AvailabilityStatusAvailable)
		}},
		{&stats.TotalCustomers, func(ctx context.Context) (int64, error) {
			return s.users.CountByRole(ctx, enums.UserRoleCustomer)
		}},
		{&stats.JobsInProgress, func(ctx context.Context) (int64, error) {
			return s.bookings.CountByStatus(ctx, enums.BookingStatusInProgress)
		}},
		{&stats.PendingBookings, func(ctx context.Context) (int64, error) {
			return s.bookings.CountByStatus(ctx, enums.BookingStatusPending)
		}},
		{&stats.CompletedBookings, func(ctx context.Context) (int64, error) {
			return s.bookings.CountByStatus(ctx, enums.BookingStatusCompleted)
		}},
		{&stats.RecentRegistrations, func(ctx context.Context) (int64, error) {
			return s.users.CountCreatedSince(ctx, s.now().Add(-registrationWindow))
		}},
		{&stats.ActiveServices, s.catalog.CountServices},
	}
	for _, counter := range counters {
		value, err := counter.fetch(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard counters")
		}
		*counter.dest = value
	}

	return stats, nil
}

func (s *service) RecentActivity(ctx context.Context) ([]ActivityItem, error) {
	rows, err := s.bookings.ListRecent(ctx, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent bookings")
	}

	items := make([]ActivityItem, 0, len(rows))
	for _, booking := range rows {
		item := ActivityItem{
			BookingID:   booking.ID,
			Status:      booking.Status,
			StatusColor: statusColors[booking.Status],
			Amount:      booking.TotalAmount,
			Age:         humanize.Time(booking.CreatedAt),
			CreatedAt:   booking.CreatedAt,
		}
		if booking.Service != nil {
			item.ServiceName = booking.Service.Name
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) CompletionTrends(ctx context.Context, months int) (*Trends, error) {
	rows, err := s.bookings.CountCompletedByMonth(ctx, months)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completion trend")
	}
	if rows == nil {
		rows = []bookings.MonthlyCount{}
	}
	return &Trends{Months: rows}, nil
}
