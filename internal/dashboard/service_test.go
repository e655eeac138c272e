package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

type stubBookingStats struct {
	byStatus map[enums.BookingStatus]int64
	recent   []models.Booking
	trend    []bookings.MonthlyCount
	revenue  decimal.Decimal
}

func (s *stubBookingStats) CountByStatus(ctx context.Context, status enums.BookingStatus) (int64, error) {
	return s.byStatus[status], nil
}

func (s *stubBookingStats) ListRecent(ctx context.Context, limit int) ([]models.Booking, error) {
	if len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *stubBookingStats) CountCompletedByMonth(ctx context.Context, months int) ([]bookings.MonthlyCount, error) {
	return s.trend, nil
}

func (s *stubBookingStats) SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	return s.revenue, nil
}

type stubUserStats struct {
	customers     int64
	registrations int64
}

func (s *stubUserStats) CountByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	return s.customers, nil
}

func (s *stubUserStats) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.registrations, nil
}

type stubTechStats struct {
	available int64
}

func (s *stubTechStats) CountByAvailability(ctx context.Context, availability enums.AvailabilityStatus) (int64, error) {
	return s.available, nil
}

type stubCatalogStats struct {
	services int64
}

func (s *stubCatalogStats) CountServices(ctx context.Context) (int64, error) {
	return s.services, nil
}

func TestStatsAggregatesCounters(t *testing.T) {
	svc, err := NewService(
		&stubBookingStats{
			byStatus: map[enums.BookingStatus]int64{
				enums.BookingStatusInProgress: 4,
				enums.BookingStatusPending:    7,
				enums.BookingStatusCompleted:  31,
			},
			revenue: decimal.RequireFromString("15400.50"),
		},
		&stubUserStats{customers: 120, registrations: 9},
		&stubTechStats{available: 14},
		&stubCatalogStats{services: 22},
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !stats.TotalRevenue.Equal(decimal.RequireFromString("15400.50")) {
		t.Fatalf("unexpected revenue %s", stats.TotalRevenue)
	}
	if stats.JobsInProgress != 4 || stats.PendingBookings != 7 || stats.CompletedBookings != 31 {
		t.Fatalf("unexpected booking counters %+v", stats)
	}
	if stats.ActiveTechnicians != 14 || stats.TotalCustomers != 120 {
		t.Fatalf("unexpected people counters %+v", stats)
	}
	if stats.RecentRegistrations != 9 || stats.ActiveServices != 22 {
		t.Fatalf("unexpected misc counters %+v", stats)
	}
}

func TestRecentActivityShapesRows(t *testing.T) {
	created := time.Now().UTC().Add(-5 * time.Minute)
	svc, err := NewService(
		&stubBookingStats{recent: []models.Booking{{
			ID:          uuid.New(),
			Status:      enums.BookingStatusPending,
			TotalAmount: decimal.RequireFromString("1200.00"),
			CreatedAt:   created,
			Service:     &models.Service{Name: "AC repair"},
		}}},
		&stubUserStats{}, &stubTechStats{}, &stubCatalogStats{},
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	items, err := svc.RecentActivity(context.Background())
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.ServiceName != "AC repair" {
		t.Fatalf("unexpected service name %q", item.ServiceName)
	}
	if item.StatusColor != "yellow" {
		t.Fatalf("pending bookings are tagged yellow, got %q", item.StatusColor)
	}
	if item.Age == "" {
		t.Fatal("age should be humanized")
	}
}

func TestCompletionTrendsNeverNil(t *testing.T) {
	svc, err := NewService(&stubBookingStats{}, &stubUserStats{}, &stubTechStats{}, &stubCatalogStats{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	trends, err := svc.CompletionTrends(context.Background(), 6)
	if err != nil {
		t.Fatalf("CompletionTrends: %v", err)
	}
	if trends.Months == nil {
		t.Fatal("months must be an empty slice, not nil")
	}
}
