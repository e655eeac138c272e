package dashboard

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/internal/bookings"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// Stats is the admin overview card set.
type Stats struct {
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	ActiveTechnicians   int64           `json:"activeTechnicians"`
	TotalCustomers      int64           `json:"totalCustomers"`
	JobsInProgress      int64           `json:"jobsInProgress"`
	PendingBookings     int64           `json:"pendingBookings"`
	CompletedBookings   int64           `json:"completedBookings"`
	RecentRegistrations int64           `json:"recentRegistrations"`
	ActiveServices      int64           `json:"activeServices"`
}

// ActivityItem is one row in the recent-activity feed.
type ActivityItem struct {
	BookingID   uuid.UUID           `json:"bookingId"`
	ServiceName string              `json:"serviceName"`
	Status      enums.BookingStatus `json:"status"`
	StatusColor string              `json:"statusColor"`
	Amount      decimal.Decimal     `json:"amount"`
	Age         string              `json:"age"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Trends is the monthly completion series used for the admin chart.
type Trends struct {
	Months []bookings.MonthlyCount `json:"months"`
}
