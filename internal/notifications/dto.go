package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// CreateInput carries an admin- or system-authored notification.
// TargetType and Category accept raw strings so a blank target defaults
// to a broadcast.
type CreateInput struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Message      string     `json:"message" validate:"required,max=2000"`
	Category     string     `json:"category"`
	TargetType   string     `json:"targetType"`
	TargetRole   *string    `json:"targetRole"`
	TargetUserID *uuid.UUID `json:"targetUserId"`
	CreatedBy    *uuid.UUID `json:"-"`
}

// CreateResult reports what the fan-out produced.
type CreateResult struct {
	Notification *models.Notification `json:"notification"`
	Recipients   int                  `json:"recipients"`
}

// AdminListParams pages through all notifications.
type AdminListParams struct {
	Limit    int
	Cursor   string
	Category *enums.NotificationCategory
}

// AdminListResult wraps notifications with their recipient counts and
// the total matching the filter.
type AdminListResult struct {
	Items  []AdminItem `json:"items"`
	Cursor string      `json:"cursor"`
	Total  int64       `json:"total"`
}

// AdminItem is one notification in the admin listing.
type AdminItem struct {
	models.Notification
	RecipientCount int64 `json:"recipientCount"`
}

// FeedParams pages through one user's notification feed.
type FeedParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// FeedItem is one notification as seen by a recipient.
type FeedItem struct {
	ID        uuid.UUID                    `json:"id"`
	Title     string                       `json:"title"`
	Message   string                       `json:"message"`
	Category  enums.NotificationCategory   `json:"category"`
	Target    enums.NotificationTargetType `json:"targetType"`
	ReadAt    *time.Time                   `json:"readAt,omitempty"`
	CreatedAt time.Time                    `json:"createdAt"`
}

// FeedResult wraps a user's feed page and the unread total.
type FeedResult struct {
	Items  []FeedItem `json:"items"`
	Cursor string     `json:"cursor"`
	Unread int64      `json:"unread"`
}
