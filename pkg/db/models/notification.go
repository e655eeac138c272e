package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// Notification is the shared payload of a fan-out. Per-recipient state
// lives on NotificationRecipient rows.
type Notification struct {
	ID         uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title      string                       `gorm:"type:text;not null"`
	Message    string                       `gorm:"type:text;not null"`
	Category     enums.NotificationCategory   `gorm:"type:text;not null;default:'general'"`
	TargetType   enums.NotificationTargetType `gorm:"type:notification_target_type;column:target_type;not null"`
	TargetRole   *enums.UserRole              `gorm:"type:user_role;column:target_role"`
	TargetUserID *uuid.UUID                   `gorm:"type:uuid;column:target_user_id"`
	CreatedBy    *uuid.UUID                   `gorm:"type:uuid;column:created_by"`
	CreatedAt    time.Time                    `gorm:"column:created_at;autoCreateTime"`

	Recipients []NotificationRecipient `gorm:"foreignKey:NotificationID"`
}

// NotificationRecipient links one notification to one resolved recipient.
type NotificationRecipient struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	NotificationID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_notification_recipient"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_notification_recipient"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`

	Notification *Notification `gorm:"foreignKey:NotificationID"`
}

// IsRead reports whether the recipient has already seen the notification.
func (r NotificationRecipient) IsRead() bool {
	return r.ReadAt != nil
}
