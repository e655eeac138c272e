package enums

import (
	"fmt"
	"strings"
)

// NotificationTargetType maps to the notification_target_type enum in Postgres.
type NotificationTargetType string

const (
	NotificationTargetAll  NotificationTargetType = "all"
	NotificationTargetRole NotificationTargetType = "role"
	NotificationTargetUser NotificationTargetType = "user"
)

var validNotificationTargetTypes = []NotificationTargetType{
	NotificationTargetAll,
	NotificationTargetRole,
	NotificationTargetUser,
}

// String implements fmt.Stringer.
func (t NotificationTargetType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known NotificationTargetType.
func (t NotificationTargetType) IsValid() bool {
	for _, candidate := range validNotificationTargetTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseNotificationTargetType converts raw input into a NotificationTargetType.
// An empty string defaults to a broadcast.
func ParseNotificationTargetType(value string) (NotificationTargetType, error) {
	if value == "" {
		return NotificationTargetAll, nil
	}
	for _, candidate := range validNotificationTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification target type %q", value)
}

// NotificationCategory is a free-form tag describing what a notification
// is about. The constants name the categories the platform itself emits;
// admins may use any tag.
type NotificationCategory string

const (
	NotificationCategoryGeneral      NotificationCategory = "general"
	NotificationCategoryBooking      NotificationCategory = "booking"
	NotificationCategoryVerification NotificationCategory = "verification"
	NotificationCategoryAccount      NotificationCategory = "account"
)

// String implements fmt.Stringer.
func (c NotificationCategory) String() string {
	return string(c)
}

// NormalizeNotificationCategory trims raw input, defaulting to general.
func NormalizeNotificationCategory(value string) NotificationCategory {
	value = strings.TrimSpace(value)
	if value == "" {
		return NotificationCategoryGeneral
	}
	return NotificationCategory(value)
}
