package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
)

// Booking is a customer's request for a catalog service, claimed and
// driven to completion by a single technician.
type Booking struct {
	ID                uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	ServiceID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	AddressID         uuid.UUID           `gorm:"type:uuid;not null"`
	TechnicianID      *uuid.UUID          `gorm:"type:uuid;index"`
	Status            enums.BookingStatus `gorm:"type:booking_status;not null;default:'pending'"`
	ScheduledStart    time.Time           `gorm:"column:scheduled_start;not null"`
	ScheduledEnd      time.Time           `gorm:"column:scheduled_end;not null"`
	Description       *string             `gorm:"type:text"`
	ReferenceImageURL *string             `gorm:"column:reference_image_url"`
	TotalAmount       decimal.Decimal     `gorm:"type:numeric(12,2);column:total_amount;not null"`
	CancelReason      *string             `gorm:"column:cancel_reason"`
	AcceptedAt        *time.Time          `gorm:"column:accepted_at"`
	CompletedAt       *time.Time          `gorm:"column:completed_at"`
	CancelledAt       *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Customer   *User       `gorm:"foreignKey:CustomerID"`
	Service    *Service    `gorm:"foreignKey:ServiceID"`
	Address    *Address    `gorm:"foreignKey:AddressID"`
	Technician *Technician `gorm:"foreignKey:TechnicianID"`
}
