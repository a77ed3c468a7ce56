package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// Notification is one deliverable: a single recipient on a single channel
// for a single triggering event. Fan-out creates one row per
// recipient-channel combination so each delivery carries its own status.
type Notification struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       *uuid.UUID                `gorm:"column:order_id;type:uuid;index"`
	EventType     enums.EventType           `gorm:"column:event_type;type:text;not null"`
	RecipientType enums.RecipientType       `gorm:"column:recipient_type;type:text;not null"`
	RecipientID   uuid.UUID                 `gorm:"column:recipient_id;type:uuid;not null;index"`
	Channel       enums.NotificationChannel `gorm:"column:channel;type:text;not null"`
	Status        enums.NotificationStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	Title         string                    `gorm:"column:title;type:text;not null"`
	Body          string                    `gorm:"column:body;type:text;not null"`
	RetryCount    int                       `gorm:"column:retry_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error;type:text"`
	SentAt        *time.Time                `gorm:"column:sent_at"`
	DeliveredAt   *time.Time                `gorm:"column:delivered_at"`
	ReadAt        *time.Time                `gorm:"column:read_at"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
