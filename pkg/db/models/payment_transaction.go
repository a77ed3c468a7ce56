package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// PaymentTransaction records one settlement attempt or movement against an
// order: the initial charge placeholder, COD collection, or a refund.
type PaymentTransaction struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	VendorOrderID   *uuid.UUID           `gorm:"column:vendor_order_id;type:uuid;index"`
	ReturnRequestID *uuid.UUID           `gorm:"column:return_request_id;type:uuid;index"`
	Type            enums.PaymentTxnType `gorm:"column:type;type:text;not null"`
	Method          enums.PaymentMethod  `gorm:"column:method;type:text;not null"`
	Status          enums.PaymentStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountPaisa     int64                `gorm:"column:amount_paisa;not null"`
	Currency        enums.Currency       `gorm:"column:currency;type:text;not null;default:'BDT'"`
	GatewayRef      *string              `gorm:"column:gateway_ref;type:text"`
	FailureReason   *string              `gorm:"column:failure_reason;type:text"`
	CompletedAt     *time.Time           `gorm:"column:completed_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
