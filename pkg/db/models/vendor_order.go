package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// VendorOrder is the vendor-scoped slice of a customer order, with its own
// fulfillment lifecycle and commission split. The commission rate is
// snapshotted at creation so later configuration changes do not rewrite
// historical earnings.
type VendorOrder struct {
	ID                    uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID              uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index"`
	SubtotalPaisa         int64                   `gorm:"column:subtotal_paisa;not null"`
	CommissionRate        decimal.Decimal         `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	CommissionAmountPaisa int64                   `gorm:"column:commission_amount_paisa;not null"`
	VendorEarningsPaisa   int64                   `gorm:"column:vendor_earnings_paisa;not null"`
	Status                enums.VendorOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ItemCount             int                     `gorm:"column:item_count;not null"`
	Items                 []OrderItem             `gorm:"foreignKey:VendorOrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt           *time.Time              `gorm:"column:delivered_at"`
	CancelledAt           *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt             time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
