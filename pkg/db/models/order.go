package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/types"
)

// Order is the customer-facing parent order. Its Status column only ever
// holds the value derived from the vendor orders; it is a cached projection,
// never an independent authority.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string               `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	SubtotalPaisa   int64                `gorm:"column:subtotal_paisa;not null"`
	ShippingPaisa   int64                `gorm:"column:shipping_paisa;not null;default:0"`
	TaxPaisa        int64                `gorm:"column:tax_paisa;not null;default:0"`
	PaymentFeePaisa int64                `gorm:"column:payment_fee_paisa;not null;default:0"`
	DiscountPaisa   int64                `gorm:"column:discount_paisa;not null;default:0"`
	TotalPaisa      int64                `gorm:"column:total_paisa;not null"`
	Currency        enums.Currency       `gorm:"column:currency;type:text;not null;default:'BDT'"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus   enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Status          enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  *types.Address       `gorm:"column:billing_address;type:jsonb;serializer:json"`
	VendorOrders    []VendorOrder        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory   []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
