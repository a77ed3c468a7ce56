package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// OrderItem is one purchased line, child of both the parent order and the
// vendor order that fulfills it.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	VendorOrderID   uuid.UUID             `gorm:"column:vendor_order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	VariantID       *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	VendorID        uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null"`
	ProductName     string                `gorm:"column:product_name;type:text;not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	UnitPricePaisa  int64                 `gorm:"column:unit_price_paisa;not null"`
	TotalPricePaisa int64                 `gorm:"column:total_price_paisa;not null"`
	Status          enums.OrderItemStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
