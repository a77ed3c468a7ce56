package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line in a user's cart, unique per
// (user, product, vendor). Unit price is snapshotted at add time.
type CartItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_product_vendor"`
	ProductID       uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_user_product_vendor"`
	VendorID        uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_cart_user_product_vendor"`
	VariantID       *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Quantity        int        `gorm:"column:quantity;not null"`
	UnitPricePaisa  int64      `gorm:"column:unit_price_paisa;not null"`
	TotalPricePaisa int64      `gorm:"column:total_price_paisa;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
