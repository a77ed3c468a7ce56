package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem holds the on-hand count per product or product variant.
// The row is the locking boundary for reservation math: any read-modify-write
// of availability takes a row lock here first.
type InventoryItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_variant"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid;uniqueIndex:idx_inventory_product_variant"`
	OnHandQty int        `gorm:"column:on_hand_qty;not null;default:0"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
