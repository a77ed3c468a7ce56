package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// Product is a vendor-owned catalog entry. Prices are stored in paisa
// (1 BDT = 100 paisa) to keep arithmetic integral.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID       uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name           string           `gorm:"column:name;type:text;not null"`
	SKU            string           `gorm:"column:sku;type:text;not null;uniqueIndex"`
	UnitPricePaisa int64            `gorm:"column:unit_price_paisa;not null"`
	Currency       enums.Currency   `gorm:"column:currency;type:text;not null;default:'BDT'"`
	Active         bool             `gorm:"column:active;not null;default:true"`
	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is an optional size/colour variation of a product with its
// own stock tracking.
type ProductVariant struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;type:text;not null"`
	SKU             string    `gorm:"column:sku;type:text;not null;uniqueIndex"`
	PriceDeltaPaisa int64     `gorm:"column:price_delta_paisa;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
