package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
)

// AddItemInput adds a product line to the caller's cart.
type AddItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemInput replaces the quantity on an existing cart line.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ItemDTO is one cart line with its price snapshot.
type ItemDTO struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	Quantity        int        `json:"quantity"`
	UnitPricePaisa  int64      `json:"unit_price_paisa"`
	TotalPricePaisa int64      `json:"total_price_paisa"`
	AddedAt         time.Time  `json:"added_at"`
}

// VendorGroup holds one vendor's lines plus that vendor's subtotal.
type VendorGroup struct {
	VendorID      uuid.UUID `json:"vendor_id"`
	Items         []ItemDTO `json:"items"`
	SubtotalPaisa int64     `json:"subtotal_paisa"`
}

// Summary is the cached cost breakdown for a cart.
type Summary struct {
	ItemCount     int   `json:"item_count"`
	SubtotalPaisa int64 `json:"subtotal_paisa"`
	ShippingPaisa int64 `json:"shipping_paisa"`
	VATPaisa      int64 `json:"vat_paisa"`
	TotalPaisa    int64 `json:"total_paisa"`
}

// CartDTO is the full cart payload grouped by vendor.
type CartDTO struct {
	UserID  uuid.UUID     `json:"user_id"`
	Vendors []VendorGroup `json:"vendors"`
	Summary Summary       `json:"summary"`
}

func toItemDTO(row models.CartItem) ItemDTO {
	return ItemDTO{
		ID:              row.ID,
		ProductID:       row.ProductID,
		VariantID:       row.VariantID,
		VendorID:        row.VendorID,
		Quantity:        row.Quantity,
		UnitPricePaisa:  row.UnitPricePaisa,
		TotalPricePaisa: row.TotalPricePaisa,
		AddedAt:         row.CreatedAt,
	}
}
