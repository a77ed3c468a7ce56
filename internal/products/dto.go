package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID             uuid.UUID    `json:"id"`
	VendorID       uuid.UUID    `json:"vendor_id"`
	Name           string       `json:"name"`
	SKU            string       `json:"sku"`
	UnitPricePaisa int64        `json:"unit_price_paisa"`
	Currency       string       `json:"currency"`
	Active         bool         `json:"active"`
	Available      *int         `json:"available,omitempty"`
	Variants       []VariantDTO `json:"variants,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// VariantDTO is one size/colour variation of a product.
type VariantDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	SKU             string    `json:"sku"`
	PriceDeltaPaisa int64     `json:"price_delta_paisa"`
	Available       *int      `json:"available,omitempty"`
}

// CreateProductInput is the vendor-facing payload for a new catalog entry.
type CreateProductInput struct {
	Name           string         `json:"name" validate:"required,min=2,max=200"`
	SKU            string         `json:"sku" validate:"required,min=2,max=64"`
	UnitPricePaisa int64          `json:"unit_price_paisa" validate:"required,gt=0"`
	InitialStock   int            `json:"initial_stock" validate:"gte=0"`
	Variants       []VariantInput `json:"variants" validate:"dive"`
}

// VariantInput describes one variant on product creation.
type VariantInput struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	SKU             string `json:"sku" validate:"required,min=2,max=64"`
	PriceDeltaPaisa int64  `json:"price_delta_paisa"`
	InitialStock    int    `json:"initial_stock" validate:"gte=0"`
}

// UpdateProductInput carries optional catalog mutations; nil fields are untouched.
type UpdateProductInput struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=200"`
	UnitPricePaisa *int64  `json:"unit_price_paisa" validate:"omitempty,gt=0"`
	Active         *bool   `json:"active"`
}

// SetStockInput sets the absolute on-hand quantity for a product or variant.
type SetStockInput struct {
	VariantID *uuid.UUID `json:"variant_id"`
	OnHandQty int        `json:"on_hand_qty" validate:"gte=0"`
}

func toProductDTO(row *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:             row.ID,
		VendorID:       row.VendorID,
		Name:           row.Name,
		SKU:            row.SKU,
		UnitPricePaisa: row.UnitPricePaisa,
		Currency:       string(row.Currency),
		Active:         row.Active,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	for _, variant := range row.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:              variant.ID,
			Name:            variant.Name,
			SKU:             variant.SKU,
			PriceDeltaPaisa: variant.PriceDeltaPaisa,
		})
	}
	return dto
}
