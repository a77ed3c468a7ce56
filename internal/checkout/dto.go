package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/types"
)

// AddressInput carries the shipping step payload. Billing defaults to the
// shipping address when omitted.
type AddressInput struct {
	ShippingAddress types.Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *types.Address `json:"billing_address"`
}

// PaymentMethodInput selects how the order will be paid.
type PaymentMethodInput struct {
	Method enums.PaymentMethod `json:"method" validate:"required"`
}

// ConfirmInput finalizes the session into an order.
type ConfirmInput struct {
	AgreesToTerms bool `json:"agrees_to_terms"`
}

// LineDTO is one snapshotted line shown back to the buyer.
type LineDTO struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	VendorID       uuid.UUID  `json:"vendor_id"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity"`
	UnitPricePaisa int64      `json:"unit_price_paisa"`
}

// SessionDTO is the API view of a checkout session.
type SessionDTO struct {
	ID              uuid.UUID           `json:"id"`
	Step            Step                `json:"step"`
	Lines           []LineDTO           `json:"lines"`
	ItemCount       int                 `json:"item_count"`
	SubtotalPaisa   int64               `json:"subtotal_paisa"`
	ShippingPaisa   int64               `json:"shipping_paisa"`
	VATPaisa        int64               `json:"vat_paisa"`
	PaymentFeePaisa int64               `json:"payment_fee_paisa"`
	DiscountPaisa   int64               `json:"discount_paisa"`
	TotalPaisa      int64               `json:"total_paisa"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method,omitempty"`
	ExpiresAt       time.Time           `json:"expires_at"`
}

// ConfirmResult points the buyer at the order the session became.
type ConfirmResult struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	TotalPaisa  int64             `json:"total_paisa"`
	Status      enums.OrderStatus `json:"status"`
}

func toSessionDTO(session *Session) *SessionDTO {
	dto := &SessionDTO{
		ID:              session.ID,
		Step:            session.Step,
		ItemCount:       session.ItemCount,
		SubtotalPaisa:   session.SubtotalPaisa,
		ShippingPaisa:   session.ShippingPaisa,
		VATPaisa:        session.VATPaisa,
		PaymentFeePaisa: session.PaymentFeePaisa,
		DiscountPaisa:   session.DiscountPaisa,
		TotalPaisa:      session.TotalPaisa,
		ShippingAddress: session.ShippingAddress,
		PaymentMethod:   session.PaymentMethod,
		ExpiresAt:       session.ExpiresAt,
	}
	for _, line := range session.Lines {
		dto.Lines = append(dto.Lines, LineDTO{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			VendorID:       line.VendorID,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPricePaisa: line.UnitPricePaisa,
		})
	}
	return dto
}
