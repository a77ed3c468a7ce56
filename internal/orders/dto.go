package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/types"
)

// LineInput is one purchased line handed over by the checkout flow.
type LineInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	VendorID       uuid.UUID
	ProductName    string
	Quantity       int
	UnitPricePaisa int64
}

// CreateOrderInput is the aggregate the checkout confirm step hands to the
// order writer. All amounts are already computed and in paisa.
type CreateOrderInput struct {
	UserID          uuid.UUID
	PaymentMethod   enums.PaymentMethod
	ShippingAddress *types.Address
	BillingAddress  *types.Address
	SubtotalPaisa   int64
	ShippingPaisa   int64
	TaxPaisa        int64
	PaymentFeePaisa int64
	DiscountPaisa   int64
	TotalPaisa      int64
	Lines           []LineInput
}

// UpdateStatusInput moves a vendor order along its lifecycle.
type UpdateStatusInput struct {
	Status enums.VendorOrderStatus `json:"status" validate:"required"`
	Note   *string                 `json:"note" validate:"omitempty,max=500"`
}

// ItemDTO is one purchased line.
type ItemDTO struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	ProductName     string     `json:"product_name"`
	Quantity        int        `json:"quantity"`
	UnitPricePaisa  int64      `json:"unit_price_paisa"`
	TotalPricePaisa int64      `json:"total_price_paisa"`
	Status          string     `json:"status"`
}

// VendorOrderDTO is the vendor-scoped slice of an order.
type VendorOrderDTO struct {
	ID                    uuid.UUID               `json:"id"`
	OrderID               uuid.UUID               `json:"order_id"`
	VendorID              uuid.UUID               `json:"vendor_id"`
	Status                enums.VendorOrderStatus `json:"status"`
	SubtotalPaisa         int64                   `json:"subtotal_paisa"`
	CommissionAmountPaisa int64                   `json:"commission_amount_paisa"`
	VendorEarningsPaisa   int64                   `json:"vendor_earnings_paisa"`
	ItemCount             int                     `json:"item_count"`
	Items                 []ItemDTO               `json:"items,omitempty"`
	DeliveredAt           *time.Time              `json:"delivered_at,omitempty"`
	CancelledAt           *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time               `json:"created_at"`
}

// OrderDTO is the customer-facing order payload.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	SubtotalPaisa   int64               `json:"subtotal_paisa"`
	ShippingPaisa   int64               `json:"shipping_paisa"`
	TaxPaisa        int64               `json:"tax_paisa"`
	PaymentFeePaisa int64               `json:"payment_fee_paisa"`
	DiscountPaisa   int64               `json:"discount_paisa"`
	TotalPaisa      int64               `json:"total_paisa"`
	Currency        string              `json:"currency"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	VendorOrders    []VendorOrderDTO    `json:"vendor_orders,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// HistoryDTO is one audit entry of a status movement.
type HistoryDTO struct {
	ID            uuid.UUID  `json:"id"`
	VendorOrderID *uuid.UUID `json:"vendor_order_id,omitempty"`
	FromStatus    *string    `json:"from_status,omitempty"`
	ToStatus      string     `json:"to_status"`
	Note          *string    `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// EarningsSummary aggregates a vendor's earnings across lifecycle buckets.
type EarningsSummary struct {
	VendorID             uuid.UUID `json:"vendor_id"`
	SettledEarningsPaisa int64     `json:"settled_earnings_paisa"`
	PendingEarningsPaisa int64     `json:"pending_earnings_paisa"`
	SettledOrders        int       `json:"settled_orders"`
	PendingOrders        int       `json:"pending_orders"`
	RefundedOrders       int       `json:"refunded_orders"`
}

func toItemDTO(row models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:              row.ID,
		ProductID:       row.ProductID,
		VariantID:       row.VariantID,
		VendorID:        row.VendorID,
		ProductName:     row.ProductName,
		Quantity:        row.Quantity,
		UnitPricePaisa:  row.UnitPricePaisa,
		TotalPricePaisa: row.TotalPricePaisa,
		Status:          string(row.Status),
	}
}

func toVendorOrderDTO(row models.VendorOrder) VendorOrderDTO {
	dto := VendorOrderDTO{
		ID:                    row.ID,
		OrderID:               row.OrderID,
		VendorID:              row.VendorID,
		Status:                row.Status,
		SubtotalPaisa:         row.SubtotalPaisa,
		CommissionAmountPaisa: row.CommissionAmountPaisa,
		VendorEarningsPaisa:   row.VendorEarningsPaisa,
		ItemCount:             row.ItemCount,
		DeliveredAt:           row.DeliveredAt,
		CancelledAt:           row.CancelledAt,
		CreatedAt:             row.CreatedAt,
	}
	for _, item := range row.Items {
		dto.Items = append(dto.Items, toItemDTO(item))
	}
	return dto
}

func toOrderDTO(row *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              row.ID,
		OrderNumber:     row.OrderNumber,
		UserID:          row.UserID,
		Status:          row.Status,
		PaymentMethod:   row.PaymentMethod,
		PaymentStatus:   row.PaymentStatus,
		SubtotalPaisa:   row.SubtotalPaisa,
		ShippingPaisa:   row.ShippingPaisa,
		TaxPaisa:        row.TaxPaisa,
		PaymentFeePaisa: row.PaymentFeePaisa,
		DiscountPaisa:   row.DiscountPaisa,
		TotalPaisa:      row.TotalPaisa,
		Currency:        string(row.Currency),
		ShippingAddress: row.ShippingAddress,
		DeliveredAt:     row.DeliveredAt,
		CreatedAt:       row.CreatedAt,
	}
	for _, vendorOrder := range row.VendorOrders {
		dto.VendorOrders = append(dto.VendorOrders, toVendorOrderDTO(vendorOrder))
	}
	return dto
}

func toHistoryDTO(row models.OrderStatusHistory) HistoryDTO {
	return HistoryDTO{
		ID:            row.ID,
		VendorOrderID: row.VendorOrderID,
		FromStatus:    row.FromStatus,
		ToStatus:      row.ToStatus,
		Note:          row.Note,
		CreatedAt:     row.CreatedAt,
	}
}
