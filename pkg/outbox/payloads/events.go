package payloads

import (
	"time"

	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderCreatedEvent signals a confirmed checkout split across vendors.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	OrderNumber    string              `json:"order_number"`
	UserID         uuid.UUID           `json:"user_id"`
	VendorOrderIDs []uuid.UUID         `json:"vendor_order_ids"`
	TotalPaisa     int64               `json:"total_paisa"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
}

// VendorOrderStatusChangedEvent is emitted on every vendor sub-order transition.
type VendorOrderStatusChangedEvent struct {
	OrderID       uuid.UUID               `json:"order_id"`
	VendorOrderID uuid.UUID               `json:"vendor_order_id"`
	VendorID      uuid.UUID               `json:"vendor_id"`
	UserID        uuid.UUID               `json:"user_id"`
	FromStatus    enums.VendorOrderStatus `json:"from_status"`
	ToStatus      enums.VendorOrderStatus `json:"to_status"`
	OrderStatus   enums.OrderStatus       `json:"order_status"`
}

// ReturnRequestedEvent notifies the vendor that a buyer opened a return.
type ReturnRequestedEvent struct {
	ReturnRequestID      uuid.UUID `json:"return_request_id"`
	ReturnAuthNumber     string    `json:"return_auth_number"`
	OrderID              uuid.UUID `json:"order_id"`
	VendorOrderID        uuid.UUID `json:"vendor_order_id"`
	VendorID             uuid.UUID `json:"vendor_id"`
	UserID               uuid.UUID `json:"user_id"`
	RequestedAmountPaisa int64     `json:"requested_amount_paisa"`
	Reason               string    `json:"reason"`
}

// ReturnStatusChangedEvent reports a decision or completion on a return.
type ReturnStatusChangedEvent struct {
	ReturnRequestID     uuid.UUID          `json:"return_request_id"`
	OrderID             uuid.UUID          `json:"order_id"`
	VendorID            uuid.UUID          `json:"vendor_id"`
	UserID              uuid.UUID          `json:"user_id"`
	FromStatus          enums.ReturnStatus `json:"from_status"`
	ToStatus            enums.ReturnStatus `json:"to_status"`
	RefundedAmountPaisa *int64             `json:"refunded_amount_paisa,omitempty"`
}

// CODCollectedEvent records cash collection at delivery for a COD order.
type CODCollectedEvent struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	OrderID       uuid.UUID  `json:"order_id"`
	VendorOrderID *uuid.UUID `json:"vendor_order_id,omitempty"`
	AmountPaisa   int64      `json:"amount_paisa"`
	CollectedAt   time.Time  `json:"collected_at"`
}

// ReservationsSweptEvent summarizes an expired-reservation sweep run.
type ReservationsSweptEvent struct {
	SweepID       uuid.UUID `json:"sweep_id"`
	ReleasedCount int       `json:"released_count"`
	ReleasedQty   int       `json:"released_qty"`
	SweptAt       time.Time `json:"swept_at"`
}
