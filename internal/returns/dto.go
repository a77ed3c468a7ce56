package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// CreateRequestInput opens a return for delivered items. Items may span
// vendors; the service splits them into one request per vendor.
type CreateRequestInput struct {
	OrderItemIDs []uuid.UUID `json:"order_item_ids" validate:"required,min=1"`
	Reason       string      `json:"reason" validate:"required,max=1000"`
}

// DecisionInput records the vendor's call on a requested return.
type DecisionInput struct {
	Status              enums.ReturnStatus `json:"status" validate:"required"`
	ApprovedAmountPaisa *int64             `json:"approved_amount_paisa"`
	DeductionPaisa      *int64             `json:"deduction_paisa"`
	Note                *string            `json:"note" validate:"omitempty,max=500"`
}

// ReceiveInput confirms the physical items arrived back, optionally with an
// extra deduction for damage discovered on inspection.
type ReceiveInput struct {
	DeductionPaisa *int64  `json:"deduction_paisa"`
	Note           *string `json:"note" validate:"omitempty,max=500"`
}

// RefundDTO mirrors the refund transaction attached to a finished return.
type RefundDTO struct {
	TransactionID uuid.UUID           `json:"transaction_id"`
	Method        enums.PaymentMethod `json:"method"`
	AmountPaisa   int64               `json:"amount_paisa"`
	Status        enums.PaymentStatus `json:"status"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

// RequestDTO is the API view of one vendor-scoped return request.
type RequestDTO struct {
	ID                   uuid.UUID          `json:"id"`
	OrderID              uuid.UUID          `json:"order_id"`
	VendorOrderID        uuid.UUID          `json:"vendor_order_id"`
	VendorID             uuid.UUID          `json:"vendor_id"`
	ReturnAuthNumber     string             `json:"return_auth_number"`
	OrderItemIDs         []uuid.UUID        `json:"order_item_ids"`
	Reason               string             `json:"reason"`
	Status               enums.ReturnStatus `json:"status"`
	RequestedAmountPaisa int64              `json:"requested_amount_paisa"`
	ApprovedAmountPaisa  *int64             `json:"approved_amount_paisa,omitempty"`
	DeductionPaisa       int64              `json:"deduction_paisa"`
	RefundedAmountPaisa  *int64             `json:"refunded_amount_paisa,omitempty"`
	DecisionNote         *string            `json:"decision_note,omitempty"`
	Refund               *RefundDTO         `json:"refund,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
}

func toRequestDTO(row *models.ReturnRequest) *RequestDTO {
	dto := &RequestDTO{
		ID:                   row.ID,
		OrderID:              row.OrderID,
		VendorOrderID:        row.VendorOrderID,
		VendorID:             row.VendorID,
		ReturnAuthNumber:     row.ReturnAuthNumber,
		OrderItemIDs:         row.OrderItemIDs,
		Reason:               row.Reason,
		Status:               row.Status,
		RequestedAmountPaisa: row.RequestedAmountPaisa,
		ApprovedAmountPaisa:  row.ApprovedAmountPaisa,
		DeductionPaisa:       row.DeductionPaisa,
		RefundedAmountPaisa:  row.RefundedAmountPaisa,
		DecisionNote:         row.DecisionNote,
		CreatedAt:            row.CreatedAt,
	}
	if txn := row.RefundTransaction; txn != nil {
		dto.Refund = &RefundDTO{
			TransactionID: txn.ID,
			Method:        txn.Method,
			AmountPaisa:   txn.AmountPaisa,
			Status:        txn.Status,
			CompletedAt:   txn.CompletedAt,
		}
	}
	return dto
}
