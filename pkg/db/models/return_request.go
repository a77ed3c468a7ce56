package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/bazarika/bazarika-backend/pkg/db/types"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// ReturnRequest is one vendor's slice of a customer return action. A single
// customer request spanning several vendors produces one row per vendor,
// each decided independently.
type ReturnRequest struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	VendorOrderID        uuid.UUID           `gorm:"column:vendor_order_id;type:uuid;not null;index"`
	VendorID             uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	ReturnAuthNumber     string              `gorm:"column:return_auth_number;type:text;not null;uniqueIndex"`
	OrderItemIDs         dbtypes.UUIDArray   `gorm:"column:order_item_ids;type:uuid[]"`
	Reason               string              `gorm:"column:reason;type:text;not null"`
	Status               enums.ReturnStatus  `gorm:"column:status;type:text;not null;default:'requested'"`
	RequestedAmountPaisa int64               `gorm:"column:requested_amount_paisa;not null"`
	ApprovedAmountPaisa  *int64              `gorm:"column:approved_amount_paisa"`
	DeductionPaisa       int64               `gorm:"column:deduction_paisa;not null;default:0"`
	RefundedAmountPaisa  *int64              `gorm:"column:refunded_amount_paisa"`
	DecisionNote         *string             `gorm:"column:decision_note;type:text"`
	RefundTransaction    *PaymentTransaction `gorm:"foreignKey:ReturnRequestID"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
