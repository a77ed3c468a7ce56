package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusHistory is an append-only audit trail of status movements.
// VendorOrderID is nil for parent-order rollup entries.
type OrderStatusHistory struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	VendorOrderID *uuid.UUID `gorm:"column:vendor_order_id;type:uuid;index"`
	FromStatus    *string    `gorm:"column:from_status;type:text"`
	ToStatus      string     `gorm:"column:to_status;type:text;not null"`
	Note          *string    `gorm:"column:note;type:text"`
	ActorUserID   *uuid.UUID `gorm:"column:actor_user_id;type:uuid"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
