package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// StockReservation is a time-bounded hold against product stock. A
// reservation only counts against availability while its status is
// reserved/confirmed and ExpiresAt is in the future; expiry is enforced at
// read time, the background sweep is housekeeping only.
type StockReservation struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID *uuid.UUID              `gorm:"column:variant_id;type:uuid"`
	Qty       int                     `gorm:"column:qty;not null"`
	Status    enums.ReservationStatus `gorm:"column:status;type:text;not null;default:'reserved'"`
	ExpiresAt time.Time               `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
