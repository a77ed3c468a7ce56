package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a selling storefront on the marketplace.
type Vendor struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID  uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	StoreName    string    `gorm:"column:store_name;type:text;not null"`
	ContactPhone string    `gorm:"column:contact_phone;type:text;not null"`
	Active       bool      `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
