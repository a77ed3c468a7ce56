package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// User is the minimal identity row referenced by orders and notifications.
// Authentication itself happens upstream; this table anchors foreign keys
// and notification recipient lookups.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;type:text;not null"`
	Phone     string           `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Email     *string          `gorm:"column:email;type:text"`
	Role      enums.MemberRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
