package auth

import (
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Role     enums.MemberRole
	VendorID *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. VendorID is
// only present for vendor-role tokens.
type AccessTokenClaims struct {
	UserID   uuid.UUID        `json:"user_id"`
	Role     enums.MemberRole `json:"role"`
	VendorID *uuid.UUID       `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}
