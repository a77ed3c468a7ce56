package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/types"
)

// Step identifies how far a checkout session has progressed. Steps complete
// strictly in order; Confirm requires the review step.
type Step int

const (
	StepCartReview Step = iota + 1
	StepShippingAddress
	StepPaymentMethod
	StepOrderReview
)

// expiredGrace keeps a session readable in Redis past its deadline so the
// API can answer 410 instead of 404 for a short while after expiry.
const expiredGrace = 10 * time.Minute

// Line is one cart line frozen into the session at creation time.
type Line struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	VendorID       uuid.UUID  `json:"vendor_id"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity"`
	UnitPricePaisa int64      `json:"unit_price_paisa"`
}

// Session is the server-side state of one checkout attempt. The deadline is
// fixed at creation; completing steps never extends it.
type Session struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Step            Step                `json:"step"`
	Lines           []Line              `json:"lines"`
	ItemCount       int                 `json:"item_count"`
	SubtotalPaisa   int64               `json:"subtotal_paisa"`
	ShippingPaisa   int64               `json:"shipping_paisa"`
	VATPaisa        int64               `json:"vat_paisa"`
	PaymentFeePaisa int64               `json:"payment_fee_paisa"`
	DiscountPaisa   int64               `json:"discount_paisa"`
	TotalPaisa      int64               `json:"total_paisa"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address      `json:"billing_address,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ExpiresAt       time.Time           `json:"expires_at"`
}

// Expired reports whether the session deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// ErrSessionNotFound is returned by a Store when no session exists for the ID.
var ErrSessionNotFound = errors.New("checkout session not found")

// Store persists checkout sessions between steps.
type Store interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

type sessionRedis interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(sessionID string) string
}

type redisStore struct {
	client sessionRedis
}

// NewRedisStore builds a Store on the shared Redis client.
func NewRedisStore(client sessionRedis) Store {
	return &redisStore{client: client}
}

func (r *redisStore) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	// Key TTL tracks the fixed deadline plus the grace window, so re-saving
	// after a step never pushes the deadline out.
	ttl := time.Until(session.ExpiresAt) + expiredGrace
	if ttl <= 0 {
		return ErrSessionNotFound
	}
	return r.client.Set(ctx, r.client.CheckoutSessionKey(session.ID.String()), payload, ttl)
}

func (r *redisStore) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	raw, err := r.client.Get(ctx, r.client.CheckoutSessionKey(sessionID.String()))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *redisStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.client.Del(ctx, r.client.CheckoutSessionKey(sessionID.String()))
}
