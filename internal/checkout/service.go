package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/cart"
	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockManager interface {
	Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []inventory.Line) error
	Confirm(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error
	Reassign(ctx context.Context, tx *gorm.DB, fromRef, toRef uuid.UUID) error
}

type orderCreator interface {
	CreateFromCheckout(ctx context.Context, tx *gorm.DB, input orders.CreateOrderInput) (*models.Order, error)
}

// Service walks a buyer through checkout: cart review, shipping address,
// payment method, order review, confirm. Each step requires the one before
// it, and the whole session runs against a fixed deadline set at creation.
type Service interface {
	Start(ctx context.Context, userID uuid.UUID) (*SessionDTO, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error)
	SetShippingAddress(ctx context.Context, userID, sessionID uuid.UUID, input AddressInput) (*SessionDTO, error)
	SetPaymentMethod(ctx context.Context, userID, sessionID uuid.UUID, input PaymentMethodInput) (*SessionDTO, error)
	Review(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error)
	Confirm(ctx context.Context, userID, sessionID uuid.UUID, input ConfirmInput) (*ConfirmResult, error)
	Abandon(ctx context.Context, userID, sessionID uuid.UUID) error
}

type service struct {
	store    Store
	tx       txRunner
	carts    cartReader
	catalog  catalog
	stock    stockManager
	orders   orderCreator
	market   config.MarketConfig
	checkout config.CheckoutConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(
	store Store,
	tx txRunner,
	carts cartReader,
	catalog catalog,
	stock stockManager,
	orderSvc orderCreator,
	market config.MarketConfig,
	checkout config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock manager required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order creator required")
	}
	return &service{
		store:    store,
		tx:       tx,
		carts:    carts,
		catalog:  catalog,
		stock:    stock,
		orders:   orderSvc,
		market:   market,
		checkout: checkout,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Start snapshots the cart into a new session and places inventory holds
// under the session ID. The holds and the session share the same deadline.
func (s *service) Start(ctx context.Context, userID uuid.UUID) (*SessionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context required")
	}

	snapshot, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snapshot.Summary.ItemCount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines, err := s.snapshotLines(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &Session{
		ID:            uuid.New(),
		UserID:        userID,
		Step:          StepCartReview,
		Lines:         lines,
		ItemCount:     snapshot.Summary.ItemCount,
		SubtotalPaisa: snapshot.Summary.SubtotalPaisa,
		VATPaisa:      pricing.VAT(s.market, snapshot.Summary.SubtotalPaisa),
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.checkout.SessionTTL),
	}
	s.recompute(session)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.stock.Reserve(ctx, tx, session.ID, reservationLines(lines))
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, session); err != nil {
		// The holds expire on their own; the sweep reclaims them.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
	}
	return toSessionDTO(session), nil
}

func (s *service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionDTO(session), nil
}

// SetShippingAddress completes step two and prices shipping against the
// snapshotted cart.
func (s *service) SetShippingAddress(ctx context.Context, userID, sessionID uuid.UUID, input AddressInput) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, StepCartReview); err != nil {
		return nil, err
	}
	if err := input.ShippingAddress.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	shipping := input.ShippingAddress.Normalized()
	session.ShippingAddress = &shipping
	if input.BillingAddress != nil {
		if err := input.BillingAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing address")
		}
		billing := input.BillingAddress.Normalized()
		session.BillingAddress = &billing
	} else {
		session.BillingAddress = session.ShippingAddress
	}

	session.ShippingPaisa = pricing.ShippingFee(s.market, session.ItemCount, session.SubtotalPaisa)
	if session.Step < StepShippingAddress {
		session.Step = StepShippingAddress
	}
	s.recompute(session)

	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
	}
	return toSessionDTO(session), nil
}

// SetPaymentMethod completes step three and applies the method surcharge.
func (s *service) SetPaymentMethod(ctx context.Context, userID, sessionID uuid.UUID, input PaymentMethodInput) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, StepShippingAddress); err != nil {
		return nil, err
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	session.PaymentMethod = input.Method
	session.PaymentFeePaisa = pricing.PaymentFee(s.market, input.Method)
	if session.Step < StepPaymentMethod {
		session.Step = StepPaymentMethod
	}
	s.recompute(session)

	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
	}
	return toSessionDTO(session), nil
}

// Review marks the final pre-confirm step and returns the full breakdown.
func (s *service) Review(ctx context.Context, userID, sessionID uuid.UUID) (*SessionDTO, error) {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, StepPaymentMethod); err != nil {
		return nil, err
	}

	if session.Step < StepOrderReview {
		session.Step = StepOrderReview
		if err := s.store.Save(ctx, session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout session")
		}
	}
	return toSessionDTO(session), nil
}

// Confirm converts the session into an order. The order write, the hold
// confirmation, and the hold reassignment commit in one transaction; losing
// the session afterwards or failing to clear the cart is logged, not fatal.
func (s *service) Confirm(ctx context.Context, userID, sessionID uuid.UUID, input ConfirmInput) (*ConfirmResult, error) {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, StepOrderReview); err != nil {
		return nil, err
	}
	if !input.AgreesToTerms {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terms must be accepted")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err = s.orders.CreateFromCheckout(ctx, tx, orders.CreateOrderInput{
			UserID:          session.UserID,
			PaymentMethod:   session.PaymentMethod,
			ShippingAddress: session.ShippingAddress,
			BillingAddress:  session.BillingAddress,
			SubtotalPaisa:   session.SubtotalPaisa,
			ShippingPaisa:   session.ShippingPaisa,
			TaxPaisa:        session.VATPaisa,
			PaymentFeePaisa: session.PaymentFeePaisa,
			DiscountPaisa:   session.DiscountPaisa,
			TotalPaisa:      session.TotalPaisa,
			Lines:           orderLines(session.Lines),
		})
		if err != nil {
			return err
		}
		if err := s.stock.Confirm(ctx, tx, session.ID); err != nil {
			return err
		}
		return s.stock.Reassign(ctx, tx, session.ID, order.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, session.ID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to drop confirmed checkout session")
	}
	if err := s.carts.Clear(ctx, session.UserID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to clear cart after checkout")
	}

	return &ConfirmResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalPaisa:  order.TotalPaisa,
		Status:      order.Status,
	}, nil
}

// Abandon releases the session's holds and drops the session.
func (s *service) Abandon(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.loadSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.stock.Release(ctx, tx, session.ID, "checkout abandoned")
	})
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, session.ID)
}

// loadSession resolves the session and maps missing/expired/foreign sessions
// to the caller-facing error codes.
func (s *service) loadSession(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context required")
	}
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if session.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if session.Expired(s.now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeGone, "checkout session expired")
	}
	return session, nil
}

func (s *service) snapshotLines(ctx context.Context, snapshot *cart.CartDTO) ([]Line, error) {
	names := map[uuid.UUID]string{}
	lines := make([]Line, 0, snapshot.Summary.ItemCount)
	for _, group := range snapshot.Vendors {
		for _, item := range group.Items {
			name, ok := names[item.ProductID]
			if !ok {
				product, err := s.catalog.FindByID(ctx, item.ProductID)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
				}
				if !product.Active {
					return nil, pkgerrors.New(pkgerrors.CodeConflict, "product no longer available").
						WithDetails(map[string]any{"product_id": item.ProductID})
				}
				name = product.Name
				names[item.ProductID] = name
			}
			lines = append(lines, Line{
				ProductID:      item.ProductID,
				VariantID:      item.VariantID,
				VendorID:       item.VendorID,
				ProductName:    name,
				Quantity:       item.Quantity,
				UnitPricePaisa: item.UnitPricePaisa,
			})
		}
	}
	return lines, nil
}

// recompute derives the running total. VAT applies to the subtotal only.
func (s *service) recompute(session *Session) {
	session.TotalPaisa = session.SubtotalPaisa +
		session.ShippingPaisa +
		session.VATPaisa +
		session.PaymentFeePaisa -
		session.DiscountPaisa
}

func requireStep(session *Session, step Step) error {
	if session.Step < step {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "previous checkout step not completed").
			WithDetails(map[string]any{
				"current_step":  session.Step,
				"required_step": step,
			})
	}
	return nil
}

func reservationLines(lines []Line) []inventory.Line {
	out := make([]inventory.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, inventory.Line{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Qty:       line.Quantity,
		})
	}
	return out
}

func orderLines(lines []Line) []orders.LineInput {
	out := make([]orders.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, orders.LineInput{
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			VendorID:       line.VendorID,
			ProductName:    line.ProductName,
			Quantity:       line.Quantity,
			UnitPricePaisa: line.UnitPricePaisa,
		})
	}
	return out
}
