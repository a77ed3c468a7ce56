package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CollectCODInput records the cash a courier took at the door.
type CollectCODInput struct {
	AmountPaisa int64   `json:"amount_paisa" validate:"required,gt=0"`
	Reference   *string `json:"reference" validate:"omitempty,max=100"`
}

// TransactionDTO is the API view of one payment movement.
type TransactionDTO struct {
	ID            uuid.UUID            `json:"id"`
	OrderID       uuid.UUID            `json:"order_id"`
	VendorOrderID *uuid.UUID           `json:"vendor_order_id,omitempty"`
	Type          enums.PaymentTxnType `json:"type"`
	Method        enums.PaymentMethod  `json:"method"`
	Status        enums.PaymentStatus  `json:"status"`
	AmountPaisa   int64                `json:"amount_paisa"`
	GatewayRef    *string              `json:"gateway_ref,omitempty"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Service records payment movements: the pending charge written at checkout,
// COD collection at the door, and refunds closing out returns.
type Service interface {
	CreatePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error)
	CreateRefund(ctx context.Context, tx *gorm.DB, orderID, vendorOrderID, returnRequestID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error)
	CollectCOD(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input CollectCODInput) (*TransactionDTO, error)
	ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]TransactionDTO, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	gateway Gateway
	events  outboxPublisher
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the payments service.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner, gateway Gateway, events outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		gateway = NewLoggingGateway(logg)
	}
	if events == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		orders:  ordersRepo,
		tx:      tx,
		gateway: gateway,
		events:  events,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreatePending writes the charge placeholder inside the checkout
// transaction. It settles later: immediately for gateway methods once the
// provider callback lands, or at the door for COD.
func (s *service) CreatePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if amountPaisa <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	txn, err := s.repo.WithTx(tx).Create(ctx, &models.PaymentTransaction{
		OrderID:     orderID,
		Type:        enums.PaymentTxnTypeCharge,
		Method:      method,
		Status:      enums.PaymentStatusPending,
		AmountPaisa: amountPaisa,
		Currency:    enums.CurrencyBDT,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pending charge")
	}
	return txn, nil
}

// CreateRefund runs the gateway refund and records the completed movement.
// Callers invoke it inside their own transaction.
func (s *service) CreateRefund(ctx context.Context, tx *gorm.DB, orderID, vendorOrderID, returnRequestID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error) {
	if amountPaisa <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	txnID := uuid.New()
	gatewayRef, err := s.gateway.Refund(ctx, method, txnID, amountPaisa)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway refund")
	}

	now := s.now().UTC()
	txn, err := s.repo.WithTx(tx).Create(ctx, &models.PaymentTransaction{
		ID:              txnID,
		OrderID:         orderID,
		VendorOrderID:   &vendorOrderID,
		ReturnRequestID: &returnRequestID,
		Type:            enums.PaymentTxnTypeRefund,
		Method:          method,
		Status:          enums.PaymentStatusCompleted,
		AmountPaisa:     amountPaisa,
		Currency:        enums.CurrencyBDT,
		GatewayRef:      &gatewayRef,
		CompletedAt:     &now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
	}
	return txn, nil
}

// CollectCOD records cash taken on delivery of one vendor's shipment. When
// collections cover the order total, the pending charge settles and the
// order flips to paid.
func (s *service) CollectCOD(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input CollectCODInput) (*TransactionDTO, error) {
	if input.AmountPaisa <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var result *models.PaymentTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		vendorOrder, err := ordersRepo.FindVendorOrderForVendor(ctx, vendorOrderID, vendorID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor order")
		}
		switch vendorOrder.Status {
		case enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cash is collected at delivery").
				WithDetails(map[string]any{"status": vendorOrder.Status})
		}

		order, err := ordersRepo.FindOrderByID(ctx, vendorOrder.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PaymentMethod != enums.PaymentMethodCOD {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not cash on delivery")
		}

		now := s.now().UTC()
		result, err = repo.Create(ctx, &models.PaymentTransaction{
			OrderID:       order.ID,
			VendorOrderID: &vendorOrder.ID,
			Type:          enums.PaymentTxnTypeCODCollection,
			Method:        enums.PaymentMethodCOD,
			Status:        enums.PaymentStatusCompleted,
			AmountPaisa:   input.AmountPaisa,
			Currency:      enums.CurrencyBDT,
			GatewayRef:    input.Reference,
			CompletedAt:   &now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record collection")
		}

		collected, err := repo.SumByType(ctx, order.ID, enums.PaymentTxnTypeCODCollection)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum collections")
		}
		if collected >= order.TotalPaisa {
			if err := s.settleCharge(ctx, repo, ordersRepo, order, now); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCODCollected,
			AggregateType: enums.AggregatePayment,
			AggregateID:   result.ID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, VendorID: &vendorID, Role: string(enums.RoleVendor)},
			Data: payloads.CODCollectedEvent{
				TransactionID: result.ID,
				OrderID:       order.ID,
				VendorOrderID: &vendorOrder.ID,
				AmountPaisa:   input.AmountPaisa,
				CollectedAt:   now,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := toTransactionDTO(*result)
	return &dto, nil
}

func (s *service) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]TransactionDTO, error) {
	if _, err := s.orders.FindOrderForUser(ctx, orderID, userID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	rows, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	out := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransactionDTO(row))
	}
	return out, nil
}

func (s *service) settleCharge(ctx context.Context, repo Repository, ordersRepo orders.Repository, order *models.Order, now time.Time) error {
	charge, err := repo.FindPendingCharge(ctx, order.ID)
	if err != nil {
		if db.IsNotFound(err) {
			// Charge already settled; nothing left to flip.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending charge")
	}
	if err := repo.Update(ctx, charge.ID, map[string]any{
		"status":       enums.PaymentStatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle charge")
	}
	return ordersRepo.UpdateOrder(ctx, order.ID, map[string]any{
		"payment_status": enums.PaymentStatusCompleted,
		"updated_at":     now,
	})
}

func toTransactionDTO(row models.PaymentTransaction) TransactionDTO {
	return TransactionDTO{
		ID:            row.ID,
		OrderID:       row.OrderID,
		VendorOrderID: row.VendorOrderID,
		Type:          row.Type,
		Method:        row.Method,
		Status:        row.Status,
		AmountPaisa:   row.AmountPaisa,
		GatewayRef:    row.GatewayRef,
		CompletedAt:   row.CompletedAt,
		CreatedAt:     row.CreatedAt,
	}
}
