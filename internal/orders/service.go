package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
	"github.com/bazarika/bazarika-backend/pkg/pricing"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockReleaser interface {
	ReleaseLines(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []inventory.Line, reason string) error
}

type paymentRecorder interface {
	CreatePending(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error)
}

// Service owns order creation, the vendor-order lifecycle, and the parent
// status rollup.
type Service interface {
	CreateFromCheckout(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderDTO, string, error)
	ListHistory(ctx context.Context, userID, orderID uuid.UUID) ([]HistoryDTO, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason *string) (*OrderDTO, error)
	GetVendorOrder(ctx context.Context, vendorID, vendorOrderID uuid.UUID) (*VendorOrderDTO, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]VendorOrderDTO, string, error)
	VendorUpdateStatus(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input UpdateStatusInput) (*VendorOrderDTO, error)
	VendorEarnings(ctx context.Context, vendorID uuid.UUID) (*EarningsSummary, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    stockReleaser
	payments paymentRecorder
	events   outboxPublisher
	market   config.MarketConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, stock stockReleaser, payments paymentRecorder, events outboxPublisher, market config.MarketConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock releaser required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment recorder required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stock:    stock,
		payments: payments,
		events:   events,
		market:   market,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// CreateFromCheckout writes the whole order aggregate inside the caller's
// transaction: parent order, per-vendor sub-orders with the commission split,
// line items, initial history, and the pending payment transaction.
func (s *service) CreateFromCheckout(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one line")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	repo := s.repo.WithTx(tx)
	now := s.now().UTC()

	order, err := repo.CreateOrder(ctx, &models.Order{
		OrderNumber:     generateOrderNumber(now),
		UserID:          input.UserID,
		SubtotalPaisa:   input.SubtotalPaisa,
		ShippingPaisa:   input.ShippingPaisa,
		TaxPaisa:        input.TaxPaisa,
		PaymentFeePaisa: input.PaymentFeePaisa,
		DiscountPaisa:   input.DiscountPaisa,
		TotalPaisa:      input.TotalPaisa,
		Currency:        enums.CurrencyBDT,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	vendorIDs, grouped := groupLinesByVendor(input.Lines)
	commissionRate := s.market.Commission()
	vendorOrderIDs := make([]uuid.UUID, 0, len(vendorIDs))

	for _, vendorID := range vendorIDs {
		lines := grouped[vendorID]
		var subtotal int64
		var itemCount int
		for _, line := range lines {
			subtotal += line.UnitPricePaisa * int64(line.Quantity)
			itemCount += line.Quantity
		}
		commission, earnings := pricing.Commission(commissionRate, subtotal)

		vendorOrder, err := repo.CreateVendorOrder(ctx, &models.VendorOrder{
			OrderID:               order.ID,
			VendorID:              vendorID,
			SubtotalPaisa:         subtotal,
			CommissionRate:        commissionRate,
			CommissionAmountPaisa: commission,
			VendorEarningsPaisa:   earnings,
			Status:                enums.VendorOrderStatusPending,
			ItemCount:             itemCount,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor order")
		}
		vendorOrderIDs = append(vendorOrderIDs, vendorOrder.ID)

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:         order.ID,
				VendorOrderID:   vendorOrder.ID,
				ProductID:       line.ProductID,
				VariantID:       line.VariantID,
				VendorID:        vendorID,
				ProductName:     line.ProductName,
				Quantity:        line.Quantity,
				UnitPricePaisa:  line.UnitPricePaisa,
				TotalPricePaisa: line.UnitPricePaisa * int64(line.Quantity),
				Status:          enums.OrderItemStatusActive,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:       order.ID,
			VendorOrderID: &vendorOrder.ID,
			FromStatus:    nil,
			ToStatus:      string(enums.VendorOrderStatusPending),
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vendor order history")
		}
	}

	if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: nil,
		ToStatus:   string(enums.OrderStatusPending),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
	}

	if _, err := s.payments.CreatePending(ctx, tx, order.ID, input.PaymentMethod, input.TotalPaisa); err != nil {
		return nil, err
	}

	if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: input.UserID, Role: string(enums.RoleCustomer)},
		Data: payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			UserID:         input.UserID,
			VendorOrderIDs: vendorOrderIDs,
			TotalPaisa:     order.TotalPaisa,
			PaymentMethod:  order.PaymentMethod,
		},
		Version:    1,
		OccurredAt: now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
	}

	return repo.FindOrderByID(ctx, order.ID)
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindOrderForUser(ctx, orderID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListUserOrders(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toOrderDTO(&rows[i]))
	}
	return out, nextCursor, nil
}

func (s *service) ListHistory(ctx context.Context, userID, orderID uuid.UUID) ([]HistoryDTO, error) {
	if _, err := s.repo.FindOrderForUser(ctx, orderID, userID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	rows, err := s.repo.ListStatusHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list history")
	}
	out := make([]HistoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toHistoryDTO(row))
	}
	return out, nil
}

// CancelOrder cancels every vendor order while all of them are still
// pre-shipment. A single shipped slice blocks the whole cancellation.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason *string) (*OrderDTO, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUser(ctx, orderID, userID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		for _, vendorOrder := range order.VendorOrders {
			if vendorOrder.Status == enums.VendorOrderStatusCancelled {
				continue
			}
			if !cancellableByBuyer(vendorOrder.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
					WithDetails(map[string]any{
						"vendor_order_id": vendorOrder.ID,
						"status":          vendorOrder.Status,
					})
			}
		}

		for i := range order.VendorOrders {
			vendorOrder := &order.VendorOrders[i]
			if vendorOrder.Status == enums.VendorOrderStatusCancelled {
				continue
			}
			if err := s.cancelVendorOrder(ctx, tx, repo, order, vendorOrder, userID, reason); err != nil {
				return err
			}
			vendorOrder.Status = enums.VendorOrderStatusCancelled
		}

		if err := s.rollupParent(ctx, tx, repo, order, &userID); err != nil {
			return err
		}

		result, err = repo.FindOrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(result), nil
}

func (s *service) GetVendorOrder(ctx context.Context, vendorID, vendorOrderID uuid.UUID) (*VendorOrderDTO, error) {
	row, err := s.repo.FindVendorOrderForVendor(ctx, vendorOrderID, vendorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor order")
	}
	dto := toVendorOrderDTO(*row)
	return &dto, nil
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, params pagination.Params) ([]VendorOrderDTO, string, error) {
	if status != nil && !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListVendorOrders(ctx, vendorID, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}

	pageSize := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]VendorOrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toVendorOrderDTO(row))
	}
	return out, nextCursor, nil
}

// VendorUpdateStatus applies one lifecycle transition, records history,
// releases stock on cancellation, and recomputes the parent rollup.
func (s *service) VendorUpdateStatus(ctx context.Context, vendorID, vendorOrderID, actorUserID uuid.UUID, input UpdateStatusInput) (*VendorOrderDTO, error) {
	var result *models.VendorOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		vendorOrder, err := repo.FindVendorOrderForVendor(ctx, vendorOrderID, vendorID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor order")
		}

		if err := ValidateTransition(vendorOrder.Status, input.Status); err != nil {
			return err
		}

		order, err := repo.FindOrderByID(ctx, vendorOrder.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
		}

		from := vendorOrder.Status
		now := s.now().UTC()
		updates := map[string]any{"status": input.Status, "updated_at": now}
		switch input.Status {
		case enums.VendorOrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.VendorOrderStatusCancelled:
			updates["cancelled_at"] = now
		}
		if err := repo.UpdateVendorOrder(ctx, vendorOrder.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor order")
		}

		fromStr := string(from)
		if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:       vendorOrder.OrderID,
			VendorOrderID: &vendorOrder.ID,
			FromStatus:    &fromStr,
			ToStatus:      string(input.Status),
			Note:          input.Note,
			ActorUserID:   &actorUserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record history")
		}

		if input.Status == enums.VendorOrderStatusCancelled {
			if err := s.stock.ReleaseLines(ctx, tx, vendorOrder.OrderID, itemLines(vendorOrder.Items), "vendor order cancelled"); err != nil {
				return err
			}
		}

		// Refresh child statuses before deriving the parent.
		for i := range order.VendorOrders {
			if order.VendorOrders[i].ID == vendorOrder.ID {
				order.VendorOrders[i].Status = input.Status
			}
		}
		if err := s.rollupParent(ctx, tx, repo, order, &actorUserID); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorOrderStatusChanged,
			AggregateType: enums.AggregateVendorOrder,
			AggregateID:   vendorOrder.ID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, VendorID: &vendorID, Role: string(enums.RoleVendor)},
			Data: payloads.VendorOrderStatusChangedEvent{
				OrderID:       vendorOrder.OrderID,
				VendorOrderID: vendorOrder.ID,
				VendorID:      vendorID,
				UserID:        order.UserID,
				FromStatus:    from,
				ToStatus:      input.Status,
				OrderStatus:   deriveFromChildren(order.VendorOrders),
			},
			Version:    1,
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}

		result, err = repo.FindVendorOrder(ctx, vendorOrder.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := toVendorOrderDTO(*result)
	return &dto, nil
}

func (s *service) VendorEarnings(ctx context.Context, vendorID uuid.UUID) (*EarningsSummary, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	summary, err := s.repo.EarningsSummary(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate earnings")
	}
	return summary, nil
}

// cancelVendorOrder flips one slice to cancelled with history and stock
// release; the caller recomputes the parent afterwards.
func (s *service) cancelVendorOrder(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, vendorOrder *models.VendorOrder, actorUserID uuid.UUID, reason *string) error {
	now := s.now().UTC()
	if err := repo.UpdateVendorOrder(ctx, vendorOrder.ID, map[string]any{
		"status":       enums.VendorOrderStatusCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel vendor order")
	}

	fromStr := string(vendorOrder.Status)
	if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:       order.ID,
		VendorOrderID: &vendorOrder.ID,
		FromStatus:    &fromStr,
		ToStatus:      string(enums.VendorOrderStatusCancelled),
		Note:          reason,
		ActorUserID:   &actorUserID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record history")
	}

	if err := s.stock.ReleaseLines(ctx, tx, order.ID, itemLines(vendorOrder.Items), "order cancelled"); err != nil {
		return err
	}

	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVendorOrderStatusChanged,
		AggregateType: enums.AggregateVendorOrder,
		AggregateID:   vendorOrder.ID,
		Actor:         &outbox.ActorRef{UserID: actorUserID, Role: string(enums.RoleCustomer)},
		Data: payloads.VendorOrderStatusChangedEvent{
			OrderID:       order.ID,
			VendorOrderID: vendorOrder.ID,
			VendorID:      vendorOrder.VendorID,
			UserID:        order.UserID,
			FromStatus:    vendorOrder.Status,
			ToStatus:      enums.VendorOrderStatusCancelled,
			OrderStatus:   enums.OrderStatusCancelled,
		},
		Version:    1,
		OccurredAt: now,
	})
}

// rollupParent recomputes the derived parent status and records the movement
// when it changed.
func (s *service) rollupParent(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actorUserID *uuid.UUID) error {
	derived := deriveFromChildren(order.VendorOrders)
	if derived == order.Status {
		return nil
	}

	now := s.now().UTC()
	updates := map[string]any{"status": derived, "updated_at": now}
	if derived == enums.OrderStatusDelivered && order.DeliveredAt == nil {
		updates["delivered_at"] = now
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	fromStr := string(order.Status)
	if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:     order.ID,
		FromStatus:  &fromStr,
		ToStatus:    string(derived),
		ActorUserID: actorUserID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record rollup history")
	}

	order.Status = derived
	return nil
}

func deriveFromChildren(children []models.VendorOrder) enums.OrderStatus {
	statuses := make([]enums.VendorOrderStatus, 0, len(children))
	for _, child := range children {
		statuses = append(statuses, child.Status)
	}
	return DeriveOrderStatus(statuses)
}

func itemLines(items []models.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Qty:       item.Quantity,
		})
	}
	return lines
}

func groupLinesByVendor(lines []LineInput) ([]uuid.UUID, map[uuid.UUID][]LineInput) {
	order := make([]uuid.UUID, 0)
	grouped := make(map[uuid.UUID][]LineInput)
	for _, line := range lines {
		if _, seen := grouped[line.VendorID]; !seen {
			order = append(order, line.VendorID)
		}
		grouped[line.VendorID] = append(grouped[line.VendorID], line)
	}
	return order, grouped
}

func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("BZ-%s-%s", now.Format("20060102"), suffix)
}
