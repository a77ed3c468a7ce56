package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	dbtypes "github.com/bazarika/bazarika-backend/pkg/db/types"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type refundRecorder interface {
	CreateRefund(ctx context.Context, tx *gorm.DB, orderID, vendorOrderID, returnRequestID uuid.UUID, method enums.PaymentMethod, amountPaisa int64) (*models.PaymentTransaction, error)
}

// Service owns the return lifecycle from the buyer's request through the
// vendor's decision to the final refund.
type Service interface {
	CreateRequest(ctx context.Context, userID, orderID uuid.UUID, input CreateRequestInput) ([]RequestDTO, error)
	GetRequest(ctx context.Context, userID, requestID uuid.UUID) (*RequestDTO, error)
	ListUserRequests(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]RequestDTO, string, error)
	ListVendorRequests(ctx context.Context, vendorID uuid.UUID, status *enums.ReturnStatus, params pagination.Params) ([]RequestDTO, string, error)
	VendorDecide(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input DecisionInput) (*RequestDTO, error)
	MarkItemsReceived(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input ReceiveInput) (*RequestDTO, error)
	ProcessRefund(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID) (*RequestDTO, error)
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	refunds refundRecorder
	events  outboxPublisher
	cfg     config.ReturnsConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the returns service.
func NewService(
	repo Repository,
	ordersRepo orders.Repository,
	tx txRunner,
	refunds refundRecorder,
	events outboxPublisher,
	cfg config.ReturnsConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if refunds == nil {
		return nil, fmt.Errorf("refund recorder required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		orders:  ordersRepo,
		tx:      tx,
		refunds: refunds,
		events:  events,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateRequest opens returns for the named items. Items spanning several
// vendors split into one request per vendor, each carrying its own RA number
// and decided independently.
func (s *service) CreateRequest(ctx context.Context, userID, orderID uuid.UUID, input CreateRequestInput) ([]RequestDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context required")
	}
	if len(input.OrderItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	var created []models.ReturnRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.FindOrderForUser(ctx, orderID, userID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		items := make(map[uuid.UUID]models.OrderItem, len(order.Items))
		for _, item := range order.Items {
			items[item.ID] = item
		}

		claimed, err := s.claimedItemIDs(ctx, repo, orderID)
		if err != nil {
			return err
		}

		grouped := map[uuid.UUID][]models.OrderItem{}
		groupOrder := make([]uuid.UUID, 0)
		for _, itemID := range input.OrderItemIDs {
			item, ok := items[itemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found").
					WithDetails(map[string]any{"order_item_id": itemID})
			}
			if item.Status != enums.OrderItemStatusActive {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "item not returnable").
					WithDetails(map[string]any{"order_item_id": itemID, "status": item.Status})
			}
			if _, open := claimed[itemID]; open {
				return pkgerrors.New(pkgerrors.CodeConflict, "item already has an open return").
					WithDetails(map[string]any{"order_item_id": itemID})
			}
			if _, seen := grouped[item.VendorOrderID]; !seen {
				groupOrder = append(groupOrder, item.VendorOrderID)
			}
			grouped[item.VendorOrderID] = append(grouped[item.VendorOrderID], item)
		}

		vendorOrders := make(map[uuid.UUID]models.VendorOrder, len(order.VendorOrders))
		for _, vendorOrder := range order.VendorOrders {
			vendorOrders[vendorOrder.ID] = vendorOrder
		}

		now := s.now().UTC()
		for _, vendorOrderID := range groupOrder {
			vendorOrder, ok := vendorOrders[vendorOrderID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInternal, "vendor order missing from aggregate")
			}
			if err := s.checkEligibility(vendorOrder, now); err != nil {
				return err
			}

			groupItems := grouped[vendorOrderID]
			itemIDs := make(dbtypes.UUIDArray, 0, len(groupItems))
			var requested int64
			for _, item := range groupItems {
				itemIDs = append(itemIDs, item.ID)
				requested += item.TotalPricePaisa
			}

			request, err := repo.Create(ctx, &models.ReturnRequest{
				OrderID:              order.ID,
				VendorOrderID:        vendorOrder.ID,
				VendorID:             vendorOrder.VendorID,
				ReturnAuthNumber:     generateReturnAuthNumber(now),
				OrderItemIDs:         itemIDs,
				Reason:               strings.TrimSpace(input.Reason),
				Status:               enums.ReturnStatusRequested,
				RequestedAmountPaisa: requested,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
			}
			created = append(created, *request)

			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReturnRequested,
				AggregateType: enums.AggregateReturnRequest,
				AggregateID:   request.ID,
				Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)},
				Data: payloads.ReturnRequestedEvent{
					ReturnRequestID:      request.ID,
					ReturnAuthNumber:     request.ReturnAuthNumber,
					OrderID:              order.ID,
					VendorOrderID:        vendorOrder.ID,
					VendorID:             vendorOrder.VendorID,
					UserID:               userID,
					RequestedAmountPaisa: requested,
					Reason:               request.Reason,
				},
				Version:    1,
				OccurredAt: now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit return requested")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]RequestDTO, 0, len(created))
	for i := range created {
		out = append(out, *toRequestDTO(&created[i]))
	}
	return out, nil
}

func (s *service) GetRequest(ctx context.Context, userID, requestID uuid.UUID) (*RequestDTO, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}
	if _, err := s.orders.FindOrderForUser(ctx, request.OrderID, userID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toRequestDTO(request), nil
}

func (s *service) ListUserRequests(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]RequestDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return paginateRequests(rows, params.Limit)
}

func (s *service) ListVendorRequests(ctx context.Context, vendorID uuid.UUID, status *enums.ReturnStatus, params pagination.Params) ([]RequestDTO, string, error) {
	if status != nil && !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown return status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID, status, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return paginateRequests(rows, params.Limit)
}

// VendorDecide answers a requested (or pending_info) return with approval,
// rejection, or a request for more information.
func (s *service) VendorDecide(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input DecisionInput) (*RequestDTO, error) {
	switch input.Status {
	case enums.ReturnStatusApproved, enums.ReturnStatusRejected, enums.ReturnStatusPendingInfo:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must approve, reject, or request information")
	}

	return s.transition(ctx, vendorID, requestID, actorUserID, input.Status, func(request *models.ReturnRequest, updates map[string]any) error {
		if input.Status != enums.ReturnStatusApproved {
			if input.Note != nil {
				updates["decision_note"] = *input.Note
			}
			return nil
		}

		approved := request.RequestedAmountPaisa
		if input.ApprovedAmountPaisa != nil {
			approved = *input.ApprovedAmountPaisa
		}
		if approved <= 0 || approved > request.RequestedAmountPaisa {
			return pkgerrors.New(pkgerrors.CodeValidation, "approved amount out of range").
				WithDetails(map[string]any{"requested_amount_paisa": request.RequestedAmountPaisa})
		}

		deduction := request.DeductionPaisa
		if input.DeductionPaisa != nil {
			deduction = *input.DeductionPaisa
		} else if rate := s.cfg.RestockingFee(); rate.IsPositive() {
			deduction = rate.Mul(decimal.NewFromInt(approved)).Round(0).IntPart()
		}
		if deduction < 0 || deduction > approved {
			return pkgerrors.New(pkgerrors.CodeValidation, "deduction out of range")
		}

		updates["approved_amount_paisa"] = approved
		updates["deduction_paisa"] = deduction
		if input.Note != nil {
			updates["decision_note"] = *input.Note
		}
		return nil
	})
}

// MarkItemsReceived confirms the returned goods arrived and flags the order
// items. Inventory is not restocked; returned goods go through inspection
// before any manual stock adjustment.
func (s *service) MarkItemsReceived(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID, input ReceiveInput) (*RequestDTO, error) {
	return s.transition(ctx, vendorID, requestID, actorUserID, enums.ReturnStatusItemsReceived, func(request *models.ReturnRequest, updates map[string]any) error {
		if input.DeductionPaisa != nil {
			deduction := request.DeductionPaisa + *input.DeductionPaisa
			if approved := request.ApprovedAmountPaisa; approved != nil && deduction > *approved {
				return pkgerrors.New(pkgerrors.CodeValidation, "deduction exceeds approved amount")
			}
			updates["deduction_paisa"] = deduction
		}
		if input.Note != nil {
			updates["decision_note"] = *input.Note
		}
		updates["__mark_items_returned"] = true
		return nil
	})
}

// ProcessRefund finishes the return: refund = approved amount minus
// accumulated deductions, recorded as a refund transaction.
func (s *service) ProcessRefund(ctx context.Context, vendorID, requestID, actorUserID uuid.UUID) (*RequestDTO, error) {
	return s.transition(ctx, vendorID, requestID, actorUserID, enums.ReturnStatusRefundProcessed, func(request *models.ReturnRequest, updates map[string]any) error {
		if request.ApprovedAmountPaisa == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return has no approved amount")
		}
		refund := *request.ApprovedAmountPaisa - request.DeductionPaisa
		if refund < 0 {
			refund = 0
		}
		updates["refunded_amount_paisa"] = refund
		updates["__record_refund"] = refund
		return nil
	})
}

// transition loads the request, validates the move, lets the mutator fill
// the update set, persists, and emits the status-change event. Pseudo-keys
// prefixed "__" carry side-effect instructions and never reach the database.
func (s *service) transition(
	ctx context.Context,
	vendorID, requestID, actorUserID uuid.UUID,
	to enums.ReturnStatus,
	mutate func(request *models.ReturnRequest, updates map[string]any) error,
) (*RequestDTO, error) {
	var result *models.ReturnRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindForVendor(ctx, requestID, vendorID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
		}
		if err := ValidateTransition(request.Status, to); err != nil {
			return err
		}

		order, err := s.orders.WithTx(tx).FindOrderByID(ctx, request.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := s.now().UTC()
		updates := map[string]any{"status": to, "updated_at": now}
		if err := mutate(request, updates); err != nil {
			return err
		}

		markItems := false
		if _, ok := updates["__mark_items_returned"]; ok {
			delete(updates, "__mark_items_returned")
			markItems = true
		}
		var refundAmount *int64
		if raw, ok := updates["__record_refund"]; ok {
			delete(updates, "__record_refund")
			amount := raw.(int64)
			refundAmount = &amount
		}

		if err := repo.Update(ctx, request.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return request")
		}

		if markItems {
			if err := repo.UpdateItemStatus(ctx, request.OrderItemIDs, enums.OrderItemStatusReturned); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag returned items")
			}
		}

		if refundAmount != nil {
			if err := s.recordRefund(ctx, tx, repo, request, order, *refundAmount, actorUserID); err != nil {
				return err
			}
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnStatusChanged,
			AggregateType: enums.AggregateReturnRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: actorUserID, VendorID: &vendorID, Role: string(enums.RoleVendor)},
			Data: payloads.ReturnStatusChangedEvent{
				ReturnRequestID:     request.ID,
				OrderID:             request.OrderID,
				VendorID:            request.VendorID,
				UserID:              order.UserID,
				FromStatus:          request.Status,
				ToStatus:            to,
				RefundedAmountPaisa: refundAmount,
			},
			Version:    1,
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit return status change")
		}

		result, err = repo.FindByID(ctx, request.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRequestDTO(result), nil
}

// recordRefund writes the refund transaction and, when every item of the
// vendor order has come back, moves the vendor order to refunded.
func (s *service) recordRefund(ctx context.Context, tx *gorm.DB, repo Repository, request *models.ReturnRequest, order *models.Order, amount int64, actorUserID uuid.UUID) error {
	ordersRepo := s.orders.WithTx(tx)

	if amount > 0 {
		if _, err := s.refunds.CreateRefund(ctx, tx, request.OrderID, request.VendorOrderID, request.ID, order.PaymentMethod, amount); err != nil {
			return err
		}
	}

	active, err := repo.CountItemsByStatus(ctx, request.VendorOrderID, enums.OrderItemStatusActive)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count remaining items")
	}
	if active > 0 {
		return nil
	}

	now := s.now().UTC()
	var fromStatus *string
	for _, vendorOrder := range order.VendorOrders {
		if vendorOrder.ID == request.VendorOrderID {
			from := string(vendorOrder.Status)
			fromStatus = &from
		}
	}
	if err := ordersRepo.UpdateVendorOrder(ctx, request.VendorOrderID, map[string]any{
		"status":     enums.VendorOrderStatusRefunded,
		"updated_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark vendor order refunded")
	}
	return ordersRepo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
		OrderID:       request.OrderID,
		VendorOrderID: &request.VendorOrderID,
		FromStatus:    fromStatus,
		ToStatus:      string(enums.VendorOrderStatusRefunded),
		ActorUserID:   &actorUserID,
	})
}

func (s *service) checkEligibility(vendorOrder models.VendorOrder, now time.Time) error {
	switch vendorOrder.Status {
	case enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted:
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order not delivered yet").
			WithDetails(map[string]any{"vendor_order_id": vendorOrder.ID, "status": vendorOrder.Status})
	}
	if vendorOrder.DeliveredAt == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery date missing")
	}
	// The window counts the delivery day, so the cutoff lands at the end of
	// the final day.
	cutoff := vendorOrder.DeliveredAt.Add(s.cfg.Window())
	if now.After(cutoff) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "return window closed").
			WithDetails(map[string]any{
				"vendor_order_id": vendorOrder.ID,
				"delivered_at":    vendorOrder.DeliveredAt,
				"window_days":     s.cfg.WindowDays,
			})
	}
	return nil
}

func (s *service) claimedItemIDs(ctx context.Context, repo Repository, orderID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	open, err := repo.OpenRequestsByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open returns")
	}
	claimed := make(map[uuid.UUID]struct{})
	for _, request := range open {
		for _, itemID := range request.OrderItemIDs {
			claimed[itemID] = struct{}{}
		}
	}
	return claimed, nil
}

func paginateRequests(rows []models.ReturnRequest, limit int) ([]RequestDTO, string, error) {
	pageSize := pagination.NormalizeLimit(limit)
	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toRequestDTO(&rows[i]))
	}
	return out, nextCursor, nil
}

func generateReturnAuthNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("RA-%s-%s", now.Format("20060102"), suffix)
}
