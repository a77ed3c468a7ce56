package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
)

type capturedEvents struct {
	events []outbox.DomainEvent
}

func (c *capturedEvents) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type paymentsTxRunner struct {
	db *gorm.DB
}

func (r paymentsTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type paymentsFixture struct {
	db     *gorm.DB
	svc    Service
	events *capturedEvents

	userID  uuid.UUID
	vendorA uuid.UUID
	vendorB uuid.UUID
	order   models.Order
	subA    models.VendorOrder
	subB    models.VendorOrder
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()

	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Order{},
		&models.VendorOrder{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.PaymentTransaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &paymentsFixture{
		db:      conn,
		events:  &capturedEvents{},
		userID:  uuid.New(),
		vendorA: uuid.New(),
		vendorB: uuid.New(),
	}

	deliveredAt := time.Now().UTC().Add(-2 * time.Hour)
	f.order = models.Order{
		ID:            uuid.New(),
		OrderNumber:   "BZ-20260825-COD00001",
		UserID:        f.userID,
		Status:        enums.OrderStatusDelivered,
		PaymentMethod: enums.PaymentMethodCOD,
		PaymentStatus: enums.PaymentStatusPending,
		SubtotalPaisa: 60000,
		TotalPaisa:    70000,
		Currency:      enums.CurrencyBDT,
	}
	if err := conn.Omit("VendorOrders", "Items", "StatusHistory").Create(&f.order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	f.subA = models.VendorOrder{
		ID:            uuid.New(),
		OrderID:       f.order.ID,
		VendorID:      f.vendorA,
		SubtotalPaisa: 20000,
		Status:        enums.VendorOrderStatusDelivered,
		ItemCount:     1,
		DeliveredAt:   &deliveredAt,
	}
	f.subB = models.VendorOrder{
		ID:            uuid.New(),
		OrderID:       f.order.ID,
		VendorID:      f.vendorB,
		SubtotalPaisa: 40000,
		Status:        enums.VendorOrderStatusProcessing,
		ItemCount:     1,
	}
	for _, sub := range []*models.VendorOrder{&f.subA, &f.subB} {
		if err := conn.Omit("Items").Create(sub).Error; err != nil {
			t.Fatalf("seed vendor order: %v", err)
		}
	}

	svc, err := NewService(
		NewRepository(conn),
		orders.NewRepository(conn),
		paymentsTxRunner{db: conn},
		nil, // logging gateway stub
		f.events,
		nil,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func expectPaymentCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected %s, got %s", code, appErr.Code())
	}
}

func (f *paymentsFixture) seedPendingCharge(t *testing.T) *models.PaymentTransaction {
	t.Helper()
	var txn *models.PaymentTransaction
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = f.svc.CreatePending(context.Background(), tx, f.order.ID, enums.PaymentMethodCOD, f.order.TotalPaisa)
		return err
	})
	if err != nil {
		t.Fatalf("seed pending charge: %v", err)
	}
	return txn
}

func TestCreatePendingValidates(t *testing.T) {
	t.Parallel()

	f := newPaymentsFixture(t)
	txn := f.seedPendingCharge(t)
	if txn.Status != enums.PaymentStatusPending || txn.Type != enums.PaymentTxnTypeCharge {
		t.Fatalf("unexpected txn %+v", txn)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.svc.CreatePending(context.Background(), tx, f.order.ID, enums.PaymentMethod("check"), 100)
		return err
	})
	expectPaymentCode(t, err, pkgerrors.CodeValidation)
}

func TestCollectCODPartialThenSettles(t *testing.T) {
	t.Parallel()

	f := newPaymentsFixture(t)
	ctx := context.Background()
	actor := uuid.New()
	f.seedPendingCharge(t)

	// Vendor B has not delivered yet.
	_, err := f.svc.CollectCOD(ctx, f.vendorB, f.subB.ID, actor, CollectCODInput{AmountPaisa: 40000})
	expectPaymentCode(t, err, pkgerrors.CodeStateConflict)

	collected, err := f.svc.CollectCOD(ctx, f.vendorA, f.subA.ID, actor, CollectCODInput{AmountPaisa: 25000})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if collected.Type != enums.PaymentTxnTypeCODCollection || collected.Status != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected collection %+v", collected)
	}

	// Partial collection leaves the order unpaid.
	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", order.PaymentStatus)
	}
	if len(f.events.events) != 1 || f.events.events[0].EventType != enums.EventCODCollected {
		t.Fatalf("expected cod.collected event, got %+v", f.events.events)
	}

	// Deliver vendor B and collect the rest; order settles.
	if err := f.db.Model(&models.VendorOrder{}).Where("id = ?", f.subB.ID).
		Update("status", enums.VendorOrderStatusDelivered).Error; err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := f.svc.CollectCOD(ctx, f.vendorB, f.subB.ID, actor, CollectCODInput{AmountPaisa: 45000}); err != nil {
		t.Fatalf("collect rest: %v", err)
	}

	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", order.PaymentStatus)
	}
	var charge models.PaymentTransaction
	if err := f.db.First(&charge, "order_id = ? AND type = ?", f.order.ID, enums.PaymentTxnTypeCharge).Error; err != nil {
		t.Fatalf("load charge: %v", err)
	}
	if charge.Status != enums.PaymentStatusCompleted || charge.CompletedAt == nil {
		t.Fatalf("expected settled charge, got %+v", charge)
	}
}

func TestCollectCODRejectsNonCODOrder(t *testing.T) {
	t.Parallel()

	f := newPaymentsFixture(t)
	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("payment_method", enums.PaymentMethodBkash).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err := f.svc.CollectCOD(context.Background(), f.vendorA, f.subA.ID, uuid.New(), CollectCODInput{AmountPaisa: 1000})
	expectPaymentCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateRefundRecordsCompletedMovement(t *testing.T) {
	t.Parallel()

	f := newPaymentsFixture(t)
	returnID := uuid.New()

	var txn *models.PaymentTransaction
	err := f.db.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = f.svc.CreateRefund(context.Background(), tx, f.order.ID, f.subA.ID, returnID, enums.PaymentMethodBkash, 15000)
		return err
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if txn.Type != enums.PaymentTxnTypeRefund || txn.Status != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected refund %+v", txn)
	}
	if txn.GatewayRef == nil || *txn.GatewayRef == "" {
		t.Fatal("expected gateway reference")
	}
	if txn.ReturnRequestID == nil || *txn.ReturnRequestID != returnID {
		t.Fatal("expected return request linkage")
	}
}

func TestListByOrderScopedToOwner(t *testing.T) {
	t.Parallel()

	f := newPaymentsFixture(t)
	ctx := context.Background()
	f.seedPendingCharge(t)

	rows, err := f.svc.ListByOrder(ctx, f.userID, f.order.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(rows))
	}

	_, err = f.svc.ListByOrder(ctx, uuid.New(), f.order.ID)
	expectPaymentCode(t, err, pkgerrors.CodeNotFound)
}
