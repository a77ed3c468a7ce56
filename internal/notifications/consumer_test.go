package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/idempotency"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
)

type fakeDispatcher struct {
	rows []models.Notification
	err  error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, rows []models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, rows...)
	return nil
}

type fakeVendorOrderLoader struct {
	orders []models.VendorOrder
}

func (f *fakeVendorOrderLoader) FindVendorOrdersByOrder(context.Context, uuid.UUID) ([]models.VendorOrder, error) {
	return f.orders, nil
}

type fakeIdemStore struct {
	duplicate bool
	deleted   []string
}

func (f *fakeIdemStore) Get(context.Context, string) (string, error) { return "", nil }

func (f *fakeIdemStore) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return !f.duplicate, nil
}

func (f *fakeIdemStore) IdempotencyKey(scope, id string) string {
	return "bz:idempotency:" + scope + ":" + id
}

func (f *fakeIdemStore) Del(_ context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func newTestConsumer(t *testing.T, dispatch *fakeDispatcher, orders *fakeVendorOrderLoader, store *fakeIdemStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &Consumer{
		svc:         dispatch,
		orders:      orders,
		idempotency: manager,
		decoders:    notificationDecoders(),
		logg:        logger.New(logger.Options{ServiceName: "test"}),
	}
}

func envelopeMessage(t *testing.T, eventType enums.EventType, version int, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerFansOutOrderCreated(t *testing.T) {
	dispatch := &fakeDispatcher{}
	orders := &fakeVendorOrderLoader{orders: []models.VendorOrder{
		{VendorID: uuid.New(), ItemCount: 2, SubtotalPaisa: 40000},
		{VendorID: uuid.New(), ItemCount: 1, SubtotalPaisa: 17500},
	}}
	consumer := newTestConsumer(t, dispatch, orders, &fakeIdemStore{})

	msg := envelopeMessage(t, enums.EventOrderCreated, 1, payloads.OrderCreatedEvent{
		OrderID:     uuid.New(),
		UserID:      uuid.New(),
		OrderNumber: "BZ-20260825-AB12CD34",
		TotalPaisa:  57500,
	})
	result := consumer.process(context.Background(), msg)

	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	// Customer gets in-app + SMS; each vendor gets in-app + email.
	if got := len(dispatch.rows); got != 6 {
		t.Fatalf("expected 6 rows, got %d", got)
	}
	var vendorRows int
	for _, row := range dispatch.rows {
		if row.RecipientType == enums.RecipientVendor {
			vendorRows++
		}
	}
	if vendorRows != 4 {
		t.Fatalf("expected 4 vendor rows, got %d", vendorRows)
	}
}

func TestConsumerSkipsDuplicateEvents(t *testing.T) {
	dispatch := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatch, &fakeVendorOrderLoader{}, &fakeIdemStore{duplicate: true})

	msg := envelopeMessage(t, enums.EventOrderCreated, 1, payloads.OrderCreatedEvent{OrderID: uuid.New()})
	result := consumer.process(context.Background(), msg)

	if !result.ack {
		t.Fatal("duplicate must ack without redelivery")
	}
	if len(dispatch.rows) != 0 {
		t.Fatalf("duplicate must not dispatch, got %d rows", len(dispatch.rows))
	}
}

func TestConsumerAcksEventsWithNoRecipients(t *testing.T) {
	dispatch := &fakeDispatcher{}
	consumer := newTestConsumer(t, dispatch, &fakeVendorOrderLoader{}, &fakeIdemStore{})

	msg := envelopeMessage(t, enums.EventReservationsSwept, 1, payloads.ReservationsSweptEvent{})
	result := consumer.process(context.Background(), msg)

	if !result.ack || result.nack {
		t.Fatalf("housekeeping events should ack, got %+v", result)
	}
	if len(dispatch.rows) != 0 {
		t.Fatal("no rows expected")
	}
}

func TestConsumerNacksUnknownPayloadVersion(t *testing.T) {
	dispatch := &fakeDispatcher{}
	store := &fakeIdemStore{}
	consumer := newTestConsumer(t, dispatch, &fakeVendorOrderLoader{}, store)

	msg := envelopeMessage(t, enums.EventOrderCreated, 2, payloads.OrderCreatedEvent{OrderID: uuid.New()})
	result := consumer.process(context.Background(), msg)

	if !result.nack {
		t.Fatal("unknown payload version must nack for redelivery")
	}
	if len(store.deleted) == 0 {
		t.Fatal("processed mark must be rolled back before nack")
	}
}
