package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{EventsTopic: "domain-events"})
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return reg
}

func outboxRow(t *testing.T, eventType enums.EventType, aggregateType enums.AggregateType, data interface{}) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected missing topic to fail")
	}
}

func TestResolveOrderCreated(t *testing.T) {
	reg := testRegistry(t)
	orderID := uuid.New()
	row := outboxRow(t, enums.EventOrderCreated, enums.AggregateOrder, payloads.OrderCreatedEvent{
		OrderID:       orderID,
		OrderNumber:   "BAZ-20260110-000042",
		UserID:        uuid.New(),
		TotalPaisa:    125000,
		PaymentMethod: enums.PaymentMethodBkash,
	})

	resolved, err := reg.Resolve(row)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Descriptor.Topic != "domain-events" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.OrderID != orderID {
		t.Fatalf("expected order id %s, got %s", orderID, payload.OrderID)
	}
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	reg := testRegistry(t)
	row := outboxRow(t, enums.EventType("ghost.event"), enums.AggregateOrder, map[string]any{"x": 1})

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	reg := testRegistry(t)
	row := outboxRow(t, enums.EventOrderCreated, enums.AggregateInventory, payloads.OrderCreatedEvent{})

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsMissingPayload(t *testing.T) {
	reg := testRegistry(t)
	row := outboxRow(t, enums.EventCODCollected, enums.AggregatePayment, nil)

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsMissingAggregateID(t *testing.T) {
	reg := testRegistry(t)
	row := outboxRow(t, enums.EventReturnRequested, enums.AggregateReturnRequest, payloads.ReturnRequestedEvent{})
	row.AggregateID = uuid.Nil

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}
