package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/idempotency"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
	"github.com/bazarika/bazarika-backend/pkg/outbox/registry"
)

const fanoutConsumer = "notifications-fanout"

type dispatcher interface {
	Dispatch(ctx context.Context, rows []models.Notification) error
}

// vendorOrderLoader resolves vendor recipients when the event payload only
// carries vendor order ids.
type vendorOrderLoader interface {
	FindVendorOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorOrder, error)
}

// Consumer watches domain events and fans each one out into per-recipient,
// per-channel notification rows.
type Consumer struct {
	svc          dispatcher
	orders       vendorOrderLoader
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// notificationDecoders registers the v1 payload shape for every event the
// fan-out cares about. Unknown versions fail decode and the message nacks.
func notificationDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	registry.RegisterTyped[payloads.OrderCreatedEvent](decoders, enums.EventOrderCreated, 1)
	registry.RegisterTyped[payloads.VendorOrderStatusChangedEvent](decoders, enums.EventVendorOrderStatusChanged, 1)
	registry.RegisterTyped[payloads.ReturnRequestedEvent](decoders, enums.EventReturnRequested, 1)
	registry.RegisterTyped[payloads.ReturnStatusChangedEvent](decoders, enums.EventReturnStatusChanged, 1)
	registry.RegisterTyped[payloads.CODCollectedEvent](decoders, enums.EventCODCollected, 1)
	return decoders
}

// NewConsumer builds the notification fan-out consumer.
func NewConsumer(svc dispatcher, orders vendorOrderLoader, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if orders == nil {
		return nil, fmt.Errorf("vendor order loader required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		orders:       orders,
		subscription: subscription,
		idempotency:  manager,
		decoders:     notificationDecoders(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.EventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if !notifiableEvent(eventType) {
		c.logg.Info(logCtx, "skipping event with no recipients")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, fanoutConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	rows, err := c.buildRows(ctx, eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notifications", err)
		_ = c.idempotency.Delete(ctx, fanoutConsumer, eventID)
		return processResult{nack: true}
	}
	if len(rows) == 0 {
		return processResult{ack: true}
	}

	if err := c.svc.Dispatch(ctx, rows); err != nil {
		c.logg.Error(logCtx, "failed to dispatch notifications", err)
		_ = c.idempotency.Delete(ctx, fanoutConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{"count": len(rows)}), "notifications dispatched")
	return processResult{ack: true}
}

func notifiableEvent(eventType enums.EventType) bool {
	switch eventType {
	case enums.EventOrderCreated,
		enums.EventVendorOrderStatusChanged,
		enums.EventReturnRequested,
		enums.EventReturnStatusChanged,
		enums.EventCODCollected:
		return true
	default:
		return false
	}
}

func (c *Consumer) buildRows(ctx context.Context, eventType enums.EventType, envelope outbox.PayloadEnvelope) ([]models.Notification, error) {
	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, err
	}
	switch payload := decoded.(type) {
	case *payloads.OrderCreatedEvent:
		return c.orderCreatedRows(ctx, *payload)
	case *payloads.VendorOrderStatusChangedEvent:
		return vendorOrderStatusRows(*payload), nil
	case *payloads.ReturnRequestedEvent:
		return returnRequestedRows(*payload), nil
	case *payloads.ReturnStatusChangedEvent:
		return returnStatusRows(*payload), nil
	case *payloads.CODCollectedEvent:
		return codCollectedRows(envelope, *payload), nil
	default:
		return nil, nil
	}
}

func (c *Consumer) orderCreatedRows(ctx context.Context, payload payloads.OrderCreatedEvent) ([]models.Notification, error) {
	title := "Order placed"
	body := fmt.Sprintf("Your order %s has been placed. Total: %s.", payload.OrderNumber, formatBDT(payload.TotalPaisa))

	rows := []models.Notification{
		row(payload.OrderID, enums.EventOrderCreated, enums.RecipientCustomer, payload.UserID, enums.ChannelInApp, title, body),
		row(payload.OrderID, enums.EventOrderCreated, enums.RecipientCustomer, payload.UserID, enums.ChannelSMS, title, body),
	}

	// The payload carries vendor order ids only; resolve the vendors behind them.
	vendorOrders, err := c.orders.FindVendorOrdersByOrder(ctx, payload.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load vendor orders: %w", err)
	}
	for _, sub := range vendorOrders {
		vendorBody := fmt.Sprintf("New order %s: %d item(s), %s.", payload.OrderNumber, sub.ItemCount, formatBDT(sub.SubtotalPaisa))
		rows = append(rows,
			row(payload.OrderID, enums.EventOrderCreated, enums.RecipientVendor, sub.VendorID, enums.ChannelInApp, "New order received", vendorBody),
			row(payload.OrderID, enums.EventOrderCreated, enums.RecipientVendor, sub.VendorID, enums.ChannelEmail, "New order received", vendorBody),
		)
	}
	return rows, nil
}

func vendorOrderStatusRows(payload payloads.VendorOrderStatusChangedEvent) []models.Notification {
	title := "Order update"
	body := fmt.Sprintf("Part of your order is now %s.", payload.ToStatus)

	rows := []models.Notification{
		row(payload.OrderID, enums.EventVendorOrderStatusChanged, enums.RecipientCustomer, payload.UserID, enums.ChannelInApp, title, body),
	}
	// Shipment milestones also go out over SMS.
	switch payload.ToStatus {
	case enums.VendorOrderStatusShipped, enums.VendorOrderStatusDelivered:
		rows = append(rows, row(payload.OrderID, enums.EventVendorOrderStatusChanged, enums.RecipientCustomer, payload.UserID, enums.ChannelSMS, title, body))
	}
	return rows
}

func returnRequestedRows(payload payloads.ReturnRequestedEvent) []models.Notification {
	title := "Return requested"
	body := fmt.Sprintf("Return %s opened for %s: %s", payload.ReturnAuthNumber, formatBDT(payload.RequestedAmountPaisa), payload.Reason)
	return []models.Notification{
		row(payload.OrderID, enums.EventReturnRequested, enums.RecipientVendor, payload.VendorID, enums.ChannelInApp, title, body),
		row(payload.OrderID, enums.EventReturnRequested, enums.RecipientVendor, payload.VendorID, enums.ChannelEmail, title, body),
	}
}

func returnStatusRows(payload payloads.ReturnStatusChangedEvent) []models.Notification {
	title := "Return update"
	body := fmt.Sprintf("Your return is now %s.", payload.ToStatus)
	if payload.ToStatus == enums.ReturnStatusRefundProcessed && payload.RefundedAmountPaisa != nil {
		title = "Refund issued"
		body = fmt.Sprintf("Your refund of %s has been processed.", formatBDT(*payload.RefundedAmountPaisa))
	}

	rows := []models.Notification{
		row(payload.OrderID, enums.EventReturnStatusChanged, enums.RecipientCustomer, payload.UserID, enums.ChannelInApp, title, body),
	}
	if payload.ToStatus == enums.ReturnStatusRefundProcessed {
		rows = append(rows, row(payload.OrderID, enums.EventReturnStatusChanged, enums.RecipientCustomer, payload.UserID, enums.ChannelEmail, title, body))
	}
	return rows
}

func codCollectedRows(envelope outbox.PayloadEnvelope, payload payloads.CODCollectedEvent) []models.Notification {
	if envelope.Actor == nil || envelope.Actor.VendorID == nil {
		return nil
	}
	body := fmt.Sprintf("Cash collection of %s recorded.", formatBDT(payload.AmountPaisa))
	return []models.Notification{
		row(payload.OrderID, enums.EventCODCollected, enums.RecipientVendor, *envelope.Actor.VendorID, enums.ChannelInApp, "COD collected", body),
	}
}

func row(orderID uuid.UUID, eventType enums.EventType, recipientType enums.RecipientType, recipientID uuid.UUID, channel enums.NotificationChannel, title, body string) models.Notification {
	id := orderID
	return models.Notification{
		OrderID:       &id,
		EventType:     eventType,
		RecipientType: recipientType,
		RecipientID:   recipientID,
		Channel:       channel,
		Status:        enums.NotificationStatusPending,
		Title:         title,
		Body:          body,
	}
}

// formatBDT renders a paisa amount in taka for message bodies.
func formatBDT(paisa int64) string {
	sign := ""
	if paisa < 0 {
		sign = "-"
		paisa = -paisa
	}
	return fmt.Sprintf("%s৳%d.%02d", sign, paisa/100, paisa%100)
}
