package enums

// EventType names a domain event recorded in the outbox.
type EventType string

const (
	EventOrderCreated             EventType = "order.created"
	EventVendorOrderStatusChanged EventType = "vendor_order.status_changed"
	EventReturnRequested          EventType = "return.requested"
	EventReturnStatusChanged      EventType = "return.status_changed"
	EventCODCollected             EventType = "payment.cod_collected"
	EventReservationsSwept        EventType = "inventory.reservations_swept"
)

// AggregateType names the entity an outbox event is anchored to.
type AggregateType string

const (
	AggregateOrder         AggregateType = "order"
	AggregateVendorOrder   AggregateType = "vendor_order"
	AggregateReturnRequest AggregateType = "return_request"
	AggregatePayment       AggregateType = "payment"
	AggregateInventory     AggregateType = "inventory"
)
