package enums

// OrderItemStatus tracks the state of a single order line.
type OrderItemStatus string

const (
	OrderItemStatusActive    OrderItemStatus = "active"
	OrderItemStatusCancelled OrderItemStatus = "cancelled"
	OrderItemStatusReturned  OrderItemStatus = "returned"
)

// IsValid reports whether the value is a known OrderItemStatus.
func (o OrderItemStatus) IsValid() bool {
	switch o {
	case OrderItemStatusActive, OrderItemStatusCancelled, OrderItemStatusReturned:
		return true
	}
	return false
}
