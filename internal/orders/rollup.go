package orders

import "github.com/bazarika/bazarika-backend/pkg/enums"

// DeriveOrderStatus computes the parent order status from its vendor orders.
// It is a pure function: the parent column is only ever written with this
// value, never set independently.
func DeriveOrderStatus(children []enums.VendorOrderStatus) enums.OrderStatus {
	if len(children) == 0 {
		return enums.OrderStatusPending
	}

	active := make([]enums.VendorOrderStatus, 0, len(children))
	for _, status := range children {
		if status != enums.VendorOrderStatusCancelled {
			active = append(active, status)
		}
	}
	if len(active) == 0 {
		return enums.OrderStatusCancelled
	}

	allPending := true
	allCompleted := true
	allDelivered := true
	anyShipped := false
	anyProcessing := false
	for _, status := range active {
		if status != enums.VendorOrderStatusPending {
			allPending = false
		}
		if status != enums.VendorOrderStatusCompleted {
			allCompleted = false
		}
		switch status {
		case enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted,
			enums.VendorOrderStatusReturned, enums.VendorOrderStatusRefunded:
			// counts as delivered for the all-delivered rule
		default:
			allDelivered = false
		}
		if status == enums.VendorOrderStatusShipped {
			anyShipped = true
		}
		if status == enums.VendorOrderStatusProcessing {
			anyProcessing = true
		}
	}

	switch {
	case allPending:
		return enums.OrderStatusPending
	case allCompleted:
		return enums.OrderStatusCompleted
	case allDelivered:
		return enums.OrderStatusDelivered
	case anyShipped:
		return enums.OrderStatusShipped
	case anyProcessing:
		return enums.OrderStatusProcessing
	default:
		return enums.OrderStatusConfirmed
	}
}
