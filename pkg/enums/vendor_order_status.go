package enums

import "fmt"

// VendorOrderStatus tracks the fulfillment lifecycle of a single vendor's
// slice of a customer order.
type VendorOrderStatus string

const (
	VendorOrderStatusPending    VendorOrderStatus = "pending"
	VendorOrderStatusConfirmed  VendorOrderStatus = "confirmed"
	VendorOrderStatusProcessing VendorOrderStatus = "processing"
	VendorOrderStatusShipped    VendorOrderStatus = "shipped"
	VendorOrderStatusDelivered  VendorOrderStatus = "delivered"
	VendorOrderStatusCompleted  VendorOrderStatus = "completed"
	VendorOrderStatusCancelled  VendorOrderStatus = "cancelled"
	VendorOrderStatusReturned   VendorOrderStatus = "returned"
	VendorOrderStatusRefunded   VendorOrderStatus = "refunded"
)

var validVendorOrderStatuses = []VendorOrderStatus{
	VendorOrderStatusPending,
	VendorOrderStatusConfirmed,
	VendorOrderStatusProcessing,
	VendorOrderStatusShipped,
	VendorOrderStatusDelivered,
	VendorOrderStatusCompleted,
	VendorOrderStatusCancelled,
	VendorOrderStatusReturned,
	VendorOrderStatusRefunded,
}

// String implements fmt.Stringer.
func (v VendorOrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VendorOrderStatus.
func (v VendorOrderStatus) IsValid() bool {
	for _, candidate := range validVendorOrderStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (v VendorOrderStatus) IsTerminal() bool {
	switch v {
	case VendorOrderStatusCancelled, VendorOrderStatusCompleted, VendorOrderStatusRefunded:
		return true
	}
	return false
}

// ParseVendorOrderStatus converts raw input into a VendorOrderStatus.
func ParseVendorOrderStatus(value string) (VendorOrderStatus, error) {
	for _, candidate := range validVendorOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor order status %q", value)
}
