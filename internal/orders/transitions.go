package orders

import (
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
)

// vendorOrderTransitions is the authoritative lifecycle table for vendor
// sub-orders. Statuses absent from the map are terminal.
var vendorOrderTransitions = map[enums.VendorOrderStatus][]enums.VendorOrderStatus{
	enums.VendorOrderStatusPending:    {enums.VendorOrderStatusConfirmed, enums.VendorOrderStatusCancelled},
	enums.VendorOrderStatusConfirmed:  {enums.VendorOrderStatusProcessing, enums.VendorOrderStatusCancelled},
	enums.VendorOrderStatusProcessing: {enums.VendorOrderStatusShipped, enums.VendorOrderStatusCancelled},
	enums.VendorOrderStatusShipped:    {enums.VendorOrderStatusDelivered, enums.VendorOrderStatusReturned},
	enums.VendorOrderStatusDelivered:  {enums.VendorOrderStatusCompleted},
	enums.VendorOrderStatusReturned:   {enums.VendorOrderStatusRefunded},
}

// AllowedTransitions lists the statuses a vendor order may move to next.
func AllowedTransitions(from enums.VendorOrderStatus) []enums.VendorOrderStatus {
	return vendorOrderTransitions[from]
}

// ValidateTransition rejects any move not present in the lifecycle table,
// reporting the allowed next states so clients can recover.
func ValidateTransition(from, to enums.VendorOrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	for _, allowed := range vendorOrderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
		WithDetails(map[string]any{
			"from":    from,
			"to":      to,
			"allowed": AllowedTransitions(from),
		})
}

// cancellableByBuyer reports whether a vendor order can still be cancelled
// from the customer side, which is only possible before shipment.
func cancellableByBuyer(status enums.VendorOrderStatus) bool {
	switch status {
	case enums.VendorOrderStatusPending, enums.VendorOrderStatusConfirmed, enums.VendorOrderStatusProcessing:
		return true
	default:
		return false
	}
}
