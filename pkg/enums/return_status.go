package enums

import "fmt"

// ReturnStatus is the state of a vendor-scoped return request.
type ReturnStatus string

const (
	ReturnStatusRequested       ReturnStatus = "requested"
	ReturnStatusPendingInfo     ReturnStatus = "pending_info"
	ReturnStatusApproved        ReturnStatus = "approved"
	ReturnStatusRejected        ReturnStatus = "rejected"
	ReturnStatusItemsReceived   ReturnStatus = "items_received"
	ReturnStatusRefundProcessed ReturnStatus = "refund_processed"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusRequested,
	ReturnStatusPendingInfo,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusItemsReceived,
	ReturnStatusRefundProcessed,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request can no longer change state.
func (r ReturnStatus) IsTerminal() bool {
	return r == ReturnStatusRejected || r == ReturnStatusRefundProcessed
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
