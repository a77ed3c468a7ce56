package returns

import (
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
)

// returnTransitions is the vendor-driven lifecycle of a return request.
// Rejected and refund_processed are terminal.
var returnTransitions = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusRequested: {
		enums.ReturnStatusPendingInfo,
		enums.ReturnStatusApproved,
		enums.ReturnStatusRejected,
	},
	enums.ReturnStatusPendingInfo: {
		enums.ReturnStatusApproved,
		enums.ReturnStatusRejected,
	},
	enums.ReturnStatusApproved: {
		enums.ReturnStatusItemsReceived,
	},
	enums.ReturnStatusItemsReceived: {
		enums.ReturnStatusRefundProcessed,
	},
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from enums.ReturnStatus) []enums.ReturnStatus {
	return returnTransitions[from]
}

// ValidateTransition rejects any movement outside the lifecycle table.
func ValidateTransition(from, to enums.ReturnStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown return status")
	}
	for _, allowed := range returnTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "return status transition not allowed").
		WithDetails(map[string]any{
			"from":    from,
			"to":      to,
			"allowed": returnTransitions[from],
		})
}
