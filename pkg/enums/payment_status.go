package enums

// PaymentStatus is the settlement state of a payment transaction.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentTxnType distinguishes charges from compensating movements.
type PaymentTxnType string

const (
	PaymentTxnTypeCharge        PaymentTxnType = "charge"
	PaymentTxnTypeRefund        PaymentTxnType = "refund"
	PaymentTxnTypeCODCollection PaymentTxnType = "cod_collection"
)

// IsValid reports whether the value is a known PaymentTxnType.
func (p PaymentTxnType) IsValid() bool {
	switch p {
	case PaymentTxnTypeCharge, PaymentTxnTypeRefund, PaymentTxnTypeCODCollection:
		return true
	}
	return false
}
