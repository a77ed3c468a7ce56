package enums

import "fmt"

// PaymentMethod enumerates the payment options offered at checkout.
type PaymentMethod string

const (
	PaymentMethodBkash        PaymentMethod = "bkash"
	PaymentMethodNagad        PaymentMethod = "nagad"
	PaymentMethodRocket       PaymentMethod = "rocket"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCOD          PaymentMethod = "cod"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodBkash,
	PaymentMethodNagad,
	PaymentMethodRocket,
	PaymentMethodCard,
	PaymentMethodBankTransfer,
	PaymentMethodCOD,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsMobileBanking reports whether the method settles through a mobile wallet.
func (p PaymentMethod) IsMobileBanking() bool {
	switch p {
	case PaymentMethodBkash, PaymentMethodNagad, PaymentMethodRocket:
		return true
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
