package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// ShippingFee returns the delivery charge in paisa for a cart of itemCount
// units with the given subtotal. Orders over the free-shipping threshold
// ship at no charge.
func ShippingFee(cfg config.MarketConfig, itemCount int, subtotalPaisa int64) int64 {
	if itemCount <= 0 {
		return 0
	}
	if cfg.FreeShippingOver > 0 && subtotalPaisa >= cfg.FreeShippingOver {
		return 0
	}
	return cfg.ShippingFlatFee + cfg.ShippingPerItem*int64(itemCount)
}

// PaymentFee returns the surcharge for the chosen payment method. Only cash
// on delivery carries a handling fee.
func PaymentFee(cfg config.MarketConfig, method enums.PaymentMethod) int64 {
	if method == enums.PaymentMethodCOD {
		return cfg.CODFee
	}
	return 0
}

// VAT computes value-added tax on the subtotal, rounded to whole paisa.
func VAT(cfg config.MarketConfig, subtotalPaisa int64) int64 {
	return decimal.NewFromInt(subtotalPaisa).
		Mul(cfg.VAT()).
		Round(0).
		IntPart()
}

// Commission splits a vendor subtotal into platform commission and vendor
// earnings. The two always sum back to the subtotal.
func Commission(rate decimal.Decimal, subtotalPaisa int64) (commission, earnings int64) {
	commission = decimal.NewFromInt(subtotalPaisa).
		Mul(rate).
		Round(0).
		IntPart()
	return commission, subtotalPaisa - commission
}
