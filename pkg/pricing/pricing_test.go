package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

func marketConfig() config.MarketConfig {
	return config.MarketConfig{
		CommissionRate:   "0.15",
		VATRate:          "0.15",
		Currency:         "BDT",
		ShippingFlatFee:  6000,
		ShippingPerItem:  1000,
		CODFee:           2000,
		FreeShippingOver: 500000,
	}
}

func TestShippingFee(t *testing.T) {
	cfg := marketConfig()

	if fee := ShippingFee(cfg, 0, 0); fee != 0 {
		t.Fatalf("empty cart must ship free, got %d", fee)
	}
	if fee := ShippingFee(cfg, 3, 100000); fee != 9000 {
		t.Fatalf("expected 9000, got %d", fee)
	}
	if fee := ShippingFee(cfg, 3, 500000); fee != 0 {
		t.Fatalf("threshold order must ship free, got %d", fee)
	}
}

func TestPaymentFee(t *testing.T) {
	cfg := marketConfig()

	if fee := PaymentFee(cfg, enums.PaymentMethodCOD); fee != 2000 {
		t.Fatalf("expected cod fee 2000, got %d", fee)
	}
	if fee := PaymentFee(cfg, enums.PaymentMethodBkash); fee != 0 {
		t.Fatalf("expected no fee for bkash, got %d", fee)
	}
}

func TestVATRounds(t *testing.T) {
	cfg := marketConfig()

	if vat := VAT(cfg, 100000); vat != 15000 {
		t.Fatalf("expected 15000, got %d", vat)
	}
	// 15% of 333 paisa is 49.95, rounds to 50.
	if vat := VAT(cfg, 333); vat != 50 {
		t.Fatalf("expected 50, got %d", vat)
	}
}

func TestCommissionSumsToSubtotal(t *testing.T) {
	rate := decimal.RequireFromString("0.15")

	commission, earnings := Commission(rate, 100001)
	if commission+earnings != 100001 {
		t.Fatalf("split must sum to subtotal: %d + %d", commission, earnings)
	}
	if commission != 15000 {
		t.Fatalf("expected commission 15000, got %d", commission)
	}
}
