package orders

import (
	"testing"

	"github.com/bazarika/bazarika-backend/pkg/enums"
)

func TestDeriveOrderStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		children []enums.VendorOrderStatus
		want     enums.OrderStatus
	}{
		{"no children", nil, enums.OrderStatusPending},
		{"all pending", []enums.VendorOrderStatus{enums.VendorOrderStatusPending, enums.VendorOrderStatusPending}, enums.OrderStatusPending},
		{"all cancelled", []enums.VendorOrderStatus{enums.VendorOrderStatusCancelled, enums.VendorOrderStatusCancelled}, enums.OrderStatusCancelled},
		{"all completed", []enums.VendorOrderStatus{enums.VendorOrderStatusCompleted, enums.VendorOrderStatusCompleted}, enums.OrderStatusCompleted},
		{"completed ignores cancelled sibling", []enums.VendorOrderStatus{enums.VendorOrderStatusCompleted, enums.VendorOrderStatusCancelled}, enums.OrderStatusCompleted},
		{"all delivered", []enums.VendorOrderStatus{enums.VendorOrderStatusDelivered, enums.VendorOrderStatusDelivered}, enums.OrderStatusDelivered},
		{"delivered plus completed", []enums.VendorOrderStatus{enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted}, enums.OrderStatusDelivered},
		{"any shipped wins over delivered", []enums.VendorOrderStatus{enums.VendorOrderStatusShipped, enums.VendorOrderStatusDelivered}, enums.OrderStatusShipped},
		{"any processing", []enums.VendorOrderStatus{enums.VendorOrderStatusProcessing, enums.VendorOrderStatusConfirmed}, enums.OrderStatusProcessing},
		{"mixed pending and confirmed", []enums.VendorOrderStatus{enums.VendorOrderStatusPending, enums.VendorOrderStatusConfirmed}, enums.OrderStatusConfirmed},
		{"returned counts as delivered", []enums.VendorOrderStatus{enums.VendorOrderStatusReturned, enums.VendorOrderStatusDelivered}, enums.OrderStatusDelivered},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveOrderStatus(tc.children); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	valid := []struct{ from, to enums.VendorOrderStatus }{
		{enums.VendorOrderStatusPending, enums.VendorOrderStatusConfirmed},
		{enums.VendorOrderStatusPending, enums.VendorOrderStatusCancelled},
		{enums.VendorOrderStatusConfirmed, enums.VendorOrderStatusProcessing},
		{enums.VendorOrderStatusProcessing, enums.VendorOrderStatusShipped},
		{enums.VendorOrderStatusShipped, enums.VendorOrderStatusDelivered},
		{enums.VendorOrderStatusShipped, enums.VendorOrderStatusReturned},
		{enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted},
		{enums.VendorOrderStatusReturned, enums.VendorOrderStatusRefunded},
	}
	for _, tc := range valid {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tc.from, tc.to, err)
		}
	}

	invalid := []struct{ from, to enums.VendorOrderStatus }{
		{enums.VendorOrderStatusPending, enums.VendorOrderStatusShipped},
		{enums.VendorOrderStatusShipped, enums.VendorOrderStatusCancelled},
		{enums.VendorOrderStatusDelivered, enums.VendorOrderStatusReturned},
		{enums.VendorOrderStatusCancelled, enums.VendorOrderStatusConfirmed},
		{enums.VendorOrderStatusCompleted, enums.VendorOrderStatusDelivered},
		{enums.VendorOrderStatusRefunded, enums.VendorOrderStatusPending},
	}
	for _, tc := range invalid {
		if err := ValidateTransition(tc.from, tc.to); err == nil {
			t.Fatalf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}
