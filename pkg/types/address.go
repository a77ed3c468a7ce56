package types

import (
	"fmt"
	"strings"
)

// Address is a Bangladesh delivery address, stored as jsonb on orders.
type Address struct {
	RecipientName  string  `json:"recipient_name"`
	RecipientPhone string  `json:"recipient_phone"`
	Line1          string  `json:"line1"`
	Line2          *string `json:"line2,omitempty"`
	Area           string  `json:"area"`
	Upazila        *string `json:"upazila,omitempty"`
	District       string  `json:"district"`
	Division       string  `json:"division"`
	PostalCode     string  `json:"postal_code"`
	Country        string  `json:"country"`
}

// Divisions of Bangladesh accepted in shipping addresses.
var divisions = map[string]struct{}{
	"dhaka":      {},
	"chattogram": {},
	"rajshahi":   {},
	"khulna":     {},
	"barishal":   {},
	"sylhet":     {},
	"rangpur":    {},
	"mymensingh": {},
}

// Validate checks the fields required before an address can ship.
func (a Address) Validate() error {
	if strings.TrimSpace(a.RecipientName) == "" {
		return fmt.Errorf("address: missing recipient_name")
	}
	if strings.TrimSpace(a.RecipientPhone) == "" {
		return fmt.Errorf("address: missing recipient_phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.District) == "" {
		return fmt.Errorf("address: missing district")
	}
	division := strings.ToLower(strings.TrimSpace(a.Division))
	if division == "" {
		return fmt.Errorf("address: missing division")
	}
	if _, ok := divisions[division]; !ok {
		return fmt.Errorf("address: unknown division %q", a.Division)
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postal_code")
	}
	if country := strings.TrimSpace(a.Country); country != "" && !strings.EqualFold(country, "BD") {
		return fmt.Errorf("address: unsupported country %q", a.Country)
	}
	return nil
}

// Normalized returns a copy with whitespace trimmed and country defaulted.
func (a Address) Normalized() Address {
	out := a
	out.RecipientName = strings.TrimSpace(a.RecipientName)
	out.RecipientPhone = strings.TrimSpace(a.RecipientPhone)
	out.Line1 = strings.TrimSpace(a.Line1)
	out.Area = strings.TrimSpace(a.Area)
	out.District = strings.TrimSpace(a.District)
	out.Division = strings.TrimSpace(a.Division)
	out.PostalCode = strings.TrimSpace(a.PostalCode)
	if strings.TrimSpace(a.Country) == "" {
		out.Country = "BD"
	}
	return out
}
