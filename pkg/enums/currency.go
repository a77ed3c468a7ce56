package enums

// Currency is the ISO currency code attached to monetary amounts.
type Currency string

const (
	CurrencyBDT Currency = "BDT"
	CurrencyUSD Currency = "USD"
)

// IsValid reports whether the currency is supported.
func (c Currency) IsValid() bool {
	return c == CurrencyBDT || c == CurrencyUSD
}
