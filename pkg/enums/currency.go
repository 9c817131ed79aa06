package enums

import "strings"

// Currency is an ISO 4217 code as carried by market offers. Offers may quote
// currencies outside the known list; those are kept verbatim.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyCNY Currency = "CNY"
)

var knownCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyCNY,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsKnown reports whether the currency is one of the commonly quoted codes.
func (c Currency) IsKnown() bool {
	for _, candidate := range knownCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// NormalizeCurrency upper-cases and trims a raw currency code.
func NormalizeCurrency(value string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(value)))
}
