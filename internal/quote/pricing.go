package quote

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// OfferTotal is the resolved price of an offer, zero when it carries no price data.
func OfferTotal(offer offers.Offer) decimal.Decimal {
	return offer.Price.ResolveTotal()
}

// OptionTotal sums the stored unit prices of every selection in option. Catalog
// data is never consulted again.
func OptionTotal(option Option) decimal.Decimal {
	total := decimal.Zero
	for _, kind := range enums.CatalogKinds() {
		for _, rec := range option.Selections(kind) {
			total = total.Add(rec.UnitPrice)
		}
	}
	return total
}

// CurrencyTotal is the sum of the selections priced in one currency.
type CurrencyTotal struct {
	Currency enums.Currency  `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// OptionTotalsByCurrency groups OptionTotal by selection currency, sorted by code.
// Amounts are never converted. Selections without a currency group under "".
func OptionTotalsByCurrency(option Option) []CurrencyTotal {
	sums := map[enums.Currency]decimal.Decimal{}
	for _, kind := range enums.CatalogKinds() {
		for _, rec := range option.Selections(kind) {
			sums[rec.Currency] = sums[rec.Currency].Add(rec.UnitPrice)
		}
	}
	out := make([]CurrencyTotal, 0, len(sums))
	for currency, amount := range sums {
		out = append(out, CurrencyTotal{Currency: currency, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// Totals are the derived aggregates of one option.
type Totals struct {
	TotalTeu   float64         `json:"total_teu"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ByCurrency []CurrencyTotal `json:"by_currency"`
}

// ComputeTotals derives every aggregate of option.
func ComputeTotals(option Option) Totals {
	return Totals{
		TotalTeu:   TotalTeu(option.Containers),
		TotalPrice: OptionTotal(option),
		ByCurrency: OptionTotalsByCurrency(option),
	}
}
