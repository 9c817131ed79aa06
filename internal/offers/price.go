package offers

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Surcharge is one named charge layered on top of the base freight price.
type Surcharge struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// PriceBreakdown is the price of an offer as delivered by the catalog.
//
// Resolution order: a positive Total wins; otherwise BasePrice plus Surcharges;
// otherwise the sum of Legacy keyed fields (older payloads that spell charges
// as top-level keys like "oceanFreight" or "baf"); otherwise zero.
type PriceBreakdown struct {
	BasePrice  *decimal.Decimal `json:"base_price,omitempty"`
	Surcharges []Surcharge      `json:"surcharges,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Legacy     []Surcharge      `json:"legacy,omitempty"`
}

// ResolveTotal applies the fallback chain. It never fails; missing data yields zero.
func (p PriceBreakdown) ResolveTotal() decimal.Decimal {
	if p.Total != nil && p.Total.IsPositive() {
		return *p.Total
	}
	if p.BasePrice != nil || len(p.Surcharges) > 0 {
		total := decimal.Zero
		if p.BasePrice != nil {
			total = total.Add(*p.BasePrice)
		}
		return total.Add(sumCharges(p.Surcharges))
	}
	if len(p.Legacy) > 0 {
		return sumCharges(p.Legacy)
	}
	return decimal.Zero
}

// Resolved returns a copy whose Total holds the resolved value, so resolving it
// again yields the same number.
func (p PriceBreakdown) Resolved() PriceBreakdown {
	out := p.Clone()
	total := p.ResolveTotal()
	out.Total = &total
	return out
}

// IsEmpty reports whether the breakdown carries no price information at all.
func (p PriceBreakdown) IsEmpty() bool {
	return p.BasePrice == nil && p.Total == nil && len(p.Surcharges) == 0 && len(p.Legacy) == 0
}

// Clone deep-copies the breakdown.
func (p PriceBreakdown) Clone() PriceBreakdown {
	out := PriceBreakdown{
		BasePrice: cloneDecimal(p.BasePrice),
		Total:     cloneDecimal(p.Total),
	}
	if p.Surcharges != nil {
		out.Surcharges = append([]Surcharge(nil), p.Surcharges...)
	}
	if p.Legacy != nil {
		out.Legacy = append([]Surcharge(nil), p.Legacy...)
	}
	return out
}

func sumCharges(charges []Surcharge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.Value)
	}
	return total
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

var (
	basePriceKeys = []string{"basePrice", "base_price", "base"}
	totalKeys     = []string{"total", "totalPrice", "total_price"}
	surchargeKeys = []string{"surcharges", "surCharges", "surcharge_items"}
	// keys that never count as legacy charges
	nonChargeKeys = []string{"currency", "currencyCode", "currency_code", "unit", "per"}

	// re-encoded breakdowns carry their legacy charges under this key
	legacyKey = "legacy"

	reservedPriceKeys = keySet(basePriceKeys, totalKeys, surchargeKeys, nonChargeKeys, []string{legacyKey})
)

func keySet(groups ...[]string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, group := range groups {
		for _, key := range group {
			out[key] = struct{}{}
		}
	}
	return out
}

// UnmarshalJSON accepts both the structured breakdown and legacy flat payloads.
func (p *PriceBreakdown) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = PriceBreakdown{}
		return nil
	}

	// a bare number is a precomputed total
	if trimmed[0] != '{' {
		var total decimal.Decimal
		if err := total.UnmarshalJSON(trimmed); err != nil {
			*p = PriceBreakdown{}
			return nil
		}
		*p = PriceBreakdown{Total: &total}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}

	out := PriceBreakdown{}
	if raw, ok := firstField(fields, basePriceKeys); ok {
		out.BasePrice = decodeDecimal(raw)
	}
	if raw, ok := firstField(fields, totalKeys); ok {
		out.Total = decodeDecimal(raw)
	}
	if raw, ok := firstField(fields, surchargeKeys); ok {
		out.Surcharges = decodeSurcharges(raw)
	}
	if raw, ok := fields[legacyKey]; ok && !isNull(raw) {
		out.Legacy = decodeSurcharges(raw)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, skip := reservedPriceKeys[key]; skip {
			continue
		}
		if value := decodeDecimal(fields[key]); value != nil {
			out.Legacy = append(out.Legacy, Surcharge{Name: key, Value: *value})
		}
	}

	*p = out
	return nil
}

func firstField(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			return raw, true
		}
	}
	return nil, false
}

func decodeDecimal(raw json.RawMessage) *decimal.Decimal {
	if isNull(raw) {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		v, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return &v
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(trimmed); err != nil {
		return nil
	}
	return &v
}

func decodeSurcharges(raw json.RawMessage) []Surcharge {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]Surcharge, 0, len(items))
	for _, item := range items {
		var value *decimal.Decimal
		for _, key := range []string{"value", "amount", "price"} {
			if v, ok := item[key]; ok {
				value = decodeDecimal(v)
				break
			}
		}
		if value == nil {
			continue
		}
		out = append(out, Surcharge{Name: decodeName(item), Value: *value})
	}
	return out
}

func decodeName(item map[string]json.RawMessage) string {
	for _, key := range []string{"name", "code", "label"} {
		if raw, ok := item[key]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
