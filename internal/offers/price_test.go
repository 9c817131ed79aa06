package offers

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestResolveTotalFallbackOrder(t *testing.T) {
	t.Parallel()

	breakdown := PriceBreakdown{
		BasePrice:  dec("100"),
		Surcharges: []Surcharge{{Value: decimal.NewFromInt(20)}, {Value: decimal.NewFromInt(5)}},
	}
	if got := breakdown.ResolveTotal(); !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected base+surcharges 125, got %s", got)
	}

	breakdown.Total = dec("200")
	if got := breakdown.ResolveTotal(); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected authoritative total 200, got %s", got)
	}

	if got := (PriceBreakdown{}).ResolveTotal(); !got.IsZero() {
		t.Fatalf("expected zero for empty breakdown, got %s", got)
	}
}

func TestResolveTotalIgnoresNonPositiveTotal(t *testing.T) {
	t.Parallel()

	breakdown := PriceBreakdown{BasePrice: dec("80"), Total: dec("0")}
	if got := breakdown.ResolveTotal(); !got.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("zero total must not be authoritative, got %s", got)
	}
}

func TestResolveTotalLegacyFields(t *testing.T) {
	t.Parallel()

	breakdown := PriceBreakdown{Legacy: []Surcharge{
		{Name: "baf", Value: decimal.NewFromInt(30)},
		{Name: "oceanFreight", Value: decimal.NewFromInt(900)},
	}}
	if got := breakdown.ResolveTotal(); !got.Equal(decimal.NewFromInt(930)) {
		t.Fatalf("expected legacy sum 930, got %s", got)
	}

	breakdown.BasePrice = dec("50")
	if got := breakdown.ResolveTotal(); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("structured fields must win over legacy keys, got %s", got)
	}
}

func TestResolvedIsIdempotent(t *testing.T) {
	t.Parallel()

	cases := []PriceBreakdown{
		{},
		{BasePrice: dec("100"), Surcharges: []Surcharge{{Value: decimal.NewFromInt(20)}}},
		{Total: dec("-5"), BasePrice: dec("10")},
		{Legacy: []Surcharge{{Name: "thc", Value: decimal.NewFromInt(12)}}},
		{BasePrice: dec("-40")},
	}
	for i, c := range cases {
		once := c.Resolved()
		twice := once.Resolved()
		if !once.ResolveTotal().Equal(c.ResolveTotal()) || !twice.ResolveTotal().Equal(c.ResolveTotal()) {
			t.Fatalf("case %d: resolving is not idempotent: %s vs %s vs %s", i, c.ResolveTotal(), once.ResolveTotal(), twice.ResolveTotal())
		}
	}
}

func TestPriceBreakdownUnmarshalStructured(t *testing.T) {
	t.Parallel()

	var p PriceBreakdown
	payload := `{"basePrice": 100, "surcharges": [{"name":"BAF","value":20},{"code":"THC","amount":"5"}], "currency":"EUR"}`
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.BasePrice == nil || !p.BasePrice.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected base price %v", p.BasePrice)
	}
	if len(p.Surcharges) != 2 || p.Surcharges[1].Name != "THC" {
		t.Fatalf("unexpected surcharges %+v", p.Surcharges)
	}
	if len(p.Legacy) != 0 {
		t.Fatalf("currency must not be read as a legacy charge: %+v", p.Legacy)
	}
	if got := p.ResolveTotal(); !got.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", got)
	}
}

func TestPriceBreakdownUnmarshalLegacy(t *testing.T) {
	t.Parallel()

	var p PriceBreakdown
	if err := json.Unmarshal([]byte(`{"oceanFreight":"1200.50","baf":100,"note":"all in"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Legacy) != 2 || p.Legacy[0].Name != "baf" {
		t.Fatalf("expected sorted legacy charges, got %+v", p.Legacy)
	}
	if got := p.ResolveTotal(); !got.Equal(decimal.RequireFromString("1300.50")) {
		t.Fatalf("expected 1300.50, got %s", got)
	}
}

func TestPriceBreakdownUnmarshalBareNumberAndGarbage(t *testing.T) {
	t.Parallel()

	var p PriceBreakdown
	if err := json.Unmarshal([]byte(`450`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := p.ResolveTotal(); !got.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("expected 450, got %s", got)
	}

	var empty PriceBreakdown
	if err := json.Unmarshal([]byte(`["nope"]`), &empty); err != nil {
		t.Fatalf("unexpected error for unrecognized shape: %v", err)
	}
	if !empty.IsEmpty() {
		t.Fatalf("expected empty breakdown, got %+v", empty)
	}
}

func TestPriceBreakdownRoundTripKeepsTotal(t *testing.T) {
	t.Parallel()

	orig := PriceBreakdown{Legacy: []Surcharge{{Name: "baf", Value: decimal.NewFromInt(7)}}}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back PriceBreakdown
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.ResolveTotal().Equal(orig.ResolveTotal()) {
		t.Fatalf("round trip changed total: %s vs %s", back.ResolveTotal(), orig.ResolveTotal())
	}
}

func TestPriceBreakdownCloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := PriceBreakdown{BasePrice: dec("10"), Surcharges: []Surcharge{{Name: "a", Value: decimal.NewFromInt(1)}}}
	cp := orig.Clone()
	cp.Surcharges[0].Name = "changed"
	*cp.BasePrice = decimal.NewFromInt(99)
	if orig.Surcharges[0].Name != "a" || !orig.BasePrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("clone aliases the original: %+v", orig)
	}
}
