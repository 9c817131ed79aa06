package quote

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

func TestOfferTotalWithoutPriceIsZero(t *testing.T) {
	if got := OfferTotal(offers.Offer{Kind: enums.CatalogKindService, Code: "x"}); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestOptionTotalUsesStoredUnitPrices(t *testing.T) {
	ocean := offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "o", Currency: enums.CurrencyUSD, Price: price("1200.50")}
	inland := offers.Offer{Kind: enums.CatalogKindInlandLeg, OfferID: "i", Currency: enums.CurrencyEUR, Price: price("300")}
	base := decimal.NewFromInt(80)
	service := offers.Offer{
		Kind:     enums.CatalogKindService,
		OfferID:  "s",
		Currency: enums.CurrencyUSD,
		Price: offers.PriceBreakdown{
			BasePrice:  &base,
			Surcharges: []offers.Surcharge{{Name: "doc", Value: decimal.NewFromInt(20)}},
		},
	}

	option := NewOption()
	for _, o := range []offers.Offer{ocean, inland, service} {
		option, _ = Toggle(option, o)
	}

	*ocean.Price.Total = decimal.NewFromInt(1)
	if got := OptionTotal(option); !got.Equal(decimal.RequireFromString("1600.50")) {
		t.Fatalf("expected 1600.50, got %s", got)
	}

	byCurrency := OptionTotalsByCurrency(option)
	if len(byCurrency) != 2 {
		t.Fatalf("expected 2 currencies, got %+v", byCurrency)
	}
	if byCurrency[0].Currency != enums.CurrencyEUR || !byCurrency[0].Amount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected EUR total %+v", byCurrency[0])
	}
	if byCurrency[1].Currency != enums.CurrencyUSD || !byCurrency[1].Amount.Equal(decimal.RequireFromString("1300.50")) {
		t.Fatalf("unexpected USD total %+v", byCurrency[1])
	}
}

func TestOptionTotalOfEmptyOptionIsZero(t *testing.T) {
	totals := ComputeTotals(NewOption())
	if !totals.TotalPrice.IsZero() || totals.TotalTeu != 0 || len(totals.ByCurrency) != 0 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}
