package quote

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

func price(total string) offers.PriceBreakdown {
	d := decimal.RequireFromString(total)
	return offers.PriceBreakdown{Total: &d}
}

func TestToggleIsIdempotent(t *testing.T) {
	start := NewOption()
	start, _ = Toggle(start, offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "keep", Price: price("10")})

	offer := offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "7", Carrier: "Maersk", Price: price("1200")}
	once, outcome := Toggle(start, offer)
	if outcome != ToggleSelected || len(once.OceanLegs) != 2 {
		t.Fatalf("expected selection, got %s %+v", outcome, once.OceanLegs)
	}
	twice, outcome := Toggle(once, offer)
	if outcome != ToggleDeselected {
		t.Fatalf("expected deselection, got %s", outcome)
	}
	if len(twice.OceanLegs) != 1 || twice.OceanLegs[0].OfferID != "keep" {
		t.Fatalf("toggle twice must restore the start, got %+v", twice.OceanLegs)
	}
	if len(once.OceanLegs) != 2 {
		t.Fatal("toggle must not modify its input")
	}
}

func TestToggleTouchesOnlyMatchingSubList(t *testing.T) {
	start := NewOption()
	start, _ = Toggle(start, offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "o1"})
	start, _ = Toggle(start, offers.Offer{Kind: enums.CatalogKindService, Code: "CUS"})

	next, outcome := Toggle(start, offers.Offer{Kind: enums.CatalogKindInlandLeg, RouteRef: "r9"})
	if outcome != ToggleSelected {
		t.Fatalf("expected selection, got %s", outcome)
	}
	if &next.OceanLegs[0] != &start.OceanLegs[0] || &next.Services[0] != &start.Services[0] {
		t.Fatal("untouched sub-lists must be shared, not copied")
	}
	if len(next.InlandLegs) != 1 || next.InlandLegs[0].OfferID != "r9" {
		t.Fatalf("unexpected inland legs %+v", next.InlandLegs)
	}
}

func TestToggleIgnoresOffersWithoutIdentity(t *testing.T) {
	start := NewOption()
	next, outcome := Toggle(start, offers.Offer{Kind: enums.CatalogKindOceanLeg, Carrier: "anonymous"})
	if outcome != ToggleIgnored || len(next.OceanLegs) != 0 {
		t.Fatalf("expected ignored, got %s %+v", outcome, next)
	}
	if _, outcome := Toggle(start, offers.Offer{Kind: enums.CatalogKind("air"), OfferID: "x"}); outcome != ToggleIgnored {
		t.Fatalf("unknown kind must be ignored, got %s", outcome)
	}
}

func TestSelectionIsACopyOfTheOffer(t *testing.T) {
	offer := offers.Offer{
		Kind:    enums.CatalogKindInlandLeg,
		OfferID: "i1",
		Carrier: "Rhenus",
		Origin:  &offers.Location{Name: "Antwerp"},
		Price:   price("300"),
	}
	option, _ := Toggle(NewOption(), offer)

	offer.Carrier = "changed"
	offer.Origin.Name = "changed"
	*offer.Price.Total = decimal.NewFromInt(999)

	rec := option.InlandLegs[0]
	if rec.Carrier != "Rhenus" || rec.Origin != "Antwerp" || !rec.UnitPrice.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("selection changed with its source offer: %+v", rec)
	}
}

func TestSetSelectionNote(t *testing.T) {
	option, _ := Toggle(NewOption(), offers.Offer{Kind: enums.CatalogKindService, OfferID: "s1"})
	noted, err := SetSelectionNote(option, enums.CatalogKindService, "s1", "  customs at destination ")
	if err != nil {
		t.Fatalf("set note: %v", err)
	}
	if noted.Services[0].Note != "customs at destination" || option.Services[0].Note != "" {
		t.Fatalf("unexpected notes %+v / %+v", noted.Services, option.Services)
	}
	if _, err := SetSelectionNote(option, enums.CatalogKindOceanLeg, "s1", "x"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
