package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

func sampleOceanCatalog() []offers.Offer {
	list := make([]offers.Offer, 0, 12)
	for i := 1; i <= 12; i++ {
		origin := "Rotterdam"
		if i%2 == 1 && i <= 9 {
			origin = "Antwerp"
		}
		valid := time.Date(2026, time.Month(i), 15, 0, 0, 0, 0, time.UTC)
		list = append(list, offers.Offer{
			Kind:        enums.CatalogKindOceanLeg,
			OfferID:     fmt.Sprintf("%d", i),
			Carrier:     fmt.Sprintf("Carrier %d", i%3),
			Origin:      &offers.Location{Name: origin},
			Destination: &offers.Location{Name: "Shanghai"},
			ValidUntil:  &valid,
		})
	}
	return list
}

func TestFilterTextSearchIsCaseInsensitive(t *testing.T) {
	list := sampleOceanCatalog()
	got := Filter(list, Criteria{Query: "ANTWERP"})
	if len(got) != 5 {
		t.Fatalf("expected 5 Antwerp offers, got %d", len(got))
	}
	page := Paginate(got, 1, 10)
	if len(page.Items) != 5 || page.Meta.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page.Meta)
	}
	if len(list) != 12 {
		t.Fatal("filter must not modify input")
	}
}

func TestFilterStructuredFields(t *testing.T) {
	distance := 212.5
	list := []offers.Offer{
		{Kind: enums.CatalogKindInlandLeg, RouteRef: "r1", Carrier: "Rhenus", LegPhase: enums.LegPhaseOnCarriage, DistanceKm: &distance,
			Origin: &offers.Location{Name: "Antwerp"}, Destination: &offers.Location{Name: "Duisburg"}},
		{Kind: enums.CatalogKindInlandLeg, RouteRef: "r2", Carrier: "Contargo", LegPhase: enums.LegPhasePreCarriage},
		{Kind: enums.CatalogKindInlandLeg, RouteRef: "r3"},
	}

	if got := Filter(list, Criteria{LegPhase: "on-carriage"}); len(got) != 1 || got[0].RouteRef != "r1" {
		t.Fatalf("leg phase filter: %+v", got)
	}
	if got := Filter(list, Criteria{Carrier: "contargo"}); len(got) != 1 || got[0].RouteRef != "r2" {
		t.Fatalf("carrier filter: %+v", got)
	}
	if got := Filter(list, Criteria{Origin: "antwerp"}); len(got) != 1 {
		t.Fatalf("origin filter: %+v", got)
	}
	if got := Filter(list, Criteria{Destination: "Duis"}); len(got) != 0 {
		t.Fatalf("structured filters are exact, got %+v", got)
	}
	if got := Filter(list, Criteria{Query: "212.5"}); len(got) != 1 {
		t.Fatalf("distance text search: %+v", got)
	}
	if got := Filter(list, Criteria{Query: "pre_carriage"}); len(got) != 1 || got[0].RouteRef != "r2" {
		t.Fatalf("leg phase text search: %+v", got)
	}
}

func TestFilterAbsentFieldsNeverMatch(t *testing.T) {
	list := []offers.Offer{{Kind: enums.CatalogKindOceanLeg, OfferID: "bare"}}
	for _, c := range []Criteria{
		{Origin: "x"},
		{Destination: "x"},
		{Carrier: "x"},
		{LegPhase: "main_carriage"},
		{Query: "x"},
		{ValidOn: timePtr(time.Now())},
	} {
		if got := Filter(list, c); len(got) != 0 {
			t.Fatalf("criteria %+v matched an offer without the field", c)
		}
	}
	if got := Filter(list, Criteria{}); len(got) != 1 {
		t.Fatal("empty criteria must keep every offer")
	}
}

func TestFilterValidOnKeepsSameDay(t *testing.T) {
	list := sampleOceanCatalog()
	on := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)
	got := Filter(list, Criteria{ValidOn: &on})
	if len(got) != 3 {
		t.Fatalf("expected offers valid through Oct-Dec, got %d", len(got))
	}
}

func TestFilterIsMonotonic(t *testing.T) {
	list := sampleOceanCatalog()
	steps := []Criteria{
		{},
		{Query: "antwerp"},
		{Query: "antwerp", Carrier: "carrier 1"},
		{Query: "antwerp", Carrier: "carrier 1", ValidOn: timePtr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))},
	}
	previous := len(list) + 1
	for _, c := range steps {
		got := len(Filter(list, c))
		if got > previous {
			t.Fatalf("adding criteria grew the result: %d > %d for %+v", got, previous, c)
		}
		previous = got
	}
}

func TestPaginateOutOfRange(t *testing.T) {
	page := Paginate(sampleOceanCatalog(), 3, 10)
	if len(page.Items) != 0 || page.Meta.TotalPages != 2 || page.Meta.TotalItems != 12 {
		t.Fatalf("unexpected page %+v", page)
	}
	second := Paginate(sampleOceanCatalog(), 2, 10)
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(second.Items))
	}
}

func TestViewCriteriaChangeResetsPage(t *testing.T) {
	view := NewView().WithPage(2)
	if view.Page != 2 {
		t.Fatalf("expected page 2, got %d", view.Page)
	}
	same := view.WithCriteria(Criteria{})
	if same.Page != 2 {
		t.Fatalf("unchanged criteria must keep the page, got %d", same.Page)
	}
	changed := view.WithCriteria(Criteria{Query: "antwerp"})
	if changed.Page != 1 {
		t.Fatalf("changed criteria must reset to page 1, got %d", changed.Page)
	}
	if view.Page != 2 {
		t.Fatal("views are values")
	}

	page := NewView().WithCriteria(Criteria{Query: "rotterdam"}).WithPage(1).Apply(sampleOceanCatalog())
	if page.Meta.TotalItems != 7 {
		t.Fatalf("expected 7 Rotterdam offers, got %d", page.Meta.TotalItems)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
