package quote

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

func newTestStore() *Store {
	seq := 0
	return NewStore(NewDraftQuote("draft-1"),
		WithStoreClock(func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("opt-%d", seq)
		}),
	)
}

func toggleIn(offer offers.Offer) OptionMutator {
	return func(o Option) (Option, error) {
		next, _ := Toggle(o, offer)
		return next, nil
	}
}

func TestStoreCapEnforcement(t *testing.T) {
	store := newTestStore()
	for i := 1; i <= MaxSavedOptions; i++ {
		if _, err := store.SaveCurrentOption(fmt.Sprintf("Option %d", i)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindService, Code: "CUS"})); err != nil {
		t.Fatalf("update: %v", err)
	}
	before := store.Version()

	_, err := store.SaveCurrentOption("X")
	if !errors.Is(err, ErrCapExceeded) || !pkgerrors.HasCode(err, pkgerrors.CodeCapacityExceeded) {
		t.Fatalf("expected cap exceeded, got %v", err)
	}
	draft := store.Get()
	if len(draft.ExistingOptions) != MaxSavedOptions {
		t.Fatalf("expected %d saved options, got %d", MaxSavedOptions, len(draft.ExistingOptions))
	}
	if len(draft.CurrentOption.Services) != 1 || store.Version() != before {
		t.Fatal("rejected save must leave the draft unchanged")
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := newTestStore()
	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "o1"})); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	saved, err := store.SaveCurrentOption("Option A")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindOceanLeg, OfferID: "o2"})); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	saved.OceanLegs[0].Note = "mutated through returned copy"
	got := store.Get()
	got.ExistingOptions[0].OceanLegs[0].OfferID = "mutated through Get"

	draft := store.Get()
	legs := draft.ExistingOptions[0].OceanLegs
	if len(legs) != 1 || legs[0].OfferID != "o1" || legs[0].Note != "" {
		t.Fatalf("saved option changed: %+v", legs)
	}
	if len(draft.CurrentOption.OceanLegs) != 1 || draft.CurrentOption.OceanLegs[0].OfferID != "o2" {
		t.Fatalf("unexpected current option %+v", draft.CurrentOption.OceanLegs)
	}
}

func TestStoreOptionStates(t *testing.T) {
	store := newTestStore()
	if got := store.Get().CurrentOption.State(); got != enums.OptionStateEmpty {
		t.Fatalf("expected empty, got %s", got)
	}
	if _, err := store.UpdateCurrentOption(func(o Option) (Option, error) {
		containers, err := AddContainer(o.Containers, enums.ContainerType20Standard, 1)
		o.Containers = containers
		return o, err
	}); err != nil {
		t.Fatalf("add container: %v", err)
	}
	if got := store.Get().CurrentOption.State(); got != enums.OptionStateBuilding {
		t.Fatalf("expected building, got %s", got)
	}
	saved, err := store.SaveCurrentOption("Option A")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.State() != enums.OptionStateSaved || saved.ID != "opt-1" || saved.SavedAt == nil {
		t.Fatalf("unexpected saved option %+v", saved)
	}
	if got := store.Get().CurrentOption.State(); got != enums.OptionStateEmpty {
		t.Fatalf("current option must reset, got %s", got)
	}
}

func TestStoreFailedMutationChangesNothing(t *testing.T) {
	store := newTestStore()
	before := store.Version()
	_, err := store.UpdateCurrentOption(func(o Option) (Option, error) {
		containers, err := AddContainer(o.Containers, enums.ContainerType40HighCube, 0)
		o.Containers = containers
		return o, err
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.Version() != before {
		t.Fatal("version must not move on a rejected mutation")
	}
	if _, err := store.SaveCurrentOption("  "); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
}

func TestStorePanickingMutatorReleasesLock(t *testing.T) {
	store := newTestStore()
	before := store.Get()

	mutations := map[string]func(){
		"option": func() {
			_, _ = store.UpdateCurrentOption(func(Option) (Option, error) { panic("boom") })
		},
		"basics": func() {
			_, _ = store.UpdateBasics(func(Basics) (Basics, error) { panic("boom") })
		},
	}
	for name, mutate := range mutations {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic to propagate", name)
				}
			}()
			mutate()
		}()
	}

	done := make(chan DraftQuote, 1)
	go func() { done <- store.Get() }()
	select {
	case got := <-done:
		if !reflect.DeepEqual(got, before) {
			t.Fatalf("draft changed after panicking mutators: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("store stayed locked after a panicking mutator")
	}
	if store.Version() != 0 {
		t.Fatalf("version must not move, got %d", store.Version())
	}
}

func TestStoreRemoveAndLoadOption(t *testing.T) {
	store := newTestStore()
	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindInlandLeg, RouteRef: "r1"})); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	first, _ := store.SaveCurrentOption("A")
	second, _ := store.SaveCurrentOption("B")

	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindService, Code: "INS"})); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := store.RemoveOption(second.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	draft := store.Get()
	if len(draft.ExistingOptions) != 1 || draft.ExistingOptions[0].ID != first.ID {
		t.Fatalf("unexpected options %+v", draft.ExistingOptions)
	}
	if len(draft.CurrentOption.Services) != 1 {
		t.Fatal("remove must not touch the current option")
	}
	if err := store.RemoveOption("missing"); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	loaded, err := store.LoadOption(first.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != "" || loaded.SavedAt != nil || len(loaded.InlandLegs) != 1 {
		t.Fatalf("unexpected loaded option %+v", loaded)
	}
	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{Kind: enums.CatalogKindInlandLeg, RouteRef: "r1"})); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if saved, _ := store.Get().FindOption(first.ID); len(saved.InlandLegs) != 1 {
		t.Fatal("editing a loaded copy must not change the saved option")
	}
}

func TestStoreTotalsCachedByVersion(t *testing.T) {
	store := newTestStore()
	total := decimal.NewFromInt(500)
	if _, err := store.UpdateCurrentOption(toggleIn(offers.Offer{
		Kind:    enums.CatalogKindOceanLeg,
		OfferID: "o1",
		Price:   offers.PriceBreakdown{Total: &total},
	})); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	first := store.Totals()
	if first.Version != store.Version() || !first.Current.TotalPrice.Equal(total) {
		t.Fatalf("unexpected totals %+v", first)
	}
	if store.derived == nil || store.derived.Version != first.Version {
		t.Fatal("totals must be cached for the current version")
	}

	saved, _ := store.SaveCurrentOption("A")
	second := store.Totals()
	if second.Version == first.Version || !second.Current.TotalPrice.IsZero() {
		t.Fatalf("totals must recompute after a mutation, got %+v", second)
	}
	if !second.Existing[saved.ID].TotalPrice.Equal(total) {
		t.Fatalf("unexpected saved totals %+v", second.Existing)
	}
}

func TestStoreNotifiesListeners(t *testing.T) {
	store := newTestStore()
	var versions []uint64
	cancel := store.Subscribe(func(d DraftQuote, version uint64) {
		versions = append(versions, version)
	})
	if _, err := store.UpdateBasics(func(b Basics) (Basics, error) {
		b.OriginPort = "BEANR"
		return b, nil
	}); err != nil {
		t.Fatalf("update basics: %v", err)
	}
	cancel()
	if _, err := store.SaveCurrentOption("A"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(versions) != 1 || versions[0] != 1 {
		t.Fatalf("unexpected notifications %v", versions)
	}
	if store.Get().Basics.OriginPort != "BEANR" {
		t.Fatal("basics not updated")
	}
}

func TestQuoteBuildingScenario(t *testing.T) {
	list := make([]offers.Offer, 0, 12)
	for i := 1; i <= 12; i++ {
		destination := "Hamburg"
		if i >= 4 && i <= 8 {
			destination = "Antwerp"
		}
		total := decimal.NewFromInt(int64(1000 + i))
		list = append(list, offers.Offer{
			Kind:        enums.CatalogKindOceanLeg,
			OfferID:     fmt.Sprintf("%d", i),
			Carrier:     "CMA CGM",
			Origin:      &offers.Location{Name: "Shanghai"},
			Destination: &offers.Location{Name: destination},
			Price:       offers.PriceBreakdown{Total: &total},
		})
	}

	view := catalog.NewView().WithCriteria(catalog.Criteria{Destination: "Antwerp"})
	page := view.Apply(list)
	if page.Meta.TotalItems != 5 {
		t.Fatalf("expected 5 Antwerp offers, got %d", page.Meta.TotalItems)
	}
	var picked offers.Offer
	for _, o := range page.Items {
		if o.OfferID == "7" {
			picked = o
		}
	}

	store := newTestStore()
	if _, err := store.UpdateCurrentOption(toggleIn(picked)); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	current := store.Get().CurrentOption
	if len(current.OceanLegs) != 1 || current.OceanLegs[0].OfferID != "7" {
		t.Fatalf("unexpected ocean legs %+v", current.OceanLegs)
	}

	if _, err := store.UpdateCurrentOption(func(o Option) (Option, error) {
		containers, err := AddContainer(o.Containers, enums.ContainerType40HighCube, 2)
		o.Containers = containers
		return o, err
	}); err != nil {
		t.Fatalf("add container: %v", err)
	}
	if got := store.Totals().Current.TotalTeu; got != 4 {
		t.Fatalf("expected 4 TEU, got %v", got)
	}

	if _, err := store.SaveCurrentOption("Option A"); err != nil {
		t.Fatalf("save: %v", err)
	}
	draft := store.Get()
	if len(draft.ExistingOptions) != 1 {
		t.Fatalf("expected one saved option, got %d", len(draft.ExistingOptions))
	}
	saved := draft.ExistingOptions[0]
	if saved.Name != "Option A" || len(saved.OceanLegs) != 1 || saved.OceanLegs[0].OfferID != "7" {
		t.Fatalf("unexpected saved option %+v", saved)
	}
	if len(saved.Containers) != 1 || saved.Containers[0].Type != enums.ContainerType40HighCube || saved.Containers[0].Quantity != 2 {
		t.Fatalf("unexpected saved containers %+v", saved.Containers)
	}
	if draft.CurrentOption.State() != enums.OptionStateEmpty {
		t.Fatalf("current option must reset, got %+v", draft.CurrentOption)
	}
}
