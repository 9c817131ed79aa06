package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

func TestLookupDebouncesBursts(t *testing.T) {
	source := newFakeSource(func(ctx context.Context, kind enums.CatalogKind, query string, call int) (FetchResult, error) {
		return FetchResult{Offers: []offers.Offer{{Kind: kind, OfferID: query}}}, nil
	})
	lookup := NewLookup(enums.CatalogKindOceanLeg, source, 30*time.Millisecond, time.Second, nil)
	defer lookup.Close()

	results := make(chan LookupResult, 4)
	lookup.OnResult(func(r LookupResult) { results <- r })

	lookup.Search("a")
	lookup.Search("an")
	lookup.Search("ant ")

	select {
	case r := <-results:
		if r.Query != "ant" || r.Seq != 1 {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lookup never fired")
	}
	if got := source.queries(); len(got) != 1 || got[0] != "ant" {
		t.Fatalf("expected a single remote call for the latest input, got %v", got)
	}
	if latest := lookup.Latest(); latest.Pending || len(latest.Offers) != 1 {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestLookupDiscardsStaleResponses(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := newFakeSource(func(ctx context.Context, kind enums.CatalogKind, query string, call int) (FetchResult, error) {
		if query == "first" {
			close(started)
			<-release
			return FetchResult{Offers: []offers.Offer{{Kind: kind, OfferID: "stale"}}}, nil
		}
		return FetchResult{Offers: []offers.Offer{{Kind: kind, OfferID: "fresh"}}}, nil
	})
	lookup := NewLookup(enums.CatalogKindService, source, time.Hour, 0, nil)
	defer lookup.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lookup.Search("first")
		lookup.Flush()
	}()
	<-started

	lookup.Search("second")
	lookup.Flush()
	close(release)
	wg.Wait()

	latest := lookup.Latest()
	if latest.Query != "second" || latest.Seq != 2 {
		t.Fatalf("expected the newer response to win, got %+v", latest)
	}
	if len(latest.Offers) != 1 || latest.Offers[0].OfferID != "fresh" {
		t.Fatalf("stale response applied: %+v", latest.Offers)
	}
}

func TestLookupsResolvesEveryKind(t *testing.T) {
	source := newFakeSource(func(ctx context.Context, kind enums.CatalogKind, query string, call int) (FetchResult, error) {
		return FetchResult{Offers: []offers.Offer{{Kind: kind, OfferID: query}}}, nil
	})
	lookups := NewLookups(source, time.Hour, time.Second, nil)
	defer lookups.Close()

	for _, kind := range enums.CatalogKinds() {
		lookup, err := lookups.Lookup("draft-1", kind)
		if err != nil || lookup == nil {
			t.Fatalf("expected lookup for %s, err=%v", kind, err)
		}
	}
	if _, err := lookups.Lookup("draft-1", enums.CatalogKind("bogus")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := lookups.Lookup("  ", enums.CatalogKindOceanLeg); err == nil {
		t.Fatal("expected error for a blank scope")
	}

	inland, _ := lookups.Lookup("draft-1", enums.CatalogKindInlandLeg)
	inland.Search("rotterdam")
	inland.Flush()
	latest := inland.Latest()
	if latest.Query != "rotterdam" || len(latest.Offers) != 1 || latest.Offers[0].Kind != enums.CatalogKindInlandLeg {
		t.Fatalf("unexpected latest %+v", latest)
	}
}

func TestLookupsIsolateScopes(t *testing.T) {
	source := newFakeSource(func(ctx context.Context, kind enums.CatalogKind, query string, call int) (FetchResult, error) {
		return FetchResult{Offers: []offers.Offer{{Kind: kind, OfferID: query}}}, nil
	})
	lookups := NewLookups(source, time.Hour, time.Second, nil)
	defer lookups.Close()

	first, _ := lookups.Lookup("draft-a", enums.CatalogKindService)
	second, _ := lookups.Lookup("draft-b", enums.CatalogKindService)
	if first == second {
		t.Fatal("different drafts must not share a lookup")
	}
	first.Search("customs")
	second.Search("trucking")
	first.Flush()
	second.Flush()

	if got := first.Latest().Query; got != "customs" {
		t.Fatalf("draft-a saw %q", got)
	}
	if got := second.Latest().Query; got != "trucking" {
		t.Fatalf("draft-b saw %q", got)
	}
	if again, _ := lookups.Lookup("draft-a", enums.CatalogKindService); again != first {
		t.Fatal("the same draft and kind must reuse its lookup")
	}
}

func TestLookupsEvictIdleEntries(t *testing.T) {
	source := newFakeSource(func(ctx context.Context, kind enums.CatalogKind, query string, call int) (FetchResult, error) {
		return FetchResult{}, nil
	})
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	lookups := NewLookups(source, time.Hour, time.Second, nil,
		WithLookupIdleTTL(10*time.Minute),
		WithLookupClock(func() time.Time { return now }),
	)

	old, _ := lookups.Lookup("draft-old", enums.CatalogKindOceanLeg)
	now = now.Add(5 * time.Minute)
	_, _ = lookups.Lookup("draft-new", enums.CatalogKindOceanLeg)
	if lookups.Len() != 2 {
		t.Fatalf("expected 2 live lookups, got %d", lookups.Len())
	}

	now = now.Add(6 * time.Minute)
	_, _ = lookups.Lookup("draft-new", enums.CatalogKindOceanLeg)
	if lookups.Len() != 1 {
		t.Fatalf("expected the idle lookup to be evicted, got %d", lookups.Len())
	}
	if fresh, _ := lookups.Lookup("draft-old", enums.CatalogKindOceanLeg); fresh == old {
		t.Fatal("an evicted lookup must not be handed out again")
	}

	lookups.Close()
	if _, err := lookups.Lookup("draft-new", enums.CatalogKindOceanLeg); !errors.Is(err, ErrLookupsClosed) {
		t.Fatalf("expected ErrLookupsClosed, got %v", err)
	}
}
