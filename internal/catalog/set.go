package catalog

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

// Set holds one client per catalog kind.
type Set struct {
	clients map[enums.CatalogKind]*Client
}

// NewSet builds clients for every catalog kind over a shared source.
func NewSet(source Source, opts ...ClientOption) *Set {
	clients := make(map[enums.CatalogKind]*Client, len(enums.CatalogKinds()))
	for _, kind := range enums.CatalogKinds() {
		clients[kind] = NewClient(kind, source, opts...)
	}
	return &Set{clients: clients}
}

// Client returns the client for kind.
func (s *Set) Client(kind enums.CatalogKind) (*Client, error) {
	client, ok := s.clients[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog not found").WithDetails(map[string]any{"kind": kind})
	}
	return client, nil
}

// Offers returns the offers of kind, loading the catalog on first use. A catalog
// that failed without ever loading surfaces a dependency error.
func (s *Set) Offers(ctx context.Context, kind enums.CatalogKind) ([]offers.Offer, error) {
	client, err := s.Client(kind)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureLoaded(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
	}
	snap := client.Snapshot()
	if snap.Status == enums.CatalogStatusFailed && snap.LoadedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog unavailable").
			WithDetails(map[string]any{"kind": kind, "error": snap.Error})
	}
	return snap.Offers, nil
}

// EnsureAll loads every catalog that has not been loaded yet. Catalogs load
// independently; one failing never blocks or cancels the others. The returned
// error combines every per-catalog failure.
func (s *Set) EnsureAll(ctx context.Context) error {
	return s.each(ctx, func(ctx context.Context, c *Client) error {
		return c.EnsureLoaded(ctx)
	})
}

// RefreshAll reloads every catalog.
func (s *Set) RefreshAll(ctx context.Context) error {
	return s.each(ctx, func(ctx context.Context, c *Client) error {
		return c.Refresh(ctx)
	})
}

// Snapshots returns the state of every catalog.
func (s *Set) Snapshots() map[enums.CatalogKind]Snapshot {
	out := make(map[enums.CatalogKind]Snapshot, len(s.clients))
	for kind, client := range s.clients {
		out[kind] = client.Snapshot()
	}
	return out
}

// Close tears down every client.
func (s *Set) Close() {
	for _, client := range s.clients {
		client.Close()
	}
}

func (s *Set) each(ctx context.Context, fn func(context.Context, *Client) error) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		result error
	)
	for _, kind := range enums.CatalogKinds() {
		client := s.clients[kind]
		g.Go(func() error {
			if err := fn(ctx, client); err != nil {
				mu.Lock()
				result = multierr.Append(result, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}
