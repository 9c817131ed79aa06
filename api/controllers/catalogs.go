package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/api/validators"
	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/drafts"
	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// CatalogRegistry resolves the client of a catalog.
type CatalogRegistry interface {
	Client(kind enums.CatalogKind) (*catalog.Client, error)
	Snapshots() map[enums.CatalogKind]catalog.Snapshot
}

// LookupRegistry resolves the debounced remote lookup of a catalog within one
// draft workspace.
type LookupRegistry interface {
	Lookup(scope string, kind enums.CatalogKind) (*catalog.Lookup, error)
}

// DraftReader confirms a draft exists before a lookup is scoped to it.
type DraftReader interface {
	Get(ctx context.Context, draftID string) (drafts.DraftDTO, error)
}

type catalogStatusDTO struct {
	Kind       enums.CatalogKind   `json:"kind"`
	Status     enums.CatalogStatus `json:"status"`
	OfferCount int                 `json:"offer_count"`
	Error      string              `json:"error,omitempty"`
	LoadedAt   *time.Time          `json:"loaded_at,omitempty"`
	Offers     []offers.Offer      `json:"offers,omitempty"`
}

type lookupPayload struct {
	Query string `json:"q" validate:"max=200"`
}

func toCatalogStatus(snap catalog.Snapshot, includeOffers bool) catalogStatusDTO {
	dto := catalogStatusDTO{
		Kind:       snap.Kind,
		Status:     snap.Status,
		OfferCount: len(snap.Offers),
		Error:      snap.Error,
		LoadedAt:   snap.LoadedAt,
	}
	if includeOffers {
		dto.Offers = snap.Offers
	}
	return dto
}

// CatalogList reports the state of every catalog without triggering loads.
func CatalogList(set CatalogRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps := set.Snapshots()
		out := make([]catalogStatusDTO, 0, len(snaps))
		for _, kind := range enums.CatalogKinds() {
			if snap, ok := snaps[kind]; ok {
				out = append(out, toCatalogStatus(snap, false))
			}
		}
		responses.WriteSuccess(w, out)
	}
}

// CatalogStatus loads the catalog on first use and returns its snapshot. A failed
// load is reported through the snapshot status, not as an error response.
func CatalogStatus(set CatalogRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client, err := resolveCatalog(r, set)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		includeOffers, err := validators.ParseQueryBool(r, "include_offers")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := client.EnsureLoaded(ctx); err != nil && !isSoftLoadError(err) {
			responses.WriteError(ctx, logg, w, catalogLoadError(client.Kind(), err))
			return
		}
		responses.WriteSuccess(w, toCatalogStatus(client.Snapshot(), includeOffers))
	}
}

// CatalogRefresh reloads a catalog. This is the only retry path after a failure.
func CatalogRefresh(set CatalogRegistry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client, err := resolveCatalog(r, set)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err = client.Refresh(ctx)
		switch {
		case err == nil:
			responses.WriteSuccess(w, toCatalogStatus(client.Snapshot(), false))
		case errors.Is(err, catalog.ErrSuperseded):
			responses.WriteSuccessStatus(w, http.StatusAccepted, toCatalogStatus(client.Snapshot(), false))
		default:
			responses.WriteError(ctx, logg, w, catalogLoadError(client.Kind(), err))
		}
	}
}

// DraftLookupSearch records a free-text search for one draft; the remote call
// fires once that draft's input has been quiet for the debounce delay.
func DraftLookupSearch(lookups LookupRegistry, reader DraftReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		lookup, err := resolveLookup(r, lookups, reader)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload lookupPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lookup.Search(validators.SanitizeString(payload.Query, 200))
		responses.WriteSuccessStatus(w, http.StatusAccepted, lookup.Latest())
	}
}

// DraftLookupResult returns the last applied lookup result of one draft.
func DraftLookupResult(lookups LookupRegistry, reader DraftReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lookup, err := resolveLookup(r, lookups, reader)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lookup.Latest())
	}
}

func resolveCatalog(r *http.Request, set CatalogRegistry) (*catalog.Client, error) {
	if set == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalogs unavailable")
	}
	kind, err := catalogKindParam(r)
	if err != nil {
		return nil, err
	}
	return set.Client(kind)
}

func resolveLookup(r *http.Request, lookups LookupRegistry, reader DraftReader) (*catalog.Lookup, error) {
	if lookups == nil || reader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog lookups unavailable")
	}
	kind, err := catalogKindParam(r)
	if err != nil {
		return nil, err
	}
	draftID, err := draftIDFrom(r)
	if err != nil {
		return nil, err
	}
	if _, err := reader.Get(r.Context(), draftID); err != nil {
		return nil, err
	}
	lookup, err := lookups.Lookup(draftID, kind)
	if errors.Is(err, catalog.ErrLookupsClosed) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookups unavailable")
	}
	return lookup, err
}

// Superseded loads and fetch failures already show up in the snapshot.
func isSoftLoadError(err error) bool {
	if errors.Is(err, catalog.ErrSuperseded) {
		return true
	}
	return !errors.Is(err, catalog.ErrClosed) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func catalogLoadError(kind enums.CatalogKind, err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog load failed").
		WithDetails(map[string]any{"kind": kind})
}
