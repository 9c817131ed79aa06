package catalog

import (
	"context"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/catalogapi"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Source loads decoded offers for one catalog.
type Source interface {
	Fetch(ctx context.Context, kind enums.CatalogKind, query string) (FetchResult, error)
}

// FetchResult carries the decoded offers of one load.
type FetchResult struct {
	Offers  []offers.Offer
	Skipped int
	// Unrecognized reports that the upstream body matched no known list shape.
	Unrecognized bool
	// Repeated reports that the upstream ignored paging and served a page twice.
	Repeated bool
}

// RecordFetcher is the raw record reader implemented by catalogapi.Client.
type RecordFetcher interface {
	FetchAll(ctx context.Context, kind enums.CatalogKind, query string) (catalogapi.Result, error)
}

type apiSource struct {
	api RecordFetcher
}

// NewAPISource decodes records read through the upstream catalog API.
func NewAPISource(api RecordFetcher) Source {
	return &apiSource{api: api}
}

func (s *apiSource) Fetch(ctx context.Context, kind enums.CatalogKind, query string) (FetchResult, error) {
	result, err := s.api.FetchAll(ctx, kind, query)
	if err != nil {
		return FetchResult{}, err
	}
	decoded, skipped := offers.DecodeAll(kind, result.Records)
	return FetchResult{
		Offers:       decoded,
		Skipped:      skipped,
		Unrecognized: result.Unrecognized,
		Repeated:     result.Repeated,
	}, nil
}
