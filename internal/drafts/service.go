package drafts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/internal/quote"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
)

// OfferSource returns the current offers of a catalog.
type OfferSource interface {
	Offers(ctx context.Context, kind enums.CatalogKind) ([]offers.Offer, error)
}

// Submitter hands a finished draft to the downstream quote workflow.
// Submit answers CodeConflict when the draft was archived before; Find then
// returns that earlier receipt.
type Submitter interface {
	Submit(ctx context.Context, draft quote.DraftQuote, totals quote.Derived) (Submission, error)
	Find(ctx context.Context, draftID string) (Submission, error)
}

// ServiceParams groups dependencies for the draft service.
type ServiceParams struct {
	Repo      Repository
	Offers    OfferSource
	Submitter Submitter
	Logger    *logger.Logger
	Metrics   *metrics.DraftMetrics
	Clock     func() time.Time
}

// Service exposes the quote-building workflow over persisted draft workspaces.
type Service interface {
	Create(ctx context.Context) (DraftDTO, error)
	Get(ctx context.Context, draftID string) (DraftDTO, error)
	UpdateBasics(ctx context.Context, draftID string, input BasicsInput) (DraftDTO, error)
	SetView(ctx context.Context, draftID string, kind enums.CatalogKind, criteria catalog.Criteria) (ViewPageDTO, error)
	GetView(ctx context.Context, draftID string, kind enums.CatalogKind, page int) (ViewPageDTO, error)
	Toggle(ctx context.Context, draftID string, kind enums.CatalogKind, offerID string) (ToggleDTO, error)
	SetSelectionNote(ctx context.Context, draftID string, kind enums.CatalogKind, offerID, note string) (DraftDTO, error)
	AddContainer(ctx context.Context, draftID string, input ContainerInput) (DraftDTO, error)
	UpdateContainer(ctx context.Context, draftID, entryID string, quantity int) (DraftDTO, error)
	RemoveContainer(ctx context.Context, draftID, entryID string) (DraftDTO, error)
	SaveOption(ctx context.Context, draftID, name string) (quote.Option, error)
	LoadOption(ctx context.Context, draftID, optionID string) (DraftDTO, error)
	RemoveOption(ctx context.Context, draftID, optionID string) (DraftDTO, error)
	Submit(ctx context.Context, draftID string) (Submission, error)
}

type service struct {
	repo      Repository
	offers    OfferSource
	submitter Submitter
	logg      *logger.Logger
	metrics   *metrics.DraftMetrics
	now       func() time.Time
	locks     *keyedMutex
}

// NewService builds a draft service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "draft repository is required")
	}
	if params.Offers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer source is required")
	}
	if params.Submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submitter is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		offers:    params.Offers,
		submitter: params.Submitter,
		logg:      logg,
		metrics:   params.Metrics,
		now:       now,
		locks:     newKeyedMutex(),
	}, nil
}

// Create opens a new empty workspace.
func (s *service) Create(ctx context.Context) (DraftDTO, error) {
	ws := newWorkspace(uuid.NewString(), s.now().UTC())
	if err := s.repo.Create(ctx, ws); err != nil {
		return DraftDTO{}, err
	}
	s.logg.Info(s.logg.WithDraftID(ctx, ws.Draft.ID), "draft created")
	return toDraftDTO(ws), nil
}

// Get returns a workspace with its derived totals.
func (s *service) Get(ctx context.Context, draftID string) (DraftDTO, error) {
	ws, err := s.load(ctx, draftID)
	if err != nil {
		return DraftDTO{}, err
	}
	return toDraftDTO(ws), nil
}

// UpdateBasics replaces the route ports and shared cargo.
func (s *service) UpdateBasics(ctx context.Context, draftID string, input BasicsInput) (DraftDTO, error) {
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		_, err := store.UpdateBasics(func(b quote.Basics) (quote.Basics, error) {
			containers := []quote.ContainerEntry{}
			for _, in := range input.Containers {
				next, err := quote.AddContainer(containers, in.Type, in.Quantity)
				if err != nil {
					return b, err
				}
				containers = next
			}
			b.OriginPort = strings.TrimSpace(input.OriginPort)
			b.DestinationPort = strings.TrimSpace(input.DestinationPort)
			b.Containers = containers
			return b, nil
		})
		return err
	})
	if err != nil {
		return DraftDTO{}, err
	}
	return toDraftDTO(ws), nil
}

// SetView replaces the criteria of one catalog view and returns its first page.
func (s *service) SetView(ctx context.Context, draftID string, kind enums.CatalogKind, criteria catalog.Criteria) (ViewPageDTO, error) {
	list, err := s.offers.Offers(ctx, kind)
	if err != nil {
		return ViewPageDTO{}, err
	}
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, _ *quote.Store) error {
		if ws.Views == nil {
			ws.Views = map[enums.CatalogKind]catalog.View{}
		}
		ws.Views[kind] = ws.view(kind).WithCriteria(criteria)
		return nil
	})
	if err != nil {
		return ViewPageDTO{}, err
	}
	return toViewPage(ws, kind, list), nil
}

// GetView returns one page of a catalog view. page <= 0 keeps the stored page.
func (s *service) GetView(ctx context.Context, draftID string, kind enums.CatalogKind, page int) (ViewPageDTO, error) {
	list, err := s.offers.Offers(ctx, kind)
	if err != nil {
		return ViewPageDTO{}, err
	}
	if page <= 0 {
		ws, err := s.load(ctx, draftID)
		if err != nil {
			return ViewPageDTO{}, err
		}
		return toViewPage(ws, kind, list), nil
	}
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, _ *quote.Store) error {
		if ws.Views == nil {
			ws.Views = map[enums.CatalogKind]catalog.View{}
		}
		ws.Views[kind] = ws.view(kind).WithPage(page)
		return nil
	})
	if err != nil {
		return ViewPageDTO{}, err
	}
	return toViewPage(ws, kind, list), nil
}

// Toggle selects or deselects a catalog offer in the option under edit.
func (s *service) Toggle(ctx context.Context, draftID string, kind enums.CatalogKind, offerID string) (ToggleDTO, error) {
	id := strings.TrimSpace(offerID)
	if id == "" {
		return ToggleDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	list, err := s.offers.Offers(ctx, kind)
	if err != nil {
		return ToggleDTO{}, err
	}

	var outcome quote.ToggleOutcome
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		current := store.Get().CurrentOption
		offer, found := findOffer(list, id)
		if !found {
			// A selected offer may have left the catalog; it can still be deselected.
			if !current.IsSelected(kind, id) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found").
					WithDetails(map[string]any{"kind": kind, "offer_id": id})
			}
			offer = offers.Offer{Kind: kind, OfferID: id}
		}
		_, err := store.UpdateCurrentOption(func(o quote.Option) (quote.Option, error) {
			next, result := quote.Toggle(o, offer)
			outcome = result
			return next, nil
		})
		return err
	})
	if err != nil {
		return ToggleDTO{}, err
	}

	option := ws.Draft.CurrentOption
	s.logg.Info(s.logg.WithFields(s.logg.WithDraftID(ctx, draftID), map[string]any{
		"catalog":  kind,
		"offer_id": id,
		"outcome":  outcome,
	}), "selection toggled")
	return ToggleDTO{Outcome: outcome, Option: option, Totals: quote.ComputeTotals(option)}, nil
}

// SetSelectionNote edits the free-text note of a selection.
func (s *service) SetSelectionNote(ctx context.Context, draftID string, kind enums.CatalogKind, offerID, note string) (DraftDTO, error) {
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		_, err := store.UpdateCurrentOption(func(o quote.Option) (quote.Option, error) {
			return quote.SetSelectionNote(o, kind, offerID, note)
		})
		return err
	})
	if err != nil {
		return DraftDTO{}, err
	}
	return toDraftDTO(ws), nil
}

// AddContainer appends a cargo line to the option under edit.
func (s *service) AddContainer(ctx context.Context, draftID string, input ContainerInput) (DraftDTO, error) {
	return s.updateContainers(ctx, draftID, func(list []quote.ContainerEntry) ([]quote.ContainerEntry, error) {
		return quote.AddContainer(list, input.Type, input.Quantity)
	})
}

// UpdateContainer changes the quantity of a cargo line.
func (s *service) UpdateContainer(ctx context.Context, draftID, entryID string, quantity int) (DraftDTO, error) {
	return s.updateContainers(ctx, draftID, func(list []quote.ContainerEntry) ([]quote.ContainerEntry, error) {
		return quote.UpdateQuantity(list, entryID, quantity)
	})
}

// RemoveContainer drops a cargo line.
func (s *service) RemoveContainer(ctx context.Context, draftID, entryID string) (DraftDTO, error) {
	return s.updateContainers(ctx, draftID, func(list []quote.ContainerEntry) ([]quote.ContainerEntry, error) {
		return quote.RemoveContainerByID(list, entryID)
	})
}

func (s *service) updateContainers(ctx context.Context, draftID string, fn func([]quote.ContainerEntry) ([]quote.ContainerEntry, error)) (DraftDTO, error) {
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		_, err := store.UpdateCurrentOption(func(o quote.Option) (quote.Option, error) {
			containers, err := fn(o.Containers)
			if err != nil {
				return o, err
			}
			o.Containers = containers
			return o, nil
		})
		return err
	})
	if err != nil {
		return DraftDTO{}, err
	}
	return toDraftDTO(ws), nil
}

// SaveOption snapshots the option under edit.
func (s *service) SaveOption(ctx context.Context, draftID, name string) (quote.Option, error) {
	var saved quote.Option
	_, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		opt, err := store.SaveCurrentOption(name)
		if err != nil {
			return err
		}
		saved = opt
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeCapacityExceeded) {
			s.metrics.Inc(metrics.DraftEventOptionRejected)
			s.logg.Warn(s.logg.WithDraftID(ctx, draftID), "saved option cap reached")
		}
		return quote.Option{}, err
	}
	s.metrics.Inc(metrics.DraftEventOptionSaved)
	s.logg.Info(s.logg.WithOptionID(s.logg.WithDraftID(ctx, draftID), saved.ID), "option saved")
	return saved, nil
}

// LoadOption copies a saved option back into the option under edit.
func (s *service) LoadOption(ctx context.Context, draftID, optionID string) (DraftDTO, error) {
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		_, err := store.LoadOption(optionID)
		return err
	})
	if err != nil {
		return DraftDTO{}, err
	}
	return toDraftDTO(ws), nil
}

// RemoveOption deletes a saved option.
func (s *service) RemoveOption(ctx context.Context, draftID, optionID string) (DraftDTO, error) {
	ws, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		return store.RemoveOption(optionID)
	})
	if err != nil {
		return DraftDTO{}, err
	}
	s.metrics.Inc(metrics.DraftEventOptionRemoved)
	return toDraftDTO(ws), nil
}

// Submit hands the draft to the Submitter. A submitted draft is read-only.
func (s *service) Submit(ctx context.Context, draftID string) (Submission, error) {
	var receipt Submission
	_, err := s.mutate(ctx, draftID, func(ws *Workspace, store *quote.Store) error {
		draft := store.Get()
		if len(draft.ExistingOptions) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "save at least one option before submitting")
		}
		sub, err := s.submitter.Submit(ctx, draft, store.Totals())
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			// Archived by an earlier attempt whose workspace write was lost.
			// Adopt that receipt so the draft becomes read-only.
			s.logg.Warn(s.logg.WithDraftID(ctx, draft.ID), "draft already archived; adopting earlier submission")
			sub, err = s.submitter.Find(ctx, draft.ID)
		}
		if err != nil {
			return err
		}
		submittedAt := sub.SubmittedAt
		ws.SubmittedAt = &submittedAt
		ws.SubmissionID = sub.ID
		receipt = sub
		return nil
	})
	if err != nil {
		return Submission{}, err
	}
	s.metrics.Inc(metrics.DraftEventSubmitted)
	s.logg.Info(s.logg.WithField(s.logg.WithDraftID(ctx, draftID), "submission_id", receipt.ID), "draft submitted")
	return receipt, nil
}

func (s *service) load(ctx context.Context, draftID string) (Workspace, error) {
	id := strings.TrimSpace(draftID)
	if id == "" {
		return Workspace{}, pkgerrors.New(pkgerrors.CodeValidation, "draft id is required")
	}
	return s.repo.Get(ctx, id)
}

// mutate runs fn against a store built from the persisted draft and persists the
// result. Nothing is written when fn fails.
func (s *service) mutate(ctx context.Context, draftID string, fn func(*Workspace, *quote.Store) error) (Workspace, error) {
	id := strings.TrimSpace(draftID)
	if id == "" {
		return Workspace{}, pkgerrors.New(pkgerrors.CodeValidation, "draft id is required")
	}
	unlock := s.locks.lock(id)
	defer unlock()

	ws, err := s.repo.Get(ctx, id)
	if err != nil {
		return Workspace{}, err
	}
	if ws.SubmittedAt != nil {
		return Workspace{}, pkgerrors.New(pkgerrors.CodeStateConflict, "draft already submitted").
			WithDetails(map[string]any{"submission_id": ws.SubmissionID})
	}

	store := quote.NewStore(ws.Draft, quote.WithVersion(ws.Version), quote.WithStoreClock(s.now))
	if err := fn(&ws, store); err != nil {
		return Workspace{}, err
	}
	expected := ws.Revision
	ws.Draft = store.Get()
	ws.Version = store.Version()
	ws.Revision++
	ws.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, ws, expected); err != nil {
		s.logg.Error(s.logg.WithDraftID(ctx, id), "persist draft workspace failed", err)
		return Workspace{}, err
	}
	return ws, nil
}

func findOffer(list []offers.Offer, id string) (offers.Offer, bool) {
	for _, offer := range list {
		if offer.Identity() == id {
			return offer, true
		}
	}
	return offers.Offer{}, false
}

func toDraftDTO(ws Workspace) DraftDTO {
	store := quote.NewStore(ws.Draft, quote.WithVersion(ws.Version))
	return DraftDTO{
		Draft:        ws.Draft,
		Version:      ws.Version,
		CurrentState: ws.Draft.CurrentOption.State(),
		Totals:       store.Totals(),
		Views:        ws.Views,
		SubmittedAt:  ws.SubmittedAt,
		SubmissionID: ws.SubmissionID,
	}
}

func toViewPage(ws Workspace, kind enums.CatalogKind, list []offers.Offer) ViewPageDTO {
	view := ws.view(kind)
	page := view.Apply(list)
	items := make([]offers.Offer, len(page.Items))
	selected := []string{}
	for i, offer := range page.Items {
		// Priced offers carry their resolved total; unpriced ones stay blank
		// rather than showing zero.
		if !offer.Price.IsEmpty() {
			offer.Price = offer.Price.Resolved()
		}
		items[i] = offer
		if id := offer.Identity(); id != "" && ws.Draft.CurrentOption.IsSelected(kind, id) {
			selected = append(selected, id)
		}
	}
	page.Items = items
	return ViewPageDTO{Kind: kind, View: view, Page: page, Selected: selected}
}
