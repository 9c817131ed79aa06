package drafts

import (
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/quote"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Workspace is the persisted state of one draft quote session.
type Workspace struct {
	Draft        quote.DraftQuote                   `json:"draft"`
	Version      uint64                             `json:"version"`
	Revision     uint64                             `json:"revision"`
	Views        map[enums.CatalogKind]catalog.View `json:"views"`
	CreatedAt    time.Time                          `json:"created_at"`
	UpdatedAt    time.Time                          `json:"updated_at"`
	SubmittedAt  *time.Time                         `json:"submitted_at,omitempty"`
	SubmissionID string                             `json:"submission_id,omitempty"`
}

func newWorkspace(id string, now time.Time) Workspace {
	views := make(map[enums.CatalogKind]catalog.View, len(enums.CatalogKinds()))
	for _, kind := range enums.CatalogKinds() {
		views[kind] = catalog.NewView()
	}
	return Workspace{
		Draft:     quote.NewDraftQuote(id),
		Views:     views,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w Workspace) view(kind enums.CatalogKind) catalog.View {
	if v, ok := w.Views[kind]; ok {
		return v
	}
	return catalog.NewView()
}

// DraftDTO is the draft returned to API callers with its derived values.
type DraftDTO struct {
	Draft        quote.DraftQuote                   `json:"draft"`
	Version      uint64                             `json:"version"`
	CurrentState enums.OptionState                  `json:"current_state"`
	Totals       quote.Derived                      `json:"totals"`
	Views        map[enums.CatalogKind]catalog.View `json:"views"`
	SubmittedAt  *time.Time                         `json:"submitted_at,omitempty"`
	SubmissionID string                             `json:"submission_id,omitempty"`
}

// ViewPageDTO is one filtered catalog page plus which of its offers are selected.
type ViewPageDTO struct {
	Kind     enums.CatalogKind `json:"kind"`
	View     catalog.View      `json:"view"`
	Page     catalog.Page      `json:"results"`
	Selected []string          `json:"selected_offer_ids"`
}

// ToggleDTO reports a toggle and the resulting option under edit.
type ToggleDTO struct {
	Outcome quote.ToggleOutcome `json:"outcome"`
	Option  quote.Option        `json:"current_option"`
	Totals  quote.Totals        `json:"totals"`
}

// ContainerInput is one requested cargo line.
type ContainerInput struct {
	Type     enums.ContainerType
	Quantity int
}

// BasicsInput replaces the route and shared cargo of a draft.
type BasicsInput struct {
	OriginPort      string
	DestinationPort string
	Containers      []ContainerInput
}

// Submission is the receipt issued by a Submitter.
type Submission struct {
	ID          string    `json:"id"`
	DraftID     string    `json:"draft_id"`
	OptionCount int       `json:"option_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}
