package quote

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

// SelectionRecord is the copy of an offer taken when it was selected. Later catalog
// changes never reach it.
type SelectionRecord struct {
	OfferID       string              `json:"offer_id"`
	Kind          enums.CatalogKind   `json:"kind"`
	Carrier       string              `json:"carrier,omitempty"`
	TransportMode enums.TransportMode `json:"transport_mode,omitempty"`
	LegPhase      enums.LegPhase      `json:"leg_phase,omitempty"`
	Origin        string              `json:"origin,omitempty"`
	Destination   string              `json:"destination,omitempty"`
	Code          string              `json:"code,omitempty"`
	Label         string              `json:"label,omitempty"`
	Currency      enums.Currency      `json:"currency,omitempty"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	Note          string              `json:"note,omitempty"`
}

// ToggleOutcome reports what a toggle did.
type ToggleOutcome string

const (
	ToggleSelected   ToggleOutcome = "selected"
	ToggleDeselected ToggleOutcome = "deselected"
	ToggleIgnored    ToggleOutcome = "ignored"
)

// NewSelection derives a record from offer, pricing it with OfferTotal.
func NewSelection(offer offers.Offer) (SelectionRecord, bool) {
	id := offer.Identity()
	if id == "" {
		return SelectionRecord{}, false
	}
	return SelectionRecord{
		OfferID:       id,
		Kind:          offer.Kind,
		Carrier:       offer.Carrier,
		TransportMode: offer.TransportMode,
		LegPhase:      offer.LegPhase,
		Origin:        offer.OriginName(),
		Destination:   offer.DestinationName(),
		Code:          offer.Code,
		Label:         offer.Label,
		Currency:      offer.Currency,
		UnitPrice:     OfferTotal(offer),
	}, true
}

// Toggle selects offer in the matching sub-list of option, or deselects it when a
// record with the same identity is already there. Only that sub-list is replaced.
// Offers without identity, or of an unknown kind, leave option unchanged.
func Toggle(option Option, offer offers.Offer) (Option, ToggleOutcome) {
	record, ok := NewSelection(offer)
	if !ok || !offer.Kind.IsValid() {
		return option, ToggleIgnored
	}

	current := option.Selections(offer.Kind)
	if idx := indexOfSelection(current, record.OfferID); idx >= 0 {
		next := make([]SelectionRecord, 0, len(current)-1)
		next = append(next, current[:idx]...)
		next = append(next, current[idx+1:]...)
		return option.withSelections(offer.Kind, next), ToggleDeselected
	}

	next := make([]SelectionRecord, len(current), len(current)+1)
	copy(next, current)
	next = append(next, record)
	return option.withSelections(offer.Kind, next), ToggleSelected
}

// SetSelectionNote replaces the free-text note of a selected record.
func SetSelectionNote(option Option, kind enums.CatalogKind, offerID, note string) (Option, error) {
	current := option.Selections(kind)
	idx := indexOfSelection(current, strings.TrimSpace(offerID))
	if idx < 0 {
		return option, pkgerrors.New(pkgerrors.CodeNotFound, "selection not found").
			WithDetails(map[string]any{"kind": kind, "offer_id": offerID})
	}
	next := make([]SelectionRecord, len(current))
	copy(next, current)
	next[idx].Note = strings.TrimSpace(note)
	return option.withSelections(kind, next), nil
}

func indexOfSelection(list []SelectionRecord, offerID string) int {
	for i, rec := range list {
		if rec.OfferID == offerID {
			return i
		}
	}
	return -1
}
