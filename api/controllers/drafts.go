package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/api/validators"
	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/drafts"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

const validOnLayout = "2006-01-02"

type containerPayload struct {
	ContainerType string `json:"container_type" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
}

type basicsPayload struct {
	OriginPort      string             `json:"origin_port" validate:"max=120"`
	DestinationPort string             `json:"destination_port" validate:"max=120"`
	Containers      []containerPayload `json:"containers" validate:"dive"`
}

type criteriaPayload struct {
	Query       string `json:"query" validate:"max=200"`
	Origin      string `json:"origin" validate:"max=120"`
	Destination string `json:"destination" validate:"max=120"`
	Carrier     string `json:"carrier" validate:"max=120"`
	LegPhase    string `json:"leg_phase" validate:"max=40"`
	ValidOn     string `json:"valid_on" validate:"omitempty,datetime=2006-01-02"`
}

type togglePayload struct {
	OfferID string `json:"offer_id" validate:"notblank,max=200"`
}

type notePayload struct {
	Note string `json:"note" validate:"max=500"`
}

type quantityPayload struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

type saveOptionPayload struct {
	Name string `json:"name" validate:"notblank,max=80"`
}

func parseContainerInput(p containerPayload) (drafts.ContainerInput, error) {
	containerType, err := enums.ParseContainerType(strings.TrimSpace(p.ContainerType))
	if err != nil {
		return drafts.ContainerInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid container type").
			WithDetails(map[string]any{"field": "container_type"})
	}
	return drafts.ContainerInput{Type: containerType, Quantity: p.Quantity}, nil
}

func (p criteriaPayload) toCriteria() (catalog.Criteria, error) {
	criteria := catalog.Criteria{
		Query:       validators.SanitizeString(p.Query, 200),
		Origin:      validators.SanitizeString(p.Origin, 120),
		Destination: validators.SanitizeString(p.Destination, 120),
		Carrier:     validators.SanitizeString(p.Carrier, 120),
	}
	if raw := strings.TrimSpace(p.LegPhase); raw != "" {
		phase, err := enums.ParseLegPhase(raw)
		if err != nil {
			return catalog.Criteria{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid leg phase").
				WithDetails(map[string]any{"field": "leg_phase"})
		}
		criteria.LegPhase = phase.String()
	}
	if raw := strings.TrimSpace(p.ValidOn); raw != "" {
		day, err := time.Parse(validOnLayout, raw)
		if err != nil {
			return catalog.Criteria{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid valid_on date")
		}
		criteria.ValidOn = &day
	}
	return criteria, nil
}

// DraftCreate opens a new quote workspace.
func DraftCreate(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		dto, err := svc.Create(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// DraftFetch returns a workspace with its derived totals.
func DraftFetch(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.Get(ctx, draftID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftUpdateBasics replaces the ports and shared cargo of a draft.
func DraftUpdateBasics(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload basicsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := drafts.BasicsInput{
			OriginPort:      payload.OriginPort,
			DestinationPort: payload.DestinationPort,
			Containers:      make([]drafts.ContainerInput, 0, len(payload.Containers)),
		}
		for _, c := range payload.Containers {
			entry, err := parseContainerInput(c)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Containers = append(input.Containers, entry)
		}

		dto, err := svc.UpdateBasics(ctx, draftID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftSetView replaces the criteria of a catalog view and returns its first page.
func DraftSetView(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := catalogKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload criteriaPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		criteria, err := payload.toCriteria()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.SetView(logg.WithCatalog(ctx, kind.String()), draftID, kind, criteria)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftGetView returns one filtered page of a catalog view.
func DraftGetView(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := catalogKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 0, 1, maxPage)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetView(logg.WithCatalog(ctx, kind.String()), draftID, kind, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftToggleSelection selects or deselects a catalog offer.
func DraftToggleSelection(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := catalogKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload togglePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Toggle(ctx, draftID, kind, payload.OfferID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftSelectionNote edits the note of a selected offer.
func DraftSelectionNote(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		kind, err := catalogKindParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		offerID, err := requiredParam(r, "offerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload notePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.SetSelectionNote(ctx, draftID, kind, offerID, validators.SanitizeString(payload.Note, maxNoteLength))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftAddContainer appends a cargo line to the option under edit.
func DraftAddContainer(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload containerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := parseContainerInput(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.AddContainer(ctx, draftID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// DraftUpdateContainer changes the quantity of a cargo line.
func DraftUpdateContainer(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		entryID, err := requiredParam(r, "entryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload quantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateContainer(ctx, draftID, entryID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftRemoveContainer drops a cargo line.
func DraftRemoveContainer(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		entryID, err := requiredParam(r, "entryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.RemoveContainer(ctx, draftID, entryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftSaveOption saves the option under edit under a name.
func DraftSaveOption(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload saveOptionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		option, err := svc.SaveOption(ctx, draftID, validators.SanitizeString(payload.Name, maxNameLength))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, option)
	}
}

// DraftLoadOption copies a saved option back into the option under edit.
func DraftLoadOption(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		optionID, err := requiredParam(r, "optionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.LoadOption(ctx, draftID, optionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftRemoveOption deletes a saved option.
func DraftRemoveOption(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		optionID, err := requiredParam(r, "optionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.RemoveOption(ctx, draftID, optionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DraftSubmit hands the draft to the submission archive.
func DraftSubmit(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		draftID, err := draftIDFrom(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		receipt, err := svc.Submit(ctx, draftID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
