package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

const (
	maxNameLength = 80
	maxNoteLength = 500
	maxPage       = 10000
)

func catalogKindParam(r *http.Request) (enums.CatalogKind, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "kind"))
	kind, err := enums.ParseCatalogKind(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown catalog").
			WithDetails(map[string]any{"kind": raw, "allowed": enums.CatalogKinds()})
	}
	return kind, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "missing path parameter").
			WithDetails(map[string]any{"field": name})
	}
	return value, nil
}

func draftIDFrom(r *http.Request) (string, error) {
	if id := middleware.DraftIDFromContext(r.Context()); id != "" {
		return id, nil
	}
	return requiredParam(r, "draftId")
}
