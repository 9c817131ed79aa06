package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

type contextKey string

const (
	ctxDraftID contextKey = "draft_id"

	draftIDParam = "draftId"
)

// DraftIDFromContext returns the draft id resolved by DraftContext.
func DraftIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDraftID).(string); ok {
		return v
	}
	return ""
}

// WithDraftID injects the draft identifier into the context.
func WithDraftID(ctx context.Context, draftID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDraftID, draftID)
}

// DraftContext validates the {draftId} route parameter and tags the request
// context and logs with it.
func DraftContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw := strings.TrimSpace(chi.URLParam(r, draftIDParam))
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid draft id").
					WithDetails(map[string]any{"field": draftIDParam}))
				return
			}

			draftID := id.String()
			ctx = WithDraftID(ctx, draftID)
			if logg != nil {
				ctx = logg.WithDraftID(ctx, draftID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
