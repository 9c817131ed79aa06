package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/internal/drafts"
	"github.com/angelmondragon/freightquote-backend/internal/quote"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

const draftIDConstraint = "quote_submissions_draft_id_key"

// Repository archives submitted drafts in Postgres.
type Repository struct {
	client *db.Client
	now    func() time.Time
}

// NewRepository binds the repository to the shared database client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

// Submit writes one archive row for draft and returns the receipt. A draft can
// only be archived once.
func (r *Repository) Submit(ctx context.Context, draft quote.DraftQuote, totals quote.Derived) (drafts.Submission, error) {
	if len(draft.ExistingOptions) == 0 {
		return drafts.Submission{}, pkgerrors.New(pkgerrors.CodeValidation, "draft has no saved options")
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return drafts.Submission{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode draft payload")
	}
	totalsJSON, err := json.Marshal(totals.Existing)
	if err != nil {
		return drafts.Submission{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode draft totals")
	}

	names := make(pq.StringArray, 0, len(draft.ExistingOptions))
	lowest := decimal.Zero
	for i, opt := range draft.ExistingOptions {
		names = append(names, opt.Name)
		total := totals.Existing[opt.ID].TotalPrice
		if i == 0 || total.LessThan(lowest) {
			lowest = total
		}
	}

	row := models.QuoteSubmission{
		ID:          uuid.New(),
		DraftID:     draft.ID,
		OptionNames: names,
		OptionCount: len(draft.ExistingOptions),
		LowestTotal: lowest,
		CargoTeu:    quote.TotalTeu(draft.Basics.Containers),
		Payload:     payload,
		Totals:      totalsJSON,
		CreatedAt:   r.now().UTC(),
	}
	err = r.client.WithTx(ctx, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.QuoteSubmission{}).Where("draft_id = ?", draft.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "draft already submitted").
				WithDetails(map[string]any{"draft_id": draft.ID})
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			return drafts.Submission{}, err
		}
		if db.IsUniqueViolation(err, draftIDConstraint) || db.IsUniqueViolation(err, "quote_submissions.draft_id") {
			return drafts.Submission{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "draft already submitted").
				WithDetails(map[string]any{"draft_id": draft.ID})
		}
		return drafts.Submission{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive draft submission")
	}

	return receiptOf(row), nil
}

// Find returns the receipt of a draft that was already archived.
func (r *Repository) Find(ctx context.Context, draftID string) (drafts.Submission, error) {
	row, err := r.findRow(ctx, draftID)
	if err != nil {
		return drafts.Submission{}, err
	}
	return receiptOf(row), nil
}

func (r *Repository) findRow(ctx context.Context, draftID string) (models.QuoteSubmission, error) {
	var row models.QuoteSubmission
	err := r.client.DB().WithContext(ctx).Where("draft_id = ?", strings.TrimSpace(draftID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QuoteSubmission{}, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found").
				WithDetails(map[string]any{"draft_id": draftID})
		}
		return models.QuoteSubmission{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft submission")
	}
	return row, nil
}

func receiptOf(row models.QuoteSubmission) drafts.Submission {
	return drafts.Submission{
		ID:          row.ID.String(),
		DraftID:     row.DraftID,
		OptionCount: row.OptionCount,
		SubmittedAt: row.CreatedAt,
	}
}
