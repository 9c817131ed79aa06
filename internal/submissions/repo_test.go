package submissions

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/internal/quote"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

func setupSubmissionsTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS quote_submissions (
  id TEXT PRIMARY KEY,
  draft_id TEXT NOT NULL,
  option_names TEXT NOT NULL,
  option_count INTEGER NOT NULL,
  lowest_total TEXT NOT NULL,
  cargo_teu REAL NOT NULL,
  payload BLOB NOT NULL,
  totals BLOB NOT NULL,
  created_at DATETIME,
  CONSTRAINT quote_submissions_draft_id_key UNIQUE (draft_id)
);`
	require.NoError(t, conn.Exec(table).Error)
	return db.Wrap(conn)
}

func buildDraft(t *testing.T) (quote.DraftQuote, quote.Derived) {
	t.Helper()

	seq := 0
	store := quote.NewStore(quote.NewDraftQuote("draft-42"), quote.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("opt-%d", seq)
	}))
	_, err := store.UpdateBasics(func(b quote.Basics) (quote.Basics, error) {
		containers, err := quote.AddContainer(b.Containers, enums.ContainerType40HighCube, 2)
		b.Containers = containers
		return b, err
	})
	require.NoError(t, err)

	for i, amount := range []int64{1800, 1500} {
		total := decimal.NewFromInt(amount)
		_, err := store.UpdateCurrentOption(func(o quote.Option) (quote.Option, error) {
			next, _ := quote.Toggle(o, offers.Offer{
				Kind:    enums.CatalogKindOceanLeg,
				OfferID: fmt.Sprintf("o%d", i),
				Price:   offers.PriceBreakdown{Total: &total},
			})
			return next, nil
		})
		require.NoError(t, err)
		_, err = store.SaveCurrentOption(fmt.Sprintf("Option %c", 'A'+i))
		require.NoError(t, err)
	}
	return store.Get(), store.Totals()
}

func TestRepositorySubmitArchivesDraft(t *testing.T) {
	repo := NewRepository(setupSubmissionsTestDB(t))
	repo.now = func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) }
	draft, totals := buildDraft(t)

	receipt, err := repo.Submit(context.Background(), draft, totals)
	require.NoError(t, err)
	assert.Equal(t, "draft-42", receipt.DraftID)
	assert.Equal(t, 2, receipt.OptionCount)
	assert.NotEmpty(t, receipt.ID)

	row, err := repo.findRow(context.Background(), "draft-42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Option A", "Option B"}, []string(row.OptionNames))
	assert.True(t, row.LowestTotal.Equal(decimal.NewFromInt(1500)), "lowest total %s", row.LowestTotal)
	assert.Equal(t, 4.0, row.CargoTeu)

	var archived quote.DraftQuote
	require.NoError(t, json.Unmarshal(row.Payload, &archived))
	require.Len(t, archived.ExistingOptions, 2)
	assert.Equal(t, "o0", archived.ExistingOptions[0].OceanLegs[0].OfferID)
}

func TestRepositorySubmitRejectsDuplicates(t *testing.T) {
	repo := NewRepository(setupSubmissionsTestDB(t))
	draft, totals := buildDraft(t)

	_, err := repo.Submit(context.Background(), draft, totals)
	require.NoError(t, err)

	_, err = repo.Submit(context.Background(), draft, totals)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestRepositorySubmitRequiresSavedOptions(t *testing.T) {
	repo := NewRepository(setupSubmissionsTestDB(t))
	_, err := repo.Submit(context.Background(), quote.NewDraftQuote("empty"), quote.Derived{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestRepositoryFindReturnsEarlierReceipt(t *testing.T) {
	repo := NewRepository(setupSubmissionsTestDB(t))
	repo.now = func() time.Time { return time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC) }
	draft, totals := buildDraft(t)

	receipt, err := repo.Submit(context.Background(), draft, totals)
	require.NoError(t, err)

	found, err := repo.Find(context.Background(), " draft-42 ")
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, found.ID)
	assert.Equal(t, 2, found.OptionCount)
	assert.True(t, receipt.SubmittedAt.Equal(found.SubmittedAt))
}

func TestRepositoryFindNotFound(t *testing.T) {
	repo := NewRepository(setupSubmissionsTestDB(t))
	_, err := repo.Find(context.Background(), "missing")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}
