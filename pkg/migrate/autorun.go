package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// MaybeRunDev brings the submission archive schema up to date at startup, but
// only in dev with FREIGHTQUOTE_AUTO_MIGRATE set. Other environments run
// cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, EmbeddedDir, logg)
	if err != nil {
		return err
	}

	ctx = logg.WithField(ctx, "dir", EmbeddedDir)
	logg.Info(ctx, "applying embedded migrations (dev auto-run)")
	if err := runner.Up(ctx); err != nil {
		return err
	}
	version, err := runner.Version(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "schema up to date")
	return nil
}
