package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderledger-backend/pkg/config"
	"github.com/angelmondragon/orderledger-backend/pkg/db"
	"github.com/angelmondragon/orderledger-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations at startup. It only acts in
// dev with the auto-migrate flag on; every other environment migrates
// through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	fsys, err := Source("")
	if err != nil {
		return err
	}

	applied, err := Up(ctx, sqlDB, fsys)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "applied": applied})
	if err != nil {
		return err
	}
	logg.Info(ctx, "dev schema migrated")
	return nil
}
