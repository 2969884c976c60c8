package db_fx

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"tripmate/internal/config"
	"tripmate/internal/infra"
	"tripmate/pkg/utils"
)

var Module = fx.Provide(
	provideDB)

// provideDB returns a nil handle when POSTGRES_URL is unset. Embedding
// tables are only migrated when an AI client can fill them.
func provideDB(lc fx.Lifecycle, cfg config.Config, ai utils.AIClient) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg.PostgresURL, ai != nil)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db)
			return nil
		},
	})
	return db, nil
}
