package destination_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripmate/internal/planner"
	"tripmate/internal/repositories"
	"tripmate/internal/services"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

const indexTimeout = 2 * time.Minute

var Module = fx.Options(
	fx.Provide(provideEmbeddingRepo, provideDestinationService),
	fx.Invoke(indexCatalogue),
)

func provideEmbeddingRepo(db *gorm.DB, ai utils.AIClient) repositories.DestinationEmbeddingRepository {
	if db == nil || ai == nil {
		return nil
	}
	return repositories.NewDestinationEmbeddingRepository(db)
}

func provideDestinationService(
	rules *planner.Rules,
	ai utils.AIClient,
	embeddings repositories.DestinationEmbeddingRepository,
) services.DestinationServiceInterface {
	return services.NewDestinationService(rules, ai, embeddings)
}

// indexCatalogue embeds the gazetteer in the background after startup.
func indexCatalogue(lc fx.Lifecycle, svc services.DestinationServiceInterface) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ctx, stop := context.WithTimeout(ctx, indexTimeout)
				defer stop()
				n, err := svc.IndexCatalogue(ctx)
				if err != nil {
					logger.Log.Warn("destination indexing stopped", zap.Int("indexed", n), zap.Error(err))
					return
				}
				if n > 0 {
					logger.Log.Info("destinations indexed", zap.Int("count", n))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
