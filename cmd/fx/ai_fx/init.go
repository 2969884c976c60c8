package ai_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripmate/internal/config"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

var Module = fx.Provide(ProvideAIClient)

// ProvideAIClient returns nil when no provider or key is configured; the
// destination lookup then skips the AI steps.
func ProvideAIClient(lc fx.Lifecycle, cfg config.Config) (utils.AIClient, error) {
	client, err := utils.NewAIClient(cfg.AIProvider, cfg.AIKey(), cfg.AIModel(), cfg.AIEmbeddingModel())
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.Log.Info("AI provider disabled")
		return nil, nil
	}

	logger.Log.Info("AI client ready",
		zap.String("provider", cfg.AIProvider),
		zap.String("model", cfg.AIModel()))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
