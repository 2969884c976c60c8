package search_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/config"
	"tripmate/internal/planner"
	"tripmate/internal/services"
)

var Module = fx.Provide(provideSearchService)

func provideSearchService(cfg config.Config, rules *planner.Rules) services.SearchServiceInterface {
	return services.NewSearchService(services.OffersConfig{
		BaseURL: cfg.OffersAPIURL,
		APIKey:  cfg.OffersAPIKey,
		Timeout: cfg.OffersTimeout,
	}, rules)
}
