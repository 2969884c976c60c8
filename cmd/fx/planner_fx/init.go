package planner_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripmate/internal/config"
	"tripmate/internal/planner"
	"tripmate/pkg/logger"
)

var Module = fx.Provide(provideRules, provideEngine)

func provideRules(cfg config.Config) (*planner.Rules, error) {
	if cfg.PlannerRulesPath == "" {
		return planner.DefaultRules(), nil
	}
	rules, err := planner.LoadRules(cfg.PlannerRulesPath)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("planner rules loaded", zap.String("path", cfg.PlannerRulesPath))
	return rules, nil
}

func provideEngine(rules *planner.Rules) *planner.Engine {
	return planner.NewEngine(rules, planner.NewMockCatalog(rules))
}
