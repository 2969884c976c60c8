package auth_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/config"
	"tripmate/internal/services"
	"tripmate/pkg/utils"
)

var Module = fx.Provide(
	provideJWTManager, provideAuthService)

func provideJWTManager(cfg config.Config) (*utils.JWTManager, error) {
	return utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
}

func provideAuthService(jwt *utils.JWTManager, cfg config.Config) services.AuthServiceInterface {
	return services.NewAuthService(jwt, cfg.AdminKey)
}
