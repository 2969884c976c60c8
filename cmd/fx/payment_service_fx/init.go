package payment_service_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/config"
	"tripmate/internal/services"
	"tripmate/pkg/logger"
)

var Module = fx.Provide(
	providePaymentService,
)

func providePaymentService(cfg config.Config, trips services.TripServiceInterface) services.PaymentService {
	if cfg.PaymentWebhookSecret == "" {
		logger.Log.Warn("PAYMENT_WEBHOOK_SECRET not set, every webhook will be rejected")
	}
	return services.NewPaymentService(
		services.NewHMACVerifier(cfg.PaymentWebhookSecret),
		services.NewTripPaymentHandler(trips),
	)
}
