package dashboard_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/services"
)

var Module = fx.Provide(
	provideDashboardService,
)

func provideDashboardService(chat services.ChatServiceInterface, trips services.TripServiceInterface) services.DashboardService {
	return services.NewDashboardService(chat, trips)
}
