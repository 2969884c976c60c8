package chat_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/planner"
	"tripmate/internal/services"
	mem "tripmate/pkg/memcache"
)

var Module = fx.Provide(provideChatService)

func provideChatService(
	engine *planner.Engine,
	sessions mem.Store[planner.SessionState],
	destinations services.DestinationServiceInterface,
	search services.SearchServiceInterface,
	trips services.TripServiceInterface,
) services.ChatServiceInterface {
	return services.NewChatService(engine, sessions, destinations, search, trips)
}
