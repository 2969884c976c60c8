package controllers_fx

import (
	"go.uber.org/fx"

	"tripmate/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewChatController),
	fx.Provide(controllers.NewDestinationController),
	fx.Provide(controllers.NewSearchController),
	fx.Provide(controllers.NewTripController),
	fx.Provide(controllers.NewPaymentController),
	fx.Provide(controllers.NewAuthController),
	fx.Provide(controllers.NewDashboardController))
