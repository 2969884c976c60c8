package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripmate/cmd/fx/ai_fx"
	"tripmate/cmd/fx/auth_fx"
	"tripmate/cmd/fx/chat_fx"
	"tripmate/cmd/fx/config_fx"
	"tripmate/cmd/fx/controllers_fx"
	"tripmate/cmd/fx/dashboard_fx"
	"tripmate/cmd/fx/db_fx"
	"tripmate/cmd/fx/destination_fx"
	"tripmate/cmd/fx/logger_fx"
	"tripmate/cmd/fx/memcache_fx"
	"tripmate/cmd/fx/payment_service_fx"
	"tripmate/cmd/fx/planner_fx"
	"tripmate/cmd/fx/search_fx"
	"tripmate/cmd/fx/trip_fx"
	"tripmate/internal/api/controllers"
	"tripmate/internal/config"
	"tripmate/pkg/middleware"
	"tripmate/pkg/utils"
)

func main() {
	app := fx.New(
		config_fx.Module,
		logger_fx.Module,
		ai_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		planner_fx.Module,
		destination_fx.Module,
		search_fx.Module,
		trip_fx.Module,
		chat_fx.Module,
		payment_service_fx.Module,
		auth_fx.Module,
		dashboard_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type RouterParams struct {
	fx.In

	Log         *zap.Logger
	JWT         *utils.JWTManager
	Chat        *controllers.ChatController
	Destination *controllers.DestinationController
	Search      *controllers.SearchController
	Trips       *controllers.TripController
	Payments    *controllers.PaymentController
	Auth        *controllers.AuthController
	Dashboard   *controllers.DashboardController
}

func ProvideRouter(p RouterParams) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, p)

	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		utils.RespondSuccess(c, gin.H{"status": "ok"}, "")
	})

	chat := api.Group("/chat", middleware.OptionalJWTMiddleware(p.JWT))
	chat.POST("/sessions", p.Chat.StartSession)
	chat.POST("/message", p.Chat.SendMessage)
	chat.GET("/sessions/:id", p.Chat.GetSession)
	chat.DELETE("/sessions/:id", p.Chat.ResetSession)

	api.POST("/destinations/search", p.Destination.Search)
	api.POST("/flights/search", p.Search.SearchFlights)
	api.POST("/hotels/search", p.Search.SearchHotels)
	api.POST("/activities/search", p.Search.SearchActivities)

	api.POST("/payments/webhook", p.Payments.HandleWebhook)
	api.POST("/auth/guest", p.Auth.GuestToken)

	trips := api.Group("/trips", middleware.JWTAuthMiddleware(p.JWT))
	trips.GET("", p.Trips.ListTrips)
	trips.GET("/:id", p.Trips.GetTrip)
	trips.POST("/:id/share", p.Trips.ShareTrip)
	api.GET("/shared/:token", p.Trips.GetSharedTrip)

	admin := api.Group("/admin", middleware.JWTAuthMiddleware(p.JWT), middleware.RoleMiddleware(utils.RoleAdmin))
	admin.GET("/stats", p.Dashboard.GetStats)
}
