package trip_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"tripmate/internal/repositories"
	"tripmate/internal/services"
)

var Module = fx.Provide(provideTripRepo, provideTripService)

func provideTripRepo(db *gorm.DB) repositories.TripRepository {
	if db == nil {
		return repositories.NewMemoryTripRepository()
	}
	return repositories.NewTripRepository(db)
}

func provideTripService(tripRepo repositories.TripRepository) services.TripServiceInterface {
	return services.NewTripService(tripRepo)
}
