package services

import (
	"context"

	"github.com/samber/lo"

	resp "tripmate/internal/models/response_models"
	"tripmate/internal/repositories"
)

type DashboardService interface {
	BuildStats(ctx context.Context) (*resp.AdminStats, error)
}

type dashboardService struct {
	chat  ChatServiceInterface
	trips TripServiceInterface
}

func NewDashboardService(chat ChatServiceInterface, trips TripServiceInterface) DashboardService {
	return &dashboardService{chat: chat, trips: trips}
}

func (s *dashboardService) BuildStats(ctx context.Context) (*resp.AdminStats, error) {
	byPhase := s.chat.SessionsByPhase()

	total, paid, top, err := s.trips.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &resp.AdminStats{
		ActiveSessions:  lo.Sum(lo.Values(byPhase)),
		SessionsByPhase: byPhase,
		SavedTrips:      total,
		PaidTrips:       paid,
		TopDestinations: lo.Map(top, func(d repositories.DestinationCount, _ int) resp.TopDestination {
			return resp.TopDestination{Destination: d.Destination, Count: d.Count}
		}),
	}, nil
}
