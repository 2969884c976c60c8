package response_models

import "tripmate/internal/planner"

type TripResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Destination    string  `json:"destination"`
	StartDate      string  `json:"start_date"`
	DurationDays   int     `json:"duration_days"`
	Travelers      int     `json:"travelers"`
	Budget         float64 `json:"budget"`
	EstimatedTotal float64 `json:"estimated_total"`
	Shared         bool    `json:"shared"`
	Paid           bool    `json:"paid"`
	CreatedAt      string  `json:"created_at"`
}

type TripDetailResponse struct {
	TripResponse
	Departure   string                 `json:"departure"`
	Pace        string                 `json:"pace"`
	Preferences []string               `json:"preferences"`
	Plan        *planner.ItineraryPlan `json:"plan"`
}

type ShareTripResponse struct {
	TripID           string `json:"trip_id"`
	ShareToken       string `json:"share_token"`
	PasscodeRequired bool   `json:"passcode_required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

type AdminStats struct {
	ActiveSessions  int                   `json:"active_sessions"`
	SessionsByPhase map[planner.Phase]int `json:"sessions_by_phase"`
	SavedTrips      int64                 `json:"saved_trips"`
	PaidTrips       int64                 `json:"paid_trips"`
	TopDestinations []TopDestination      `json:"top_destinations"`
}

type TopDestination struct {
	Destination string `json:"destination"`
	Count       int64  `json:"count"`
}
