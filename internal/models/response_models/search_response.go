package response_models

import "tripmate/internal/planner"

// Results from the offers API carry Source "live"; synthetic ones "fallback".
type FlightSearchResponse struct {
	Flights []planner.FlightOffer `json:"flights"`
	Source  string                `json:"source"`
}

type HotelSearchResponse struct {
	Hotels []planner.Hotel `json:"hotels"`
	Source string          `json:"source"`
}

type ActivitySearchResponse struct {
	Activities []planner.Activity `json:"activities"`
	Source     string             `json:"source"`
}
