package response_models

import "tripmate/internal/planner"

type ChatResponse struct {
	SessionID string                 `json:"session_id"`
	Reply     string                 `json:"reply"`
	Phase     planner.Phase          `json:"phase"`
	NextSlot  planner.SlotName       `json:"next_slot,omitempty"`
	Slots     planner.TripSlots      `json:"slots"`
	Answered  planner.Answered       `json:"answered"`
	Plan      *planner.ItineraryPlan `json:"plan,omitempty"`
	TripID    string                 `json:"trip_id,omitempty"`
	Restarted bool                   `json:"restarted,omitempty"`
}

type TurnResponse struct {
	ID        string `json:"id"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type SessionResponse struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Phase     planner.Phase          `json:"phase"`
	Slots     planner.TripSlots      `json:"slots"`
	Answered  planner.Answered       `json:"answered"`
	Turns     []TurnResponse         `json:"turns"`
	Plan      *planner.ItineraryPlan `json:"plan,omitempty"`
	CreatedAt string                 `json:"created_at"`
	UpdatedAt string                 `json:"updated_at"`
}
