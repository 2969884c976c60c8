package planner

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseCollecting Phase = "COLLECTING"
	PhaseConfirming Phase = "CONFIRMING"
	PhaseGenerating Phase = "GENERATING"
	PhaseDone       Phase = "DONE"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is one conversation. Values are replaced, never mutated in
// place: every transition returns a fresh copy.
type SessionState struct {
	ID                      string         `json:"id"`
	UserID                  string         `json:"user_id,omitempty"`
	Phase                   Phase          `json:"phase"`
	Slots                   TripSlots      `json:"slots"`
	Answered                Answered       `json:"answered"`
	HasAskedForConfirmation bool           `json:"has_asked_for_confirmation"`
	Turns                   []Turn         `json:"turns"`
	Plan                    *ItineraryPlan `json:"plan,omitempty"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

func NewSession(id string, now time.Time) SessionState {
	if id == "" {
		id = uuid.NewString()
	}
	return SessionState{
		ID:        id,
		Phase:     PhaseCollecting,
		Answered:  Answered{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s SessionState) Clone() SessionState {
	out := s
	out.Slots = s.Slots.Clone()
	out.Answered = s.Answered.Clone()
	out.Turns = append([]Turn(nil), s.Turns...)
	return out
}

// WithTurn appends a turn. The history is append-only.
func (s SessionState) WithTurn(speaker Speaker, text string, now time.Time) SessionState {
	out := s.Clone()
	out.Turns = append(out.Turns, Turn{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		Timestamp: now,
	})
	out.UpdatedAt = now
	return out
}

func (s SessionState) LastAssistantTurn() (Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Speaker == SpeakerAssistant {
			return s.Turns[i], true
		}
	}
	return Turn{}, false
}
