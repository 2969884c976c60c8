package services

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	resp "tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/pkg/logger"
	mem "tripmate/pkg/memcache"
	"tripmate/pkg/utils"
)

type ChatServiceInterface interface {
	StartSession(ctx context.Context, userID string) (*resp.ChatResponse, error)
	SendMessage(ctx context.Context, sessionID, userID string, message any) (*resp.ChatResponse, error)
	GetSession(ctx context.Context, sessionID, userID string) (*resp.SessionResponse, error)
	ResetSession(ctx context.Context, sessionID, userID string) (*resp.ChatResponse, error)
	SessionsByPhase() map[planner.Phase]int
}

// ChatService runs conversation turns against the session store. Turns on
// the same session are serialised; different sessions run independently.
type ChatService struct {
	engine       *planner.Engine
	sessions     mem.Store[planner.SessionState]
	destinations DestinationServiceInterface
	search       SearchServiceInterface
	trips        TripServiceInterface
}

func NewChatService(
	engine *planner.Engine,
	sessions mem.Store[planner.SessionState],
	destinations DestinationServiceInterface,
	search SearchServiceInterface,
	trips TripServiceInterface,
) ChatServiceInterface {
	s := &ChatService{
		engine:       engine,
		sessions:     sessions,
		destinations: destinations,
		search:       search,
		trips:        trips,
	}
	engine.Plan = s.plan
	engine.Describe = destinations.Describe
	return s
}

// plan snapshots offers for the route and generates against them.
func (s *ChatService) plan(ctx context.Context, slots planner.TripSlots) (*planner.ItineraryPlan, error) {
	_, cities := s.engine.Generator.Route(slots.Destination, slots.DurationDays)
	catalog := s.search.BuildCatalog(ctx, slots, cities)
	return s.engine.Generator.WithCatalog(catalog).Generate(slots)
}

func (s *ChatService) StartSession(_ context.Context, userID string) (*resp.ChatResponse, error) {
	state := s.engine.Start("")
	state.UserID = userID
	s.sessions.Set(state.ID, state)

	logger.Log.Info("chat session started", zap.String("session_id", state.ID), zap.String("user_id", userID))
	turn, _ := state.LastAssistantTurn()
	return toChatResponse(state, turn.Text), nil
}

// SendMessage handles one user message. Anything that is not a non-empty
// string gets a clarifying reply and leaves the session untouched.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, userID string, message any) (*resp.ChatResponse, error) {
	state, unlock, err := s.lockSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if state.UserID == "" && userID != "" {
		state.UserID = userID
	}

	text, _ := message.(string)
	reply, next, err := s.engine.Handle(ctx, state, text)

	var precondition *planner.PreconditionError
	switch {
	case errors.Is(err, planner.ErrEmptyMessage):
		s.sessions.Set(sessionID, state)
		return toChatResponse(state, reply.Text), nil
	case errors.As(err, &precondition):
		logger.Log.Error("plan generation called with incomplete slots",
			zap.String("session_id", sessionID),
			zap.Any("missing", precondition.Missing))
		s.sessions.Set(sessionID, next)
		return nil, err
	case err != nil && reply.Text != "":
		logger.Log.Warn("plan generation failed", zap.String("session_id", sessionID), zap.Error(err))
		s.sessions.Set(sessionID, next)
		return toChatResponse(next, reply.Text), nil
	case err != nil:
		return nil, err
	}

	s.sessions.Set(sessionID, next)
	logger.Log.Debug("chat turn",
		zap.String("session_id", sessionID),
		zap.String("phase", string(next.Phase)),
		zap.Any("extracted", reply.Extraction.Slots()),
		zap.Bool("restarted", reply.Restarted))

	out := toChatResponse(next, reply.Text)
	out.Restarted = reply.Restarted
	if next.Phase == planner.PhaseDone && state.Phase != planner.PhaseDone {
		if trip, err := s.trips.SaveFromSession(ctx, next); err != nil {
			logger.Log.Error("save trip", zap.String("session_id", sessionID), zap.Error(err))
		} else {
			out.TripID = trip.ID.String()
		}
	}
	return out, nil
}

func (s *ChatService) GetSession(_ context.Context, sessionID, userID string) (*resp.SessionResponse, error) {
	state, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, utils.ErrSessionNotFound
	}
	if !ownedBy(state, userID) {
		return nil, utils.ErrForbidden
	}
	return &resp.SessionResponse{
		SessionID: state.ID,
		UserID:    state.UserID,
		Phase:     state.Phase,
		Slots:     state.Slots,
		Answered:  state.Answered,
		Turns: lo.Map(state.Turns, func(t planner.Turn, _ int) resp.TurnResponse {
			return resp.TurnResponse{
				ID:        t.ID,
				Speaker:   string(t.Speaker),
				Text:      t.Text,
				Timestamp: utils.FormatRFC3339(t.Timestamp),
			}
		}),
		Plan:      state.Plan,
		CreatedAt: utils.FormatRFC3339(state.CreatedAt),
		UpdatedAt: utils.FormatRFC3339(state.UpdatedAt),
	}, nil
}

// ResetSession drops everything collected so far and greets again under the
// same session id.
func (s *ChatService) ResetSession(_ context.Context, sessionID, userID string) (*resp.ChatResponse, error) {
	state, unlock, err := s.lockSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	fresh := s.engine.Start(sessionID)
	fresh.UserID = state.UserID
	s.sessions.Set(sessionID, fresh)

	turn, _ := fresh.LastAssistantTurn()
	out := toChatResponse(fresh, turn.Text)
	out.Restarted = true
	return out, nil
}

// lockSession takes the per-session lock and loads the state. Unknown ids
// never get a lock.
func (s *ChatService) lockSession(sessionID, userID string) (planner.SessionState, func(), error) {
	unlock, ok := s.sessions.Lock(sessionID)
	if !ok {
		return planner.SessionState{}, nil, utils.ErrSessionNotFound
	}
	state, ok := s.sessions.Get(sessionID)
	if !ok {
		unlock()
		return planner.SessionState{}, nil, utils.ErrSessionNotFound
	}
	if !ownedBy(state, userID) {
		unlock()
		return planner.SessionState{}, nil, utils.ErrForbidden
	}
	return state, unlock, nil
}

// ownedBy lets anonymous sessions and anonymous callers through; two known
// users must match.
func ownedBy(state planner.SessionState, userID string) bool {
	return state.UserID == "" || userID == "" || state.UserID == userID
}

func (s *ChatService) SessionsByPhase() map[planner.Phase]int {
	return lo.CountValuesBy(s.sessions.Values(), func(st planner.SessionState) planner.Phase { return st.Phase })
}

func toChatResponse(state planner.SessionState, reply string) *resp.ChatResponse {
	out := &resp.ChatResponse{
		SessionID: state.ID,
		Reply:     reply,
		Phase:     state.Phase,
		Slots:     state.Slots,
		Answered:  state.Answered,
		Plan:      state.Plan,
	}
	if state.Phase == planner.PhaseCollecting {
		if slot, ok := state.Answered.NextMissing(); ok {
			out.NextSlot = slot
		}
	}
	return out
}
