package planner

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrEmptyMessage = errors.New("empty message")

// PlanFunc builds an itinerary from complete slots.
type PlanFunc func(ctx context.Context, slots TripSlots) (*ItineraryPlan, error)

// DescribeFunc returns a short blurb for a destination, or "" if none.
type DescribeFunc func(ctx context.Context, destination string) string

// Reply is the outcome of one user message.
type Reply struct {
	Text       string              `json:"text"`
	Step       Step                `json:"step"`
	Context    ConversationContext `json:"context"`
	Extraction Extraction          `json:"extraction"`
	Restarted  bool                `json:"restarted,omitempty"`
}

// Engine runs one conversation turn end to end: context analysis,
// extraction, the dialogue state machine and, after confirmation, plan
// generation.
type Engine struct {
	Rules      *Rules
	Analyzer   *ContextAnalyzer
	Extractor  *Extractor
	Controller *DialogueController
	Generator  *Generator
	Plan       PlanFunc
	Describe   DescribeFunc

	now func() time.Time
}

func NewEngine(rules *Rules, catalog Catalog) *Engine {
	e := &Engine{
		Rules:      rules,
		Analyzer:   NewContextAnalyzer(rules),
		Extractor:  NewExtractor(rules),
		Controller: NewDialogueController(rules),
		Generator:  NewGenerator(rules, catalog),
		now:        time.Now,
	}
	e.Plan = func(_ context.Context, slots TripSlots) (*ItineraryPlan, error) {
		return e.Generator.Generate(slots)
	}
	return e
}

// WithClock pins the engine and its generator to a fixed clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.Generator = e.Generator.WithClock(now)
	return e
}

// Start opens a session with the greeting and the first question.
func (e *Engine) Start(id string) SessionState {
	now := e.now()
	state := NewSession(id, now)
	text := e.Rules.Prompts.Greeting + " " + e.Rules.Question(SlotOrder[0])
	return state.WithTurn(SpeakerAssistant, text, now)
}

// Handle processes one user message. Empty input leaves the state untouched
// and returns ErrEmptyMessage together with a clarifying prompt.
func (e *Engine) Handle(ctx context.Context, state SessionState, text string) (Reply, SessionState, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Reply{Text: e.clarify(state)}, state, ErrEmptyMessage
	}

	if rest, ok := e.Rules.SplitRestart(trimmed); ok {
		return e.restart(ctx, state, trimmed, rest)
	}

	cc := e.Analyzer.Analyze(trimmed, state.Turns)
	next := state.WithTurn(SpeakerUser, trimmed, e.now())
	reply := Reply{Context: cc}

	var err error
	switch next.Phase {
	case PhaseCollecting:
		reply.Extraction = e.Extractor.Extract(trimmed, cc, next.Slots)
		reply.Step, next, err = e.collect(ctx, next, reply.Extraction)
		if err != nil {
			return Reply{}, state, err
		}
	case PhaseConfirming:
		reply.Step, next, err = e.Controller.Confirm(next, trimmed)
		if err != nil {
			return Reply{}, state, err
		}
		if reply.Step.Action == ActionGenerate {
			reply.Step, next, err = e.generate(ctx, next)
			if err != nil {
				failed := next.WithTurn(SpeakerAssistant, "Sorry, I couldn't build the itinerary. Please try again.", e.now())
				return Reply{Text: failed.Turns[len(failed.Turns)-1].Text, Step: Step{Action: ActionConfirm}}, failed, err
			}
		}
	case PhaseGenerating:
		reply.Step, next, err = e.generate(ctx, next)
		if err != nil {
			return Reply{}, state, err
		}
	case PhaseDone:
		reply.Step = Step{Action: ActionDone, Question: e.Rules.Prompts.Done}
	}

	reply.Text = reply.Step.Message()
	next = next.WithTurn(SpeakerAssistant, reply.Text, e.now())
	return reply, next, nil
}

func (e *Engine) collect(ctx context.Context, state SessionState, ex Extraction) (Step, SessionState, error) {
	step, next, err := e.Controller.Advance(state, ex)
	if err != nil {
		return Step{}, state, err
	}
	if ex.Has(SlotDestination) && e.Describe != nil {
		if blurb := e.Describe(ctx, next.Slots.Destination); blurb != "" {
			step.Ack = strings.TrimSpace(step.Ack + " " + blurb)
		}
	}
	return step, next, nil
}

// restart opens a fresh plan under the same session, keeping the history.
// Whatever followed the restart phrase is read as the first answer of the
// new plan.
func (e *Engine) restart(ctx context.Context, state SessionState, text, rest string) (Reply, SessionState, error) {
	fresh := NewSession(state.ID, e.now())
	fresh.UserID = state.UserID
	fresh.CreatedAt = state.CreatedAt
	fresh.Turns = append([]Turn(nil), state.Turns...)
	fresh = fresh.WithTurn(SpeakerUser, text, e.now())

	reply := Reply{Restarted: true}
	if rest != "" {
		reply.Extraction = e.Extractor.Extract(rest, ConversationContext{}, fresh.Slots)
	}
	if reply.Extraction.Empty() {
		reply.Extraction = Extraction{}
		msg := e.Rules.Prompts.Restarted + " " + e.Rules.Question(SlotOrder[0])
		reply.Step = Step{Action: ActionAsk, Slot: SlotOrder[0], Question: msg}
		reply.Text = msg
		return reply, fresh.WithTurn(SpeakerAssistant, msg, e.now()), nil
	}

	step, next, err := e.collect(ctx, fresh, reply.Extraction)
	if err != nil {
		return Reply{}, state, err
	}
	step.Ack = strings.TrimSpace(e.Rules.Prompts.Restarted + " " + step.Ack)
	reply.Step = step
	reply.Text = step.Message()
	return reply, next.WithTurn(SpeakerAssistant, reply.Text, e.now()), nil
}

func (e *Engine) generate(ctx context.Context, state SessionState) (Step, SessionState, error) {
	plan, err := e.Plan(ctx, state.Slots)
	if err != nil {
		return Step{}, e.Controller.Abort(state), err
	}
	step, next, err := e.Controller.Complete(state, plan)
	if err != nil {
		return Step{}, e.Controller.Abort(state), err
	}
	step.Ack = e.Rules.Prompts.Generating
	return step, next, nil
}

func (e *Engine) clarify(state SessionState) string {
	switch state.Phase {
	case PhaseConfirming:
		return e.Rules.Prompts.Reconfirm
	case PhaseDone:
		return e.Rules.Prompts.Done
	}
	if slot, ok := state.Answered.NextMissing(); ok {
		return e.Rules.Prompts.Clarify + " " + e.Rules.Question(slot)
	}
	return e.Rules.Prompts.Clarify
}
