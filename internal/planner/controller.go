package planner

import (
	"errors"
	"fmt"
	"strings"
)

var ErrWrongPhase = errors.New("operation not allowed in current phase")

type Action string

const (
	ActionAsk      Action = "ASK"
	ActionAwait    Action = "AWAIT"
	ActionConfirm  Action = "CONFIRM"
	ActionGenerate Action = "GENERATE"
	ActionDone     Action = "DONE"
)

// Step is what the controller wants said next.
type Step struct {
	Action   Action   `json:"action"`
	Slot     SlotName `json:"slot,omitempty"`
	Ack      string   `json:"ack,omitempty"`
	Question string   `json:"question,omitempty"`
}

// Message joins the acknowledgement and the question into one reply.
func (s Step) Message() string {
	switch {
	case s.Ack == "":
		return s.Question
	case s.Question == "":
		return s.Ack
	}
	return s.Ack + " " + s.Question
}

// DialogueController drives the COLLECTING -> CONFIRMING -> GENERATING ->
// DONE state machine. It never extracts anything itself.
type DialogueController struct {
	rules *Rules
}

func NewDialogueController(rules *Rules) *DialogueController {
	return &DialogueController{rules: rules}
}

// Advance merges an extraction into a COLLECTING session and decides the
// next step: ask for the highest-priority missing slot, or move to
// CONFIRMING once everything is answered and confirmation was not asked yet.
func (c *DialogueController) Advance(state SessionState, ex Extraction) (Step, SessionState, error) {
	if state.Phase != PhaseCollecting {
		return Step{}, state, fmt.Errorf("%w: advance in %s", ErrWrongPhase, state.Phase)
	}
	next := state.Clone()
	for _, name := range ex.Slots() {
		next.Slots.copyFrom(ex.Updates, name)
		next.Answered[name] = next.Slots.Has(name)
	}

	ack := c.acknowledge(ex)
	if slot, missing := next.Answered.NextMissing(); missing {
		q := c.rules.Question(slot)
		if ex.Empty() {
			ack = c.rules.Prompts.NotUnderstood
		}
		return Step{Action: ActionAsk, Slot: slot, Ack: ack, Question: q}, next, nil
	}

	if next.HasAskedForConfirmation {
		return Step{Action: ActionAwait, Ack: ack, Question: c.rules.Prompts.AwaitingConfirm}, next, nil
	}
	next.HasAskedForConfirmation = true
	next.Phase = PhaseConfirming
	return Step{Action: ActionConfirm, Ack: ack, Question: c.Summary(next.Slots)}, next, nil
}

// Confirm interprets a reply to the confirmation summary. Negative keywords
// win over affirmative ones, so "yes but change the dates" goes back to
// collecting.
func (c *DialogueController) Confirm(state SessionState, reply string) (Step, SessionState, error) {
	if state.Phase != PhaseConfirming {
		return Step{}, state, fmt.Errorf("%w: confirm in %s", ErrWrongPhase, state.Phase)
	}
	next := state.Clone()
	lower := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case c.rules.compiled.negative.any(lower):
		next.Phase = PhaseCollecting
		next.HasAskedForConfirmation = false
		return Step{Action: ActionAsk, Question: c.rules.Prompts.MoreInfo}, next, nil
	case c.rules.compiled.affirmative.any(lower):
		next.Phase = PhaseGenerating
		return Step{Action: ActionGenerate, Ack: c.rules.Prompts.Generating}, next, nil
	}
	return Step{Action: ActionConfirm, Question: c.rules.Prompts.Reconfirm}, next, nil
}

// Complete stores a generated plan and finishes the session.
func (c *DialogueController) Complete(state SessionState, plan *ItineraryPlan) (Step, SessionState, error) {
	if state.Phase != PhaseGenerating {
		return Step{}, state, fmt.Errorf("%w: complete in %s", ErrWrongPhase, state.Phase)
	}
	if plan == nil {
		return Step{}, state, errors.New("complete: nil plan")
	}
	next := state.Clone()
	next.Plan = plan
	next.Phase = PhaseDone
	return Step{Action: ActionDone, Question: c.rules.Prompts.Done}, next, nil
}

// Abort returns a GENERATING session to CONFIRMING after generation failed,
// so the user can retry with the same answers.
func (c *DialogueController) Abort(state SessionState) SessionState {
	next := state.Clone()
	if next.Phase == PhaseGenerating {
		next.Phase = PhaseConfirming
	}
	return next
}

// Summary lists every collected slot followed by the confirmation question.
func (c *DialogueController) Summary(slots TripSlots) string {
	var b strings.Builder
	b.WriteString(c.rules.Prompts.SummaryIntro)
	for _, name := range SlotOrder {
		if !slots.Has(name) {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s", name.Label(), slots.Describe(name))
	}
	b.WriteString("\n")
	b.WriteString(c.rules.Prompts.ConfirmQuestion)
	return b.String()
}

func (c *DialogueController) acknowledge(ex Extraction) string {
	names := ex.Slots()
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v := ex.Updates.Describe(name)
		if name == SlotBudget {
			v = "budget " + v
		}
		if name == SlotDepartureLocation {
			v = "from " + v
		}
		parts = append(parts, v)
	}
	return "Got it: " + strings.Join(parts, ", ") + "."
}
