package planner

import "strings"

type AnswerShape string

const (
	ShapeNone     AnswerShape = ""
	ShapePlace    AnswerShape = "place"
	ShapeDuration AnswerShape = "duration"
	ShapeMoney    AnswerShape = "money"
	ShapeCount    AnswerShape = "count"
	ShapeDate     AnswerShape = "date"
	ShapeChoice   AnswerShape = "choice"
	ShapeList     AnswerShape = "list"
)

// ConversationContext records which slot the assistant just asked about.
type ConversationContext struct {
	LastQuestionKey     SlotName    `json:"last_question_key,omitempty"`
	ExpectedAnswerShape AnswerShape `json:"expected_answer_shape,omitempty"`
}

func (c ConversationContext) Active() bool {
	return c.LastQuestionKey != ""
}

type ContextAnalyzer struct {
	rules *Rules
}

func NewContextAnalyzer(rules *Rules) *ContextAnalyzer {
	return &ContextAnalyzer{rules: rules}
}

// Analyze inspects the most recent assistant turn and decides which slot,
// if any, the user's text is answering. A user message ending in a question
// mark is treated as a question of their own and gets no context.
func (a *ContextAnalyzer) Analyze(text string, turns []Turn) ConversationContext {
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		return ConversationContext{}
	}

	var last string
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Speaker == SpeakerAssistant {
			last = strings.ToLower(turns[i].Text)
			break
		}
	}
	if last == "" {
		return ConversationContext{}
	}

	// Canonical question text first; the controller emits it verbatim.
	for _, q := range a.rules.Questions {
		if strings.Contains(last, strings.ToLower(q.Text)) {
			return ConversationContext{LastQuestionKey: q.Slot, ExpectedAnswerShape: q.Shape}
		}
	}
	for _, q := range a.rules.Questions {
		for _, m := range q.Markers {
			if strings.Contains(last, strings.ToLower(m)) {
				return ConversationContext{LastQuestionKey: q.Slot, ExpectedAnswerShape: q.Shape}
			}
		}
	}
	return ConversationContext{}
}
