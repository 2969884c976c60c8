package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(DefaultRules())
}

func TestExtractSingleTopicSetsOnlyThatSlot(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		text  string
		slot  SlotName
		check func(t *testing.T, s TripSlots)
	}{
		{"Italy", SlotDestination, func(t *testing.T, s TripSlots) { assert.Equal(t, "Italy", s.Destination) }},
		{"7 days", SlotDuration, func(t *testing.T, s TripSlots) { assert.Equal(t, 7, s.DurationDays) }},
		{"£3000", SlotBudget, func(t *testing.T, s TripSlots) { assert.Equal(t, 3000.0, s.Budget) }},
		{"4 people", SlotTravelers, func(t *testing.T, s TripSlots) { assert.Equal(t, 4, s.Travelers) }},
		{"departing from Manchester", SlotDepartureLocation, func(t *testing.T, s TripSlots) {
			assert.Equal(t, "Manchester", s.DepartureLocation)
		}},
		{"June", SlotTravelDates, func(t *testing.T, s TripSlots) { assert.Equal(t, "June", s.TravelDates) }},
		{"hostel", SlotAccommodationType, func(t *testing.T, s TripSlots) { assert.Equal(t, "hostel", s.AccommodationType) }},
		{"vegetarian", SlotFoodPreferences, func(t *testing.T, s TripSlots) {
			assert.Equal(t, []string{"vegetarian"}, s.FoodPreferences)
		}},
		{"museums", SlotActivityPreferences, func(t *testing.T, s TripSlots) {
			assert.Equal(t, []string{"museums"}, s.ActivityPreferences)
		}},
		{"relaxed", SlotPace, func(t *testing.T, s TripSlots) { assert.Equal(t, PaceRelaxed, s.Pace) }},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			ex := e.Extract(tt.text, ConversationContext{}, TripSlots{})
			assert.Equal(t, []SlotName{tt.slot}, ex.Slots())
			tt.check(t, ex.Updates)
		})
	}
}

func TestExtractScenarioA(t *testing.T) {
	e := newTestExtractor(t)

	ex := e.Extract("I want to go to Italy for 7 days with £3000 budget for 2 people", ConversationContext{}, TripSlots{})

	want := TripSlots{Destination: "Italy", DurationDays: 7, Budget: 3000, Travelers: 2}
	if diff := cmp.Diff(want, ex.Updates); diff != "" {
		t.Fatalf("updates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []SlotName{SlotDestination, SlotDuration, SlotBudget, SlotTravelers}, ex.Slots())
}

func TestExtractBudgetBelowThresholdIsRejected(t *testing.T) {
	e := newTestExtractor(t)
	known := TripSlots{Travelers: 1}

	ex := e.Extract("£50", ConversationContext{}, known)
	assert.False(t, ex.Has(SlotBudget))

	budgetQuestion := ConversationContext{LastQuestionKey: SlotBudget, ExpectedAnswerShape: ShapeMoney}
	ex = e.Extract("50", budgetQuestion, known)
	assert.False(t, ex.Has(SlotBudget))
	assert.True(t, ex.Empty())
}

func TestExtractBudgetForms(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name  string
		text  string
		known TripSlots
		want  float64
	}{
		{"thousands separator", "we have £2,500 to spend", TripSlots{}, 2500},
		{"k suffix", "around 3k", TripSlots{}, 3000},
		{"currency word", "1500 pounds", TripSlots{}, 1500},
		{"budget context", "my budget is 1200", TripSlots{}, 1200},
		{"per person uses known travellers", "£800 each", TripSlots{Travelers: 3}, 2400},
		{"per person uses travellers in same message", "$1000 per person for 2 people", TripSlots{}, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := e.Extract(tt.text, ConversationContext{}, tt.known)
			require.True(t, ex.Has(SlotBudget))
			assert.InDelta(t, tt.want, ex.Updates.Budget, 0.001)
		})
	}
}

func TestExtractBareNumberNeedsBudgetQuestion(t *testing.T) {
	e := newTestExtractor(t)

	ex := e.Extract("3000", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotBudget))

	ex = e.Extract("3000", ConversationContext{LastQuestionKey: SlotBudget, ExpectedAnswerShape: ShapeMoney}, TripSlots{})
	assert.Equal(t, 3000.0, ex.Updates.Budget)
}

func TestExtractDurationForms(t *testing.T) {
	e := newTestExtractor(t)

	tests := map[string]int{
		"a week in the sun": 7,
		"two weeks":         14,
		"a long weekend":    3,
		"just the weekend":  2,
		"a fortnight":       14,
		"ten days":          10,
		"a 5-day trip":      5,
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			ex := e.Extract(text, ConversationContext{}, TripSlots{})
			require.True(t, ex.Has(SlotDuration))
			assert.Equal(t, want, ex.Updates.DurationDays)
		})
	}
}

func TestExtractTravelers(t *testing.T) {
	e := newTestExtractor(t)

	tests := map[string]int{
		"just me":         1,
		"travelling solo": 1,
		"me and my wife":  2,
		"we're a couple":  2,
		"a family of 5":   5,
		"three adults":    3,
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			ex := e.Extract(text, ConversationContext{}, TripSlots{})
			require.True(t, ex.Has(SlotTravelers))
			assert.Equal(t, want, ex.Updates.Travelers)
		})
	}

	ex := e.Extract("a couple of days", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotTravelers))
}

func TestExtractDepartureIsNotDestination(t *testing.T) {
	e := newTestExtractor(t)

	ex := e.Extract("flying from London to Rome", ConversationContext{}, TripSlots{})
	assert.Equal(t, "London", ex.Updates.DepartureLocation)
	assert.Equal(t, "Rome", ex.Updates.Destination)

	ex = e.Extract("from Paris", ConversationContext{}, TripSlots{Destination: "Italy"})
	assert.Equal(t, "Paris", ex.Updates.DepartureLocation)
	assert.False(t, ex.Has(SlotDestination))
}

func TestExtractLoneCityAfterDestinationIsDeparture(t *testing.T) {
	e := newTestExtractor(t)
	known := TripSlots{Destination: "Italy"}

	ex := e.Extract("Manchester", ConversationContext{}, known)
	assert.Equal(t, []SlotName{SlotDepartureLocation}, ex.Slots())
	assert.Equal(t, "Manchester", ex.Updates.DepartureLocation)

	ex = e.Extract("Manchester", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotDepartureLocation))
}

func TestExtractIntentPhraseFindsUnknownPlace(t *testing.T) {
	e := newTestExtractor(t)

	ex := e.Extract("I want to go to Narnia", ConversationContext{}, TripSlots{})
	assert.Equal(t, "Narnia", ex.Updates.Destination)

	ex = e.Extract("I want to go to the beach", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotDestination))
	assert.Equal(t, []string{"beaches"}, ex.Updates.ActivityPreferences)
}

func TestExtractProperOnlyPlaces(t *testing.T) {
	e := newTestExtractor(t)

	ex := e.Extract("that sounds nice", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotDestination))

	ex = e.Extract("a few days in Nice", ConversationContext{}, TripSlots{})
	assert.Equal(t, "Nice", ex.Updates.Destination)
}

func TestExtractTravelDates(t *testing.T) {
	e := newTestExtractor(t)

	tests := map[string]string{
		"5-12 June":          "5-12 June",
		"sometime in August": "August",
		"early may":          "May",
		"from 3/9 to 10/9":   "3/9 to 10/9",
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			ex := e.Extract(text, ConversationContext{}, TripSlots{Destination: "Italy", DepartureLocation: "Leeds"})
			require.True(t, ex.Has(SlotTravelDates))
			assert.Equal(t, want, ex.Updates.TravelDates)
		})
	}

	ex := e.Extract("maybe somewhere warm", ConversationContext{}, TripSlots{})
	assert.False(t, ex.Has(SlotTravelDates))
}

func TestExtractContextualAnswers(t *testing.T) {
	e := newTestExtractor(t)
	ask := func(slot SlotName, shape AnswerShape) ConversationContext {
		return ConversationContext{LastQuestionKey: slot, ExpectedAnswerShape: shape}
	}

	t.Run("unknown place for destination", func(t *testing.T) {
		ex := e.Extract("lake como", ask(SlotDestination, ShapePlace), TripSlots{})
		assert.Equal(t, "Lake Como", ex.Updates.Destination)
	})
	t.Run("gazetteer city answers departure question", func(t *testing.T) {
		ex := e.Extract("Paris", ask(SlotDepartureLocation, ShapePlace), TripSlots{Destination: "Italy"})
		assert.Equal(t, []SlotName{SlotDepartureLocation}, ex.Slots())
		assert.Equal(t, "Paris", ex.Updates.DepartureLocation)
	})
	t.Run("bare number for duration", func(t *testing.T) {
		ex := e.Extract("10", ask(SlotDuration, ShapeDuration), TripSlots{})
		assert.Equal(t, 10, ex.Updates.DurationDays)
	})
	t.Run("bare number for travellers", func(t *testing.T) {
		ex := e.Extract("3", ask(SlotTravelers, ShapeCount), TripSlots{})
		assert.Equal(t, 3, ex.Updates.Travelers)
	})
	t.Run("no preference for food", func(t *testing.T) {
		ex := e.Extract("anything really", ask(SlotFoodPreferences, ShapeList), TripSlots{})
		assert.Equal(t, []string{AnyPreference}, ex.Updates.FoodPreferences)
	})
	t.Run("free text list for activities", func(t *testing.T) {
		ex := e.Extract("kite flying and birdwatching", ask(SlotActivityPreferences, ShapeList), TripSlots{})
		assert.Equal(t, []string{"kite flying", "birdwatching"}, ex.Updates.ActivityPreferences)
	})
	t.Run("vocabulary word for accommodation", func(t *testing.T) {
		ex := e.Extract("budget", ask(SlotAccommodationType, ShapeChoice), TripSlots{})
		assert.Equal(t, "budget", ex.Updates.AccommodationType)
	})
	t.Run("free text for dates", func(t *testing.T) {
		ex := e.Extract("next spring", ask(SlotTravelDates, ShapeDate), TripSlots{})
		assert.Equal(t, "next spring", ex.Updates.TravelDates)
	})
	t.Run("keyword answer beats contextual", func(t *testing.T) {
		ex := e.Extract("5 days", ask(SlotDuration, ShapeDuration), TripSlots{})
		assert.Equal(t, 5, ex.Updates.DurationDays)
	})
	t.Run("uncertain reply is not a place", func(t *testing.T) {
		ex := e.Extract("I don't know yet", ask(SlotDestination, ShapePlace), TripSlots{})
		assert.True(t, ex.Empty())
	})
	t.Run("departure answer keeps the month", func(t *testing.T) {
		ex := e.Extract("Edinburgh in August", ask(SlotDepartureLocation, ShapePlace), TripSlots{Destination: "Italy"})
		assert.Equal(t, []SlotName{SlotDepartureLocation, SlotTravelDates}, ex.Slots())
		assert.Equal(t, "Edinburgh", ex.Updates.DepartureLocation)
		assert.Equal(t, "August", ex.Updates.TravelDates)
		assert.Empty(t, ex.Updates.Destination)
	})
	t.Run("budget answer keeps the party size", func(t *testing.T) {
		ex := e.Extract("2000 for 3 people", ask(SlotBudget, ShapeMoney), TripSlots{Destination: "Italy"})
		assert.Equal(t, []SlotName{SlotBudget, SlotTravelers}, ex.Slots())
		assert.Equal(t, 2000.0, ex.Updates.Budget)
		assert.Equal(t, 3, ex.Updates.Travelers)
	})
}

func TestExtractEmptyText(t *testing.T) {
	e := newTestExtractor(t)
	assert.True(t, e.Extract("   ", ConversationContext{}, TripSlots{}).Empty())
}
