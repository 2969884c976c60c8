package planner

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type SlotName string

const (
	SlotDestination         SlotName = "destination"
	SlotDuration            SlotName = "duration"
	SlotBudget              SlotName = "budget"
	SlotTravelers           SlotName = "travelers"
	SlotDepartureLocation   SlotName = "departureLocation"
	SlotTravelDates         SlotName = "travelDates"
	SlotAccommodationType   SlotName = "accommodationType"
	SlotFoodPreferences     SlotName = "foodPreferences"
	SlotActivityPreferences SlotName = "activityPreferences"
	SlotPace                SlotName = "pace"
)

// SlotOrder is the order in which missing slots are asked for.
var SlotOrder = []SlotName{
	SlotDestination,
	SlotDuration,
	SlotBudget,
	SlotTravelers,
	SlotDepartureLocation,
	SlotTravelDates,
	SlotAccommodationType,
	SlotFoodPreferences,
	SlotActivityPreferences,
	SlotPace,
}

type Pace string

const (
	PaceFast     Pace = "fast-paced"
	PaceRelaxed  Pace = "relaxed"
	PaceBalanced Pace = "balanced"
)

// AnyPreference is stored when the user explicitly has no preference.
const AnyPreference = "any"

type TripSlots struct {
	Destination         string   `json:"destination,omitempty" yaml:"destination,omitempty"`
	DurationDays        int      `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
	Budget              float64  `json:"budget,omitempty" yaml:"budget,omitempty"`
	Travelers           int      `json:"travelers,omitempty" yaml:"travelers,omitempty"`
	DepartureLocation   string   `json:"departure_location,omitempty" yaml:"departure_location,omitempty"`
	TravelDates         string   `json:"travel_dates,omitempty" yaml:"travel_dates,omitempty"`
	AccommodationType   string   `json:"accommodation_type,omitempty" yaml:"accommodation_type,omitempty"`
	FoodPreferences     []string `json:"food_preferences,omitempty" yaml:"food_preferences,omitempty"`
	ActivityPreferences []string `json:"activity_preferences,omitempty" yaml:"activity_preferences,omitempty"`
	Pace                Pace     `json:"pace,omitempty" yaml:"pace,omitempty"`
}

// Has reports whether the slot carries a usable value.
func (s TripSlots) Has(name SlotName) bool {
	switch name {
	case SlotDestination:
		return strings.TrimSpace(s.Destination) != ""
	case SlotDuration:
		return s.DurationDays > 0
	case SlotBudget:
		return s.Budget > 0
	case SlotTravelers:
		return s.Travelers > 0
	case SlotDepartureLocation:
		return strings.TrimSpace(s.DepartureLocation) != ""
	case SlotTravelDates:
		return strings.TrimSpace(s.TravelDates) != ""
	case SlotAccommodationType:
		return strings.TrimSpace(s.AccommodationType) != ""
	case SlotFoodPreferences:
		return len(s.FoodPreferences) > 0
	case SlotActivityPreferences:
		return len(s.ActivityPreferences) > 0
	case SlotPace:
		return s.Pace != ""
	}
	return false
}

func (s TripSlots) Missing() []SlotName {
	var missing []SlotName
	for _, name := range SlotOrder {
		if !s.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s TripSlots) Clone() TripSlots {
	out := s
	out.FoodPreferences = append([]string(nil), s.FoodPreferences...)
	out.ActivityPreferences = append([]string(nil), s.ActivityPreferences...)
	return out
}

// copyFrom overwrites a single slot with the value held by src.
func (s *TripSlots) copyFrom(src TripSlots, name SlotName) {
	switch name {
	case SlotDestination:
		s.Destination = src.Destination
	case SlotDuration:
		s.DurationDays = src.DurationDays
	case SlotBudget:
		s.Budget = src.Budget
	case SlotTravelers:
		s.Travelers = src.Travelers
	case SlotDepartureLocation:
		s.DepartureLocation = src.DepartureLocation
	case SlotTravelDates:
		s.TravelDates = src.TravelDates
	case SlotAccommodationType:
		s.AccommodationType = src.AccommodationType
	case SlotFoodPreferences:
		s.FoodPreferences = append([]string(nil), src.FoodPreferences...)
	case SlotActivityPreferences:
		s.ActivityPreferences = append([]string(nil), src.ActivityPreferences...)
	case SlotPace:
		s.Pace = src.Pace
	}
}

func (s TripSlots) placeOf(name SlotName) string {
	if name == SlotDepartureLocation {
		return s.DepartureLocation
	}
	return s.Destination
}

var moneyPrinter = message.NewPrinter(language.English)

func formatMoney(v float64) string {
	if v == float64(int64(v)) {
		return moneyPrinter.Sprintf("%d", int64(v))
	}
	return moneyPrinter.Sprintf("%.2f", v)
}

// Describe renders a slot value for acknowledgements and summaries.
func (s TripSlots) Describe(name SlotName) string {
	switch name {
	case SlotDestination:
		return s.Destination
	case SlotDuration:
		if s.DurationDays == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", s.DurationDays)
	case SlotBudget:
		return formatMoney(s.Budget)
	case SlotTravelers:
		if s.Travelers == 1 {
			return "1 traveller"
		}
		return fmt.Sprintf("%d travellers", s.Travelers)
	case SlotDepartureLocation:
		return s.DepartureLocation
	case SlotTravelDates:
		return s.TravelDates
	case SlotAccommodationType:
		return s.AccommodationType
	case SlotFoodPreferences:
		return strings.Join(s.FoodPreferences, ", ")
	case SlotActivityPreferences:
		return strings.Join(s.ActivityPreferences, ", ")
	case SlotPace:
		return string(s.Pace)
	}
	return ""
}

var slotLabels = map[SlotName]string{
	SlotDestination:         "Destination",
	SlotDuration:            "Duration",
	SlotBudget:              "Budget",
	SlotTravelers:           "Travellers",
	SlotDepartureLocation:   "Departure city",
	SlotTravelDates:         "Travel dates",
	SlotAccommodationType:   "Accommodation",
	SlotFoodPreferences:     "Food",
	SlotActivityPreferences: "Activities",
	SlotPace:                "Pace",
}

func (n SlotName) Label() string {
	if l, ok := slotLabels[n]; ok {
		return l
	}
	return string(n)
}

// Answered tracks which slots the user has supplied.
type Answered map[SlotName]bool

func (a Answered) Clone() Answered {
	out := make(Answered, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// NextMissing returns the highest-priority unanswered slot.
func (a Answered) NextMissing() (SlotName, bool) {
	for _, name := range SlotOrder {
		if !a[name] {
			return name, true
		}
	}
	return "", false
}

func (a Answered) All() bool {
	_, missing := a.NextMissing()
	return !missing
}

// Extraction is the result of reading one user message: the values found
// and which slots they cover. Slots not flagged in Answered are untouched.
type Extraction struct {
	Updates  TripSlots `json:"updates"`
	Answered Answered  `json:"answered"`
}

func newExtraction() Extraction {
	return Extraction{Answered: Answered{}}
}

func (e Extraction) Empty() bool {
	for _, ok := range e.Answered {
		if ok {
			return false
		}
	}
	return true
}

func (e Extraction) Has(name SlotName) bool {
	return e.Answered[name]
}

// Slots lists the extracted slots in priority order.
func (e Extraction) Slots() []SlotName {
	var out []SlotName
	for _, name := range SlotOrder {
		if e.Answered[name] {
			out = append(out, name)
		}
	}
	return out
}

func (e *Extraction) setString(name SlotName, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	switch name {
	case SlotDestination:
		e.Updates.Destination = v
	case SlotDepartureLocation:
		e.Updates.DepartureLocation = v
	case SlotTravelDates:
		e.Updates.TravelDates = v
	case SlotAccommodationType:
		e.Updates.AccommodationType = v
	case SlotPace:
		e.Updates.Pace = Pace(v)
	default:
		return
	}
	e.Answered[name] = true
}

func (e *Extraction) setList(name SlotName, values []string) {
	if len(values) == 0 {
		return
	}
	switch name {
	case SlotFoodPreferences:
		e.Updates.FoodPreferences = values
	case SlotActivityPreferences:
		e.Updates.ActivityPreferences = values
	default:
		return
	}
	e.Answered[name] = true
}

// drop forgets an extracted slot.
func (e *Extraction) drop(name SlotName) {
	e.Updates.copyFrom(TripSlots{}, name)
	delete(e.Answered, name)
}

func (e *Extraction) setDuration(days int) {
	if days <= 0 {
		return
	}
	e.Updates.DurationDays = days
	e.Answered[SlotDuration] = true
}

func (e *Extraction) setBudget(amount float64) {
	if amount <= 0 {
		return
	}
	e.Updates.Budget = amount
	e.Answered[SlotBudget] = true
}

func (e *Extraction) setTravelers(n int) {
	if n <= 0 {
		return
	}
	e.Updates.Travelers = n
	e.Answered[SlotTravelers] = true
}
