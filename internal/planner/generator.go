package planner

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrIncompleteSlots = errors.New("itinerary needs every slot answered")

// PreconditionError is returned when generation is attempted before every
// slot has a value.
type PreconditionError struct {
	Missing []SlotName
}

func (e *PreconditionError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	return fmt.Sprintf("cannot generate itinerary, missing: %s", strings.Join(names, ", "))
}

func (e *PreconditionError) Unwrap() error { return ErrIncompleteSlots }

type DayKind string

const (
	DaySingle    DayKind = "single"
	DayArrival   DayKind = "arrival"
	DayFull      DayKind = "full"
	DayDeparture DayKind = "departure"
)

type TimeSlot string

const (
	TimeArrival   TimeSlot = "arrival"
	TimeMorning   TimeSlot = "morning"
	TimeAfternoon TimeSlot = "afternoon"
	TimeEvening   TimeSlot = "evening"
	TimeDeparture TimeSlot = "departure"
)

type ItemKind string

const (
	ItemLogistics  ItemKind = "logistics"
	ItemActivity   ItemKind = "activity"
	ItemRestaurant ItemKind = "restaurant"
)

// Relaxation names the fallback step that produced an item.
type Relaxation string

const (
	RelaxNone          Relaxation = ""
	RelaxCeiling       Relaxation = "raised_ceiling"
	RelaxRadius        Relaxation = "expanded_radius"
	RelaxAccommodation Relaxation = "cheaper_accommodation"
	RelaxPlaceholder   Relaxation = "placeholder"
)

type PlannedItem struct {
	TimeSlot   TimeSlot   `json:"time_slot"`
	Kind       ItemKind   `json:"kind"`
	Name       string     `json:"name"`
	Cost       float64    `json:"cost"`
	Tags       []string   `json:"tags,omitempty"`
	Relaxation Relaxation `json:"relaxation,omitempty"`
}

type DayPlan struct {
	Day           int           `json:"day"`
	Date          string        `json:"date"`
	City          string        `json:"city"`
	Kind          DayKind       `json:"kind"`
	Accommodation *Hotel        `json:"accommodation,omitempty"`
	Items         []PlannedItem `json:"items"`
	DailyCost     float64       `json:"daily_cost"`
	RunningTotal  float64       `json:"running_total"`
}

type ItineraryPlan struct {
	Destination       string          `json:"destination"`
	Country           string          `json:"country,omitempty"`
	Region            string          `json:"region,omitempty"`
	Departure         string          `json:"departure"`
	Cities            []string        `json:"cities"`
	Travelers         int             `json:"travelers"`
	StartDate         string          `json:"start_date"`
	TotalBudget       float64         `json:"total_budget"`
	Breakdown         BudgetBreakdown `json:"budget_breakdown"`
	Allocated         BudgetAmounts   `json:"allocated"`
	FlightCost        float64         `json:"flight_cost"`
	AccommodationCost float64         `json:"accommodation_cost"`
	EstimatedTotal    float64         `json:"estimated_total"`
	Days              []DayPlan       `json:"days"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Generator turns a complete set of slots into a day-by-day plan. It is
// deterministic for a given catalogue and clock.
type Generator struct {
	rules   *Rules
	catalog Catalog
	now     func() time.Time
}

func NewGenerator(rules *Rules, catalog Catalog) *Generator {
	if catalog == nil {
		catalog = NewMockCatalog(rules)
	}
	return &Generator{rules: rules, catalog: catalog, now: time.Now}
}

// WithCatalog returns a copy of g that draws candidates from c.
func (g *Generator) WithCatalog(c Catalog) *Generator {
	cp := *g
	cp.catalog = c
	return &cp
}

func (g *Generator) WithClock(now func() time.Time) *Generator {
	cp := *g
	cp.now = now
	return &cp
}

// Route returns the gazetteer entry (nil if unknown) and the ordered cities
// for a trip of the given length. Unknown destinations get a single city
// named after the destination itself.
func (g *Generator) Route(destination string, days int) (*Destination, []string) {
	dest, ok := g.rules.FindDestination(destination)
	if !ok {
		return nil, []string{strings.TrimSpace(destination)}
	}
	var route []string
	switch {
	case days <= 4:
		route = dest.Routes.Short
	case days <= 8:
		route = dest.Routes.Medium
	default:
		route = dest.Routes.Long
	}
	if len(route) == 0 {
		route = []string{dest.Name}
	}
	if days > 0 && len(route) > days {
		route = route[:days]
	}
	return dest, append([]string(nil), route...)
}

type planState struct {
	travelers      int
	rooms          int
	used           map[string]bool
	activityBudget float64
	activitySlots  int
	foodBudget     float64
	foodSlots      int
	hotels         map[string]Hotel
	nightCities    []string
	day            int
}

func (g *Generator) Generate(slots TripSlots) (*ItineraryPlan, error) {
	if missing := slots.Missing(); len(missing) > 0 {
		return nil, &PreconditionError{Missing: missing}
	}

	days := slots.DurationDays
	dest, cities := g.Route(slots.Destination, days)
	region := ""
	plan := &ItineraryPlan{
		Destination: slots.Destination,
		Departure:   slots.DepartureLocation,
		Cities:      cities,
		Travelers:   slots.Travelers,
		TotalBudget: slots.Budget,
		GeneratedAt: g.now(),
	}
	if dest != nil {
		region = dest.Region
		plan.Destination = dest.Name
		plan.Country = dest.Country
		plan.Region = dest.Region
	}

	breakdown, err := g.rules.Breakdown(region, days)
	if err != nil {
		return nil, err
	}
	plan.Breakdown = breakdown
	plan.Allocated = breakdown.Amounts(slots.Budget)
	plan.FlightCost = g.flightCost(slots, cities[0], plan.Allocated)

	dailyFood := g.rules.Budget.FoodPerPersonPerDay * float64(slots.Travelers)
	st := &planState{
		travelers:      slots.Travelers,
		rooms:          int(math.Ceil(float64(slots.Travelers) / 2)),
		used:           map[string]bool{},
		activityBudget: plan.Allocated.Activities,
		foodBudget:     math.Max(0, plan.Allocated.Food-dailyFood*float64(days)),
		hotels:         map[string]Hotel{},
	}
	if days == 1 {
		st.activitySlots = 1
	} else {
		st.activitySlots = 2*(days-2) + 1
		st.foodSlots = days - 1
	}

	dayCity := make([]string, days)
	for d := 0; d < days; d++ {
		dayCity[d] = cities[d*len(cities)/days]
	}
	st.nightCities = dayCity[:days-1]
	nightly := plan.Allocated.Accommodation / math.Max(1, float64(days-1))
	for _, city := range cities {
		st.hotels[city] = g.pickHotel(city, slots.AccommodationType, nightly, st.rooms)
	}

	start := g.startDate(slots.TravelDates)
	plan.StartDate = start.Format("2006-01-02")
	running := 0.0
	for d := 0; d < days; d++ {
		st.day = d
		city := dayCity[d]
		day := DayPlan{Day: d + 1, Date: start.AddDate(0, 0, d).Format("2006-01-02"), City: city}

		switch {
		case days == 1:
			day.Kind = DaySingle
			day.Items = append(day.Items,
				PlannedItem{TimeSlot: TimeArrival, Kind: ItemLogistics, Name: "Arrive in " + city},
				g.choose(st, city, ItemActivity, TimeAfternoon, slots.ActivityPreferences, true),
			)
		case d == 0:
			day.Kind = DayArrival
			dinner := g.choose(st, city, ItemRestaurant, TimeEvening, slots.FoodPreferences, false)
			day.Items = append(day.Items,
				PlannedItem{TimeSlot: TimeArrival, Kind: ItemLogistics, Name: fmt.Sprintf("Arrive in %s and check in at %s", city, st.hotels[city].Name)},
				dinner,
			)
		case d == days-1:
			day.Kind = DayDeparture
			checkout := st.hotels[dayCity[d-1]]
			day.Items = append(day.Items,
				g.choose(st, city, ItemActivity, TimeMorning, slots.ActivityPreferences, true),
				PlannedItem{TimeSlot: TimeDeparture, Kind: ItemLogistics, Name: fmt.Sprintf("Check out of %s and head home to %s", checkout.Name, slots.DepartureLocation)},
			)
		default:
			day.Kind = DayFull
			if dayCity[d-1] != city {
				prev := st.hotels[dayCity[d-1]]
				day.Items = append(day.Items, PlannedItem{TimeSlot: TimeMorning, Kind: ItemLogistics,
					Name: fmt.Sprintf("Check out of %s and travel to %s", prev.Name, city)})
			}
			day.Items = append(day.Items,
				g.choose(st, city, ItemActivity, TimeMorning, slots.ActivityPreferences, false),
				g.choose(st, city, ItemActivity, TimeAfternoon, slots.ActivityPreferences, false),
				g.choose(st, city, ItemRestaurant, TimeEvening, slots.FoodPreferences, false),
			)
		}

		if d < days-1 {
			hotel := st.hotels[city]
			day.Accommodation = &hotel
			plan.AccommodationCost += hotel.NightlyRate * float64(st.rooms)
		}

		day.DailyCost = dailyFood
		for _, it := range day.Items {
			day.DailyCost += it.Cost
		}
		if d == 0 {
			day.DailyCost += plan.FlightCost
		}
		day.DailyCost = roundCents(day.DailyCost)
		running = roundCents(running + day.DailyCost)
		day.RunningTotal = running
		plan.Days = append(plan.Days, day)
	}

	plan.AccommodationCost = roundCents(plan.AccommodationCost)
	plan.EstimatedTotal = roundCents(running + plan.AccommodationCost)
	return plan, nil
}

// flightCost is the cheapest offer times travellers, or the flights share
// of the budget when the catalogue has no offers.
func (g *Generator) flightCost(slots TripSlots, firstCity string, alloc BudgetAmounts) float64 {
	offers := g.catalog.Flights(slots.DepartureLocation, firstCity)
	if len(offers) == 0 {
		return alloc.Flights
	}
	cheapest := offers[0].Price
	for _, o := range offers[1:] {
		cheapest = math.Min(cheapest, o.Price)
	}
	return roundCents(cheapest * float64(slots.Travelers))
}

func (g *Generator) pickHotel(city, preferred string, nightlyBudget float64, rooms int) Hotel {
	class := strings.ToLower(preferred)
	if class == "" || class == AnyPreference {
		class = "hotel"
	}
	hotels := g.catalog.Hotels(city)
	if len(hotels) == 0 {
		return Hotel{
			Name:        "Accommodation in " + city,
			City:        city,
			Class:       class,
			NightlyRate: roundCents(nightlyBudget / float64(rooms)),
		}
	}
	sorted := append([]Hotel(nil), hotels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].NightlyRate < sorted[j].NightlyRate })

	affordable := func(h Hotel) bool { return h.NightlyRate*float64(rooms) <= nightlyBudget }
	for _, h := range sorted {
		if h.Class == class && affordable(h) {
			return h
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if affordable(sorted[i]) {
			return sorted[i]
		}
	}
	return sorted[0]
}

// downgrade moves every remaining night to the next cheaper hotel in its
// city and returns the money freed.
func (g *Generator) downgrade(st *planState) float64 {
	remaining := map[string]int{}
	for n := st.day; n < len(st.nightCities); n++ {
		remaining[st.nightCities[n]]++
	}
	freed := 0.0
	for city, nights := range remaining {
		cur := st.hotels[city]
		best, found := Hotel{}, false
		for _, h := range g.catalog.Hotels(city) {
			if h.NightlyRate < cur.NightlyRate && (!found || h.NightlyRate > best.NightlyRate) {
				best, found = h, true
			}
		}
		if !found {
			continue
		}
		freed += (cur.NightlyRate - best.NightlyRate) * float64(st.rooms*nights)
		st.hotels[city] = best
	}
	return roundCents(freed)
}

type criteria struct {
	ceiling float64
	radius  float64
}

// choose fills one slot. Candidates must match a preference, be unused, fit
// the fair share of the remaining category budget and lie within the base
// radius. If nothing qualifies the constraints are relaxed in order, each
// step keeping the previous ones: raise the ceiling, widen the radius, move
// to cheaper accommodation, and finally fall back to a placeholder.
func (g *Generator) choose(st *planState, city string, kind ItemKind, slot TimeSlot, prefs []string, light bool) PlannedItem {
	pool := g.catalog.Activities(city)
	budget, slots := &st.activityBudget, &st.activitySlots
	if kind == ItemRestaurant {
		pool = g.catalog.Restaurants(city)
		budget, slots = &st.foodBudget, &st.foodSlots
	}
	share := func() float64 {
		if *slots <= 0 {
			return math.Max(0, *budget)
		}
		return math.Max(0, *budget/float64(*slots))
	}
	raise := 1 + g.rules.Fallback.CeilingRaisePercent/100
	crit := criteria{ceiling: share(), radius: g.rules.Fallback.BaseRadiusKm}
	wanted := effectivePrefs(pool, prefs)

	steps := []struct {
		name  Relaxation
		relax func() bool
	}{
		{RelaxNone, func() bool { return true }},
		{RelaxCeiling, func() bool { crit.ceiling *= raise; return true }},
		{RelaxRadius, func() bool { crit.radius = g.rules.Fallback.ExpandedRadiusKm; return true }},
		{RelaxAccommodation, func() bool {
			freed := g.downgrade(st)
			if freed <= 0 {
				return false
			}
			*budget += freed
			crit.ceiling = math.Max(crit.ceiling, share()*raise)
			return true
		}},
	}
	for _, step := range steps {
		if !step.relax() {
			continue
		}
		a, ok := g.pick(pool, crit, wanted, st, light)
		if !ok {
			continue
		}
		cost := roundCents(a.Cost * float64(st.travelers))
		*budget -= cost
		*slots--
		st.used[a.City+"|"+a.Name] = true
		return PlannedItem{TimeSlot: slot, Kind: kind, Name: a.Name, Cost: cost, Tags: a.Tags, Relaxation: step.name}
	}

	*slots--
	name := "Free time to explore " + city
	if kind == ItemRestaurant {
		name = "Dinner at a local restaurant in " + city
	}
	return PlannedItem{TimeSlot: slot, Kind: kind, Name: name, Relaxation: RelaxPlaceholder}
}

func (g *Generator) pick(pool []Activity, crit criteria, wanted map[string]bool, st *planState, light bool) (Activity, bool) {
	var found []Activity
	for _, a := range pool {
		if st.used[a.City+"|"+a.Name] {
			continue
		}
		if wanted != nil && !hasAnyTag(a.Tags, wanted) {
			continue
		}
		if a.Cost*float64(st.travelers) > crit.ceiling+0.005 {
			continue
		}
		if a.DistanceKm > crit.radius {
			continue
		}
		found = append(found, a)
	}
	if len(found) == 0 {
		return Activity{}, false
	}
	if light {
		sort.SliceStable(found, func(i, j int) bool { return found[i].Light && !found[j].Light })
	}
	return found[0], true
}

// effectivePrefs keeps the preferences the pool can satisfy at all. A nil
// result means anything goes.
func effectivePrefs(pool []Activity, prefs []string) map[string]bool {
	available := map[string]bool{}
	for _, a := range pool {
		for _, t := range a.Tags {
			available[strings.ToLower(t)] = true
		}
	}
	wanted := map[string]bool{}
	for _, p := range prefs {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == AnyPreference {
			return nil
		}
		if available[p] {
			wanted[p] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}
	return wanted
}

func hasAnyTag(tags []string, wanted map[string]bool) bool {
	for _, t := range tags {
		if wanted[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// startDate resolves the travel-dates slot to a concrete first day. Free
// text that names no date starts the trip thirty days out.
func (g *Generator) startDate(when string) time.Time {
	now := g.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	lower := strings.ToLower(when)

	next := func(month time.Month, day int) time.Time {
		t := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
		if t.Before(today) {
			t = t.AddDate(1, 0, 0)
		}
		return t
	}

	if m := numericDateRe.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			if m[3] != "" {
				year, _ := strconv.Atoi(m[3])
				if year < 100 {
					year += 2000
				}
				return time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
			}
			return next(time.Month(month), day)
		}
	}
	if m := rangeDayFirstRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthNumber(m[3]); ok {
			day, _ := strconv.Atoi(m[1])
			return next(month, day)
		}
	}
	if m := rangeMonthFirstRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthNumber(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			return next(month, day)
		}
	}
	if m := singleDateRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthNumber(m[2]); ok {
			day, _ := strconv.Atoi(m[1])
			return next(month, day)
		}
	}
	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		if month, ok := monthNumber(m[1]); ok {
			day, _ := strconv.Atoi(m[2])
			return next(month, day)
		}
	}
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return r < 'a' || r > 'z' }) {
		if !isMonthWord(word) {
			continue
		}
		if month, ok := monthNumber(word); ok {
			if month == today.Month() {
				return today.AddDate(0, 0, 1)
			}
			return next(month, 1)
		}
	}
	return today.AddDate(0, 0, 30)
}

var numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})(?:[/.](\d{2,4}))?\b`)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

func monthNumber(s string) (time.Month, bool) {
	if len(s) < 3 {
		return 0, false
	}
	m, ok := monthPrefixes[s[:3]]
	return m, ok
}

func isMonthWord(word string) bool {
	for _, name := range []string{"january", "february", "march", "april", "may", "june", "july",
		"august", "september", "october", "november", "december"} {
		if word == name || (len(word) >= 3 && len(word) <= 4 && strings.HasPrefix(name, word)) {
			return true
		}
	}
	return false
}
