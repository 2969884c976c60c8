package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixedCatalog struct {
	hotels      []Hotel
	activities  []Activity
	restaurants []Activity
	flights     []FlightOffer
}

func (f fixedCatalog) Hotels(string) []Hotel                { return f.hotels }
func (f fixedCatalog) Activities(string) []Activity         { return f.activities }
func (f fixedCatalog) Restaurants(string) []Activity        { return f.restaurants }
func (f fixedCatalog) Flights(string, string) []FlightOffer { return f.flights }

func newTestGenerator(c Catalog) *Generator {
	return NewGenerator(DefaultRules(), c).WithClock(fixedClock)
}

func slotsFor(dest string, days int) TripSlots {
	s := fullSlots()
	s.Destination = dest
	s.DurationDays = days
	s.Budget = 3000
	return s
}

func TestGenerateDayCountMatchesDuration(t *testing.T) {
	g := newTestGenerator(nil)
	for _, dest := range []string{"Italy", "Japan", "Narnia", "Paris"} {
		for days := 1; days <= 15; days++ {
			plan, err := g.Generate(slotsFor(dest, days))
			require.NoError(t, err)
			require.Len(t, plan.Days, days, "%s %d", dest, days)
			start, err := time.Parse("2006-01-02", plan.StartDate)
			require.NoError(t, err)
			for i, d := range plan.Days {
				assert.Equal(t, i+1, d.Day)
				assert.Equal(t, start.AddDate(0, 0, i).Format("2006-01-02"), d.Date)
			}
		}
	}
}

func TestGenerateRunningTotalIsSumOfDailyCosts(t *testing.T) {
	g := newTestGenerator(nil)
	plan, err := g.Generate(slotsFor("Italy", 7))
	require.NoError(t, err)

	sum := 0.0
	for i, d := range plan.Days {
		sum += d.DailyCost
		assert.InDelta(t, sum, d.RunningTotal, 0.01, "day %d", i+1)
	}
	assert.GreaterOrEqual(t, plan.Days[0].DailyCost, plan.FlightCost)
	assert.InDelta(t, plan.Days[len(plan.Days)-1].RunningTotal+plan.AccommodationCost, plan.EstimatedTotal, 0.01)
	assert.InDelta(t, plan.TotalBudget, plan.Allocated.Sum(), 0.01)
}

func TestGenerateUnknownDestinationUsesSingleCity(t *testing.T) {
	g := newTestGenerator(nil)
	plan, err := g.Generate(slotsFor("Narnia", 6))
	require.NoError(t, err)

	assert.Equal(t, "Narnia", plan.Destination)
	assert.Equal(t, []string{"Narnia"}, plan.Cities)
	assert.Empty(t, plan.Region)
	for _, d := range plan.Days {
		assert.Equal(t, "Narnia", d.City)
	}
	want, err := DefaultRules().Breakdown("", 6)
	require.NoError(t, err)
	assert.Equal(t, want, plan.Breakdown)
}

func TestGenerateRoutesByTripLength(t *testing.T) {
	g := newTestGenerator(nil)

	_, short := g.Route("Italy", 3)
	assert.Equal(t, []string{"Rome"}, short)
	_, medium := g.Route("Italy", 7)
	assert.Equal(t, []string{"Rome", "Florence", "Venice"}, medium)
	_, capped := g.Route("Italy", 2)
	assert.Len(t, capped, 1)
	_, long := g.Route("Japan", 5)
	assert.Equal(t, []string{"Tokyo", "Kyoto", "Osaka"}, long)

	plan, err := g.Generate(slotsFor("Italy", 7))
	require.NoError(t, err)
	assert.Equal(t, "Rome", plan.Days[0].City)
	assert.Equal(t, "Venice", plan.Days[6].City)
	assert.Equal(t, "Europe", plan.Region)
	assert.Equal(t, 45, plan.Breakdown.Accommodation)
}

func TestGenerateRequiresEverySlot(t *testing.T) {
	g := newTestGenerator(nil)
	s := fullSlots()
	s.Pace = ""
	s.FoodPreferences = nil

	_, err := g.Generate(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteSlots)

	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []SlotName{SlotFoodPreferences, SlotPace}, pe.Missing)
}

func TestGenerateDayShapes(t *testing.T) {
	g := newTestGenerator(nil)
	plan, err := g.Generate(slotsFor("Greece", 4))
	require.NoError(t, err)

	first := plan.Days[0]
	assert.Equal(t, DayArrival, first.Kind)
	require.Len(t, first.Items, 2)
	assert.Equal(t, ItemLogistics, first.Items[0].Kind)
	assert.Equal(t, TimeEvening, first.Items[1].TimeSlot)
	require.NotNil(t, first.Accommodation)

	mid := plan.Days[1]
	assert.Equal(t, DayFull, mid.Kind)
	var slots []TimeSlot
	for _, it := range mid.Items {
		slots = append(slots, it.TimeSlot)
	}
	assert.Equal(t, []TimeSlot{TimeMorning, TimeAfternoon, TimeEvening}, slots)

	last := plan.Days[3]
	assert.Equal(t, DayDeparture, last.Kind)
	assert.Nil(t, last.Accommodation)
	for _, it := range last.Items {
		assert.NotEqual(t, TimeEvening, it.TimeSlot)
	}
	assert.Equal(t, TimeDeparture, last.Items[len(last.Items)-1].TimeSlot)

	single, err := g.Generate(slotsFor("Greece", 1))
	require.NoError(t, err)
	assert.Equal(t, DaySingle, single.Days[0].Kind)
	assert.Nil(t, single.Days[0].Accommodation)
	assert.Len(t, single.Days[0].Items, 2)
}

func TestGenerateDatesFollowTravelDates(t *testing.T) {
	g := newTestGenerator(nil)

	tests := map[string]string{
		"June":        "2026-06-01",
		"5-12 June":   "2026-06-05",
		"March":       "2026-03-11",
		"February":    "2027-02-01",
		"15/04/2027":  "2027-04-15",
		"next spring": "2026-04-09",
	}
	for when, want := range tests {
		t.Run(when, func(t *testing.T) {
			s := slotsFor("Italy", 3)
			s.TravelDates = when
			plan, err := g.Generate(s)
			require.NoError(t, err)
			assert.Equal(t, want, plan.StartDate)
			assert.Equal(t, want, plan.Days[0].Date)
		})
	}
}

func TestGenerateUsesCheapestFlightOffer(t *testing.T) {
	rules := DefaultRules()
	snap := NewSnapshotCatalog(NewMockCatalog(rules))
	snap.FlightOffers = []FlightOffer{
		{Carrier: "A", From: "Leeds", To: "Rome", Price: 150},
		{Carrier: "B", From: "Leeds", To: "Rome", Price: 120},
		{Carrier: "C", From: "Leeds", To: "Paris", Price: 20},
	}
	g := NewGenerator(rules, snap).WithClock(fixedClock)

	s := slotsFor("Italy", 3)
	plan, err := g.Generate(s)
	require.NoError(t, err)
	assert.Equal(t, 240.0, plan.FlightCost)
	assert.GreaterOrEqual(t, plan.Days[0].DailyCost, 240.0)
}

func TestGeneratePrefersMatchingHotelClass(t *testing.T) {
	g := newTestGenerator(nil)
	s := slotsFor("Narnia", 3)
	s.AccommodationType = "hostel"

	plan, err := g.Generate(s)
	require.NoError(t, err)
	assert.Equal(t, "hostel", plan.Days[0].Accommodation.Class)

	s.AccommodationType = "luxury"
	s.Budget = 500
	plan, err = g.Generate(s)
	require.NoError(t, err)
	assert.NotEqual(t, "luxury", plan.Days[0].Accommodation.Class)
}

func oneTraveller(dest string, days int, budget float64) TripSlots {
	s := slotsFor(dest, days)
	s.Travelers = 1
	s.Budget = budget
	s.ActivityPreferences = []string{AnyPreference}
	s.FoodPreferences = []string{AnyPreference}
	return s
}

func TestRelaxationRaisesCeiling(t *testing.T) {
	// Atlantis uses the default table: activities get 10% of 1000.
	cat := fixedCatalog{activities: []Activity{{Name: "Pricey tour", Cost: 110, DistanceKm: 1}}}
	plan, err := newTestGenerator(cat).Generate(oneTraveller("Atlantis", 1, 1000))
	require.NoError(t, err)

	item := plan.Days[0].Items[1]
	assert.Equal(t, "Pricey tour", item.Name)
	assert.Equal(t, RelaxCeiling, item.Relaxation)
}

func TestRelaxationExpandsRadius(t *testing.T) {
	cat := fixedCatalog{activities: []Activity{{Name: "Far hike", Cost: 0, DistanceKm: 12}}}
	plan, err := newTestGenerator(cat).Generate(oneTraveller("Atlantis", 1, 1000))
	require.NoError(t, err)

	item := plan.Days[0].Items[1]
	assert.Equal(t, "Far hike", item.Name)
	assert.Equal(t, RelaxRadius, item.Relaxation)
}

func TestRelaxationDowngradesAccommodation(t *testing.T) {
	cat := fixedCatalog{
		hotels: []Hotel{
			{Name: "Grand", Class: "luxury", NightlyRate: 390},
			{Name: "Inn", Class: "budget", NightlyRate: 60},
		},
		activities:  []Activity{{Name: "Helicopter ride", Cost: 150, DistanceKm: 1}},
		restaurants: []Activity{{Name: "Cafe", Cost: 10, DistanceKm: 1}},
	}
	// 2000 leaves 400 a night, enough for the Grand until activities need more.
	s := oneTraveller("Atlantis", 3, 2000)
	s.AccommodationType = "luxury"

	plan, err := newTestGenerator(cat).Generate(s)
	require.NoError(t, err)

	assert.Equal(t, "Grand", plan.Days[0].Accommodation.Name)
	item := plan.Days[1].Items[0]
	assert.Equal(t, "Helicopter ride", item.Name)
	assert.Equal(t, RelaxAccommodation, item.Relaxation)
	assert.Equal(t, "Inn", plan.Days[1].Accommodation.Name)
}

func TestRelaxationFallsBackToPlaceholder(t *testing.T) {
	plan, err := newTestGenerator(fixedCatalog{}).Generate(oneTraveller("Atlantis", 3, 1000))
	require.NoError(t, err)

	for _, d := range plan.Days {
		for _, it := range d.Items {
			if it.Kind != ItemLogistics {
				assert.Equal(t, RelaxPlaceholder, it.Relaxation)
				assert.Zero(t, it.Cost)
			}
		}
	}
	assert.Equal(t, "Accommodation in Atlantis", plan.Days[0].Accommodation.Name)
}

func TestGenerateNeverRepeatsAnItem(t *testing.T) {
	plan, err := newTestGenerator(nil).Generate(slotsFor("Narnia", 10))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, d := range plan.Days {
		for _, it := range d.Items {
			if it.Kind == ItemLogistics || it.Relaxation == RelaxPlaceholder {
				continue
			}
			assert.False(t, seen[it.Name], "repeated %s", it.Name)
			seen[it.Name] = true
		}
	}
}
