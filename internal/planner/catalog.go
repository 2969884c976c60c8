package planner

import (
	"sort"
	"strings"
)

type Hotel struct {
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Class       string  `json:"class"`
	NightlyRate float64 `json:"nightly_rate"`
	DistanceKm  float64 `json:"distance_km"`
}

type Activity struct {
	Name       string   `json:"name"`
	City       string   `json:"city"`
	Tags       []string `json:"tags"`
	Cost       float64  `json:"cost"`
	DistanceKm float64  `json:"distance_km"`
	Light      bool     `json:"light"`
}

type FlightOffer struct {
	Carrier string  `json:"carrier"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Price   float64 `json:"price"`
}

// Catalog is where the generator gets candidates from. Prices are per
// person for activities and flights, per room for hotels.
type Catalog interface {
	Hotels(city string) []Hotel
	Activities(city string) []Activity
	Restaurants(city string) []Activity
	Flights(from, to string) []FlightOffer
}

// MockCatalog builds per-city offers from the templates in the rule table.
// It returns no flights; the generator then uses the flights budget share.
type MockCatalog struct {
	rules *Rules
}

func NewMockCatalog(rules *Rules) *MockCatalog {
	return &MockCatalog{rules: rules}
}

func (m *MockCatalog) Hotels(city string) []Hotel {
	out := make([]Hotel, 0, len(m.rules.Catalog.Hotels))
	for _, t := range m.rules.Catalog.Hotels {
		out = append(out, Hotel{
			Name:        fillCity(t.Name, city),
			City:        city,
			Class:       t.Class,
			NightlyRate: t.NightlyRate,
			DistanceKm:  t.DistanceKm,
		})
	}
	return out
}

func (m *MockCatalog) Activities(city string) []Activity {
	return fromTemplates(m.rules.Catalog.Activities, city)
}

func (m *MockCatalog) Restaurants(city string) []Activity {
	return fromTemplates(m.rules.Catalog.Restaurants, city)
}

func (m *MockCatalog) Flights(from, to string) []FlightOffer {
	return nil
}

// FlightEstimate is a rough per-person fare by region, used when no live
// offers are available.
func (m *MockCatalog) FlightEstimate(region string) float64 {
	if v, ok := m.rules.Catalog.FlightBase[strings.ToLower(region)]; ok {
		return v
	}
	return m.rules.Catalog.FlightBase["default"]
}

func fromTemplates(templates []ActivityTemplate, city string) []Activity {
	out := make([]Activity, 0, len(templates))
	for _, t := range templates {
		out = append(out, Activity{
			Name:       fillCity(t.Name, city),
			City:       city,
			Tags:       append([]string(nil), t.Tags...),
			Cost:       t.Cost,
			DistanceKm: t.DistanceKm,
			Light:      t.Light,
		})
	}
	return out
}

func fillCity(name, city string) string {
	return strings.ReplaceAll(name, "{city}", city)
}

// SnapshotCatalog serves offers captured ahead of time, for example from a
// remote search API. Cities it has nothing for fall through to Fallback.
type SnapshotCatalog struct {
	HotelsByCity      map[string][]Hotel
	ActivitiesByCity  map[string][]Activity
	RestaurantsByCity map[string][]Activity
	FlightOffers      []FlightOffer
	Fallback          Catalog
}

func NewSnapshotCatalog(fallback Catalog) *SnapshotCatalog {
	return &SnapshotCatalog{
		HotelsByCity:      map[string][]Hotel{},
		ActivitiesByCity:  map[string][]Activity{},
		RestaurantsByCity: map[string][]Activity{},
		Fallback:          fallback,
	}
}

func (s *SnapshotCatalog) Hotels(city string) []Hotel {
	if h := s.HotelsByCity[strings.ToLower(city)]; len(h) > 0 {
		return h
	}
	if s.Fallback != nil {
		return s.Fallback.Hotels(city)
	}
	return nil
}

func (s *SnapshotCatalog) Activities(city string) []Activity {
	if a := s.ActivitiesByCity[strings.ToLower(city)]; len(a) > 0 {
		return a
	}
	if s.Fallback != nil {
		return s.Fallback.Activities(city)
	}
	return nil
}

func (s *SnapshotCatalog) Restaurants(city string) []Activity {
	if r := s.RestaurantsByCity[strings.ToLower(city)]; len(r) > 0 {
		return r
	}
	if s.Fallback != nil {
		return s.Fallback.Restaurants(city)
	}
	return nil
}

// Flights returns offers into "to", cheapest first.
func (s *SnapshotCatalog) Flights(from, to string) []FlightOffer {
	var out []FlightOffer
	for _, f := range s.FlightOffers {
		if strings.EqualFold(f.To, to) && (from == "" || strings.EqualFold(f.From, from)) {
			out = append(out, f)
		}
	}
	if len(out) == 0 && s.Fallback != nil {
		return s.Fallback.Flights(from, to)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

func (s *SnapshotCatalog) AddHotels(city string, hotels ...Hotel) {
	key := strings.ToLower(city)
	s.HotelsByCity[key] = append(s.HotelsByCity[key], hotels...)
}

func (s *SnapshotCatalog) AddActivities(city string, activities ...Activity) {
	key := strings.ToLower(city)
	s.ActivitiesByCity[key] = append(s.ActivitiesByCity[key], activities...)
}

func (s *SnapshotCatalog) AddRestaurants(city string, restaurants ...Activity) {
	key := strings.ToLower(city)
	s.RestaurantsByCity[key] = append(s.RestaurantsByCity[key], restaurants...)
}
