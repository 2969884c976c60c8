package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tripmate/internal/models/request_models"
	"tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/pkg/logger"
	"tripmate/pkg/utils"
)

const (
	SourceLive     = "live"
	SourceFallback = "fallback"

	offersCacheTTL    = 10 * time.Minute
	maxParallelLookup = 4
)

type OffersConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type SearchServiceInterface interface {
	SearchFlights(ctx context.Context, req request_models.FlightSearchRequest) (*response_models.FlightSearchResponse, error)
	SearchHotels(ctx context.Context, req request_models.HotelSearchRequest) (*response_models.HotelSearchResponse, error)
	SearchActivities(ctx context.Context, req request_models.ActivitySearchRequest) (*response_models.ActivitySearchResponse, error)
	BuildCatalog(ctx context.Context, slots planner.TripSlots, cities []string) planner.Catalog
}

// SearchService fronts the remote offers API. Every lookup falls back to the
// mock catalogue when the API is unset, slow or failing.
type SearchService struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
	Cache   *cache.Cache

	rules *planner.Rules
	mock  *planner.MockCatalog
}

func NewSearchService(cfg OffersConfig, rules *planner.Rules) SearchServiceInterface {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SearchService{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		Cache:   cache.New(offersCacheTTL, 2*offersCacheTTL),
		rules:   rules,
		mock:    planner.NewMockCatalog(rules),
	}
}

func (s *SearchService) SearchFlights(ctx context.Context, req request_models.FlightSearchRequest) (*response_models.FlightSearchResponse, error) {
	if strings.TrimSpace(req.Origin) == "" || strings.TrimSpace(req.Destination) == "" {
		return nil, utils.ErrInvalidInput
	}
	var out response_models.FlightSearchResponse
	err := s.post(ctx, "/flights", req, &out)
	if err == nil {
		out.Source = SourceLive
		return &out, nil
	}
	s.logFallback("flights", err)
	return &response_models.FlightSearchResponse{
		Flights: s.fallbackFlights(req.Origin, req.Destination),
		Source:  SourceFallback,
	}, nil
}

func (s *SearchService) SearchHotels(ctx context.Context, req request_models.HotelSearchRequest) (*response_models.HotelSearchResponse, error) {
	if strings.TrimSpace(req.City) == "" {
		return nil, utils.ErrInvalidInput
	}
	var out response_models.HotelSearchResponse
	err := s.post(ctx, "/hotels", req, &out)
	if err == nil {
		out.Source = SourceLive
		return &out, nil
	}
	s.logFallback("hotels", err)

	class := strings.ToLower(strings.TrimSpace(req.Type))
	hotels := lo.Filter(s.mock.Hotels(req.City), func(h planner.Hotel, _ int) bool {
		if class != "" && class != planner.AnyPreference && h.Class != class {
			return false
		}
		return req.MaxPrice <= 0 || h.NightlyRate <= req.MaxPrice
	})
	return &response_models.HotelSearchResponse{Hotels: hotels, Source: SourceFallback}, nil
}

func (s *SearchService) SearchActivities(ctx context.Context, req request_models.ActivitySearchRequest) (*response_models.ActivitySearchResponse, error) {
	if strings.TrimSpace(req.City) == "" {
		return nil, utils.ErrInvalidInput
	}
	var out response_models.ActivitySearchResponse
	err := s.post(ctx, "/activities", req, &out)
	if err == nil {
		out.Source = SourceLive
		return &out, nil
	}
	s.logFallback("activities", err)

	pool := s.mock.Activities(req.City)
	if req.Restaurants {
		pool = s.mock.Restaurants(req.City)
	}
	wanted := lo.Map(req.Preferences, func(p string, _ int) string { return strings.ToLower(strings.TrimSpace(p)) })
	anyPref := len(wanted) == 0 || lo.Contains(wanted, planner.AnyPreference)
	activities := lo.Filter(pool, func(a planner.Activity, _ int) bool {
		if req.MaxPrice > 0 && a.Cost > req.MaxPrice {
			return false
		}
		return anyPref || len(lo.Intersect(a.Tags, wanted)) > 0
	})
	return &response_models.ActivitySearchResponse{Activities: activities, Source: SourceFallback}, nil
}

// fallbackFlights fabricates a few fares around the regional estimate.
func (s *SearchService) fallbackFlights(origin, destination string) []planner.FlightOffer {
	region := ""
	to := strings.TrimSpace(destination)
	if dest, ok := s.rules.FindDestination(destination); ok {
		region = dest.Region
		to = dest.Name
	}
	base := s.mock.FlightEstimate(region)
	fares := []fallbackFare{
		{"Budget Air", 0.85},
		{"National Airways", 1.0},
		{"Premier Jet", 1.3},
	}
	return lo.Map(fares, func(f fallbackFare, _ int) planner.FlightOffer {
		return planner.FlightOffer{
			Carrier: f.carrier,
			From:    strings.TrimSpace(origin),
			To:      to,
			Price:   math.Round(base*f.factor*100) / 100,
		}
	})
}

type fallbackFare struct {
	carrier string
	factor  float64
}

// BuildCatalog snapshots live offers for every city on the route. Lookups
// run in parallel; a city whose lookup fails is served from the mock
// catalogue. Flights are only taken from the live API, so without it the
// generator budgets flights from its percentage table.
func (s *SearchService) BuildCatalog(ctx context.Context, slots planner.TripSlots, cities []string) planner.Catalog {
	snapshot := planner.NewSnapshotCatalog(s.mock)
	if s.BaseURL == "" || len(cities) == 0 {
		return snapshot
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxParallelLookup)

	for _, city := range cities {
		g.Go(func() error {
			var out response_models.HotelSearchResponse
			req := request_models.HotelSearchRequest{City: city, Travelers: slots.Travelers, Type: slots.AccommodationType}
			if err := s.post(ctx, "/hotels", req, &out); err != nil {
				s.logFallback("hotels", err, zap.String("city", city))
				return nil
			}
			mu.Lock()
			snapshot.AddHotels(city, out.Hotels...)
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			var out response_models.ActivitySearchResponse
			req := request_models.ActivitySearchRequest{City: city, Preferences: slots.ActivityPreferences}
			if err := s.post(ctx, "/activities", req, &out); err != nil {
				s.logFallback("activities", err, zap.String("city", city))
				return nil
			}
			mu.Lock()
			snapshot.AddActivities(city, out.Activities...)
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			var out response_models.ActivitySearchResponse
			req := request_models.ActivitySearchRequest{City: city, Preferences: slots.FoodPreferences, Restaurants: true}
			if err := s.post(ctx, "/activities", req, &out); err != nil {
				s.logFallback("restaurants", err, zap.String("city", city))
				return nil
			}
			mu.Lock()
			snapshot.AddRestaurants(city, out.Activities...)
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		var out response_models.FlightSearchResponse
		req := request_models.FlightSearchRequest{
			Origin:      slots.DepartureLocation,
			Destination: cities[0],
			Date:        slots.TravelDates,
			Travelers:   slots.Travelers,
		}
		if err := s.post(ctx, "/flights", req, &out); err != nil {
			s.logFallback("flights", err)
			return nil
		}
		mu.Lock()
		snapshot.FlightOffers = append(snapshot.FlightOffers, out.Flights...)
		mu.Unlock()
		return nil
	})

	_ = g.Wait() // lookups never fail the group
	return snapshot
}

func (s *SearchService) post(ctx context.Context, path string, body, out any) error {
	if s.BaseURL == "" {
		return errOffersDisabled
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	key := path + ":" + string(payload)
	if cached, ok := s.Cache.Get(key); ok {
		return json.Unmarshal(cached.([]byte), out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", utils.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %d", utils.ErrUpstream, path, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", utils.ErrUpstream, path, err)
	}

	s.Cache.Set(key, raw, cache.DefaultExpiration)
	return nil
}

var errOffersDisabled = errors.New("offers api not configured")

func (s *SearchService) logFallback(kind string, err error, fields ...zap.Field) {
	if errors.Is(err, errOffersDisabled) {
		return
	}
	logger.Log.Warn("offer lookup failed, using mock data",
		append([]zap.Field{zap.String("collaborator", "offers:"+kind), zap.Error(err)}, fields...)...)
}
