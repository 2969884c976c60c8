package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"tripmate/internal/models/response_models"
	"tripmate/internal/planner"
	"tripmate/internal/repositories"
	"tripmate/internal/services"
	mem "tripmate/pkg/memcache"
)

// Transcript is a scripted conversation. Expect is optional.
type Transcript struct {
	Name     string     `yaml:"name"`
	UserID   string     `yaml:"user_id"`
	Messages []string   `yaml:"messages"`
	Expect   *Expect    `yaml:"expect"`
	Date     *time.Time `yaml:"date"`
}

type Expect struct {
	Phase  planner.Phase     `yaml:"phase"`
	Slots  planner.TripSlots `yaml:"slots"`
	Cities []string          `yaml:"cities"`
	Days   int               `yaml:"days"`
}

type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

type Result struct {
	Name      string                           `json:"name"`
	Exchanges []Exchange                       `json:"exchanges"`
	Session   *response_models.SessionResponse `json:"session"`
	TripID    string                           `json:"trip_id,omitempty"`
	Failures  []string                         `json:"failures,omitempty"`
}

func LoadTranscript(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if len(t.Messages) == 0 {
		return nil, fmt.Errorf("transcript %s has no messages", path)
	}
	return &t, nil
}

// Replay feeds the transcript through the same chat pipeline the server
// uses, with in-process collaborators only: no AI, no offers API, trips in
// memory.
func Replay(ctx context.Context, rules *planner.Rules, t *Transcript) (*Result, error) {
	engine := planner.NewEngine(rules, planner.NewMockCatalog(rules))
	if t.Date != nil {
		at := *t.Date
		engine = engine.WithClock(func() time.Time { return at })
	}

	chat := services.NewChatService(
		engine,
		mem.NewTTLStore[planner.SessionState](time.Hour),
		services.NewDestinationService(rules, nil, nil),
		services.NewSearchService(services.OffersConfig{}, rules),
		services.NewTripService(repositories.NewMemoryTripRepository()),
	)

	started, err := chat.StartSession(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Name:      t.Name,
		Exchanges: []Exchange{{Assistant: started.Reply}},
	}

	for _, msg := range t.Messages {
		reply, err := chat.SendMessage(ctx, started.SessionID, t.UserID, msg)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", msg, err)
		}
		res.Exchanges = append(res.Exchanges, Exchange{User: msg, Assistant: reply.Reply})
		if reply.TripID != "" {
			res.TripID = reply.TripID
		}
	}

	if res.Session, err = chat.GetSession(ctx, started.SessionID, ""); err != nil {
		return nil, err
	}
	if t.Expect != nil {
		res.Failures = check(*t.Expect, res.Session)
	}
	return res, nil
}

func check(want Expect, got *response_models.SessionResponse) []string {
	var failures []string
	if want.Phase != "" && want.Phase != got.Phase {
		failures = append(failures, fmt.Sprintf("phase: want %s, got %s", want.Phase, got.Phase))
	}

	w, g := want.Slots, got.Slots
	if w.Destination != "" && w.Destination != g.Destination {
		failures = append(failures, fmt.Sprintf("destination: want %q, got %q", w.Destination, g.Destination))
	}
	if w.DurationDays != 0 && w.DurationDays != g.DurationDays {
		failures = append(failures, fmt.Sprintf("duration: want %d, got %d", w.DurationDays, g.DurationDays))
	}
	if w.Budget != 0 && w.Budget != g.Budget {
		failures = append(failures, fmt.Sprintf("budget: want %.2f, got %.2f", w.Budget, g.Budget))
	}
	if w.Travelers != 0 && w.Travelers != g.Travelers {
		failures = append(failures, fmt.Sprintf("travelers: want %d, got %d", w.Travelers, g.Travelers))
	}
	if w.DepartureLocation != "" && w.DepartureLocation != g.DepartureLocation {
		failures = append(failures, fmt.Sprintf("departure: want %q, got %q", w.DepartureLocation, g.DepartureLocation))
	}
	if w.Pace != "" && w.Pace != g.Pace {
		failures = append(failures, fmt.Sprintf("pace: want %s, got %s", w.Pace, g.Pace))
	}

	if len(want.Cities) > 0 || want.Days > 0 {
		if got.Plan == nil {
			return append(failures, "plan: none generated")
		}
		if len(want.Cities) > 0 && !slices.Equal(want.Cities, got.Plan.Cities) {
			failures = append(failures, fmt.Sprintf("cities: want %v, got %v", want.Cities, got.Plan.Cities))
		}
		if want.Days > 0 && want.Days != len(got.Plan.Days) {
			failures = append(failures, fmt.Sprintf("days: want %d, got %d", want.Days, len(got.Plan.Days)))
		}
	}
	return failures
}
