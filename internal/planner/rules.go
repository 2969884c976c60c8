package planner

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

var ErrInvalidRules = errors.New("invalid planner rules")

// Rules is the configuration table shared by the extractor, analyzer,
// controller and generator: vocabularies, questions, budget tables and
// catalogue templates.
type Rules struct {
	Questions       []SlotQuestion `yaml:"questions"`
	Prompts         Prompts        `yaml:"prompts"`
	Destinations    []Destination  `yaml:"destinations"`
	DepartureCities []string       `yaml:"departure_cities"`
	Months          []string       `yaml:"months"`
	NonPlaces       []string       `yaml:"non_places"`
	Fillers         []string       `yaml:"fillers"`
	IntentVerbs     []string       `yaml:"intent_verbs"`
	Accommodation   []KeywordGroup `yaml:"accommodation"`
	Food            []KeywordGroup `yaml:"food"`
	Activities      []KeywordGroup `yaml:"activities"`
	Pace            []KeywordGroup `yaml:"pace"`
	NoPreference    []string       `yaml:"no_preference"`
	Affirmative     []string       `yaml:"affirmative"`
	Negative        []string       `yaml:"negative"`
	Restart         []string       `yaml:"restart"`
	Budget          BudgetRules    `yaml:"budget"`
	Fallback        FallbackRules  `yaml:"fallback"`
	Catalog         CatalogRules   `yaml:"catalog"`

	compiled *compiledRules
}

type SlotQuestion struct {
	Slot    SlotName    `yaml:"slot"`
	Text    string      `yaml:"text"`
	Markers []string    `yaml:"markers"`
	Shape   AnswerShape `yaml:"shape"`
}

type Prompts struct {
	Greeting        string `yaml:"greeting"`
	Clarify         string `yaml:"clarify"`
	NotUnderstood   string `yaml:"not_understood"`
	SummaryIntro    string `yaml:"summary_intro"`
	ConfirmQuestion string `yaml:"confirm_question"`
	Reconfirm       string `yaml:"reconfirm"`
	MoreInfo        string `yaml:"more_info"`
	AwaitingConfirm string `yaml:"awaiting_confirm"`
	Generating      string `yaml:"generating"`
	Done            string `yaml:"done"`
	Restarted       string `yaml:"restarted"`
}

type KeywordGroup struct {
	Value    string   `yaml:"value"`
	Keywords []string `yaml:"keywords"`
}

type Destination struct {
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	ProperOnly  bool     `yaml:"proper_only"`
	Country     string   `yaml:"country"`
	Region      string   `yaml:"region"`
	Description string   `yaml:"description"`
	BestTime    string   `yaml:"best_time"`
	Routes      Routes   `yaml:"routes"`
}

// Routes are ordered city lists per trip-length bucket.
type Routes struct {
	Short  []string `yaml:"short"`
	Medium []string `yaml:"medium"`
	Long   []string `yaml:"long"`
}

type BudgetRules struct {
	NoiseThreshold      float64                    `yaml:"noise_threshold"`
	Default             BudgetBreakdown            `yaml:"default"`
	Regions             map[string]BudgetBreakdown `yaml:"regions"`
	LongTrip            LongTripRule               `yaml:"long_trip"`
	FoodPerPersonPerDay float64                    `yaml:"food_per_person_per_day"`
}

// LongTripRule shifts percentage points between categories once a trip is
// longer than AfterDays. Delta must sum to zero.
type LongTripRule struct {
	AfterDays int             `yaml:"after_days"`
	Delta     BudgetBreakdown `yaml:"delta"`
}

type FallbackRules struct {
	CeilingRaisePercent float64 `yaml:"ceiling_raise_percent"`
	BaseRadiusKm        float64 `yaml:"base_radius_km"`
	ExpandedRadiusKm    float64 `yaml:"expanded_radius_km"`
}

type CatalogRules struct {
	Hotels      []HotelTemplate    `yaml:"hotels"`
	Activities  []ActivityTemplate `yaml:"activities"`
	Restaurants []ActivityTemplate `yaml:"restaurants"`
	FlightBase  map[string]float64 `yaml:"flight_base"`
}

type HotelTemplate struct {
	Name        string  `yaml:"name"`
	Class       string  `yaml:"class"`
	NightlyRate float64 `yaml:"nightly_rate"`
	DistanceKm  float64 `yaml:"distance_km"`
}

type ActivityTemplate struct {
	Name       string   `yaml:"name"`
	Tags       []string `yaml:"tags"`
	Cost       float64  `yaml:"cost"`
	DistanceKm float64  `yaml:"distance_km"`
	Light      bool     `yaml:"light"`
}

type phrase struct {
	text string
	re   *regexp.Regexp
}

type phraseSet []phrase

type compiledGroup struct {
	value    string
	keywords phraseSet
}

type compiledDestination struct {
	dest  *Destination
	names phraseSet
}

type compiledRules struct {
	destinations  []compiledDestination
	departures    phraseSet
	nonPlaces     map[string]bool
	fillers       map[string]bool
	intentVerbs   phraseSet
	accommodation []compiledGroup
	food          []compiledGroup
	activities    []compiledGroup
	pace          []compiledGroup
	noPreference  phraseSet
	affirmative   phraseSet
	negative      phraseSet
	restart       phraseSet
	questions     map[SlotName]SlotQuestion
}

// DefaultRules returns the embedded rule table. It panics if the embedded
// file is broken, which only happens when rules.yaml itself is edited badly.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded planner rules: %v", err))
	}
	return r
}

// LoadRules reads rules from path, or returns the embedded table when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return ParseRules(defaultRulesYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	r.compile()
	return &r, nil
}

func (r *Rules) validate() error {
	seen := make(map[SlotName]bool, len(r.Questions))
	for _, q := range r.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: empty question for slot %s", ErrInvalidRules, q.Slot)
		}
		seen[q.Slot] = true
	}
	for _, slot := range SlotOrder {
		if !seen[slot] {
			return fmt.Errorf("%w: no question for slot %s", ErrInvalidRules, slot)
		}
	}

	if sum := r.Budget.Default.Sum(); sum != 100 {
		return fmt.Errorf("%w: default budget table sums to %d", ErrInvalidRules, sum)
	}
	for region, table := range r.Budget.Regions {
		if sum := table.Sum(); sum != 100 {
			return fmt.Errorf("%w: budget table for %s sums to %d", ErrInvalidRules, region, sum)
		}
	}
	if sum := r.Budget.LongTrip.Delta.Sum(); sum != 0 {
		return fmt.Errorf("%w: long trip delta sums to %d", ErrInvalidRules, sum)
	}
	if r.Budget.NoiseThreshold <= 0 {
		return fmt.Errorf("%w: budget noise threshold must be positive", ErrInvalidRules)
	}
	return nil
}

func (r *Rules) compile() {
	c := &compiledRules{
		departures:   newPhraseSet(r.DepartureCities),
		nonPlaces:    make(map[string]bool, len(r.NonPlaces)),
		fillers:      make(map[string]bool, len(r.Fillers)),
		intentVerbs:  newPhraseSet(r.IntentVerbs),
		noPreference: newPhraseSet(r.NoPreference),
		affirmative:  newPhraseSet(r.Affirmative),
		negative:     newPhraseSet(r.Negative),
		restart:      newPhraseSet(r.Restart),
		questions:    make(map[SlotName]SlotQuestion, len(r.Questions)),
	}
	for _, w := range r.NonPlaces {
		c.nonPlaces[strings.ToLower(w)] = true
	}
	for _, w := range r.Fillers {
		c.fillers[strings.ToLower(w)] = true
	}
	for _, q := range r.Questions {
		c.questions[q.Slot] = q
	}
	for i := range r.Destinations {
		d := &r.Destinations[i]
		names := append([]string{d.Name}, d.Aliases...)
		c.destinations = append(c.destinations, compiledDestination{dest: d, names: newPhraseSet(names)})
	}
	c.accommodation = compileGroups(r.Accommodation)
	c.food = compileGroups(r.Food)
	c.activities = compileGroups(r.Activities)
	c.pace = compileGroups(r.Pace)
	r.compiled = c
}

// Question returns the canonical question for slot.
func (r *Rules) Question(slot SlotName) string {
	return r.compiled.questions[slot].Text
}

// FindDestination looks a place up in the gazetteer by name or alias.
func (r *Rules) FindDestination(name string) (*Destination, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	for _, cd := range r.compiled.destinations {
		for _, p := range cd.names {
			if p.text == needle {
				return cd.dest, true
			}
		}
	}
	return nil, false
}

// IsRestart reports whether text asks to throw the current plan away.
func (r *Rules) IsRestart(text string) bool {
	_, ok := r.SplitRestart(text)
	return ok
}

// SplitRestart reports whether text asks to start over and returns the text
// with the restart phrase cut out, so "new trip to Spain" leaves "to Spain".
func (r *Rules) SplitRestart(text string) (string, bool) {
	lower := strings.ToLower(text)
	p, ok := r.compiled.restart.first(lower)
	if !ok {
		return "", false
	}
	if len(lower) != len(text) {
		return "", true
	}
	loc := p.re.FindStringSubmatchIndex(lower)
	return strings.TrimSpace(text[:loc[2]] + " " + text[loc[3]:]), true
}

func compileGroups(groups []KeywordGroup) []compiledGroup {
	out := make([]compiledGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, compiledGroup{value: g.Value, keywords: newPhraseSet(g.Keywords)})
	}
	return out
}

// newPhraseSet builds word-boundary matchers, longest phrase first so
// "new york" wins over "york".
func newPhraseSet(words []string) phraseSet {
	set := make(phraseSet, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set = append(set, phrase{
			text: w,
			re:   regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(` + regexp.QuoteMeta(w) + `)(?:$|[^\p{L}\p{N}])`),
		})
	}
	sort.SliceStable(set, func(i, j int) bool { return len(set[i].text) > len(set[j].text) })
	return set
}

// index returns the byte offset of p inside lower, or -1.
func (p phrase) index(lower string) int {
	loc := p.re.FindStringSubmatchIndex(lower)
	if loc == nil {
		return -1
	}
	return loc[2]
}

func (s phraseSet) first(lower string) (phrase, bool) {
	for _, p := range s {
		if p.index(lower) >= 0 {
			return p, true
		}
	}
	return phrase{}, false
}

func (s phraseSet) any(lower string) bool {
	_, ok := s.first(lower)
	return ok
}
