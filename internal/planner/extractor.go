package planner

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxPlaceAnswerLen = 30
	maxShortAnswerLen = 40
	maxDurationDays   = 90
	maxTravelers      = 50
)

var (
	amountRe        = regexp.MustCompile(`(?:([£$€¥₹])\s?)?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)(\s?k\b)?`)
	currencyAfterRe = regexp.MustCompile(`^\s*(?:pounds?|gbp|quid|dollars?|usd|bucks|euros?|eur|yen|rupees?)\b`)
	unitAfterRe     = regexp.MustCompile(`^\s*(?:-\s*)?(?:days?|nights?|weeks?|months?|years?|people|persons?|travell?ers?|adults?|kids|children|guests?|pax|of us|am|pm|st|nd|rd|th|km|miles?|stars?|hours?|hrs?)\b`)
	budgetBeforeRe  = regexp.MustCompile(`\b(?:budget|spend|spending|afford|total|up to|max|maximum)\b`)
	perPersonRe     = regexp.MustCompile(`\b(?:each|per person|pp|per head|a head|a person)\b`)

	durationRe        = regexp.MustCompile(`\b(\d{1,3})\s*-?\s*(days?|nights?|weeks?)\b`)
	writtenDurationRe = regexp.MustCompile(`\b(a|an|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|twenty|thirty)\s*-?\s*(days?|nights?|weeks?)\b`)
	weekendRe         = regexp.MustCompile(`\b(long\s+)?weekend\b`)
	fortnightRe       = regexp.MustCompile(`\bfortnight\b`)

	travelersRe        = regexp.MustCompile(`\b(\d{1,2})\s+(?:people|persons?|travell?ers?|adults?|guests?|pax|of us)\b`)
	writtenTravelersRe = regexp.MustCompile(`\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+(?:people|persons?|travell?ers?|adults?|guests?|of us)\b`)
	familyRe           = regexp.MustCompile(`\bfamily of (\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\b`)
	soloRe             = regexp.MustCompile(`\b(?:just me|only me|myself|solo|alone|on my own|by myself)\b`)
	pairRe             = regexp.MustCompile(`\b(?:my partner|my wife|my husband|my girlfriend|my boyfriend|my fiance|my fiancee|two of us|both of us|honeymoon)\b`)
	coupleRe           = regexp.MustCompile(`\bcouple\b(\s+of\b)?`)

	bareNumberRe = regexp.MustCompile(`^(?:about|around|roughly|maybe|approx(?:imately)?|~)?\s*(\d{1,6}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|twenty|thirty)\s*(?:days?|nights?|people|persons?|of us|pax|travell?ers?)?\s*[.!]*$`)

	monthPattern      = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec`
	rangeDayFirstRe   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|to|until|till)\s*(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthPattern + `)\b`)
	rangeMonthFirstRe = regexp.MustCompile(`\b(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|to|until|till)\s*(\d{1,2})(?:st|nd|rd|th)?\b`)
	numericRangeRe    = regexp.MustCompile(`\b(\d{1,2}[/.]\d{1,2}(?:[/.]\d{2,4})?)\s*(?:-|–|to|until|till)\s*(\d{1,2}[/.]\d{1,2}(?:[/.]\d{2,4})?)\b`)
	singleDateRe      = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthPattern + `)\b`)
	monthDayRe        = regexp.MustCompile(`\b(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	monthRe           = regexp.MustCompile(`\b(january|february|march|april|june|july|august|september|october|november|december)\b`)
	mayRe             = regexp.MustCompile(`\b(?:in|during|early|late|mid|of|around|by|this|next|until)\s+may\b`)

	departVerbRe = regexp.MustCompile(`(?i)\b(?:departing|leaving|flying|travell?ing|coming|starting|setting off|based|live|living)\s+(?:from|in|out of)\s+([\p{L}][\p{L}'.\-]*(?:\s+[\p{L}][\p{L}'.\-]*){0,3})`)
	fromRe       = regexp.MustCompile(`(?i)\bfrom\s+([\p{L}][\p{L}'.\-]*(?:\s+[\p{L}][\p{L}'.\-]*){0,3})`)
	intentRe     = regexp.MustCompile(`\b(?:go|going|travel|travelling|traveling|trip|fly|flying|head|heading|holiday|vacation|visit|visiting|get away)\s+(?:to\s+|in\s+)?([\p{L}][\p{L}'\-]*(?:\s+[\p{L}][\p{L}'\-]*){0,3})`)
)

var writtenNumbers = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"twenty": 20, "thirty": 30,
}

// placeStopWords end a captured place name.
var placeStopWords = map[string]bool{
	"for": true, "in": true, "with": true, "on": true, "during": true, "from": true,
	"next": true, "this": true, "and": true, "around": true, "by": true, "at": true,
	"to": true, "please": true, "i": true, "we": true, "my": true, "our": true,
	"is": true, "are": true, "but": true, "or": true, "so": true, "then": true,
	"because": true, "if": true, "when": true,
}

// Extractor pulls slot values out of free text. It is stateless; every
// call sees the conversation context and the slots already known.
type Extractor struct {
	rules *Rules
}

func NewExtractor(rules *Rules) *Extractor {
	return &Extractor{rules: rules}
}

// Extract runs the keyword pass and, when the assistant asked about a slot
// the keyword pass did not fill, a contextual pass that reads the reply as
// the answer to that question. The contextual answer is laid over the
// keyword result, so other details in the same reply are kept.
func (e *Extractor) Extract(text string, cc ConversationContext, known TripSlots) Extraction {
	text = strings.TrimSpace(text)
	if text == "" {
		return newExtraction()
	}
	lower := strings.ToLower(text)

	kw := e.keywordPass(text, lower, cc, known)
	if !cc.Active() || kw.Has(cc.LastQuestionKey) {
		return kw
	}
	base := known
	if kw.Has(SlotTravelers) {
		base.Travelers = kw.Updates.Travelers
	}
	ctx := e.contextualPass(text, lower, cc, base)
	if ctx.Empty() {
		return kw
	}
	slot := cc.LastQuestionKey
	kw.Updates.copyFrom(ctx.Updates, slot)
	kw.Answered[slot] = true

	// The place named as the answer is not also the other end of the trip.
	if other, ok := otherPlaceSlot[slot]; ok && kw.Has(other) &&
		strings.EqualFold(kw.Updates.placeOf(other), kw.Updates.placeOf(slot)) {
		kw.drop(other)
	}
	return kw
}

var otherPlaceSlot = map[SlotName]SlotName{
	SlotDestination:       SlotDepartureLocation,
	SlotDepartureLocation: SlotDestination,
}

func (e *Extractor) keywordPass(text, lower string, cc ConversationContext, known TripSlots) Extraction {
	out := newExtraction()
	c := e.rules.compiled

	// A bare city name after the destination is known reads as the origin.
	if !cc.Active() && known.Has(SlotDestination) && !known.Has(SlotDepartureLocation) {
		if p, ok := c.departures.first(lower); ok && p.text == trimPunct(lower) &&
			!strings.EqualFold(p.text, known.Destination) {
			out.setString(SlotDepartureLocation, titleCase(p.text))
			return out
		}
	}

	departure, span := e.matchDeparture(text)
	masked := lower
	if span[1] > span[0] && len(lower) == len(text) {
		masked = lower[:span[0]] + strings.Repeat(" ", span[1]-span[0]) + lower[span[1]:]
	}
	if departure != "" {
		out.setString(SlotDepartureLocation, departure)
	}
	if dest, ok := e.matchDestination(text, masked); ok {
		out.setString(SlotDestination, dest)
	}

	if days, ok := parseDuration(lower); ok {
		out.setDuration(days)
	}
	travelers, hasTravelers := parseTravelers(lower)
	if hasTravelers {
		out.setTravelers(travelers)
	} else {
		travelers = known.Travelers
	}
	if amount, ok := e.parseBudget(lower, travelers, false); ok {
		out.setBudget(amount)
	}
	if when, ok := e.parseTravelDates(text, lower); ok {
		out.setString(SlotTravelDates, when)
	}
	if v, ok := firstGroup(c.accommodation, lower); ok {
		out.setString(SlotAccommodationType, v)
	}
	out.setList(SlotFoodPreferences, allGroups(c.food, lower))
	out.setList(SlotActivityPreferences, allGroups(c.activities, lower))
	if v, ok := firstGroup(c.pace, lower); ok {
		out.setString(SlotPace, v)
	}

	if out.Empty() && !cc.Active() && known.Has(SlotDestination) && !known.Has(SlotDepartureLocation) {
		if place, ok := e.singleTokenPlace(text); ok && !strings.EqualFold(place, known.Destination) {
			out.setString(SlotDepartureLocation, place)
		}
	}
	return out
}

func (e *Extractor) contextualPass(text, lower string, cc ConversationContext, known TripSlots) Extraction {
	out := newExtraction()
	c := e.rules.compiled
	slot := cc.LastQuestionKey

	switch slot {
	case SlotDestination, SlotDepartureLocation:
		if place, ok := e.placeAnswer(text, lower); ok {
			out.setString(slot, place)
		}
	case SlotDuration:
		if n, ok := bareNumber(lower); ok && n <= maxDurationDays {
			out.setDuration(n)
		}
	case SlotBudget:
		if amount, ok := e.parseBudget(lower, known.Travelers, true); ok {
			out.setBudget(amount)
		}
	case SlotTravelers:
		if n, ok := bareNumber(lower); ok && n <= maxTravelers {
			out.setTravelers(n)
		} else if trimPunct(lower) == "me" {
			out.setTravelers(1)
		}
	case SlotTravelDates:
		if e.shortAnswer(lower) {
			out.setString(slot, trimPunct(text))
		}
	case SlotAccommodationType:
		switch {
		case c.noPreference.any(lower):
			out.setString(slot, AnyPreference)
		case e.vocabularyValue(e.rules.Accommodation, lower) != "":
			out.setString(slot, e.vocabularyValue(e.rules.Accommodation, lower))
		case e.shortAnswer(lower):
			out.setString(slot, trimPunct(lower))
		}
	case SlotFoodPreferences, SlotActivityPreferences:
		if c.noPreference.any(lower) {
			out.setList(slot, []string{AnyPreference})
		} else if e.shortAnswer(lower) {
			out.setList(slot, splitList(lower))
		}
	case SlotPace:
		if c.noPreference.any(lower) {
			out.setString(slot, string(PaceBalanced))
		}
	}
	return out
}

// matchDeparture returns the origin named in text and the byte span of the
// phrase that named it, so destination matching can ignore that span.
func (e *Extractor) matchDeparture(text string) (string, [2]int) {
	for _, re := range []*regexp.Regexp{departVerbRe, fromRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			place, n := cutPlace(text[m[2]:m[3]])
			place = strings.TrimPrefix(place, "the ")
			place = strings.TrimPrefix(place, "The ")
			pl := strings.ToLower(place)
			if place == "" || e.rejectPlace(pl) || e.isMonth(firstWord(pl)) {
				continue
			}
			if !startsUpper(place) && !e.knownPlace(pl) {
				continue
			}
			return e.canonicalPlace(place), [2]int{m[0], m[2] + n}
		}
	}
	return "", [2]int{}
}

// matchDestination finds the earliest gazetteer name in masked, falling back
// to the place named after a travel verb ("go to", "visit").
func (e *Extractor) matchDestination(text, masked string) (string, bool) {
	best := -1
	var name string
	for _, cd := range e.rules.compiled.destinations {
		for _, p := range cd.names {
			i := p.index(masked)
			if i < 0 {
				continue
			}
			if cd.dest.ProperOnly && (len(text) != len(masked) || !startsUpper(text[i:])) {
				continue
			}
			if best < 0 || i < best {
				best, name = i, cd.dest.Name
			}
			break
		}
	}
	if best >= 0 {
		return name, true
	}

	for _, m := range intentRe.FindAllStringSubmatch(masked, -1) {
		place, _ := cutPlace(m[1])
		if place == "" || e.rejectPlace(place) || e.isMonth(firstWord(place)) {
			continue
		}
		return titleCase(place), true
	}
	return "", false
}

// parseBudget scans for a money amount. Outside a budget question an amount
// needs a currency marker, a "k" suffix or a nearby budget word.
func (e *Extractor) parseBudget(lower string, travelers int, contextual bool) (float64, bool) {
	for _, m := range amountRe.FindAllStringSubmatchIndex(lower, -1) {
		start, end := m[0], m[1]
		hasSymbol := m[2] >= 0
		hasK := m[6] >= 0
		if start > 0 && !hasSymbol {
			prev, _ := utf8.DecodeLastRuneInString(lower[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) || prev == '/' || prev == ':' || prev == '.' {
				continue
			}
		}
		if end < len(lower) && strings.ContainsRune("/:-", rune(lower[end])) && m[6] < 0 {
			continue
		}
		rest := lower[end:]
		if unitAfterRe.MatchString(rest) {
			continue
		}
		windowStart := start - 30
		if windowStart < 0 {
			windowStart = 0
		}
		marked := hasSymbol || hasK || currencyAfterRe.MatchString(rest) ||
			budgetBeforeRe.MatchString(lower[windowStart:start]) ||
			strings.HasPrefix(strings.TrimSpace(rest), "budget")
		if !marked && !contextual {
			continue
		}

		amount, err := strconv.ParseFloat(strings.ReplaceAll(lower[m[4]:m[5]], ",", ""), 64)
		if err != nil {
			continue
		}
		if hasK {
			amount *= 1000
		}
		if amount < e.rules.Budget.NoiseThreshold {
			continue
		}
		if travelers > 1 && perPersonRe.MatchString(lower) {
			amount *= float64(travelers)
		}
		return amount, true
	}
	return 0, false
}

func (e *Extractor) parseTravelDates(text, lower string) (string, bool) {
	original := func(loc []int) string {
		if len(text) == len(lower) {
			return text[loc[0]:loc[1]]
		}
		return titleCase(lower[loc[0]:loc[1]])
	}
	for _, re := range []*regexp.Regexp{rangeDayFirstRe, rangeMonthFirstRe, numericRangeRe} {
		if loc := re.FindStringIndex(lower); loc != nil {
			return original(loc), true
		}
	}
	for _, re := range []*regexp.Regexp{singleDateRe, monthDayRe} {
		if loc := re.FindStringSubmatchIndex(lower); loc != nil {
			if lower[loc[2]:loc[3]] == "may" || lower[loc[len(loc)-2]:loc[len(loc)-1]] == "may" {
				if !strings.Contains(text, "May") {
					continue
				}
			}
			return original(loc[:2]), true
		}
	}
	if m := monthRe.FindStringSubmatch(lower); m != nil {
		return titleCase(m[1]), true
	}
	if mayRe.MatchString(lower) || trimPunct(lower) == "may" {
		return "May", true
	}
	return "", false
}

func parseDuration(lower string) (int, bool) {
	unit := func(n int, u string) int {
		if strings.HasPrefix(u, "week") {
			return n * 7
		}
		return n
	}
	if m := durationRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			if days := unit(n, m[2]); days <= maxDurationDays {
				return days, true
			}
		}
	}
	for _, m := range writtenDurationRe.FindAllStringSubmatch(lower, -1) {
		// "a day" and "a night" are usually rates, not trip lengths.
		if (m[1] == "a" || m[1] == "an") && !strings.HasPrefix(m[2], "week") {
			continue
		}
		return unit(writtenNumbers[m[1]], m[2]), true
	}
	if fortnightRe.MatchString(lower) {
		return 14, true
	}
	if m := weekendRe.FindStringSubmatch(lower); m != nil {
		if m[1] != "" {
			return 3, true
		}
		return 2, true
	}
	return 0, false
}

func parseTravelers(lower string) (int, bool) {
	if m := familyRe.FindStringSubmatch(lower); m != nil {
		return numberWord(m[1])
	}
	if m := travelersRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= maxTravelers {
			return n, true
		}
	}
	if m := writtenTravelersRe.FindStringSubmatch(lower); m != nil {
		return writtenNumbers[m[1]], true
	}
	if soloRe.MatchString(lower) {
		return 1, true
	}
	if pairRe.MatchString(lower) {
		return 2, true
	}
	for _, m := range coupleRe.FindAllStringSubmatch(lower, -1) {
		if m[1] == "" {
			return 2, true
		}
	}
	return 0, false
}

func bareNumber(lower string) (int, bool) {
	m := bareNumberRe.FindStringSubmatch(strings.TrimSpace(lower))
	if m == nil {
		return 0, false
	}
	n, ok := numberWord(m[1])
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func numberWord(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := writtenNumbers[s]
	return n, ok
}

// placeAnswer accepts a short reply as a place name.
func (e *Extractor) placeAnswer(text, lower string) (string, bool) {
	place := trimPunct(text)
	for _, prefix := range []string{"to ", "from ", "in ", "the "} {
		if strings.HasPrefix(strings.ToLower(place), prefix) {
			place = strings.TrimSpace(place[len(prefix):])
		}
	}
	for _, suffix := range []string{" please", " thanks", " thank you"} {
		if strings.HasSuffix(strings.ToLower(place), suffix) {
			place = strings.TrimSpace(place[:len(place)-len(suffix)])
		}
	}
	if cut, _ := cutPlace(place); cut != "" {
		place = cut
	}
	pl := strings.ToLower(place)
	if d, ok := e.rules.FindDestination(pl); ok {
		return d.Name, true
	}
	switch {
	case place == "", utf8.RuneCountInString(place) >= maxPlaceAnswerLen:
		return "", false
	case strings.ContainsAny(place, "0123456789,?"), strings.Contains(pl, " and "):
		return "", false
	case len(strings.Fields(place)) > 4:
		return "", false
	case e.rules.compiled.intentVerbs.any(lower), e.rules.compiled.noPreference.any(pl):
		return "", false
	case e.rejectPlace(pl), e.isMonth(firstWord(pl)):
		return "", false
	}
	return e.canonicalPlace(place), true
}

// singleTokenPlace treats a lone capitalised or known word as a city name.
func (e *Extractor) singleTokenPlace(text string) (string, bool) {
	word := trimPunct(text)
	if word == "" || strings.ContainsFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && r != '-' }) {
		return "", false
	}
	wl := strings.ToLower(word)
	c := e.rules.compiled
	if e.rejectPlace(wl) || e.isMonth(wl) || c.affirmative.any(wl) || c.negative.any(wl) ||
		c.noPreference.any(wl) || c.intentVerbs.any(wl) || c.restart.any(wl) {
		return "", false
	}
	return e.canonicalPlace(word), true
}

func (e *Extractor) rejectPlace(lower string) bool {
	c := e.rules.compiled
	fw := firstWord(lower)
	return c.nonPlaces[fw] || c.fillers[strings.TrimSpace(lower)] || c.fillers[fw]
}

func (e *Extractor) knownPlace(lower string) bool {
	if _, ok := e.rules.FindDestination(lower); ok {
		return true
	}
	for _, p := range e.rules.compiled.departures {
		if p.text == lower {
			return true
		}
	}
	return false
}

func (e *Extractor) canonicalPlace(place string) string {
	if d, ok := e.rules.FindDestination(place); ok {
		return d.Name
	}
	return titleCase(place)
}

func (e *Extractor) isMonth(word string) bool {
	for _, m := range e.rules.Months {
		if word == m {
			return true
		}
	}
	return false
}

func (e *Extractor) shortAnswer(lower string) bool {
	s := trimPunct(lower)
	return s != "" && utf8.RuneCountInString(s) <= maxShortAnswerLen &&
		!strings.HasSuffix(strings.TrimSpace(lower), "?") &&
		!e.rules.compiled.intentVerbs.any(s)
}

// vocabularyValue matches a reply that is exactly one of the group values.
func (e *Extractor) vocabularyValue(groups []KeywordGroup, lower string) string {
	s := trimPunct(lower)
	for _, g := range groups {
		if s == g.Value {
			return g.Value
		}
	}
	return ""
}

func firstGroup(groups []compiledGroup, lower string) (string, bool) {
	for _, g := range groups {
		if g.keywords.any(lower) {
			return g.value, true
		}
	}
	return "", false
}

func allGroups(groups []compiledGroup, lower string) []string {
	var out []string
	for _, g := range groups {
		if g.keywords.any(lower) {
			out = append(out, g.value)
		}
	}
	return out
}

func splitList(lower string) []string {
	lower = strings.ReplaceAll(trimPunct(lower), " and ", ",")
	var out []string
	for _, part := range strings.Split(lower, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var wordRe = regexp.MustCompile(`\S+`)

// cutPlace keeps the words of a captured place up to the first stop word.
// It also returns the byte length of s that the kept words cover.
func cutPlace(s string) (string, int) {
	end := 0
	for _, loc := range wordRe.FindAllStringIndex(s, -1) {
		if placeStopWords[strings.ToLower(s[loc[0]:loc[1]])] {
			break
		}
		end = loc[1]
	}
	return strings.Trim(s[:end], " .'-"), end
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'')
	})
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}
