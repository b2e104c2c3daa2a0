package criteria

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const (
	maxPhraseWords   = 4
	minPhraseLength  = 3
	maxWindowDays    = 60
	defaultWindow    = 14
	weeksWindowDays  = 21
	maxParsedTagRuns = 12
)

var (
	numberWord = `(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`

	partyOfExpr    = regexp.MustCompile(`\bparty of ` + numberWord + `\b`)
	peopleExpr     = regexp.MustCompile(`\b` + numberWord + `\s*(?:people|persons|guests|ppl|adults|diners|of us)\b`)
	forExpr        = regexp.MustCompile(`\b(?:table for|for)\s+` + numberWord + `\b`)
	bareNumberExpr = regexp.MustCompile(`\b(\d{1,2})\b`)

	betweenPriceExpr = regexp.MustCompile(`between\s+(\$+)\s+(?:and|to|-)\s+(\$+)`)
	underPriceExpr   = regexp.MustCompile(`(?:under|below|less than|cheaper than)\s+(\$+)`)
	rangePriceExpr   = regexp.MustCompile(`(\$+)\s*(?:-|to)\s*(\$+)`)
	dollarRunExpr    = regexp.MustCompile(`\$+`)
	cheapExpr        = regexp.MustCompile(`\b(?:cheap|inexpensive|budget|affordable)\b`)
	fancyExpr        = regexp.MustCompile(`\b(?:fancy|upscale|splurge|fine dining|special occasion)\b`)

	todayExpr       = regexp.MustCompile(`\b(?:tonight|today|this evening)\b`)
	tomorrowExpr    = regexp.MustCompile(`\btomorrow\b`)
	nextNWeeksExpr  = regexp.MustCompile(`\bnext ` + numberWord + ` weeks\b`)
	nextWeekExpr    = regexp.MustCompile(`\bnext week\b`)
	nextWeekdayExpr = regexp.MustCompile(`\bnext (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	weekendExpr     = regexp.MustCompile(`\bweekend\b`)
	weekdayExpr     = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
	weeksExpr       = regexp.MustCompile(`\bweeks\b`)
	timeKeywordExpr = regexp.MustCompile(`\b(?:soon|week|weeks|month|sometime|upcoming|weeknight|weekday)\b`)

	preferenceExpr = regexp.MustCompile(`\b(?:prefer|looking for|want|craving|in the mood for|something)\s+([^.!?\n]+)`)
	splitExpr      = regexp.MustCompile(`\s*(?:,|;|/|&|\band\b|\bor\b|\bbut\b|\bwith\b|\bplus\b)\s*`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// keywordTags are recognized verbatim anywhere in a message.
var keywordTags = []string{
	// cuisines
	"italian", "sushi", "japanese", "mexican", "thai", "indian", "chinese", "korean", "vietnamese",
	"french", "mediterranean", "greek", "spanish", "tapas", "bbq", "barbecue", "steakhouse", "seafood",
	"pizza", "ramen", "burgers", "middle eastern", "peruvian", "ethiopian", "southern", "brunch",
	"omakase", "dim sum", "tacos",
	// vibes
	"romantic", "cozy", "lively", "quiet", "casual", "upscale", "trendy", "rooftop", "patio",
	"outdoor seating", "live music", "date night", "family friendly", "dog friendly", "hidden gem",
	"intimate", "views", "cocktails", "wine bar", "late night", "chefs counter", "tasting menu",
	// dietary
	"vegetarian", "vegan", "gluten free", "dairy free", "halal", "kosher", "pescatarian",
}

var phraseStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "some": {}, "something": {}, "somewhere": {}, "place": {}, "places": {},
	"spot": {}, "spots": {}, "restaurant": {}, "restaurants": {}, "food": {}, "really": {}, "very": {},
	"kind": {}, "of": {}, "to": {}, "go": {}, "eat": {}, "try": {}, "for": {}, "maybe": {}, "please": {},
	"dinner": {}, "lunch": {}, "meal": {}, "out": {}, "that": {}, "is": {}, "its": {}, "it": {}, "we": {},
	"i": {}, "us": {}, "me": {}, "like": {}, "would": {}, "just": {}, "new": {}, "good": {}, "nice": {},
	"great": {}, "more": {}, "bit": {}, "little": {}, "with": {}, "at": {}, "in": {}, "on": {},
}

var timeTokens = map[string]struct{}{
	"tonight": {}, "today": {}, "tomorrow": {}, "week": {}, "weeks": {}, "weekend": {}, "month": {},
	"next": {}, "this": {}, "monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {},
	"saturday": {}, "sunday": {}, "pm": {}, "am": {}, "people": {}, "guests": {}, "party": {},
}

// HeuristicParser extracts criteria with regular expressions. It is always available.
type HeuristicParser struct {
	now func() time.Time
}

// NewHeuristicParser builds a parser; now defaults to time.Now.
func NewHeuristicParser(now func() time.Time) *HeuristicParser {
	if now == nil {
		now = time.Now
	}
	return &HeuristicParser{now: now}
}

// Name identifies the strategy inside the chain.
func (h *HeuristicParser) Name() string {
	return SourceFallback
}

// Parse never fails; an unrecognized message yields an empty patch.
func (h *HeuristicParser) Parse(_ context.Context, message string, current domain.Criteria) (Result, error) {
	patch := h.Extract(message)
	return Result{
		Reply:  describePatch(patch),
		Patch:  patch,
		Source: SourceFallback,
	}, nil
}

// Extract turns one chat message into a criteria patch.
func (h *HeuristicParser) Extract(message string) domain.CriteriaPatch {
	lower := strings.ToLower(message)
	today := truncateDay(h.now())

	var patch domain.CriteriaPatch
	if size, ok := partySize(lower); ok {
		patch.PartySize = domain.IntPtr(size)
	}
	patch.MinPrice, patch.MaxPrice = priceRange(lower)
	patch.DateRange = dateRange(lower, today)
	patch.VibeTags = preferenceTags(message)
	return patch
}

func partySize(lower string) (int, bool) {
	for _, expr := range []*regexp.Regexp{partyOfExpr, peopleExpr} {
		if m := expr.FindStringSubmatch(lower); m != nil {
			if n, ok := parseCount(m[1]); ok {
				return n, true
			}
		}
	}

	for _, loc := range forExpr.FindAllStringSubmatchIndex(lower, -1) {
		if followsUnit(lower, loc[3]) {
			continue
		}
		if n, ok := parseCount(lower[loc[2]:loc[3]]); ok {
			return n, true
		}
	}

	for _, loc := range bareNumberExpr.FindAllStringSubmatchIndex(lower, -1) {
		if loc[0] > 0 && strings.ContainsRune("$:#/", rune(lower[loc[0]-1])) {
			continue
		}
		if followsUnit(lower, loc[3]) {
			continue
		}
		if n, ok := parseCount(lower[loc[2]:loc[3]]); ok {
			return n, true
		}
	}
	return 0, false
}

// followsUnit reports whether the number ending at end is a time, date, money or duration.
func followsUnit(lower string, end int) bool {
	rest := strings.TrimLeft(lower[end:], " ")
	for _, unit := range []string{"week", "day", "month", "hour", "min", "pm", "am", "p.m", "a.m", ":", "th", "st", "nd", "rd", "$", "%", "/", "o'clock", "year"} {
		if strings.HasPrefix(rest, unit) {
			return true
		}
	}
	return false
}

func parseCount(token string) (int, bool) {
	n, ok := numberWords[token]
	if !ok {
		v, err := strconv.Atoi(token)
		if err != nil {
			return 0, false
		}
		n = v
	}
	if n < domain.MinPartySize || n > domain.MaxPartySize {
		return 0, false
	}
	return n, true
}

func priceRange(lower string) (*int, *int) {
	if m := betweenPriceExpr.FindStringSubmatch(lower); m != nil {
		return orderedLevels(len(m[1]), len(m[2]))
	}
	if loc := underPriceExpr.FindStringSubmatchIndex(lower); loc != nil && !followedByDigit(lower, loc[3]) && validLevel(loc[3]-loc[2]) {
		hi := loc[3] - loc[2] - 1
		if hi < domain.MinPrice {
			hi = domain.MinPrice
		}
		return domain.IntPtr(domain.MinPrice), domain.IntPtr(hi)
	}
	if m := rangePriceExpr.FindStringSubmatch(lower); m != nil {
		return orderedLevels(len(m[1]), len(m[2]))
	}

	lo, hi := 0, 0
	for _, loc := range dollarRunExpr.FindAllStringIndex(lower, -1) {
		if followedByDigit(lower, loc[1]) {
			continue // "$20" is an amount, not a tier
		}
		level := loc[1] - loc[0]
		if !validLevel(level) {
			continue
		}
		if lo == 0 || level < lo {
			lo = level
		}
		if level > hi {
			hi = level
		}
	}
	if lo > 0 {
		return domain.IntPtr(lo), domain.IntPtr(hi)
	}

	if cheapExpr.MatchString(lower) {
		return nil, domain.IntPtr(2)
	}
	if fancyExpr.MatchString(lower) {
		return domain.IntPtr(3), nil
	}
	return nil, nil
}

func followedByDigit(s string, i int) bool {
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func orderedLevels(a, b int) (*int, *int) {
	if !validLevel(a) || !validLevel(b) {
		return nil, nil
	}
	if a > b {
		a, b = b, a
	}
	return domain.IntPtr(a), domain.IntPtr(b)
}

func validLevel(n int) bool {
	return n >= domain.MinPrice && n <= domain.MaxPrice
}

func dateRange(lower string, today time.Time) *domain.DateRange {
	switch {
	case todayExpr.MatchString(lower):
		return sameDay(today)
	case tomorrowExpr.MatchString(lower):
		return sameDay(today.AddDate(0, 0, 1))
	}

	if m := nextNWeeksExpr.FindStringSubmatch(lower); m != nil {
		if n, ok := parseCount(m[1]); ok {
			days := n * 7
			if days > maxWindowDays {
				days = maxWindowDays
			}
			return window(today, today.AddDate(0, 0, days))
		}
	}

	if nextWeekExpr.MatchString(lower) {
		delta := (int(time.Monday) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		monday := today.AddDate(0, 0, delta)
		return window(monday, monday.AddDate(0, 0, 6))
	}

	if m := nextWeekdayExpr.FindStringSubmatch(lower); m != nil {
		delta := daysUntil(today, weekdays[m[1]])
		if delta == 0 {
			delta = 7
		}
		return sameDay(today.AddDate(0, 0, delta))
	}

	if weekendExpr.MatchString(lower) {
		switch today.Weekday() {
		case time.Saturday:
			return window(today, today.AddDate(0, 0, 1))
		case time.Sunday:
			return sameDay(today)
		default:
			sat := today.AddDate(0, 0, daysUntil(today, time.Saturday))
			return window(sat, sat.AddDate(0, 0, 1))
		}
	}

	if m := weekdayExpr.FindStringSubmatch(lower); m != nil {
		if weeksExpr.MatchString(lower) {
			return window(today, today.AddDate(0, 0, weeksWindowDays))
		}
		return sameDay(today.AddDate(0, 0, daysUntil(today, weekdays[m[1]])))
	}

	if timeKeywordExpr.MatchString(lower) {
		return window(today, today.AddDate(0, 0, defaultWindow))
	}
	return nil
}

func daysUntil(today time.Time, target time.Weekday) int {
	return (int(target) - int(today.Weekday()) + 7) % 7
}

func sameDay(day time.Time) *domain.DateRange {
	return window(day, day)
}

func window(start, end time.Time) *domain.DateRange {
	return &domain.DateRange{Start: start.Format(domain.DateLayout), End: end.Format(domain.DateLayout)}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func preferenceTags(message string) []string {
	normalized := textnorm.Normalize(message)

	var tags []string
	for _, kw := range keywordTags {
		if textnorm.ContainsPhrase(normalized, kw) {
			tags = append(tags, kw)
		}
	}

	lower := strings.ToLower(message)
	for _, m := range preferenceExpr.FindAllStringSubmatch(lower, -1) {
		for _, piece := range splitExpr.Split(m[1], -1) {
			if phrase, ok := cleanPhrase(piece); ok {
				tags = append(tags, phrase)
			}
		}
	}

	tags = textnorm.UniquePhrases(tags)
	if len(tags) > maxParsedTagRuns {
		tags = tags[:maxParsedTagRuns]
	}
	return tags
}

// cleanPhrase trims stopwords from a candidate preference and rejects noise.
func cleanPhrase(piece string) (string, bool) {
	words := strings.Fields(textnorm.Normalize(piece))
	for len(words) > 0 {
		if _, stop := phraseStopwords[words[0]]; !stop {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		if _, stop := phraseStopwords[words[len(words)-1]]; !stop {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) == 0 || len(words) > maxPhraseWords {
		return "", false
	}
	for _, w := range words {
		if _, isTime := timeTokens[w]; isTime {
			return "", false
		}
		if strings.IndexFunc(w, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
			return "", false
		}
	}
	phrase := strings.Join(words, " ")
	if len(phrase) < minPhraseLength {
		return "", false
	}
	return phrase, true
}
