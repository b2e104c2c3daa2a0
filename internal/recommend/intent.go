package recommend

import (
	"strings"

	"github.com/clcruickshank2/datenight/internal/textnorm"
)

// dietaryTags is the closed set of dietary constraints.
var dietaryTags = map[string]struct{}{
	"vegetarian":  {},
	"vegan":       {},
	"gluten free": {},
	"dairy free":  {},
	"halal":       {},
	"kosher":      {},
	"pescatarian": {},
}

type cuisine struct {
	name     string
	keywords []string
}

// cuisineTable maps canonical cuisines to the words that imply and satisfy them.
// Order matters: a keyword shared by two entries implies the earlier one.
var cuisineTable = []cuisine{
	{"sushi", []string{"sushi", "nigiri", "sashimi", "omakase", "izakaya", "temaki"}},
	{"japanese", []string{"japanese", "ramen", "izakaya", "udon", "yakitori", "sushi", "omakase"}},
	{"pizza", []string{"pizza", "pizzeria"}},
	{"italian", []string{"italian", "pasta", "trattoria", "osteria", "risotto", "pizza"}},
	{"mexican", []string{"mexican", "tacos", "taco", "taqueria", "mezcal", "oaxacan", "birria"}},
	{"chinese", []string{"chinese", "dim sum", "dumplings", "szechuan", "sichuan", "cantonese"}},
	{"thai", []string{"thai"}},
	{"indian", []string{"indian", "curry", "tandoori", "masala"}},
	{"korean", []string{"korean", "kbbq", "bibimbap"}},
	{"vietnamese", []string{"vietnamese", "pho", "banh mi"}},
	{"french", []string{"french", "bistro", "brasserie"}},
	{"mediterranean", []string{"mediterranean", "greek", "lebanese", "falafel", "mezze"}},
	{"steakhouse", []string{"steakhouse", "steak", "chophouse"}},
	{"seafood", []string{"seafood", "oyster", "oysters", "fish"}},
	{"bbq", []string{"bbq", "barbecue", "smokehouse"}},
}

// Intent splits criteria tags into hard constraints and soft preferences.
type Intent struct {
	Tags     []string
	Dietary  []string
	cuisines []cuisine
	// CuisineTags are the criteria tags that implied a cuisine.
	CuisineTags []string
	Soft        []string
	explicit    string
}

// ParseIntent classifies normalized tags.
func ParseIntent(tags []string) Intent {
	in := Intent{Tags: textnorm.UniquePhrases(tags)}
	seen := map[string]struct{}{}

	for _, tag := range in.Tags {
		if _, ok := dietaryTags[tag]; ok {
			in.Dietary = append(in.Dietary, tag)
			continue
		}

		c, ok := impliedCuisine(tag)
		if !ok {
			in.Soft = append(in.Soft, tag)
			continue
		}
		in.CuisineTags = append(in.CuisineTags, tag)
		if tag == c.name && in.explicit == "" {
			in.explicit = c.name
		}
		if _, dup := seen[c.name]; dup {
			continue
		}
		seen[c.name] = struct{}{}
		in.cuisines = append(in.cuisines, c)
	}

	if in.explicit == "" && len(in.cuisines) > 0 {
		in.explicit = in.cuisines[0].name
	}
	return in
}

// impliedCuisine maps a tag to exactly one cuisine: the entry it names, or
// else the first entry with a keyword inside the tag.
func impliedCuisine(tag string) (cuisine, bool) {
	for _, c := range cuisineTable {
		if tag == c.name {
			return c, true
		}
	}
	for _, c := range cuisineTable {
		for _, kw := range c.keywords {
			if textnorm.ContainsPhrase(tag, kw) {
				return c, true
			}
		}
	}
	return cuisine{}, false
}

// Hard reports whether any excluding constraint is present.
func (in Intent) Hard() bool {
	return len(in.Dietary) > 0 || len(in.cuisines) > 0
}

// HardTagCount is the number of criteria tags that act as constraints.
func (in Intent) HardTagCount() int {
	return len(in.Dietary) + len(in.CuisineTags)
}

// CuisineNames lists the implied canonical cuisines in order.
func (in Intent) CuisineNames() []string {
	out := make([]string, 0, len(in.cuisines))
	for _, c := range in.cuisines {
		out = append(out, c.name)
	}
	return out
}

// MatchesCuisine reports whether text carries a keyword of any implied cuisine.
// It is true when no cuisine is implied.
func (in Intent) MatchesCuisine(text string) bool {
	if len(in.cuisines) == 0 {
		return true
	}
	_, ok := in.matchedCuisine(text)
	return ok
}

func (in Intent) matchedCuisine(text string) (string, bool) {
	for _, c := range in.cuisines {
		for _, kw := range c.keywords {
			if textnorm.ContainsPhrase(text, kw) {
				return c.name, true
			}
		}
	}
	return "", false
}

// MatchesDietary requires every dietary tag as a substring of text.
func (in Intent) MatchesDietary(text string) bool {
	for _, tag := range in.Dietary {
		if !strings.Contains(text, tag) {
			return false
		}
	}
	return true
}

// Satisfied applies both hard constraints to a candidate's search text.
func (in Intent) Satisfied(text string) bool {
	return in.MatchesDietary(text) && in.MatchesCuisine(text)
}

// RelaxedTags keeps the dietary tags and the first explicit cuisine.
func (in Intent) RelaxedTags() []string {
	out := append([]string{}, in.Dietary...)
	if in.explicit != "" {
		out = append(out, in.explicit)
	}
	return out
}

// SearchTerms are the words used to query the web for this intent.
func (in Intent) SearchTerms() []string {
	terms := append([]string{}, in.Dietary...)
	terms = append(terms, in.CuisineTags...)
	if len(terms) == 0 {
		terms = append(terms, in.Soft...)
	}
	if len(terms) > 4 {
		terms = terms[:4]
	}
	return terms
}
