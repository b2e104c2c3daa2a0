package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const maxWebNameLength = 60

// nonVenueFragments mark search results that are lists, guides or aggregators.
var nonVenueFragments = []string{
	"best", "top ", "guide", "things to do", "where to eat", "restaurants in", "restaurants near",
	"near me", "updated", "list of", "yelp", "tripadvisor", "opentable", "resy", "infatuation",
	" eater ", "eater.com", "reddit", "timeout", "time out", "5280", "westword", "thrillist", "facebook", "instagram",
	"menu prices", "reviews", "wikipedia",
}

var webSeeds = map[string][]domain.Candidate{
	"sushi": {
		{Name: "Sushi Den", Neighborhood: "Platt Park", PriceLevel: 3, Notes: "Long-running sushi and omakase destination"},
		{Name: "Temaki Den", Neighborhood: "RiNo", PriceLevel: 2, Notes: "Hand-roll temaki sushi bar"},
		{Name: "Uchi Denver", Neighborhood: "RiNo", PriceLevel: 4, Notes: "Japanese sushi and small plates"},
		{Name: "Sushi Ronin", Neighborhood: "Highland", PriceLevel: 3, Notes: "Omakase sushi counter"},
	},
	"japanese": {
		{Name: "Uchi Denver", Neighborhood: "RiNo", PriceLevel: 4, Notes: "Japanese sushi and small plates"},
		{Name: "Osaka Ramen", Neighborhood: "RiNo", PriceLevel: 2, Notes: "Japanese ramen shop"},
	},
	"italian": {
		{Name: "Tavernetta", Neighborhood: "Union Station", PriceLevel: 4, Notes: "Italian trattoria by Frasca"},
		{Name: "Barolo Grill", Neighborhood: "Cherry Creek", PriceLevel: 4, Notes: "Northern Italian classic"},
		{Name: "Spuntino", Neighborhood: "Highland", PriceLevel: 3, Notes: "Italian pasta and gelato"},
	},
	"mexican": {
		{Name: "Xiquita", Neighborhood: "Baker", PriceLevel: 3, Notes: "Modern mexican cooking"},
		{Name: "La Diabla Pozole y Mezcal", Neighborhood: "Five Points", PriceLevel: 2, Notes: "Mexican pozole and mezcal bar"},
	},
	"french": {
		{Name: "Bistro Vendome", Neighborhood: "LoDo", PriceLevel: 3, Notes: "French bistro on Larimer Square"},
	},
	"steakhouse": {
		{Name: "Guard and Grace", Neighborhood: "Downtown", PriceLevel: 4, Notes: "Modern steakhouse"},
	},
}

// AugmentResult reports what the web augmentor contributed.
type AugmentResult struct {
	Added     []domain.Candidate
	Query     string
	UsedSeeds bool
	Errors    []string
}

// Augmentor supplements a shallow pool with web results, then with seeds.
type Augmentor struct {
	search ports.WebSearcher
	params Params
	logger *slog.Logger
}

// NewAugmentor accepts a nil searcher, in which case only seeds are used.
func NewAugmentor(search ports.WebSearcher, params Params, logger *slog.Logger) *Augmentor {
	return &Augmentor{search: search, params: params, logger: logger}
}

type augmentStrategy struct {
	name  string
	seeds bool
	fetch func(ctx context.Context, in Intent, query string) ([]domain.Candidate, error)
}

var errNoSearcher = errors.New("web search not configured")

// Augment returns new web-provenance candidates, de-duplicated against existing
// by normalized name.
func (a *Augmentor) Augment(ctx context.Context, in Intent, existing []domain.Candidate) AugmentResult {
	res := AugmentResult{Query: a.query(in)}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[textnorm.Normalize(c.Name)] = struct{}{}
	}

	strategies := []augmentStrategy{
		{name: "web", fetch: a.live},
		{name: "seeds", seeds: true, fetch: func(_ context.Context, in Intent, _ string) ([]domain.Candidate, error) {
			return seedCandidates(in), nil
		}},
	}

	for _, s := range strategies {
		found, err := s.fetch(ctx, in, res.Query)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", s.name, err))
			a.warn("augment strategy failed", "strategy", s.name, "error", err)
			continue
		}
		added := dedupeNew(found, seen)
		if len(added) == 0 {
			continue
		}
		res.Added = added
		res.UsedSeeds = s.seeds
		a.debug("augment merged", "strategy", s.name, "added", len(added))
		break
	}
	return res
}

func (a *Augmentor) query(in Intent) string {
	terms := in.SearchTerms()
	if len(terms) == 0 {
		terms = []string{"date night"}
	}
	return strings.Join(terms, " ") + " restaurant " + a.params.City
}

func (a *Augmentor) live(ctx context.Context, in Intent, query string) ([]domain.Candidate, error) {
	if a.search == nil {
		return nil, errNoSearcher
	}
	results, err := a.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		name := venueName(r.Title)
		if name == "" {
			continue
		}
		out = append(out, domain.Candidate{
			Name:       name,
			BookingURL: r.URL,
			Notes:      r.Snippet,
			SearchText: textnorm.Join(r.Title, r.Snippet),
		})
		if len(out) == a.params.WebResultLimit {
			break
		}
	}
	return out, nil
}

// venueName takes the leading title segment and rejects listicles and aggregators.
func venueName(title string) string {
	name := title
	for _, sep := range []string{" - ", " | ", " – ", " — ", ": "} {
		if i := strings.Index(name, sep); i > 0 {
			name = name[:i]
		}
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxWebNameLength {
		return ""
	}
	lower := " " + strings.ToLower(title) + " "
	for _, frag := range nonVenueFragments {
		if strings.Contains(lower, frag) {
			return ""
		}
	}
	return name
}

func seedCandidates(in Intent) []domain.Candidate {
	var out []domain.Candidate
	for _, name := range in.CuisineNames() {
		out = append(out, webSeeds[name]...)
	}
	return out
}

// dedupeNew finalizes web candidates and drops names already present. Web
// candidates carry no tags; constraints see only what the result itself says.
func dedupeNew(found []domain.Candidate, seen map[string]struct{}) []domain.Candidate {
	var out []domain.Candidate
	for _, c := range found {
		key := textnorm.Normalize(c.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.ID = "web:" + strings.ReplaceAll(key, " ", "-")
		c.Provenance = domain.ProvenanceWeb
		c.Tags = []string{}
		if c.SearchText == "" {
			c = withSearchText(c)
		}
		out = append(out, c)
	}
	return out
}

func (a *Augmentor) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Augmentor) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
