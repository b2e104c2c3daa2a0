package recommend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
)

type fakeCatalog struct {
	restaurants []domain.Restaurant
	err         error
}

func (f fakeCatalog) ListRestaurants(context.Context, string) ([]domain.Restaurant, error) {
	return f.restaurants, f.err
}

func (f fakeCatalog) UpsertRestaurant(context.Context, domain.Restaurant) error {
	return nil
}

type fakeSearcher struct {
	results []ports.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]ports.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, ports.Prompt) (string, error) {
	return f.reply, f.err
}

func restaurant(id, name, hood string, price int, tags ...string) domain.Restaurant {
	return domain.Restaurant{ID: id, ProfileID: "p1", Name: name, Neighborhood: hood, PriceLevel: price, Tags: tags, Status: domain.StatusActive}
}

func TestFilterBudgetDominates(t *testing.T) {
	t.Parallel()

	cands := FromRestaurants([]domain.Restaurant{restaurant("r1", "Green Room", "Highland", 3, "vegetarian", "cozy")})
	c := domain.Criteria{MinPrice: domain.IntPtr(1), MaxPrice: domain.IntPtr(2), VibeTags: []string{"vegetarian"}}

	res := Filter(cands, c, domain.Profile{})
	if len(res.Candidates) != 0 {
		t.Fatalf("expected budget violation to exclude candidate, got %d", len(res.Candidates))
	}
	if !res.Relaxed {
		t.Fatal("relaxation should have been attempted")
	}
}

func TestFilterRelaxesToFirstCuisine(t *testing.T) {
	t.Parallel()

	cands := FromRestaurants([]domain.Restaurant{
		restaurant("r1", "Menya", "RiNo", 2, "japanese", "ramen"),
		restaurant("r2", "Luca", "Cap Hill", 3, "italian"),
	})
	c := domain.Criteria{VibeTags: []string{"nigiri", "romantic"}}

	res := Filter(cands, c, domain.Profile{})
	if res.StrictCount != 0 || !res.Relaxed {
		t.Fatalf("strict=%d relaxed=%v", res.StrictCount, res.Relaxed)
	}
	if !reflect.DeepEqual(res.EffectiveTags, []string{"sushi"}) {
		t.Fatalf("effective tags = %v", res.EffectiveTags)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("a ramen shop must not satisfy a sushi request: %+v", res.Candidates)
	}
}

func TestParseIntentOneCuisinePerTag(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tags []string
		want []string
	}{
		{[]string{"sushi"}, []string{"sushi"}},
		{[]string{"omakase"}, []string{"sushi"}},
		{[]string{"ramen"}, []string{"japanese"}},
		{[]string{"pizza"}, []string{"pizza"}},
		{[]string{"wood fired pizza"}, []string{"pizza"}},
		{[]string{"pasta"}, []string{"italian"}},
		{[]string{"sushi", "ramen", "romantic"}, []string{"sushi", "japanese"}},
	}
	for _, tc := range cases {
		if got := ParseIntent(tc.tags).CuisineNames(); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseIntent(%v) cuisines = %v, want %v", tc.tags, got, tc.want)
		}
	}

	in := ParseIntent([]string{"sushi"})
	if in.Satisfied("menya rino japanese ramen") {
		t.Fatal("ramen text must not satisfy a sushi intent")
	}
	if ParseIntent([]string{"pizza"}).Satisfied("luca cap hill italian pasta") {
		t.Fatal("pasta text must not satisfy a pizza intent")
	}
}

func TestFilterNeverFallsBackToCatalog(t *testing.T) {
	t.Parallel()

	cands := FromRestaurants([]domain.Restaurant{restaurant("r1", "Steak Co", "LoDo", 4, "steakhouse")})
	res := Filter(cands, domain.Criteria{VibeTags: []string{"vegan"}}, domain.Profile{})
	if len(res.Candidates) != 0 {
		t.Fatal("unfiltered catalog leaked into result")
	}
}

func TestFilterHardNoAndArchived(t *testing.T) {
	t.Parallel()

	archived := restaurant("r3", "Old Spot", "Baker", 2, "cozy")
	archived.Status = domain.StatusArchived
	cands := FromRestaurants([]domain.Restaurant{
		restaurant("r1", "Loud Bar", "LoDo", 2, "sports bar"),
		restaurant("r2", "Quiet Bistro", "Highland", 2, "french", "bistro"),
		archived,
	})
	if len(cands) != 2 {
		t.Fatalf("archived entries must be skipped, got %d", len(cands))
	}

	res := Filter(cands, domain.Criteria{}, domain.Profile{HardNoTags: []string{"Sports Bar"}})
	if len(res.Candidates) != 1 || res.Candidates[0].ID != "r2" {
		t.Fatalf("hard-no filter = %+v", res.Candidates)
	}
}

func TestFilterIsPure(t *testing.T) {
	t.Parallel()

	cands := FromRestaurants([]domain.Restaurant{
		restaurant("r1", "Sushi Den", "Platt Park", 3, "sushi"),
		restaurant("r2", "Luca", "Cap Hill", 3, "italian"),
		restaurant("r3", "Vert", "Baker", 0, "vegan", "sushi"),
	})
	c := domain.Criteria{VibeTags: []string{"sushi", "vegan"}, MaxPrice: domain.IntPtr(3)}

	first := Filter(cands, c, domain.Profile{})
	second := Filter(cands, c, domain.Profile{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("filter not deterministic: %+v vs %+v", first, second)
	}
	if len(first.Candidates) != 1 || first.Candidates[0].ID != "r3" {
		t.Fatalf("filtered = %+v", first.Candidates)
	}
}

func TestScoreContributions(t *testing.T) {
	t.Parallel()

	cand := FromRestaurant(restaurant("r1", "Sushi Den", "Platt Park", 2, "sushi", "romantic"))
	cand.BookingURL = "https://example.com/book"
	c := domain.Criteria{VibeTags: []string{"sushi", "romantic"}}
	p := domain.Profile{PreferredNeighborhoods: []string{"platt"}, PriceMin: 1, PriceMax: 3}

	s := NewScorer(DefaultParams()).Score(cand, ParseIntent(c.VibeTags), c, p)
	if s.Score != 26+6+3+4+1 {
		t.Fatalf("score = %d", s.Score)
	}
	if len(s.Reasons) != 3 || !strings.Contains(s.Reasons[0], "sushi") {
		t.Fatalf("reasons = %v", s.Reasons)
	}

	miss := FromRestaurant(restaurant("r2", "Luca", "Cap Hill", 4, "italian"))
	s = NewScorer(DefaultParams()).Score(miss, ParseIntent(c.VibeTags), c, p)
	if s.Score != -40-4 || !s.BudgetMiss {
		t.Fatalf("miss score = %d budgetMiss=%v", s.Score, s.BudgetMiss)
	}
}

func TestRankTieBreak(t *testing.T) {
	t.Parallel()

	cands := FromRestaurants([]domain.Restaurant{
		restaurant("b", "beta", "", 0),
		restaurant("a2", "alpha", "", 0),
		restaurant("a1", "Alpha", "", 0),
	})
	scorer := NewScorer(DefaultParams())
	first := scorer.Rank(cands, Intent{}, domain.Criteria{}, domain.Profile{})
	second := scorer.Rank(cands, Intent{}, domain.Criteria{}, domain.Profile{})

	var ids []string
	for _, s := range first {
		ids = append(ids, s.Candidate.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a1", "a2", "b"}) {
		t.Fatalf("order = %v", ids)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("ranking not deterministic")
	}
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	three := FromRestaurants([]domain.Restaurant{
		restaurant("1", "A", "", 0), restaurant("2", "B", "", 0), restaurant("3", "C", "", 0),
	})
	if got := p.Confidence(three, ParseIntent([]string{"romantic"})); got != 0.75 {
		t.Fatalf("deep soft pool = %v", got)
	}
	if got := p.Confidence(three[:2], Intent{}); got != 0.45 {
		t.Fatalf("shallow soft pool = %v", got)
	}

	sushi := FromRestaurants([]domain.Restaurant{
		restaurant("1", "Sushi Den", "", 0, "sushi"), restaurant("2", "Temaki Den", "", 0, "temaki"),
	})
	if got := p.Confidence(sushi, ParseIntent([]string{"sushi"})); got != 0.52 {
		t.Fatalf("hard pool = %v", got)
	}
	if got := p.Confidence(nil, ParseIntent([]string{"sushi"})); got != 0 {
		t.Fatalf("empty hard pool = %v", got)
	}
}

func TestRecommendHybridAugmentation(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []ports.SearchResult{
		{Title: "Sushi Kiyoshi - Japanese restaurant", URL: "https://kiyoshi.example"},
		{Title: "The 10 Best Sushi Restaurants in Denver", URL: "https://list.example"},
		{Title: "Sushi Den | Denver", URL: "https://sushiden.example"},
	}}
	svc := NewService(Deps{
		Catalog: fakeCatalog{restaurants: []domain.Restaurant{
			restaurant("r1", "Sushi Den", "Platt Park", 3, "sushi"),
			restaurant("r2", "Menya", "RiNo", 2, "japanese", "ramen"),
		}},
		Augmentor: NewAugmentor(searcher, DefaultParams(), nil),
		Params:    DefaultParams(),
	})

	resp, err := svc.Recommend(context.Background(), Request{
		Profile:  &domain.Profile{ID: "p1"},
		Criteria: domain.Criteria{VibeTags: []string{"sushi"}},
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if resp.Debug.ConfidenceBeforeAugment >= 0.65 {
		t.Fatalf("confidence before augment = %v", resp.Debug.ConfidenceBeforeAugment)
	}
	if !resp.Debug.WebAugmented || resp.Debug.WebAdded != 1 || resp.Debug.WebUsedSeeds {
		t.Fatalf("debug = %+v", resp.Debug)
	}
	if resp.SourceMode != SourceModeHybrid {
		t.Fatalf("source mode = %s", resp.SourceMode)
	}
	if resp.Debug.RerankerUsed || len(resp.Recommendations) != 3 {
		t.Fatalf("expected 3 score fallback picks, got %d (reranker %v)", len(resp.Recommendations), resp.Debug.RerankerUsed)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "sushi restaurant Denver" {
		t.Fatalf("queries = %v", searcher.queries)
	}
}

func TestRecommendSeedsWhenSearchFails(t *testing.T) {
	t.Parallel()

	svc := NewService(Deps{
		Catalog:   fakeCatalog{},
		Augmentor: NewAugmentor(&fakeSearcher{err: errors.New("timeout")}, DefaultParams(), nil),
		Params:    DefaultParams(),
	})
	resp, err := svc.Recommend(context.Background(), Request{
		Profile:  &domain.Profile{ID: "p1"},
		Criteria: domain.Criteria{VibeTags: []string{"sushi"}},
		Mode:     ModeBroaden,
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !resp.Debug.WebUsedSeeds || resp.SourceMode != SourceModeWeb {
		t.Fatalf("seeds=%v mode=%s", resp.Debug.WebUsedSeeds, resp.SourceMode)
	}
	for _, rec := range resp.Recommendations {
		if rec.Provenance != domain.ProvenanceWeb || !strings.HasPrefix(rec.ID, "web:") {
			t.Fatalf("unexpected pick %+v", rec)
		}
	}
	if len(resp.Debug.Errors) == 0 {
		t.Fatal("search failure should be recorded")
	}
}

func TestRecommendDropsWebResultsMissingConstraints(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []ports.SearchResult{
		{Title: "Joe's Steak Shack", URL: "https://joes.example", Snippet: "Prime rib and bourbon"},
	}}
	svc := NewService(Deps{
		Catalog:   fakeCatalog{},
		Augmentor: NewAugmentor(searcher, DefaultParams(), nil),
		Params:    DefaultParams(),
	})
	resp, err := svc.Recommend(context.Background(), Request{
		Profile:  &domain.Profile{ID: "p1"},
		Criteria: domain.Criteria{VibeTags: []string{"vegan", "sushi"}},
		Mode:     ModeBroaden,
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !resp.Debug.WebAugmented || resp.Debug.WebAdded != 0 {
		t.Fatalf("debug = %+v", resp.Debug)
	}
	if len(resp.Recommendations) != 0 {
		t.Fatalf("steakhouse recommended for a vegan sushi request: %+v", resp.Recommendations)
	}
}

func TestAugmentLeavesWebTagsEmpty(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{results: []ports.SearchResult{
		{Title: "Kizaki - Omakase in Denver", URL: "https://kizaki.example", Snippet: "Seasonal nigiri"},
	}}
	a := NewAugmentor(searcher, DefaultParams(), nil)
	res := a.Augment(context.Background(), ParseIntent([]string{"sushi", "vegan"}), nil)
	if len(res.Added) != 1 {
		t.Fatalf("added = %+v", res.Added)
	}
	got := res.Added[0]
	if got.Name != "Kizaki" || len(got.Tags) != 0 {
		t.Fatalf("unexpected candidate %+v", got)
	}
	in := ParseIntent([]string{"sushi", "vegan"})
	if !in.MatchesCuisine(got.SearchText) || in.MatchesDietary(got.SearchText) {
		t.Fatalf("search text %q should match the cuisine only", got.SearchText)
	}
}

func TestRecommendOrdersInvertedBudget(t *testing.T) {
	t.Parallel()

	svc := NewService(Deps{
		Catalog: fakeCatalog{restaurants: []domain.Restaurant{
			restaurant("r1", "Hop Alley", "RiNo", 2, "chinese"),
			restaurant("r2", "Bastien's", "Cap Hill", 4, "steakhouse"),
		}},
		Params: DefaultParams(),
	})
	resp, err := svc.Recommend(context.Background(), Request{
		Profile:  &domain.Profile{ID: "p1"},
		Criteria: domain.Criteria{MinPrice: domain.IntPtr(3), MaxPrice: domain.IntPtr(1)},
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if resp.Debug.FilteredCount != 1 {
		t.Fatalf("filtered = %d, want the price-2 candidate only", resp.Debug.FilteredCount)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Name != "Hop Alley" {
		t.Fatalf("picks = %+v", resp.Recommendations)
	}
}

func TestRecommendRegenerateRotates(t *testing.T) {
	t.Parallel()

	var list []domain.Restaurant
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		list = append(list, restaurant(strings.ToLower(name), name, "", 0))
	}
	svc := NewService(Deps{Catalog: fakeCatalog{restaurants: list}, Params: DefaultParams()})
	req := Request{Profile: &domain.Profile{ID: "p1"}, Mode: ModeRegenerate}

	names := func(resp Response) string {
		var out []string
		for _, r := range resp.Recommendations {
			out = append(out, r.Name)
		}
		return strings.Join(out, "")
	}

	first, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if names(first) != "DEF" || first.NextOffset != 3 {
		t.Fatalf("first regenerate = %s offset %d", names(first), first.NextOffset)
	}

	req.Offset = first.NextOffset
	second, _ := svc.Recommend(context.Background(), req)
	if names(second) != "GAB" || second.NextOffset != 6 {
		t.Fatalf("second regenerate = %s offset %d", names(second), second.NextOffset)
	}

	again, _ := svc.Recommend(context.Background(), req)
	if names(again) != names(second) {
		t.Fatal("regenerate is not deterministic")
	}

	req.Mode = ModeTighten
	tight, _ := svc.Recommend(context.Background(), req)
	if names(tight) != "AB" {
		t.Fatalf("tighten = %s", names(tight))
	}
}

func TestRecommendRerankerRevalidatesPicks(t *testing.T) {
	t.Parallel()

	reply := `Here you go {"picks":[{"id":"C2","reason":"great pasta","tradeoff":"loud"},{"id":"C9","reason":"x"},{"id":"C1","reason":"fresh fish","tradeoff":""}]}`
	svc := NewService(Deps{
		Catalog: fakeCatalog{restaurants: []domain.Restaurant{
			restaurant("r1", "Sushi Den", "Platt Park", 3, "sushi"),
			restaurant("r2", "Luca", "Cap Hill", 3, "italian"),
		}},
		Reranker: NewReranker(fakeCompleter{reply: reply}, nil),
		Params:   DefaultParams(),
	})

	// Luca is filtered out, so C2 does not exist and must be ignored.
	resp, err := svc.Recommend(context.Background(), Request{
		Profile:  &domain.Profile{ID: "p1"},
		Criteria: domain.Criteria{VibeTags: []string{"sushi"}},
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !resp.Debug.RerankerUsed {
		t.Fatalf("reranker not used: %v", resp.Debug.Errors)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Name != "Sushi Den" {
		t.Fatalf("picks = %+v", resp.Recommendations)
	}
	if resp.Recommendations[0].Tradeoff == "" {
		t.Fatal("empty tradeoff must be filled heuristically")
	}
}

func TestRerankerRejectsMismatch(t *testing.T) {
	t.Parallel()

	pool := NewScorer(DefaultParams()).Rank(FromRestaurants([]domain.Restaurant{
		restaurant("r1", "Sushi Den", "", 3, "sushi"),
		restaurant("r2", "Luca", "", 3, "italian"),
	}), Intent{}, domain.Criteria{}, domain.Profile{})

	r := NewReranker(fakeCompleter{reply: `{"picks":[{"id":"C1","reason":"pasta"}]}`}, nil)
	_, err := r.Rerank(context.Background(), pool, domain.Criteria{}, ParseIntent([]string{"sushi"}), 3)
	if err == nil {
		t.Fatal("cuisine mismatch must not be accepted")
	}

	if _, err := NewReranker(nil, nil).Rerank(context.Background(), pool, domain.Criteria{}, Intent{}, 3); !errors.Is(err, ports.ErrLLMUnavailable) {
		t.Fatalf("nil completer err = %v", err)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	if m, err := ParseMode(""); err != nil || m != ModeDefault {
		t.Fatalf("empty mode = %v, %v", m, err)
	}
	if m, err := ParseMode(" Broaden "); err != nil || m != ModeBroaden {
		t.Fatalf("broaden = %v, %v", m, err)
	}
	if _, err := ParseMode("shuffle"); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
