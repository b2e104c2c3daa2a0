package curation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/llmjson"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const (
	MethodLLM      = "llm"
	MethodFallback = "fallback"
)

const curateSystemPrompt = `You curate a weekly Denver food newsletter. From the articles below choose the %d best, in order.
Prefer editorial publications over community posts when quality is comparable.
Favor restaurant reviews, openings and dining guides. Penalize generic, off-topic or question-style posts.
Use recency and popularity signals only to break ties.
Return ONLY JSON: {"ids":["A1","A2"]} using the article tags shown.`

var (
	positiveTerms = []string{"review", "opening", "opens", "opened", "now open", "first look", "new restaurant",
		"guide", "where to eat", "best", "chef", "tasting menu", "james beard", "michelin", "dishes", "pop-up"}
	negativeTerms = []string{"?", "anyone", "recommendation", "recommendations", "help", "question",
		"looking for", "iso ", "vs", "rant", "psa", "meme"}
	yearPathExpr = regexp.MustCompile(`/20\d\d/`)
)

// Selection is the curated id order and how it was produced.
type Selection struct {
	IDs    []string
	Method string
	Errors []string
}

// Curator picks the curated article set.
type Curator struct {
	llm    ports.Completer
	params Params
	now    func() time.Time
	logger *slog.Logger
}

// NewCurator accepts a nil completer; selection then always uses the fallback scoring.
func NewCurator(llm ports.Completer, params Params, now func() time.Time, logger *slog.Logger) *Curator {
	if now == nil {
		now = time.Now
	}
	return &Curator{llm: llm, params: params, now: now, logger: logger}
}

// Select ranks articles and applies the diversity pass. sources maps source id to Source.
func (c *Curator) Select(ctx context.Context, articles []domain.Article, sources map[string]domain.Source) Selection {
	if len(articles) > c.params.MaxArticles {
		articles = articles[:c.params.MaxArticles]
	}
	sourceOf := make(map[string]string, len(articles))
	for _, a := range articles {
		sourceOf[a.ID] = a.SourceID
	}

	ranked := c.FallbackOrder(articles, sources)
	sel := Selection{Method: MethodFallback}
	preferred := ranked

	ids, err := c.llmPick(ctx, articles, sources)
	switch {
	case err != nil:
		sel.Errors = append(sel.Errors, "curate llm: "+err.Error())
		c.warn("curation llm pass failed", "error", err)
	case len(ids) < c.params.Target && len(ids) < len(articles):
		sel.Errors = append(sel.Errors, fmt.Sprintf("curate llm: %d valid ids", len(ids)))
		c.warn("curation llm pass too short", "valid", len(ids))
	default:
		sel.Method = MethodLLM
		preferred = ids
	}

	sel.IDs = Diversify(preferred, ranked, sourceOf, c.params.Target, c.params.MinSources, c.params.MaxPerSource)
	return sel
}

func (c *Curator) llmPick(ctx context.Context, articles []domain.Article, sources map[string]domain.Source) ([]string, error) {
	if c.llm == nil {
		return nil, ports.ErrLLMUnavailable
	}

	byTag := make(map[string]string, len(articles))
	var b strings.Builder
	now := c.now()
	for i, a := range articles {
		tag := fmt.Sprintf("A%d", i+1)
		byTag[tag] = a.ID
		src := sources[a.SourceID]
		age := "unknown date"
		if d, ok := a.Age(now); ok {
			age = fmt.Sprintf("%dd ago", int(d.Hours()/24))
		}
		fmt.Fprintf(&b, "%s | %s (%s) | %s | %s | %s\n", tag, orName(src, a.SourceID), tierOf(src), age,
			a.Title, clip(a.Summary, 200))
	}

	text, err := c.llm.Complete(ctx, ports.Prompt{
		System:    fmt.Sprintf(curateSystemPrompt, c.params.Target),
		User:      b.String(),
		MaxTokens: 200,
	})
	if err != nil {
		return nil, err
	}
	fields, err := llmjson.Decode(text)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := map[string]struct{}{}
	for _, tag := range llmjson.Strings(fields["ids"], 0) {
		id, ok := byTag[strings.ToUpper(tag)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// FallbackOrder ranks articles by source tier, keywords, recency and URL shape.
func (c *Curator) FallbackOrder(articles []domain.Article, sources map[string]domain.Source) []string {
	type scored struct {
		article domain.Article
		score   float64
	}
	now := c.now()
	list := make([]scored, 0, len(articles))
	for _, a := range articles {
		list = append(list, scored{article: a, score: fallbackScore(a, sources[a.SourceID], now)})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		pi, pj := publishedUnix(list[i].article), publishedUnix(list[j].article)
		if pi != pj {
			return pi > pj
		}
		return list[i].article.ID < list[j].article.ID
	})

	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.article.ID)
	}
	return out
}

func fallbackScore(a domain.Article, src domain.Source, now time.Time) float64 {
	score := tierWeight(src.Tier)

	text := strings.ToLower(a.Title + " " + a.Summary)
	for _, term := range positiveTerms {
		if strings.Contains(text, term) {
			score += 1.5
		}
	}
	title := strings.ToLower(a.Title)
	for _, term := range negativeTerms {
		if strings.Contains(title, term) {
			score -= 2
		}
	}

	if age, ok := a.Age(now); ok {
		days := age.Hours() / 24
		switch {
		case days <= 7:
			score += 3
		case days <= 30:
			score += 1.5
		case days <= 90:
			score += 0.5
		}
	}

	return score + popularity(a.URL)
}

func tierWeight(t domain.SourceTier) float64 {
	switch t {
	case domain.TierEditorial:
		return 3
	case domain.TierCommunity:
		return 0.5
	default:
		return 2
	}
}

// popularity is a proxy from URL shape: dated, slugged article paths score higher.
func popularity(raw string) float64 {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	score := 0.0
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if strings.Count(last, "-") >= 3 {
		score += 0.5
	}
	if yearPathExpr.MatchString(u.Path) {
		score += 0.25
	}
	if u.RawQuery != "" {
		score -= 0.25
	}
	return score
}

func publishedUnix(a domain.Article) int64 {
	if a.PublishedAt == nil {
		return 0
	}
	return a.PublishedAt.Unix()
}

func orName(src domain.Source, fallback string) string {
	if src.Name != "" {
		return src.Name
	}
	return fallback
}

func tierOf(src domain.Source) string {
	if src.Tier == "" {
		return "unknown"
	}
	return string(src.Tier)
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (c *Curator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
