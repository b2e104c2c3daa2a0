package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/llmjson"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const (
	ExtractStrict    = "llm_strict"
	ExtractLoose     = "llm_loose"
	ExtractHeuristic = "heuristic"
)

const strictExtractPrompt = `Extract restaurants from the articles below.
Only include restaurants, bars or cafes that are explicitly named in the article text. Do not guess or add places you know.
Never return newsletter names, publications, people, neighborhoods or dishes.
Reference articles only by their tag (A1, A2, ...). Return at most %d rows.
Return ONLY JSON: {"restaurants":[{"name":"...","overview":"one sentence","articles":["A1"]}]}`

const looseExtractPrompt = `List every restaurant, bar, cafe or food hall mentioned in these Denver food articles, even in passing.
Reference articles by their tag (A1, A2, ...). Return at most %d rows.
Return ONLY JSON: {"restaurants":[{"name":"...","overview":"short note","articles":["A1"]}]}`

var (
	capitalizedExpr = regexp.MustCompile(`\b[A-Z][A-Za-z'’]+(?:\s+(?:&\s+)?(?:(?:de|la|el|y|of|the)\s+)?[A-Z][A-Za-z'’]+){1,3}`)

	heuristicStopwords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "this": {}, "that": {}, "these": {}, "our": {}, "its": {}, "in": {}, "at": {},
		"denver": {}, "colorado": {}, "boulder": {}, "new": {}, "best": {}, "top": {}, "why": {}, "how": {},
		"what": {}, "where": {}, "when": {}, "read": {}, "more": {}, "sign": {}, "photo": {}, "courtesy": {},
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
		"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {}, "july": {},
		"august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	}
	heuristicDenyPatterns = []string{
		"restaurant week", "happy hour", "read more", "sign up", "food news", "denver post", "westword",
		"eater denver", "5280", "the infatuation", "click here", "james beard", "rocky mountain", "union station",
		"larimer square", "photo by", "courtesy of", "all rights",
	}
)

// ExtractResult carries the de-duplicated rows and the strategy that produced them.
type ExtractResult struct {
	Rows   []domain.TrendingRestaurant
	Method string
	Errors []string
}

// Extractor finds restaurant mentions in curated articles.
type Extractor struct {
	llm    ports.Completer
	params Params
	logger *slog.Logger
}

func NewExtractor(llm ports.Completer, params Params, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, params: params, logger: logger}
}

type extractStrategy struct {
	name string
	run  func(ctx context.Context, articles []domain.CuratedArticle) ([]domain.TrendingRestaurant, error)
}

// Extract tries the strict prompt, then the loose prompt, then capitalized-phrase
// heuristics, stopping at the first strategy that yields rows.
func (e *Extractor) Extract(ctx context.Context, articles []domain.CuratedArticle) ExtractResult {
	strategies := []extractStrategy{
		{name: ExtractStrict, run: func(ctx context.Context, a []domain.CuratedArticle) ([]domain.TrendingRestaurant, error) {
			return e.llmExtract(ctx, strictExtractPrompt, a)
		}},
		{name: ExtractLoose, run: func(ctx context.Context, a []domain.CuratedArticle) ([]domain.TrendingRestaurant, error) {
			return e.llmExtract(ctx, looseExtractPrompt, a)
		}},
		{name: ExtractHeuristic, run: func(_ context.Context, a []domain.CuratedArticle) ([]domain.TrendingRestaurant, error) {
			return e.heuristic(a), nil
		}},
	}

	var res ExtractResult
	for _, s := range strategies {
		rows, err := s.run(ctx, articles)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", s.name, err))
			e.warn("extraction strategy failed", "strategy", s.name, "error", err)
			continue
		}
		rows = dedupeRows(rows, e.params.MaxRows)
		if len(rows) == 0 {
			continue
		}
		res.Rows = rows
		res.Method = s.name
		return res
	}
	res.Method = ExtractHeuristic
	return res
}

func (e *Extractor) llmExtract(ctx context.Context, system string, articles []domain.CuratedArticle) ([]domain.TrendingRestaurant, error) {
	if e.llm == nil {
		return nil, ports.ErrLLMUnavailable
	}

	byTag := make(map[string]string, len(articles))
	var b strings.Builder
	for i, a := range articles {
		tag := fmt.Sprintf("A%d", i+1)
		byTag[tag] = a.Article.ID
		fmt.Fprintf(&b, "[%s] %s\n%s\n%s\n\n", tag, a.Article.Title, clip(a.Article.Summary, 400),
			clip(a.Excerpt, e.params.PromptExcerptChars))
	}

	text, err := e.llm.Complete(ctx, ports.Prompt{
		System:    fmt.Sprintf(system, e.params.MaxRows),
		User:      b.String(),
		MaxTokens: 1200,
	})
	if err != nil {
		return nil, err
	}
	fields, err := llmjson.Decode(text)
	if err != nil {
		return nil, err
	}

	var rows []domain.TrendingRestaurant
	for _, item := range llmjson.Objects(fields["restaurants"]) {
		row, ok := e.sanitizeRow(item, byTag)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (e *Extractor) sanitizeRow(item map[string]json.RawMessage, byTag map[string]string) (domain.TrendingRestaurant, bool) {
	name := llmjson.String(item["name"])
	if name == "" || len([]rune(name)) > e.params.MaxNameLen {
		return domain.TrendingRestaurant{}, false
	}
	row := domain.TrendingRestaurant{
		Name:     name,
		Overview: clip(llmjson.String(item["overview"]), e.params.MaxOverviewLen),
		Tags:     []string{},
	}
	seen := map[string]struct{}{}
	for _, tag := range llmjson.Strings(item["articles"], 0) {
		id, ok := byTag[strings.ToUpper(tag)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		row.SourceArticleIDs = append(row.SourceArticleIDs, id)
	}
	return row, true
}

// heuristic collects capitalized multi-word phrases that look like venue names.
func (e *Extractor) heuristic(articles []domain.CuratedArticle) []domain.TrendingRestaurant {
	var rows []domain.TrendingRestaurant
	index := map[string]int{}

	for _, a := range articles {
		for _, phrase := range capitalizedExpr.FindAllString(a.Text(), -1) {
			phrase = strings.TrimSpace(phrase)
			if !plausibleHeuristicName(phrase) {
				continue
			}
			key := textnorm.Normalize(phrase)
			if i, ok := index[key]; ok {
				if !slices.Contains(rows[i].SourceArticleIDs, a.Article.ID) {
					rows[i].SourceArticleIDs = append(rows[i].SourceArticleIDs, a.Article.ID)
				}
				continue
			}
			index[key] = len(rows)
			rows = append(rows, domain.TrendingRestaurant{
				Name:             phrase,
				Tags:             []string{},
				SourceArticleIDs: []string{a.Article.ID},
			})
		}
	}
	return rows
}

func plausibleHeuristicName(phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) < 2 {
		return false
	}
	if _, stop := heuristicStopwords[strings.ToLower(words[0])]; stop {
		return false
	}
	for _, w := range words {
		if _, stop := heuristicStopwords[strings.ToLower(w)]; stop && w != "the" {
			return false
		}
	}
	norm := textnorm.Normalize(phrase)
	for _, pattern := range heuristicDenyPatterns {
		if strings.Contains(norm, pattern) {
			return false
		}
	}
	return true
}

// dedupeRows keeps the first row per normalized name and caps the result.
func dedupeRows(rows []domain.TrendingRestaurant, limit int) []domain.TrendingRestaurant {
	out := make([]domain.TrendingRestaurant, 0, len(rows))
	seen := map[string]struct{}{}
	for _, r := range rows {
		key := textnorm.Normalize(r.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (e *Extractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
