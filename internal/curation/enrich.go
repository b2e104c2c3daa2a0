package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/llmjson"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const enrichSystemPrompt = `For each Denver restaurant below, add what the article context supports.
Return ONLY JSON: {"restaurants":[{"name":"exact name as given","neighborhood":"string or null",
"priceLevel":1-4 or null,"tags":["cuisine or vibe", "..."],"rating":0-5 or null,"ratingSource":"string or null"}]}
Use null when unsure. At most %d tags per restaurant.`

// Enricher adds neighborhood, price, tags and rating to extracted rows.
type Enricher struct {
	llm    ports.Completer
	params Params
}

func NewEnricher(llm ports.Completer, params Params) *Enricher {
	return &Enricher{llm: llm, params: params}
}

// Enrich returns rows with metadata merged in. On error the rows come back
// unchanged; malformed fields are dropped per field, never per batch.
func (e *Enricher) Enrich(ctx context.Context, rows []domain.TrendingRestaurant, articles []domain.CuratedArticle) ([]domain.TrendingRestaurant, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	if e.llm == nil {
		return rows, ports.ErrLLMUnavailable
	}

	snippets := make(map[string]string, len(articles))
	for _, a := range articles {
		snippets[a.Article.ID] = a.Article.Title + ". " + clip(a.Article.Summary, 300)
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s: %s", r.Name, r.Overview)
		for _, id := range r.SourceArticleIDs {
			fmt.Fprintf(&b, " [%s]", snippets[id])
		}
		b.WriteByte('\n')
	}

	text, err := e.llm.Complete(ctx, ports.Prompt{
		System:    fmt.Sprintf(enrichSystemPrompt, e.params.MaxTags),
		User:      b.String(),
		MaxTokens: 1500,
	})
	if err != nil {
		return rows, err
	}
	fields, err := llmjson.Decode(text)
	if err != nil {
		return rows, err
	}

	byName := map[string]map[string]json.RawMessage{}
	for _, item := range llmjson.Objects(fields["restaurants"]) {
		key := textnorm.Normalize(llmjson.String(item["name"]))
		if key == "" {
			continue
		}
		if _, dup := byName[key]; !dup {
			byName[key] = item
		}
	}

	out := make([]domain.TrendingRestaurant, len(rows))
	for i, r := range rows {
		out[i] = r
		if item, ok := byName[textnorm.Normalize(r.Name)]; ok {
			out[i] = e.apply(r, item)
		}
	}
	return out, nil
}

// apply copies sanitized fields; out-of-range or wrong-typed values are left empty.
func (e *Enricher) apply(r domain.TrendingRestaurant, item map[string]json.RawMessage) domain.TrendingRestaurant {
	if hood := llmjson.String(item["neighborhood"]); hood != "" && len([]rune(hood)) <= e.params.MaxNeighborhoodLen {
		r.Neighborhood = hood
	}
	if level, ok := llmjson.Int(item["priceLevel"], domain.MinPrice, domain.MaxPrice); ok {
		r.PriceLevel = level
	}
	if tags := textnorm.UniquePhrases(llmjson.Strings(item["tags"], 0)); len(tags) > 0 {
		if len(tags) > e.params.MaxTags {
			tags = tags[:e.params.MaxTags]
		}
		r.Tags = tags
	}
	if rating, ok := llmjson.Float(item["rating"], 0, 5); ok {
		r.Rating = &rating
		r.RatingSource = clip(llmjson.String(item["ratingSource"]), 60)
	}
	return r
}
