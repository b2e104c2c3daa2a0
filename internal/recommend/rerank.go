package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/llmjson"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const (
	maxNoteChars     = 160
	maxExplainChars  = 200
	rerankMaxTokens  = 600
	rerankSystemText = `You pick restaurants for a date night. Choose the best %d candidates for the criteria.
Hard rules: respect the budget, every dietary tag and the cuisine. Reject cuisine mismatches even if they are listed.
Return ONLY JSON: {"picks":[{"id":"C1","reason":"short reason","tradeoff":"one honest tradeoff"}]}`
)

var errNoValidPicks = errors.New("no valid picks")

// Reranker asks a language model to choose and justify the top picks.
type Reranker struct {
	llm    ports.Completer
	logger *slog.Logger
}

// NewReranker accepts a nil completer, which always reports ErrLLMUnavailable.
func NewReranker(llm ports.Completer, logger *slog.Logger) *Reranker {
	return &Reranker{llm: llm, logger: logger}
}

// Rerank returns up to picks recommendations. Every pick is re-checked against
// the intent; an error means the caller should use the score order instead.
func (r *Reranker) Rerank(ctx context.Context, pool []Scored, c domain.Criteria, in Intent, picks int) ([]domain.Recommendation, error) {
	if r.llm == nil {
		return nil, ports.ErrLLMUnavailable
	}
	if len(pool) == 0 {
		return nil, errNoValidPicks
	}

	byLocal := make(map[string]Scored, len(pool))
	var b strings.Builder
	fmt.Fprintf(&b, "Criteria: tags=%s price=%s party=%s\nCandidates:\n",
		strings.Join(c.VibeTags, ", "), priceLabel(c), partyLabel(c))
	for i, s := range pool {
		id := fmt.Sprintf("C%d", i+1)
		byLocal[id] = s
		fmt.Fprintf(&b, "%s | %s | %s | price %s | tags: %s | %s | %s\n",
			id, s.Candidate.Name, orDash(s.Candidate.Neighborhood), levelLabel(s.Candidate.PriceLevel),
			strings.Join(s.Candidate.Tags, ", "), s.Candidate.Provenance, truncate(s.Candidate.Notes, maxNoteChars))
	}

	text, err := r.llm.Complete(ctx, ports.Prompt{
		System:    fmt.Sprintf(rerankSystemText, picks),
		User:      b.String(),
		MaxTokens: rerankMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	fields, err := llmjson.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("decode picks: %w", err)
	}

	var out []domain.Recommendation
	used := map[string]struct{}{}
	for _, item := range llmjson.Objects(fields["picks"]) {
		id := strings.ToUpper(llmjson.String(item["id"]))
		s, ok := byLocal[id]
		if !ok {
			continue
		}
		if _, dup := used[id]; dup {
			continue
		}
		if !in.Satisfied(s.Candidate.SearchText) {
			r.debug("rerank pick rejected", "name", s.Candidate.Name)
			continue
		}
		used[id] = struct{}{}

		reason := truncate(llmjson.String(item["reason"]), maxExplainChars)
		if reason == "" {
			reason = fallbackReason(s)
		}
		tradeoff := truncate(llmjson.String(item["tradeoff"]), maxExplainChars)
		if tradeoff == "" {
			tradeoff = heuristicTradeoff(s)
		}
		out = append(out, domain.Recommendation{Candidate: s.Candidate, Reason: reason, Tradeoff: tradeoff})
		if len(out) == picks {
			break
		}
	}
	if len(out) == 0 {
		return nil, errNoValidPicks
	}
	return out, nil
}

// ScorePicks is the deterministic fallback: the first picks of an already rotated pool.
func ScorePicks(pool []Scored, picks int) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, picks)
	for _, s := range pool {
		if len(out) == picks {
			break
		}
		out = append(out, domain.Recommendation{
			Candidate: s.Candidate,
			Reason:    fallbackReason(s),
			Tradeoff:  heuristicTradeoff(s),
		})
	}
	return out
}

// rotate returns pool starting at offset, wrapping around.
func rotate(pool []Scored, offset int) []Scored {
	if len(pool) == 0 || offset%len(pool) == 0 {
		return pool
	}
	offset %= len(pool)
	out := make([]Scored, 0, len(pool))
	out = append(out, pool[offset:]...)
	return append(out, pool[:offset]...)
}

func fallbackReason(s Scored) string {
	if len(s.Reasons) == 0 {
		return "Solid overall fit for your criteria"
	}
	return strings.Join(s.Reasons, "; ")
}

func heuristicTradeoff(s Scored) string {
	switch {
	case s.Candidate.Provenance == domain.ProvenanceWeb:
		return "Found via web search, so details are unverified"
	case s.BudgetMiss:
		return "Outside your usual budget"
	case s.Candidate.PriceLevel == 0:
		return "Price level unknown"
	case s.Candidate.BookingURL == "":
		return "No online booking link, call ahead"
	case !s.PreferredArea && s.Candidate.Neighborhood != "":
		return "Outside your usual neighborhoods"
	default:
		return "Popular, so book ahead"
	}
}

func priceLabel(c domain.Criteria) string {
	lo, hi := "any", "any"
	if c.MinPrice != nil {
		lo = strings.Repeat("$", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		hi = strings.Repeat("$", *c.MaxPrice)
	}
	return lo + "-" + hi
}

func partyLabel(c domain.Criteria) string {
	if c.PartySize == nil {
		return "unknown"
	}
	return fmt.Sprint(*c.PartySize)
}

func levelLabel(level int) string {
	if level <= 0 {
		return "?"
	}
	return strings.Repeat("$", level)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

func (r *Reranker) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
