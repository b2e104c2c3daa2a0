package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

// Scored is a candidate with its fit score and explanations.
type Scored struct {
	Candidate domain.Candidate
	Score     int
	Reasons   []string
	// BudgetMiss is set when a known price falls outside the effective budget.
	BudgetMiss bool
	// PreferredArea is set when the neighborhood matched the profile.
	PreferredArea bool
}

// Scorer applies the additive point system.
type Scorer struct {
	params Params
}

func NewScorer(params Params) Scorer {
	return Scorer{params: params}
}

// Score evaluates one candidate. Reasons keep the order contributions were applied.
func (s Scorer) Score(cand domain.Candidate, in Intent, c domain.Criteria, p domain.Profile) Scored {
	out := Scored{Candidate: cand}
	var reasons []string
	text := cand.SearchText

	if len(in.cuisines) > 0 {
		if name, ok := in.matchedCuisine(text); ok {
			out.Score += s.params.CuisineMatch
			reasons = append(reasons, fmt.Sprintf("Matches your %s craving", name))
		} else {
			out.Score += s.params.CuisineMiss
		}
	}

	for _, tag := range in.Soft {
		if textnorm.ContainsPhrase(text, tag) {
			out.Score += s.params.SoftTagMatch
			reasons = append(reasons, fmt.Sprintf("Fits %q", tag))
		}
	}

	if area, ok := preferredNeighborhood(cand.Neighborhood, p.PreferredNeighborhoods); ok {
		out.Score += s.params.Neighborhood
		out.PreferredArea = true
		reasons = append(reasons, "In "+area+", one of your neighborhoods")
	}

	if cand.PriceLevel > 0 {
		lo, hi := c.PriceBounds(p)
		if cand.PriceLevel >= lo && cand.PriceLevel <= hi {
			out.Score += s.params.BudgetFit
			reasons = append(reasons, "Within your "+strings.Repeat("$", hi)+" budget")
		} else {
			out.Score += s.params.BudgetMiss
			out.BudgetMiss = true
		}
	}

	if cand.BookingURL != "" {
		out.Score += s.params.BookingLink
		reasons = append(reasons, "Easy to book online")
	}

	if len(reasons) > s.params.MaxReasons {
		reasons = reasons[:s.params.MaxReasons]
	}
	out.Reasons = reasons
	return out
}

// Rank scores every candidate and sorts by score, then case-insensitive name, then id.
func (s Scorer) Rank(cands []domain.Candidate, in Intent, c domain.Criteria, p domain.Profile) []Scored {
	out := make([]Scored, 0, len(cands))
	for _, cand := range cands {
		out = append(out, s.Score(cand, in, c, p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ni, nj := strings.ToLower(out[i].Candidate.Name), strings.ToLower(out[j].Candidate.Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].Candidate.ID < out[j].Candidate.ID
	})
	return out
}

// preferredNeighborhood matches by substring in either direction.
func preferredNeighborhood(hood string, preferred []string) (string, bool) {
	h := textnorm.Normalize(hood)
	if h == "" {
		return "", false
	}
	for _, raw := range preferred {
		p := textnorm.Normalize(raw)
		if p == "" {
			continue
		}
		if strings.Contains(h, p) || strings.Contains(p, h) {
			return hood, true
		}
	}
	return "", false
}
