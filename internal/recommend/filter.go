package recommend

import (
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

// FilterResult is the outcome of hard-constraint filtering.
type FilterResult struct {
	Candidates    []domain.Candidate
	StrictCount   int
	Relaxed       bool
	EffectiveTags []string
}

// filterStage is one attempt in the strict-to-relaxed sequence.
type filterStage struct {
	name string
	tags func(Intent) []string
}

var filterStages = []filterStage{
	{name: "strict", tags: func(in Intent) []string { return in.Tags }},
	{name: "relaxed", tags: Intent.RelaxedTags},
}

// Filter applies budget, dietary, cuisine and hard-no constraints. When the
// strict pass is empty and tags were given, it retries once with the relaxed tag
// set. It never falls back to the unfiltered candidates. It is pure.
func Filter(cands []domain.Candidate, c domain.Criteria, p domain.Profile) FilterResult {
	base := ParseIntent(c.VibeTags)
	hardNo := textnorm.UniquePhrases(p.HardNoTags)

	var res FilterResult
	for i, stage := range filterStages {
		if i > 0 && len(base.Tags) == 0 {
			break
		}
		tags := stage.tags(base)
		res.EffectiveTags = tags
		res.Relaxed = i > 0
		res.Candidates = applyConstraints(cands, ParseIntent(tags), c, hardNo)
		if i == 0 {
			res.StrictCount = len(res.Candidates)
		}
		if len(res.Candidates) > 0 {
			break
		}
	}
	return res
}

func applyConstraints(cands []domain.Candidate, in Intent, c domain.Criteria, hardNo []string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(cands))
	for _, cand := range cands {
		if !withinBudget(cand.PriceLevel, c.MinPrice, c.MaxPrice) {
			continue
		}
		if !in.Satisfied(cand.SearchText) {
			continue
		}
		if hitsHardNo(cand.SearchText, hardNo) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// withinBudget passes unknown price levels.
func withinBudget(level int, lo, hi *int) bool {
	if level <= 0 {
		return true
	}
	if lo != nil && level < *lo {
		return false
	}
	if hi != nil && level > *hi {
		return false
	}
	return true
}

func hitsHardNo(text string, hardNo []string) bool {
	for _, tag := range hardNo {
		if textnorm.ContainsPhrase(text, tag) {
			return true
		}
	}
	return false
}
