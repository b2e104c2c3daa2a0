package recommend

import (
	"math"

	"github.com/clcruickshank2/datenight/internal/domain"
)

// Confidence estimates how well a pool satisfies the intent, in [0, 1].
func (p Params) Confidence(pool []domain.Candidate, in Intent) float64 {
	if !in.Hard() {
		if len(pool) >= p.DeepPool {
			return p.DeepConfidence
		}
		return p.ShallowConfidence
	}

	covered := 0
	for _, cand := range pool {
		if in.Satisfied(cand.SearchText) {
			covered++
		}
	}
	divisor := max(p.CoverageMinDivisor, in.HardTagCount())
	coverage := math.Min(1, float64(covered)/float64(divisor))
	depth := math.Min(1, float64(len(pool))/float64(p.DepthCap))

	return round2(p.CoverageWeight*coverage + (1-p.CoverageWeight)*depth)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
