// Package curation picks the weekly best-of articles and extracts trending
// restaurants from them behind an evidence gate.
package curation

import "time"

// Params holds the curation and gate tunables.
type Params struct {
	Window       time.Duration
	MaxArticles  int
	Target       int
	MinSources   int
	MaxPerSource int

	MaxRows          int
	MinRows          int
	MinEvidenceRatio float64

	MaxTags            int
	MaxNeighborhoodLen int
	MaxNameLen         int
	MaxOverviewLen     int
	PromptExcerptChars int
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		Window:       30 * 24 * time.Hour,
		MaxArticles:  50,
		Target:       5,
		MinSources:   3,
		MaxPerSource: 2,

		MaxRows:          15,
		MinRows:          5,
		MinEvidenceRatio: 0.7,

		MaxTags:            6,
		MaxNeighborhoodLen: 60,
		MaxNameLen:         80,
		MaxOverviewLen:     280,
		PromptExcerptChars: 1500,
	}
}
