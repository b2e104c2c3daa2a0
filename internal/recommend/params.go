// Package recommend turns criteria and a profile into a short list of restaurant picks.
package recommend

// Params holds every tunable number of the recommendation pipeline.
type Params struct {
	CuisineMatch int
	CuisineMiss  int
	SoftTagMatch int
	Neighborhood int
	BudgetFit    int
	BudgetMiss   int
	BookingLink  int
	MaxReasons   int

	// Augmentation triggers when the pool is smaller than AugmentMinPool or
	// confidence is below AugmentMinConfidence.
	AugmentMinPool       int
	AugmentMinConfidence float64
	WebResultLimit       int
	City                 string

	CoverageWeight     float64
	CoverageMinDivisor int
	DepthCap           int
	DeepPool           int
	DeepConfidence     float64
	ShallowConfidence  float64
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		CuisineMatch: 26,
		CuisineMiss:  -40,
		SoftTagMatch: 6,
		Neighborhood: 3,
		BudgetFit:    4,
		BudgetMiss:   -4,
		BookingLink:  1,
		MaxReasons:   3,

		AugmentMinPool:       6,
		AugmentMinConfidence: 0.65,
		WebResultLimit:       8,
		City:                 "Denver",

		CoverageWeight:     0.65,
		CoverageMinDivisor: 3,
		DepthCap:           8,
		DeepPool:           3,
		DeepConfidence:     0.75,
		ShallowConfidence:  0.45,
	}
}
