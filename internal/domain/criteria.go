package domain

import (
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const (
	MinPartySize = 1
	MaxPartySize = 20
	MinPrice     = 1
	MaxPrice     = 4

	// DateLayout is the calendar-date format used for criteria date ranges.
	DateLayout = "2006-01-02"
)

// DateRange is an inclusive calendar-date window formatted with DateLayout.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Criteria is the structured planning intent of one session.
type Criteria struct {
	DateRange *DateRange `json:"dateRange,omitempty"`
	PartySize *int       `json:"partySize,omitempty"`
	VibeTags  []string   `json:"vibeTags"`
	MinPrice  *int       `json:"minPrice,omitempty"`
	MaxPrice  *int       `json:"maxPrice,omitempty"`
}

// CriteriaPatch is a partial update. Nil fields leave the criteria untouched.
type CriteriaPatch struct {
	DateRange *DateRange `json:"dateRange,omitempty"`
	PartySize *int       `json:"partySize,omitempty"`
	VibeTags  []string   `json:"vibeTags,omitempty"`
	MinPrice  *int       `json:"minPrice,omitempty"`
	MaxPrice  *int       `json:"maxPrice,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CriteriaPatch) IsEmpty() bool {
	return p.DateRange == nil && p.PartySize == nil && len(p.VibeTags) == 0 && p.MinPrice == nil && p.MaxPrice == nil
}

// SeedCriteria builds the starting criteria from profile defaults.
func SeedCriteria(p Profile) Criteria {
	c := Criteria{VibeTags: textnorm.UniquePhrases(p.VibeTags)}
	if p.PartySize >= MinPartySize && p.PartySize <= MaxPartySize {
		c.PartySize = intPtr(p.PartySize)
	}
	if p.PriceMin > 0 {
		c.MinPrice = intPtr(p.PriceMin)
	}
	if p.PriceMax > 0 {
		c.MaxPrice = intPtr(p.PriceMax)
	}
	return c.normalized()
}

// Apply merges a chat-parsed patch. Tags are only ever added.
func (c Criteria) Apply(p CriteriaPatch) Criteria {
	out := c.overlay(p)
	out.VibeTags = textnorm.UniquePhrases(append(append([]string{}, c.VibeTags...), p.VibeTags...))
	return out.normalized()
}

// Replace applies an explicit form edit. Tags in the patch replace the current set.
func (c Criteria) Replace(p CriteriaPatch) Criteria {
	out := c.overlay(p)
	if p.VibeTags != nil {
		out.VibeTags = textnorm.UniquePhrases(p.VibeTags)
	}
	return out.normalized()
}

func (c Criteria) overlay(p CriteriaPatch) Criteria {
	out := c
	out.VibeTags = append([]string{}, c.VibeTags...)
	if p.DateRange != nil {
		dr := *p.DateRange
		out.DateRange = &dr
	}
	if p.PartySize != nil {
		out.PartySize = intPtr(*p.PartySize)
	}
	if p.MinPrice != nil {
		out.MinPrice = intPtr(*p.MinPrice)
	}
	if p.MaxPrice != nil {
		out.MaxPrice = intPtr(*p.MaxPrice)
	}
	return out
}

// normalized clamps numeric fields and swaps an inverted price range.
func (c Criteria) normalized() Criteria {
	if c.PartySize != nil {
		c.PartySize = intPtr(clamp(*c.PartySize, MinPartySize, MaxPartySize))
	}
	if c.MinPrice != nil {
		c.MinPrice = intPtr(clamp(*c.MinPrice, MinPrice, MaxPrice))
	}
	if c.MaxPrice != nil {
		c.MaxPrice = intPtr(clamp(*c.MaxPrice, MinPrice, MaxPrice))
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		c.MinPrice, c.MaxPrice = c.MaxPrice, c.MinPrice
	}
	if c.DateRange != nil && c.DateRange.End != "" && c.DateRange.Start > c.DateRange.End {
		c.DateRange = &DateRange{Start: c.DateRange.End, End: c.DateRange.Start}
	}
	if c.VibeTags == nil {
		c.VibeTags = []string{}
	}
	return c
}

// PriceBounds returns the effective budget, falling back to the profile and then to the full scale.
func (c Criteria) PriceBounds(p Profile) (int, int) {
	lo, hi := MinPrice, MaxPrice
	if p.PriceMin >= MinPrice && p.PriceMin <= MaxPrice {
		lo = p.PriceMin
	}
	if p.PriceMax >= MinPrice && p.PriceMax <= MaxPrice {
		hi = p.PriceMax
	}
	if c.MinPrice != nil {
		lo = *c.MinPrice
	}
	if c.MaxPrice != nil {
		hi = *c.MaxPrice
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intPtr(v int) *int {
	return &v
}

// IntPtr is a convenience for building patches.
func IntPtr(v int) *int {
	return intPtr(v)
}
