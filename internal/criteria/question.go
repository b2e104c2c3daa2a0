package criteria

import (
	"fmt"
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
)

// NextQuestion asks for the first missing required field, or returns "" when
// the criteria are complete enough to recommend.
func NextQuestion(c domain.Criteria) string {
	switch {
	case c.DateRange == nil:
		return "When are you thinking of going out?"
	case c.PartySize == nil:
		return "How many people will be joining?"
	case len(c.VibeTags) == 0:
		return "Any cuisine or vibe you're in the mood for?"
	default:
		return ""
	}
}

// describePatch renders a short acknowledgement of what was understood.
func describePatch(p domain.CriteriaPatch) string {
	var parts []string
	if p.DateRange != nil {
		if p.DateRange.Start == p.DateRange.End {
			parts = append(parts, "on "+p.DateRange.Start)
		} else {
			parts = append(parts, fmt.Sprintf("between %s and %s", p.DateRange.Start, p.DateRange.End))
		}
	}
	if p.PartySize != nil {
		parts = append(parts, fmt.Sprintf("party of %d", *p.PartySize))
	}
	switch {
	case p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice == *p.MaxPrice:
		parts = append(parts, strings.Repeat("$", *p.MinPrice))
	case p.MinPrice != nil && p.MaxPrice != nil:
		parts = append(parts, strings.Repeat("$", *p.MinPrice)+"-"+strings.Repeat("$", *p.MaxPrice))
	case p.MaxPrice != nil:
		parts = append(parts, "up to "+strings.Repeat("$", *p.MaxPrice))
	case p.MinPrice != nil:
		parts = append(parts, strings.Repeat("$", *p.MinPrice)+" and up")
	}
	if len(p.VibeTags) > 0 {
		parts = append(parts, strings.Join(p.VibeTags, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Got it: " + strings.Join(parts, "; ") + "."
}
