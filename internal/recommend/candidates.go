package recommend

import (
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

// FromRestaurant adapts a catalog entry.
func FromRestaurant(r domain.Restaurant) domain.Candidate {
	tags := textnorm.UniquePhrases(r.Tags)
	c := domain.Candidate{
		ID:           r.ID,
		Name:         r.Name,
		Neighborhood: r.Neighborhood,
		PriceLevel:   r.PriceLevel,
		BookingURL:   r.BookingURL,
		Notes:        r.Notes,
		Provenance:   domain.ProvenanceCatalog,
		Tags:         tags,
	}
	return withSearchText(c)
}

// FromRestaurants skips archived entries.
func FromRestaurants(list []domain.Restaurant) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(list))
	for _, r := range list {
		if r.Status == domain.StatusArchived {
			continue
		}
		out = append(out, FromRestaurant(r))
	}
	return out
}

func withSearchText(c domain.Candidate) domain.Candidate {
	parts := append([]string{c.Name, c.Neighborhood, c.Notes}, c.Tags...)
	c.SearchText = textnorm.Join(parts...)
	return c
}
