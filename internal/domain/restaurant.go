package domain

// RestaurantStatus marks whether a catalog entry is in active rotation.
type RestaurantStatus string

const (
	StatusActive   RestaurantStatus = "active"
	StatusBacklog  RestaurantStatus = "backlog"
	StatusArchived RestaurantStatus = "archived"
)

// Restaurant is a stored catalog entry owned by a profile.
type Restaurant struct {
	ID           string           `json:"id"`
	ProfileID    string           `json:"profileId"`
	Name         string           `json:"name"`
	Neighborhood string           `json:"neighborhood,omitempty"`
	PriceLevel   int              `json:"priceLevel,omitempty"`
	Tags         []string         `json:"tags"`
	BookingURL   string           `json:"bookingUrl,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Status       RestaurantStatus `json:"status"`
}

// Profile holds a user's standing dining preferences.
type Profile struct {
	ID                     string   `json:"id"`
	DisplayName            string   `json:"displayName"`
	PartySize              int      `json:"partySize,omitempty"`
	TimeWindow             string   `json:"timeWindow,omitempty"`
	PreferredNeighborhoods []string `json:"preferredNeighborhoods"`
	PriceMin               int      `json:"priceMin,omitempty"`
	PriceMax               int      `json:"priceMax,omitempty"`
	VibeTags               []string `json:"vibeTags"`
	HardNoTags             []string `json:"hardNoTags"`
	ContactChannel         string   `json:"contactChannel,omitempty"`
}

// Provenance tells where a candidate came from.
type Provenance string

const (
	ProvenanceCatalog Provenance = "catalog"
	ProvenanceWeb     Provenance = "web"
)

// Candidate unifies a catalog restaurant and a web search result for scoring.
// PriceLevel 0 means unknown.
type Candidate struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Neighborhood string     `json:"neighborhood,omitempty"`
	PriceLevel   int        `json:"priceLevel,omitempty"`
	BookingURL   string     `json:"bookingUrl,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Provenance   Provenance `json:"provenance"`
	Tags         []string   `json:"tags"`
	// SearchText is the normalized name, neighborhood, notes and tags.
	SearchText string `json:"-"`
}

// Recommendation is a candidate with the explanation shown to the user.
type Recommendation struct {
	Candidate
	Reason   string `json:"reason"`
	Tradeoff string `json:"tradeoff"`
}
