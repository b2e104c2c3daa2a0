package domain

import "time"

// SourceTier ranks how much editorial weight a content origin carries.
type SourceTier string

const (
	TierEditorial SourceTier = "editorial"
	TierCommunity SourceTier = "community"
)

// Source is a static content origin (publication, subreddit, blog).
type Source struct {
	ID           string
	Name         string
	BaseURL      string
	FeedURL      string
	Enabled      bool
	DisplayOrder int
	Tier         SourceTier
}

// Article is a food-news item fetched from a source.
type Article struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"sourceId"`
	ExternalID  string     `json:"externalId,omitempty"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Summary     string     `json:"summary,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	FetchedAt   time.Time  `json:"fetchedAt"`
	RawContent  string     `json:"-"`
	CuratedRank *int       `json:"curatedRank,omitempty"`
}

// Age reports how long ago the article was published; ok is false when the date is unknown.
func (a Article) Age(now time.Time) (time.Duration, bool) {
	if a.PublishedAt == nil || a.PublishedAt.IsZero() {
		return 0, false
	}
	return now.Sub(*a.PublishedAt), true
}

// CuratedArticle pairs a curated article with the cleaned text of its linked page.
type CuratedArticle struct {
	Article Article
	Excerpt string
}

// Text returns everything known about the article for evidence checks.
func (c CuratedArticle) Text() string {
	return c.Article.Title + "\n" + c.Article.Summary + "\n" + c.Article.RawContent + "\n" + c.Excerpt
}

// TrendingRestaurant is a restaurant extracted from the curated buzz feed.
type TrendingRestaurant struct {
	Name             string   `json:"name"`
	Overview         string   `json:"overview,omitempty"`
	Neighborhood     string   `json:"neighborhood,omitempty"`
	PriceLevel       int      `json:"priceLevel,omitempty"`
	Tags             []string `json:"tags"`
	Rating           *float64 `json:"rating,omitempty"`
	RatingSource     string   `json:"ratingSource,omitempty"`
	SourceArticleIDs []string `json:"sourceArticleIds"`
}

// HasMetadata reports whether enrichment produced anything worth seeding into the catalog.
func (t TrendingRestaurant) HasMetadata() bool {
	return t.Neighborhood != "" || t.PriceLevel > 0 || len(t.Tags) > 0 || t.Rating != nil
}
