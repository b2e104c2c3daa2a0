package ports

import (
	"context"
	"errors"
	"time"

	"github.com/clcruickshank2/datenight/internal/domain"
)

var (
	// ErrLLMUnavailable marks a language model that is not configured (no credential).
	ErrLLMUnavailable = errors.New("language model unavailable")
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("not found")
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System string
	User   string
	// MaxTokens caps the reply; zero leaves the provider default.
	MaxTokens int
}

// Completer sends one prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// SearchResult is one organic hit from a web search page.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher runs a text query against a public search endpoint.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ExcerptFetcher downloads a page and returns its cleaned readable text.
type ExcerptFetcher interface {
	Excerpt(ctx context.Context, pageURL string) (string, error)
}

// ArticleSource pulls fresh articles from the configured sources.
type ArticleSource interface {
	FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error)
}

// ArticleStore persists articles and the curated rank sequence.
type ArticleStore interface {
	UpsertArticles(ctx context.Context, articles []domain.Article) (int, error)
	ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.Article, error)
	ListCurated(ctx context.Context) ([]domain.Article, error)
	// ReplaceCuratedRanks clears every rank and assigns 1..N to ids in order.
	ReplaceCuratedRanks(ctx context.Context, ids []string) error
}

// RestaurantCatalog reads and upserts a profile's restaurants.
type RestaurantCatalog interface {
	ListRestaurants(ctx context.Context, profileID string) ([]domain.Restaurant, error)
	UpsertRestaurant(ctx context.Context, r domain.Restaurant) error
}

// ProfileStore reads user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
}

// TrendingStore holds the latest accepted trending-restaurant set.
type TrendingStore interface {
	// ReplaceTrending swaps the whole table for rows as one unit.
	ReplaceTrending(ctx context.Context, rows []domain.TrendingRestaurant) error
	ListTrending(ctx context.Context) ([]domain.TrendingRestaurant, error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
