package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const articleChunk = 200

// PostgresRepository implements every store port over one pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var (
	_ ports.ArticleStore      = (*PostgresRepository)(nil)
	_ ports.RestaurantCatalog = (*PostgresRepository)(nil)
	_ ports.ProfileStore      = (*PostgresRepository)(nil)
	_ ports.TrendingStore     = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a pgx pool implementation.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetProfile loads one profile or returns ports.ErrNotFound.
func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	query, args, err := profileQuery(id).ToSql()
	if err != nil {
		return domain.Profile{}, fmt.Errorf("build profile query: %w", err)
	}

	var p domain.Profile
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.DisplayName, &p.PartySize, &p.TimeWindow, &p.PreferredNeighborhoods,
		&p.PriceMin, &p.PriceMax, &p.VibeTags, &p.HardNoTags, &p.ContactChannel,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	return p, nil
}

// ListRestaurants returns every restaurant of a profile, archived ones included.
func (r *PostgresRepository) ListRestaurants(ctx context.Context, profileID string) ([]domain.Restaurant, error) {
	query, args, err := restaurantsQuery(profileID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build restaurants query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Restaurant, 0)
	for rows.Next() {
		var (
			rest   domain.Restaurant
			status string
		)
		if err := rows.Scan(&rest.ID, &rest.ProfileID, &rest.Name, &rest.Neighborhood, &rest.PriceLevel,
			&rest.Tags, &rest.BookingURL, &rest.Notes, &status); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		rest.Status = domain.RestaurantStatus(status)
		out = append(out, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpsertRestaurant inserts or updates by (profile_id, name).
func (r *PostgresRepository) UpsertRestaurant(ctx context.Context, rest domain.Restaurant) error {
	return r.UpsertRestaurants(ctx, []domain.Restaurant{rest})
}

// UpsertRestaurants writes a batch in one statement.
func (r *PostgresRepository) UpsertRestaurants(ctx context.Context, batch []domain.Restaurant) error {
	if len(batch) == 0 {
		return nil
	}
	query, args, err := upsertRestaurantsQuery(batch).ToSql()
	if err != nil {
		return fmt.Errorf("build restaurant upsert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert restaurants: %w", err)
	}
	return nil
}

// UpsertArticles inserts new articles and refreshes known ones by (source_id, url).
// Curated ranks are never touched here.
func (r *PostgresRepository) UpsertArticles(ctx context.Context, articles []domain.Article) (int, error) {
	articles = dedupeArticles(articles)
	total := 0
	for start := 0; start < len(articles); start += articleChunk {
		end := min(start+articleChunk, len(articles))
		query, args, err := upsertArticlesQuery(articles[start:end]).ToSql()
		if err != nil {
			return total, fmt.Errorf("build article upsert: %w", err)
		}
		tag, err := r.pool.Exec(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("upsert articles: %w", err)
		}
		total += int(tag.RowsAffected())
	}
	return total, nil
}

// ListRecent returns up to limit articles published (or fetched) at or after since, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.Article, error) {
	return r.queryArticles(ctx, recentArticlesQuery(since, limit))
}

// ListCurated returns the ranked articles in rank order.
func (r *PostgresRepository) ListCurated(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, curatedArticlesQuery())
}

func (r *PostgresRepository) queryArticles(ctx context.Context, b sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Article, 0)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.URL, &a.Summary, &a.ImageURL,
			&a.PublishedAt, &a.FetchedAt, &a.RawContent, &a.CuratedRank); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ReplaceCuratedRanks clears every rank and assigns 1..N in one transaction.
func (r *PostgresRepository) ReplaceCuratedRanks(ctx context.Context, ids []string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		resetSQL, resetArgs, err := psql.Update("articles").
			Set("curated_rank", nil).
			Where(sq.NotEq{"curated_rank": nil}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build rank reset: %w", err)
		}
		if _, err := tx.Exec(ctx, resetSQL, resetArgs...); err != nil {
			return fmt.Errorf("reset curated ranks: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for i, id := range ids {
			query, args, err := psql.Update("articles").Set("curated_rank", i+1).Where(sq.Eq{"id": id}).ToSql()
			if err != nil {
				return fmt.Errorf("build rank update: %w", err)
			}
			batch.Queue(query, args...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("assign curated ranks: %w", err)
		}
		return nil
	})
}

// ReplaceTrending swaps the trending table in one transaction. An insert
// failure rolls back the delete and is reported as ErrTrendingInsert.
func (r *PostgresRepository) ReplaceTrending(ctx context.Context, rows []domain.TrendingRestaurant) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM trending_restaurants"); err != nil {
			return fmt.Errorf("clear trending: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		query, args, err := insertTrendingQuery(rows).ToSql()
		if err != nil {
			return fmt.Errorf("%w: build: %v", ErrTrendingInsert, err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %v", ErrTrendingInsert, err)
		}
		return nil
	})
}

// ListTrending returns the accepted rows in extraction order.
func (r *PostgresRepository) ListTrending(ctx context.Context) ([]domain.TrendingRestaurant, error) {
	query, args, err := trendingQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trending query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trending: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TrendingRestaurant, 0)
	for rows.Next() {
		var t domain.TrendingRestaurant
		if err := rows.Scan(&t.Name, &t.Overview, &t.Neighborhood, &t.PriceLevel, &t.Tags, &t.Rating,
			&t.RatingSource, &t.SourceArticleIDs); err != nil {
			return nil, fmt.Errorf("scan trending: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ProfileExists reports whether a profile row is present.
func (r *PostgresRepository) ProfileExists(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Select("1").From("profiles").Where(sq.Eq{"id": id}).Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build profile check: %w", err)
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check profile: %w", err)
	}
	return exists, nil
}

func profileQuery(id string) sq.SelectBuilder {
	return psql.Select(
		"id::text", "display_name", "COALESCE(party_size, 0)", "COALESCE(time_window, '')",
		"preferred_neighborhoods", "COALESCE(price_min, 0)", "COALESCE(price_max, 0)",
		"vibe_tags", "hard_no_tags", "COALESCE(contact_channel, '')",
	).From("profiles").Where(sq.Eq{"id": id})
}

func restaurantsQuery(profileID string) sq.SelectBuilder {
	return psql.Select(
		"id::text", "profile_id::text", "name", "COALESCE(neighborhood, '')", "COALESCE(price_level, 0)",
		"vibe_tags", "COALESCE(booking_url, '')", "COALESCE(notes, '')", "status",
	).From("restaurants").Where(sq.Eq{"profile_id": profileID}).OrderBy("name")
}

func upsertRestaurantsQuery(batch []domain.Restaurant) sq.InsertBuilder {
	b := psql.Insert("restaurants").
		Columns("profile_id", "name", "neighborhood", "price_level", "vibe_tags", "booking_url", "notes", "status")
	for _, rest := range batch {
		status := rest.Status
		if status == "" {
			status = domain.StatusActive
		}
		tags := rest.Tags
		if tags == nil {
			tags = []string{}
		}
		b = b.Values(rest.ProfileID, rest.Name, nullString(rest.Neighborhood), nullPrice(rest.PriceLevel),
			tags, nullString(rest.BookingURL), nullString(rest.Notes), string(status))
	}
	return b.Suffix(`ON CONFLICT (profile_id, name) DO UPDATE SET
		neighborhood = COALESCE(EXCLUDED.neighborhood, restaurants.neighborhood),
		price_level = COALESCE(EXCLUDED.price_level, restaurants.price_level),
		vibe_tags = EXCLUDED.vibe_tags,
		booking_url = COALESCE(EXCLUDED.booking_url, restaurants.booking_url),
		notes = COALESCE(EXCLUDED.notes, restaurants.notes),
		status = EXCLUDED.status,
		updated_at = now()`)
}

func upsertArticlesQuery(articles []domain.Article) sq.InsertBuilder {
	b := psql.Insert("articles").
		Columns("id", "source_id", "external_id", "title", "url", "summary", "image_url", "published_at", "fetched_at", "raw_content")
	for _, a := range articles {
		fetched := a.FetchedAt
		if fetched.IsZero() {
			fetched = time.Now().UTC()
		}
		b = b.Values(a.ID, a.SourceID, nullString(a.ExternalID), a.Title, a.URL, nullString(a.Summary),
			nullString(a.ImageURL), a.PublishedAt, fetched, nullString(a.RawContent))
	}
	return b.Suffix(`ON CONFLICT (source_id, url) DO UPDATE SET
		title = EXCLUDED.title,
		summary = COALESCE(EXCLUDED.summary, articles.summary),
		image_url = COALESCE(EXCLUDED.image_url, articles.image_url),
		published_at = COALESCE(EXCLUDED.published_at, articles.published_at),
		raw_content = COALESCE(EXCLUDED.raw_content, articles.raw_content),
		fetched_at = EXCLUDED.fetched_at`)
}

var articleColumns = []string{
	"id", "source_id", "COALESCE(external_id, '')", "title", "url", "COALESCE(summary, '')",
	"COALESCE(image_url, '')", "published_at", "fetched_at", "COALESCE(raw_content, '')", "curated_rank",
}

func recentArticlesQuery(since time.Time, limit int) sq.SelectBuilder {
	b := psql.Select(articleColumns...).From("articles")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"COALESCE(published_at, fetched_at)": since})
	}
	b = b.OrderBy("COALESCE(published_at, fetched_at) DESC", "id")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return b
}

func curatedArticlesQuery() sq.SelectBuilder {
	return psql.Select(articleColumns...).From("articles").
		Where(sq.NotEq{"curated_rank": nil}).
		OrderBy("curated_rank")
}

func insertTrendingQuery(rows []domain.TrendingRestaurant) sq.InsertBuilder {
	b := psql.Insert("trending_restaurants").
		Columns("position", "name", "overview", "neighborhood", "price_level", "tags", "rating", "rating_source", "source_article_ids")
	for i, t := range rows {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		ids := t.SourceArticleIDs
		if ids == nil {
			ids = []string{}
		}
		b = b.Values(i+1, t.Name, nullString(t.Overview), nullString(t.Neighborhood), nullPrice(t.PriceLevel),
			tags, t.Rating, nullString(t.RatingSource), ids)
	}
	return b
}

func trendingQuery() sq.SelectBuilder {
	return psql.Select(
		"name", "COALESCE(overview, '')", "COALESCE(neighborhood, '')", "COALESCE(price_level, 0)",
		"tags", "rating", "COALESCE(rating_source, '')", "source_article_ids",
	).From("trending_restaurants").OrderBy("position")
}

// dedupeArticles keeps the first article per (source, url); one INSERT cannot touch a row twice.
func dedupeArticles(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	seen := map[string]struct{}{}
	for _, a := range articles {
		key := a.SourceID + "\x00" + a.URL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullPrice(level int) any {
	if level < domain.MinPrice || level > domain.MaxPrice {
		return nil
	}
	return level
}
