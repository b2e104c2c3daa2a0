package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clcruickshank2/datenight/internal/curation"
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

// PipelineDeps wires all driven adapters into the curation and ingestion pipelines.
type PipelineDeps struct {
	Source        ports.ArticleSource
	Sources       map[string]domain.Source
	Articles      ports.ArticleStore
	Trending      ports.TrendingStore
	Catalog       ports.RestaurantCatalog
	Excerpts      ports.ExcerptFetcher
	Notifier      ports.Notifier
	Curator       *curation.Curator
	Extractor     *curation.Extractor
	Enricher      *curation.Enricher
	Params        curation.Params
	SeedProfileID string
	Digest        bool
	Now           func() time.Time
	Logger        *slog.Logger
}

// Pipeline implements weekly curation and feed ingestion.
type Pipeline struct {
	source        ports.ArticleSource
	sources       map[string]domain.Source
	articles      ports.ArticleStore
	trending      ports.TrendingStore
	catalog       ports.RestaurantCatalog
	excerpts      ports.ExcerptFetcher
	notifier      ports.Notifier
	curator       *curation.Curator
	extractor     *curation.Extractor
	enricher      *curation.Enricher
	params        curation.Params
	seedProfileID string
	digest        bool
	now           func() time.Time
	logger        *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:        deps.Source,
		sources:       deps.Sources,
		articles:      deps.Articles,
		trending:      deps.Trending,
		catalog:       deps.Catalog,
		excerpts:      deps.Excerpts,
		notifier:      deps.Notifier,
		curator:       deps.Curator,
		extractor:     deps.Extractor,
		enricher:      deps.Enricher,
		params:        deps.Params,
		seedProfileID: deps.SeedProfileID,
		digest:        deps.Digest,
		now:           now,
		logger:        deps.Logger,
	}
}

// CurationReport summarizes one weekly curation run.
type CurationReport struct {
	RunID                  string               `json:"runId"`
	CuratedCount           int                  `json:"curatedCount"`
	CurationMethod         string               `json:"curationMethod"`
	TrendingExtractedCount int                  `json:"trendingExtractedCount"`
	TrendingAcceptedCount  int                  `json:"trendingAcceptedCount"`
	ExtractionMethod       string               `json:"extractionMethod,omitempty"`
	Gate                   *curation.GateResult `json:"gate,omitempty"`
	SeededCount            int                  `json:"seededCount"`
	SeedFailures           int                  `json:"seedFailures"`
	DigestSent             bool                 `json:"digestSent"`
	Errors                 []string             `json:"errors,omitempty"`
	Error                  string               `json:"error,omitempty"`
}

// IngestReport summarizes one feed polling run.
type IngestReport struct {
	Fetched  int      `json:"fetched"`
	Upserted int      `json:"upserted"`
	Errors   []string `json:"errors,omitempty"`
}

// RunWeeklyCuration re-ranks recent articles, then extracts trending restaurants
// and replaces the trending set only when the evidence gate accepts them.
// A gate rejection is reported in CurationReport.Error with a nil error; only
// persistence failures are returned.
func (p *Pipeline) RunWeeklyCuration(ctx context.Context) (CurationReport, error) {
	report := CurationReport{RunID: uuid.NewString()}
	log := p.logger
	if log != nil {
		log = log.With("run_id", report.RunID)
	}
	if p.articles == nil || p.trending == nil || p.curator == nil || p.extractor == nil {
		return report, fmt.Errorf("curation pipeline is not configured")
	}

	now := p.now()
	articles, err := p.articles.ListRecent(ctx, now.Add(-p.params.Window), p.params.MaxArticles)
	if err != nil {
		return report, fmt.Errorf("list recent articles: %w", err)
	}
	if len(articles) < p.params.Target {
		// Thin window: widen to everything we have.
		articles, err = p.articles.ListRecent(ctx, time.Time{}, p.params.MaxArticles)
		if err != nil {
			return report, fmt.Errorf("list articles: %w", err)
		}
	}

	selection := p.curator.Select(ctx, articles, p.sources)
	report.CurationMethod = selection.Method
	report.Errors = append(report.Errors, selection.Errors...)

	if err := p.articles.ReplaceCuratedRanks(ctx, selection.IDs); err != nil {
		return report, fmt.Errorf("replace curated ranks: %w", err)
	}
	report.CuratedCount = len(selection.IDs)
	logInfo(log, "curated articles ranked", "count", report.CuratedCount, "method", selection.Method)

	curated := pick(articles, selection.IDs)
	withText, excerptErrs := curation.FetchExcerpts(ctx, p.excerpts, curated)
	report.Errors = append(report.Errors, excerptErrs...)

	extracted := p.extractor.Extract(ctx, withText)
	report.ExtractionMethod = extracted.Method
	report.TrendingExtractedCount = len(extracted.Rows)
	report.Errors = append(report.Errors, extracted.Errors...)

	rows := extracted.Rows
	if p.enricher != nil && len(rows) > 0 {
		enriched, err := p.enricher.Enrich(ctx, rows, withText)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("enrich: %v", err))
		}
		rows = enriched
	}

	gate := curation.Gate(rows, withText, p.params)
	report.Gate = &gate
	if !gate.Accepted {
		report.Error = fmt.Sprintf("trending rejected by %s gate: %d plausible rows, evidence ratio %.2f",
			gate.FailedGate, gate.PlausibleCount, gate.EvidenceRatio)
		logWarn(log, "trending extraction rejected", "gate", gate.FailedGate,
			"plausible", gate.PlausibleCount, "evidenced", gate.EvidencedCount)
		return report, nil
	}

	if err := p.trending.ReplaceTrending(ctx, gate.Rows); err != nil {
		report.Error = err.Error()
		return report, fmt.Errorf("replace trending: %w", err)
	}
	report.TrendingAcceptedCount = len(gate.Rows)
	logInfo(log, "trending replaced", "rows", report.TrendingAcceptedCount, "method", extracted.Method)

	report.SeededCount, report.SeedFailures = p.seedCatalog(ctx, gate.Rows, &report)

	if p.digest && p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(gate.Rows)); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("digest: %v", err))
		} else {
			report.DigestSent = true
		}
	}

	return report, nil
}

// seedCatalog adds enriched trending rows as backlog entries of the seed profile.
// Restaurants the profile already has are left alone.
func (p *Pipeline) seedCatalog(ctx context.Context, rows []domain.TrendingRestaurant, report *CurationReport) (int, int) {
	if p.catalog == nil || p.seedProfileID == "" {
		return 0, 0
	}
	existing, err := p.catalog.ListRestaurants(ctx, p.seedProfileID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("seed: list catalog: %v", err))
		return 0, 0
	}
	known := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		known[textnorm.Normalize(r.Name)] = struct{}{}
	}

	seeded, failed := 0, 0
	for _, row := range rows {
		if !row.HasMetadata() {
			continue
		}
		key := textnorm.Normalize(row.Name)
		if _, ok := known[key]; ok {
			continue
		}
		err := p.catalog.UpsertRestaurant(ctx, domain.Restaurant{
			ProfileID:    p.seedProfileID,
			Name:         row.Name,
			Neighborhood: row.Neighborhood,
			PriceLevel:   row.PriceLevel,
			Tags:         row.Tags,
			Notes:        seedNotes(row),
			Status:       domain.StatusBacklog,
		})
		if err != nil {
			failed++
			report.Errors = append(report.Errors, fmt.Sprintf("seed %s: %v", row.Name, err))
			continue
		}
		known[key] = struct{}{}
		seeded++
	}
	return seeded, failed
}

func seedNotes(row domain.TrendingRestaurant) string {
	parts := []string{"Trending"}
	if row.Overview != "" {
		parts = append(parts, row.Overview)
	}
	if row.Rating != nil {
		rating := fmt.Sprintf("Rating: %.1f", *row.Rating)
		if row.RatingSource != "" {
			rating += " (" + row.RatingSource + ")"
		}
		parts = append(parts, rating)
	}
	return strings.Join(parts, " | ")
}

// IngestFeeds polls every enabled source for articles inside the curation window
// and upserts them. Source failures are reported, not returned.
func (p *Pipeline) IngestFeeds(ctx context.Context) (IngestReport, error) {
	var report IngestReport
	if p.source == nil || p.articles == nil {
		return report, fmt.Errorf("ingestion pipeline is not configured")
	}

	articles, err := p.source.FetchRecent(ctx, p.now().Add(-p.params.Window))
	if err != nil {
		report.Errors = append(report.Errors, splitJoined(err)...)
		logWarn(p.logger, "some sources failed", "errors", len(report.Errors))
	}
	report.Fetched = len(articles)
	if len(articles) == 0 {
		return report, nil
	}

	upserted, err := p.articles.UpsertArticles(ctx, articles)
	report.Upserted = upserted
	if err != nil {
		return report, fmt.Errorf("upsert articles: %w", err)
	}
	logInfo(p.logger, "feeds ingested", "fetched", report.Fetched, "upserted", report.Upserted)
	return report, nil
}

func pick(articles []domain.Article, ids []string) []domain.Article {
	byID := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	out := make([]domain.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// splitJoined unpacks errors.Join results into one message per source.
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func buildDigestMessage(rows []domain.TrendingRestaurant) string {
	var b strings.Builder
	b.WriteString("*Trending in Denver this week*\n\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d. *%s*", i+1, r.Name)
		if r.Neighborhood != "" {
			fmt.Fprintf(&b, " (%s)", r.Neighborhood)
		}
		if r.PriceLevel > 0 {
			fmt.Fprintf(&b, " %s", strings.Repeat("$", r.PriceLevel))
		}
		b.WriteByte('\n')
		if r.Overview != "" {
			fmt.Fprintf(&b, "%s\n", r.Overview)
		}
	}
	return b.String()
}

func logInfo(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Info(msg, args...)
	}
}

func logWarn(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Warn(msg, args...)
	}
}
