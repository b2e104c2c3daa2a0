package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/scanner"
)

const (
	feedConcurrency = 4
	feedTimeout     = 10 * time.Second
)

// StrategySource resolves every enabled source to its scanner and polls them concurrently.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires a registry with the configured sources.
func NewStrategySource(registry *scanner.Registry, sites []config.SourceConfig, logger *slog.Logger) *StrategySource {
	return &StrategySource{registry: registry, sites: sites, logger: logger}
}

// Sources returns the static source metadata keyed by id.
func (s *StrategySource) Sources() map[string]domain.Source {
	out := make(map[string]domain.Source, len(s.sites))
	for _, site := range s.sites {
		out[site.ID] = ToDomainSource(site)
	}
	return out
}

// FetchRecent polls each enabled source, at most feedConcurrency at a time with a
// per-source timeout. Failing sources are skipped; their errors are joined into
// the returned error next to the articles that did arrive.
func (s *StrategySource) FetchRecent(ctx context.Context, since time.Time) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	enabled := make([]config.SourceConfig, 0, len(s.sites))
	for _, site := range s.sites {
		if site.Enabled {
			enabled = append(enabled, site)
		}
	}

	perSource := make([][]domain.Article, len(enabled))
	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(feedConcurrency)
	for i, site := range enabled {
		i, site := i, site
		g.Go(func() error {
			strategy, err := s.registry.Resolve(site.ScannerName())
			if err != nil {
				record(fmt.Errorf("%s: %w", site.ID, err))
				return nil
			}

			sctx, cancel := context.WithTimeout(gCtx, feedTimeout)
			defer cancel()

			s.debug("scanning source", "source", site.ID, "scanner", strategy.Name())
			articles, err := strategy.Scan(sctx, scanner.Request{
				Source:  ToDomainSource(site),
				Since:   since,
				Options: site.Options,
			})
			if err != nil {
				s.warn("source scan failed", "source", site.ID, "error", err)
				record(fmt.Errorf("%s: %w", site.ID, err))
				return nil
			}
			perSource[i] = articles
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Article
	for _, articles := range perSource {
		all = append(all, articles...)
	}
	return all, errors.Join(errs...)
}

// ToDomainSource maps a configured source to its domain form.
func ToDomainSource(site config.SourceConfig) domain.Source {
	tier := domain.SourceTier(site.Tier)
	if tier == "" {
		tier = domain.TierEditorial
	}
	return domain.Source{
		ID:           site.ID,
		Name:         site.Name,
		BaseURL:      site.BaseURL,
		FeedURL:      site.FeedURL,
		Enabled:      site.Enabled,
		DisplayOrder: site.Order,
		Tier:         tier,
	}
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
