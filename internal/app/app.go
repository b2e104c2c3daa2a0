package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/criteria"
	"github.com/clcruickshank2/datenight/internal/curation"
	"github.com/clcruickshank2/datenight/internal/httpapi"
	"github.com/clcruickshank2/datenight/internal/infrastructure/excerpt"
	"github.com/clcruickshank2/datenight/internal/infrastructure/llm"
	"github.com/clcruickshank2/datenight/internal/infrastructure/parser"
	"github.com/clcruickshank2/datenight/internal/infrastructure/scheduler"
	"github.com/clcruickshank2/datenight/internal/infrastructure/storage"
	"github.com/clcruickshank2/datenight/internal/infrastructure/telegram"
	"github.com/clcruickshank2/datenight/internal/infrastructure/websearch"
	"github.com/clcruickshank2/datenight/internal/logging"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/recommend"
	"github.com/clcruickshank2/datenight/internal/scanner"
	"github.com/clcruickshank2/datenight/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	server    *http.Server
	scheduler *usecase.Scheduler
}

// New connects storage and builds every component. Redis is optional: without
// it web search runs uncached.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Database.DSN == "" {
		return nil, errors.New("database dsn is not configured")
	}

	pool, err := storage.NewPostgresPool(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	repo := storage.NewPostgresRepository(pool)

	a := &Application{cfg: cfg, logger: baseLogger, pool: pool}

	var search ports.WebSearcher = websearch.NewDuckDuckGo(cfg.WebSearch)
	if cfg.Redis.URL != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			baseLogger.Warn("redis unavailable, web search is uncached", "error", err)
		} else {
			a.redis = rdb
			search = websearch.NewCachedSearcher(search, rdb, cfg.Redis.CacheTTL, baseLogger.With("component", "websearch.cache"))
		}
	}

	// Keep the interface nil when no key is configured.
	var completer ports.Completer
	if c := llm.NewChatGPTClient(cfg.ChatGPT); c != nil {
		completer = c
	} else {
		baseLogger.Info("no language model configured, using heuristic fallbacks")
	}

	now := func() time.Time { return time.Now().In(cfg.Scheduler.Location()) }

	chain := criteria.NewChain(baseLogger.With("component", "criteria"),
		criteria.NewLLMParser(completer, now),
		criteria.NewHeuristicParser(now),
	)

	recParams := recommend.DefaultParams()
	if cfg.WebSearch.City != "" {
		recParams.City = cfg.WebSearch.City
	}
	recommender := recommend.NewService(recommend.Deps{
		Catalog:   repo,
		Profiles:  repo,
		Augmentor: recommend.NewAugmentor(search, recParams, baseLogger.With("component", "augment")),
		Reranker:  recommend.NewReranker(completer, baseLogger.With("component", "rerank")),
		Params:    recParams,
		Logger:    baseLogger.With("component", "recommend"),
	})

	sourceLogger := baseLogger.With("component", "source")
	registry := scannerRegistry(cfg.EnabledSources(), sourceLogger)
	source := parser.NewStrategySource(registry, cfg.EnabledSources(), sourceLogger)

	curParams := curationParams(cfg.Curation)
	var notifier ports.Notifier
	tg := telegram.NewNotifier(cfg.Notifications.Telegram.APIBase, cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	if tg.Configured() {
		notifier = tg
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:        source,
		Sources:       source.Sources(),
		Articles:      repo,
		Trending:      repo,
		Catalog:       repo,
		Excerpts:      excerpt.NewFetcher(nil),
		Notifier:      notifier,
		Curator:       curation.NewCurator(completer, curParams, now, baseLogger.With("component", "curator")),
		Extractor:     curation.NewExtractor(completer, curParams, baseLogger.With("component", "extractor")),
		Enricher:      curation.NewEnricher(completer, curParams),
		Params:        curParams,
		SeedProfileID: cfg.Curation.SeedProfileID,
		Digest:        cfg.Curation.Digest,
		Now:           now,
		Logger:        baseLogger.With("component", "pipeline"),
	})

	if cfg.Scheduler.Enabled {
		loc := cfg.Scheduler.Location()
		schedLogger := baseLogger.With("component", "scheduler")
		a.scheduler = usecase.NewScheduler(
			scheduler.NewCronScheduler(cfg.Scheduler.CurationCron, loc, cfg.Scheduler.RunOnStart, schedLogger),
			scheduler.NewCronScheduler(cfg.Scheduler.IngestCron, loc, cfg.Scheduler.RunOnStart, schedLogger),
			pipeline,
			cfg.Server.CurationTimeout,
			schedLogger,
		)
	}

	handlers := httpapi.NewHandlers(httpapi.Deps{
		Parser:          chain,
		Recommender:     recommender,
		Profiles:        repo,
		Jobs:            pipeline,
		Trending:        repo,
		Articles:        repo,
		RequestTimeout:  cfg.Server.RequestTimeout,
		CurationTimeout: cfg.Server.CurationTimeout,
		Logger:          baseLogger.With("component", "http"),
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run serves HTTP and the scheduled jobs until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownDeadline)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler shutdown", "error", err)
		}
	}
	return runErr
}

func (a *Application) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// curationParams overlays non-zero config values on the default tuning.
func curationParams(c config.CurationConfig) curation.Params {
	p := curation.DefaultParams()
	if c.WindowDays > 0 {
		p.Window = time.Duration(c.WindowDays) * 24 * time.Hour
	}
	if c.MaxArticles > 0 {
		p.MaxArticles = c.MaxArticles
	}
	if c.Target > 0 {
		p.Target = c.Target
	}
	if c.MinSources > 0 {
		p.MinSources = c.MinSources
	}
	if c.MaxPerSource > 0 {
		p.MaxPerSource = c.MaxPerSource
	}
	if c.MinRows > 0 {
		p.MinRows = c.MinRows
	}
	if c.MinEvidenceRatio > 0 {
		p.MinEvidenceRatio = c.MinEvidenceRatio
	}
	return p
}

// scannerRegistry registers the feed scanners and warns about enabled sources
// whose scanner is missing; those sources are skipped on every scan.
func scannerRegistry(sources []config.SourceConfig, logger *slog.Logger) *scanner.Registry {
	registry := scanner.NewRegistry(parser.NewRSSScanner(nil), parser.NewHTMLScanner(nil))
	logger.Info("scanners registered", "names", registry.Names())
	for _, src := range sources {
		if _, err := registry.Resolve(src.ScannerName()); err != nil {
			logger.Warn("source has no scanner", "source", src.ID, "error", err)
		}
	}
	return registry
}
