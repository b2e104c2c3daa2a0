package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const (
	SourceModeCatalog = "catalog"
	SourceModeHybrid  = "hybrid"
	SourceModeWeb     = "web"
)

// Request asks for picks for one profile. Profile, when set, skips the lookup.
type Request struct {
	ProfileID string          `json:"profileId"`
	Profile   *domain.Profile `json:"-"`
	Criteria  domain.Criteria `json:"criteria"`
	Mode      Mode            `json:"mode"`
	Offset    int             `json:"offset"`
}

// Debug exposes the counts and decisions of every pipeline stage.
type Debug struct {
	Mode                    Mode     `json:"mode"`
	CatalogCount            int      `json:"catalogCount"`
	StrictCount             int      `json:"strictCount"`
	FilteredCount           int      `json:"filteredCount"`
	Relaxed                 bool     `json:"relaxed"`
	EffectiveTags           []string `json:"effectiveTags"`
	ConfidenceBeforeAugment float64  `json:"confidenceBeforeAugment"`
	WebAugmented            bool     `json:"webAugmented"`
	WebAdded                int      `json:"webAdded"`
	WebUsedSeeds            bool     `json:"webUsedSeeds"`
	WebQuery                string   `json:"webQuery,omitempty"`
	PoolCount               int      `json:"poolCount"`
	Offset                  int      `json:"offset"`
	RerankerUsed            bool     `json:"rerankerUsed"`
	Errors                  []string `json:"errors,omitempty"`
}

// Response is the recommendation payload.
type Response struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	Confidence      float64                 `json:"confidence"`
	SourceMode      string                  `json:"sourceMode"`
	NextOffset      int                     `json:"nextOffset"`
	Debug           Debug                   `json:"debug"`
}

// Deps wires the collaborators of Service.
type Deps struct {
	Catalog   ports.RestaurantCatalog
	Profiles  ports.ProfileStore
	Augmentor *Augmentor
	Reranker  *Reranker
	Params    Params
	Logger    *slog.Logger
}

// Service runs filter, score, augment, rerank and confidence for one request.
type Service struct {
	catalog   ports.RestaurantCatalog
	profiles  ports.ProfileStore
	augmentor *Augmentor
	reranker  *Reranker
	scorer    Scorer
	params    Params
	logger    *slog.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		catalog:   deps.Catalog,
		profiles:  deps.Profiles,
		augmentor: deps.Augmentor,
		reranker:  deps.Reranker,
		scorer:    NewScorer(deps.Params),
		params:    deps.Params,
		logger:    deps.Logger,
	}
}

// Recommend returns an error only when the profile or catalog cannot be read.
// Upstream failures of the web search and the reranker are recorded in Debug.Errors.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	mode := req.Mode
	if mode == "" {
		mode = ModeDefault
	}
	policy := mode.policy()
	dbg := Debug{Mode: mode}
	// Clamp and order the price range before any budget check.
	req.Criteria = req.Criteria.Replace(domain.CriteriaPatch{})

	profile, err := s.profile(ctx, req)
	if err != nil {
		return Response{}, err
	}
	restaurants, err := s.catalog.ListRestaurants(ctx, profile.ID)
	if err != nil {
		return Response{}, fmt.Errorf("list restaurants: %w", err)
	}

	catalog := FromRestaurants(restaurants)
	dbg.CatalogCount = len(catalog)

	filtered := Filter(catalog, req.Criteria, profile)
	dbg.StrictCount = filtered.StrictCount
	dbg.FilteredCount = len(filtered.Candidates)
	dbg.Relaxed = filtered.Relaxed
	dbg.EffectiveTags = filtered.EffectiveTags

	intent := ParseIntent(req.Criteria.VibeTags)
	effective := ParseIntent(filtered.EffectiveTags)
	pool := filtered.Candidates

	dbg.ConfidenceBeforeAugment = s.params.Confidence(pool, intent)
	if s.augmentor != nil && (policy.forceAugment ||
		len(pool) < s.params.AugmentMinPool ||
		dbg.ConfidenceBeforeAugment < s.params.AugmentMinConfidence) {
		ar := s.augmentor.Augment(ctx, effective, catalog)
		dbg.WebAugmented = true
		dbg.WebQuery = ar.Query
		dbg.WebUsedSeeds = ar.UsedSeeds
		dbg.Errors = append(dbg.Errors, ar.Errors...)

		web := applyConstraints(ar.Added, effective, req.Criteria, textnorm.UniquePhrases(profile.HardNoTags))
		dbg.WebAdded = len(web)
		pool = append(append([]domain.Candidate{}, pool...), web...)
	}

	ranked := s.scorer.Rank(pool, intent, req.Criteria, profile)
	if len(ranked) > policy.poolCap {
		ranked = ranked[:policy.poolCap]
	}
	dbg.PoolCount = len(ranked)

	offset := policy.offset(req.Offset, len(ranked))
	dbg.Offset = offset
	rotated := rotate(ranked, offset)

	var recs []domain.Recommendation
	if len(rotated) > 0 {
		recs, err = s.rerank(ctx, rotated, req.Criteria, effective, policy.picks)
		if err != nil {
			dbg.Errors = append(dbg.Errors, "rerank: "+err.Error())
			recs = ScorePicks(rotated, policy.picks)
		} else {
			dbg.RerankerUsed = true
		}
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}

	resp := Response{
		Recommendations: recs,
		Confidence:      s.params.Confidence(pool, intent),
		SourceMode:      sourceMode(len(filtered.Candidates), dbg.WebAdded),
		NextOffset:      offset,
		Debug:           dbg,
	}
	s.info("recommendations built",
		"mode", mode,
		"catalog", dbg.CatalogCount,
		"filtered", dbg.FilteredCount,
		"relaxed", dbg.Relaxed,
		"web_added", dbg.WebAdded,
		"reranker", dbg.RerankerUsed,
		"confidence", resp.Confidence,
	)
	return resp, nil
}

func (s *Service) profile(ctx context.Context, req Request) (domain.Profile, error) {
	if req.Profile != nil {
		return *req.Profile, nil
	}
	if s.profiles == nil {
		return domain.Profile{ID: req.ProfileID}, nil
	}
	p, err := s.profiles.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", req.ProfileID, err)
	}
	return p, nil
}

func (s *Service) rerank(ctx context.Context, pool []Scored, c domain.Criteria, in Intent, picks int) ([]domain.Recommendation, error) {
	if s.reranker == nil {
		return nil, ports.ErrLLMUnavailable
	}
	return s.reranker.Rerank(ctx, pool, c, in, picks)
}

func sourceMode(catalogCount, webCount int) string {
	switch {
	case webCount > 0 && catalogCount > 0:
		return SourceModeHybrid
	case webCount > 0:
		return SourceModeWeb
	default:
		return SourceModeCatalog
	}
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
