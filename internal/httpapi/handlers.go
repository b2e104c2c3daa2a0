package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clcruickshank2/datenight/internal/criteria"
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/recommend"
	"github.com/clcruickshank2/datenight/internal/usecase"
)

const maxBodyBytes = 1 << 20

// CriteriaParser turns one chat message into merged criteria.
type CriteriaParser interface {
	Parse(ctx context.Context, message string, current domain.Criteria) criteria.Result
}

// Recommender produces restaurant picks.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Response, error)
}

// Jobs runs the curation and ingestion pipelines on demand.
type Jobs interface {
	RunWeeklyCuration(ctx context.Context) (usecase.CurationReport, error)
	IngestFeeds(ctx context.Context) (usecase.IngestReport, error)
}

// Deps lists the handler collaborators. Nil Jobs or stores disable their routes.
type Deps struct {
	Parser          CriteriaParser
	Recommender     Recommender
	Profiles        ports.ProfileStore
	Jobs            Jobs
	Trending        ports.TrendingStore
	Articles        ports.ArticleStore
	RequestTimeout  time.Duration
	CurationTimeout time.Duration
	Logger          *slog.Logger
}

// Handlers serves the JSON API.
type Handlers struct {
	parser          CriteriaParser
	recommender     Recommender
	profiles        ports.ProfileStore
	jobs            Jobs
	trending        ports.TrendingStore
	articles        ports.ArticleStore
	requestTimeout  time.Duration
	curationTimeout time.Duration
	logger          *slog.Logger
}

func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		parser:          deps.Parser,
		recommender:     deps.Recommender,
		profiles:        deps.Profiles,
		jobs:            deps.Jobs,
		trending:        deps.Trending,
		articles:        deps.Articles,
		requestTimeout:  deps.RequestTimeout,
		curationTimeout: deps.CurationTimeout,
		logger:          deps.Logger,
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = 45 * time.Second
	}
	if h.curationTimeout <= 0 {
		h.curationTimeout = 5 * time.Minute
	}
	return h
}

// Health answers liveness checks.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}

type parseRequest struct {
	Message   string           `json:"message"`
	Criteria  *domain.Criteria `json:"criteria"`
	ProfileID string           `json:"profileId"`
}

// ParseCriteria merges one chat message into the session criteria. Without
// criteria in the body the profile defaults seed the session.
func (h *Handlers) ParseCriteria(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusBadRequest, CodeMissingParams, map[string]string{"param": "message"})
		return
	}
	if h.parser == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var current domain.Criteria
	switch {
	case body.Criteria != nil:
		current = *body.Criteria
	case body.ProfileID != "" && h.profiles != nil:
		profile, err := h.profiles.GetProfile(ctx, body.ProfileID)
		if err != nil {
			h.writeLookupError(w, err)
			return
		}
		current = domain.SeedCriteria(profile)
	}

	writeSuccess(w, h.parser.Parse(ctx, body.Message, current))
}

type recommendRequest struct {
	ProfileID string          `json:"profileId"`
	Criteria  domain.Criteria `json:"criteria"`
	Mode      string          `json:"mode"`
	Offset    int             `json:"offset"`
}

// Recommend returns restaurant picks for a profile and criteria.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var body recommendRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.ProfileID) == "" {
		writeError(w, http.StatusBadRequest, CodeMissingParams, map[string]string{"param": "profileId"})
		return
	}
	mode, err := recommend.ParseMode(body.Mode)
	if err != nil {
		writeCustomError(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), map[string]string{"param": "mode"})
		return
	}
	if body.Offset < 0 {
		writeCustomError(w, http.StatusBadRequest, CodeInvalidParams, "offset must not be negative", map[string]string{"param": "offset"})
		return
	}
	if h.recommender == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.recommender.Recommend(ctx, recommend.Request{
		ProfileID: body.ProfileID,
		Criteria:  body.Criteria,
		Mode:      mode,
		Offset:    body.Offset,
	})
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeSuccess(w, resp)
}

// RunCuration triggers the weekly curation synchronously.
func (h *Handlers) RunCuration(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.curationTimeout)
	defer cancel()

	report, err := h.jobs.RunWeeklyCuration(ctx)
	if err != nil {
		h.warn("curation run failed", "run_id", report.RunID, "error", err)
		writeCustomError(w, http.StatusInternalServerError, CodeDatabaseError, err.Error(), report)
		return
	}
	if report.Error != "" {
		writeCustomError(w, http.StatusOK, CodeCurationRejected, report.Error, report)
		return
	}
	writeSuccess(w, report)
}

// IngestFeeds polls every enabled source once.
func (h *Handlers) IngestFeeds(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.curationTimeout)
	defer cancel()

	report, err := h.jobs.IngestFeeds(ctx)
	if err != nil {
		h.warn("feed ingestion failed", "error", err)
		writeCustomError(w, http.StatusInternalServerError, CodeDatabaseError, err.Error(), report)
		return
	}
	writeSuccess(w, report)
}

// ListTrending returns the persisted trending restaurants.
func (h *Handlers) ListTrending(w http.ResponseWriter, r *http.Request) {
	if h.trending == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}
	rows, err := h.trending.ListTrending(r.Context())
	if err != nil {
		writeCustomError(w, http.StatusInternalServerError, CodeDatabaseError, err.Error(), nil)
		return
	}
	if rows == nil {
		rows = []domain.TrendingRestaurant{}
	}
	writeSuccess(w, map[string]any{"restaurants": rows})
}

// ListCurated returns curated articles by rank.
func (h *Handlers) ListCurated(w http.ResponseWriter, r *http.Request) {
	if h.articles == nil {
		writeError(w, http.StatusServiceUnavailable, CodeServerError, nil)
		return
	}
	articles, err := h.articles.ListCurated(r.Context())
	if err != nil {
		writeCustomError(w, http.StatusInternalServerError, CodeDatabaseError, err.Error(), nil)
		return
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	writeSuccess(w, map[string]any{"articles": articles})
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeProfileNotFound, nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeCustomError(w, http.StatusGatewayTimeout, CodeServerError, err.Error(), nil)
	default:
		h.warn("request failed", "error", err)
		writeCustomError(w, http.StatusInternalServerError, CodeDatabaseError, err.Error(), nil)
	}
}

// decodeBody reads a JSON body; an empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeCustomError(w, http.StatusBadRequest, CodeInvalidParams, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

func (h *Handlers) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
