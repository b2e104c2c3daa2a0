package curation

import (
	"strings"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const (
	GateMinRows       = "min_rows"
	GateEvidenceRatio = "evidence_ratio"
)

// noiseFragments disqualify a row name outright.
var noiseFragments = []string{
	"newsletter", "subscribe", "subscription", "sign up", "signup", "log in", "login", "account",
	"instagram", "facebook", "twitter", "tiktok", "podcast", "advertis", "sponsored", "cookie",
	"privacy policy", "terms of service", "read more", "click here", "email", "follow us", "unsubscribe",
}

// GateResult reports the quality gate measurement and decision.
type GateResult struct {
	Accepted       bool                        `json:"accepted"`
	FailedGate     string                      `json:"failedGate,omitempty"`
	ExtractedCount int                         `json:"extractedCount"`
	PlausibleCount int                         `json:"plausibleCount"`
	EvidencedCount int                         `json:"evidencedCount"`
	EvidenceRatio  float64                     `json:"evidenceRatio"`
	MinRows        int                         `json:"minRows"`
	MinRatio       float64                     `json:"minRatio"`
	Rows           []domain.TrendingRestaurant `json:"-"`
}

// Gate keeps name-plausible rows and accepts the run only when there are at
// least MinRows of them and at least MinEvidenceRatio of them are found in
// the text of an article they cite.
func Gate(rows []domain.TrendingRestaurant, articles []domain.CuratedArticle, params Params) GateResult {
	texts := make(map[string]string, len(articles))
	for _, a := range articles {
		texts[a.Article.ID] = textnorm.Normalize(a.Text())
	}

	res := GateResult{ExtractedCount: len(rows), MinRows: params.MinRows, MinRatio: params.MinEvidenceRatio}
	for _, r := range rows {
		if !PlausibleName(r.Name) {
			continue
		}
		res.Rows = append(res.Rows, r)
		if evidenced(r, texts) {
			res.EvidencedCount++
		}
	}
	res.PlausibleCount = len(res.Rows)
	if res.PlausibleCount > 0 {
		res.EvidenceRatio = float64(res.EvidencedCount) / float64(res.PlausibleCount)
	}

	switch {
	case res.PlausibleCount < params.MinRows:
		res.FailedGate = GateMinRows
	case res.EvidenceRatio < params.MinEvidenceRatio:
		res.FailedGate = GateEvidenceRatio
	default:
		res.Accepted = true
	}
	return res
}

// PlausibleName rejects empty names and newsletter or account boilerplate.
func PlausibleName(name string) bool {
	norm := textnorm.Normalize(name)
	if len(norm) < 2 {
		return false
	}
	lower := strings.ToLower(name)
	for _, frag := range noiseFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	return true
}

func evidenced(r domain.TrendingRestaurant, texts map[string]string) bool {
	name := textnorm.Normalize(r.Name)
	for _, id := range r.SourceArticleIDs {
		if textnorm.ContainsPhrase(texts[id], name) {
			return true
		}
	}
	return false
}
