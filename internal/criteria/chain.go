// Package criteria turns chat messages into criteria patches.
package criteria

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clcruickshank2/datenight/internal/domain"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Result is the uniform output of every parsing strategy.
type Result struct {
	Reply    string               `json:"reply"`
	Patch    domain.CriteriaPatch `json:"patch"`
	Criteria domain.Criteria      `json:"criteria"`
	Question string               `json:"question,omitempty"`
	Source   string               `json:"source"`
	Errors   []string             `json:"errors,omitempty"`
}

// Strategy parses one message against the current criteria.
type Strategy interface {
	Name() string
	Parse(ctx context.Context, message string, current domain.Criteria) (Result, error)
}

// Chain evaluates strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds a chain. The last strategy should never fail.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: logger}
}

// Parse returns the first successful strategy result with the merged criteria and
// the follow-up question filled in. Failures of earlier strategies end up in Errors.
func (c *Chain) Parse(ctx context.Context, message string, current domain.Criteria) Result {
	var trail []string
	for _, s := range c.strategies {
		res, err := s.Parse(ctx, message, current)
		if err != nil {
			trail = append(trail, fmt.Sprintf("%s: %v", s.Name(), err))
			c.warn("criteria strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		res.Source = s.Name()
		res.Criteria = current.Apply(res.Patch)
		if res.Question == "" {
			res.Question = NextQuestion(res.Criteria)
		}
		if res.Reply == "" {
			res.Reply = res.Question
		}
		res.Errors = trail
		c.debug("criteria parsed", "source", res.Source, "patch_empty", res.Patch.IsEmpty())
		return res
	}

	merged := current.Apply(domain.CriteriaPatch{})
	question := NextQuestion(merged)
	return Result{Reply: question, Criteria: merged, Question: question, Source: SourceFallback, Errors: trail}
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
