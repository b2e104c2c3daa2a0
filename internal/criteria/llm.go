package criteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/llmjson"
	"github.com/clcruickshank2/datenight/internal/ports"
	"github.com/clcruickshank2/datenight/internal/textnorm"
)

const llmMaxTags = 12

const parseSystemPrompt = `You help a couple plan a restaurant outing. Read the user's message and the current criteria.
Return ONLY a JSON object, no prose, with this shape:
{"reply": string, "patch": {"dateRange": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"} | null,
 "partySize": integer 1-20 | null, "vibeTags": [string], "minPrice": integer 1-4 | null, "maxPrice": integer 1-4 | null},
 "question": string}
Rules:
- Only include fields the message actually states; use null otherwise.
- Budget symbols: "$" is 1 and "$$$$" is 4. "under $$" means maxPrice 1. "between $ and $$$" means minPrice 1, maxPrice 3.
  A single run like "$$" sets minPrice and maxPrice to that level.
- vibeTags are short lowercase cuisine, vibe or dietary phrases. Never remove existing tags, only add new ones.
- Resolve relative dates against today's date.
- Ask at most one follow-up question, only when date, party size or tags are still missing. Otherwise use "".`

// LLMParser asks a language model for the patch. It fails whenever the model
// is unavailable or its reply cannot be decoded, so the chain moves on.
type LLMParser struct {
	llm ports.Completer
	now func() time.Time
}

// NewLLMParser accepts a nil completer, which reports ErrLLMUnavailable.
func NewLLMParser(llm ports.Completer, now func() time.Time) *LLMParser {
	if now == nil {
		now = time.Now
	}
	return &LLMParser{llm: llm, now: now}
}

func (p *LLMParser) Name() string {
	return SourceLLM
}

func (p *LLMParser) Parse(ctx context.Context, message string, current domain.Criteria) (Result, error) {
	if p.llm == nil {
		return Result{}, ports.ErrLLMUnavailable
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return Result{}, fmt.Errorf("encode current criteria: %w", err)
	}
	prompt := ports.Prompt{
		System: parseSystemPrompt,
		User: fmt.Sprintf("Today is %s (%s).\nCurrent criteria: %s\nMessage: %s",
			p.now().Format(domain.DateLayout), p.now().Weekday(), currentJSON, strings.TrimSpace(message)),
		MaxTokens: 400,
	}

	text, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("complete: %w", err)
	}
	return decodeParseReply(text)
}

func decodeParseReply(text string) (Result, error) {
	fields, err := llmjson.Decode(text)
	if err != nil {
		return Result{}, fmt.Errorf("decode reply: %w", err)
	}
	rawPatch, ok := fields["patch"]
	if !ok {
		return Result{}, errors.New("reply missing patch")
	}
	if _, ok := fields["reply"]; !ok {
		return Result{}, errors.New("reply missing reply text")
	}

	var patchFields map[string]json.RawMessage
	if err := json.Unmarshal(rawPatch, &patchFields); err != nil || patchFields == nil {
		return Result{}, errors.New("patch is not an object")
	}

	return Result{
		Reply:    llmjson.String(fields["reply"]),
		Patch:    sanitizePatch(patchFields),
		Question: llmjson.String(fields["question"]),
		Source:   SourceLLM,
	}, nil
}

// sanitizePatch keeps only well-typed, in-range fields.
func sanitizePatch(fields map[string]json.RawMessage) domain.CriteriaPatch {
	var patch domain.CriteriaPatch
	if v, ok := llmjson.Int(fields["partySize"], domain.MinPartySize, domain.MaxPartySize); ok {
		patch.PartySize = domain.IntPtr(v)
	}
	if v, ok := llmjson.Int(fields["minPrice"], domain.MinPrice, domain.MaxPrice); ok {
		patch.MinPrice = domain.IntPtr(v)
	}
	if v, ok := llmjson.Int(fields["maxPrice"], domain.MinPrice, domain.MaxPrice); ok {
		patch.MaxPrice = domain.IntPtr(v)
	}
	if tags := textnorm.UniquePhrases(llmjson.Strings(fields["vibeTags"], llmMaxTags)); len(tags) > 0 {
		patch.VibeTags = tags
	}
	patch.DateRange = sanitizeDateRange(fields["dateRange"])
	return patch
}

func sanitizeDateRange(raw json.RawMessage) *domain.DateRange {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil
	}
	start := llmjson.String(obj["start"])
	end := llmjson.String(obj["end"])
	if _, err := time.Parse(domain.DateLayout, start); err != nil {
		return nil
	}
	if end == "" {
		end = start
	}
	if _, err := time.Parse(domain.DateLayout, end); err != nil {
		return nil
	}
	if end < start {
		start, end = end, start
	}
	return &domain.DateRange{Start: start, End: end}
}
