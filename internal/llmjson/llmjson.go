// Package llmjson decodes language-model output at the trust boundary.
// Model replies are treated as untyped: the first valid JSON object is
// pulled out of surrounding prose or code fences, and individual fields are
// read through sanitizers that return "absent" instead of failing.
package llmjson

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// ErrNoObject is returned when the text holds no balanced JSON object.
var ErrNoObject = errors.New("no json object in model output")

// ExtractObject returns the first balanced {...} block in text that is valid
// JSON. Braces inside string literals do not count, and balanced blocks of
// prose such as "{see below}" are skipped.
func ExtractObject(text string) (string, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end, ok := balancedEnd(text, start); ok {
			if block := text[start : end+1]; json.Valid([]byte(block)) {
				return block, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoObject
}

// balancedEnd finds the brace closing the one at start, honoring string
// literals and escapes.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// Decode extracts the first object from text and unmarshals it into a field map.
func Decode(text string) (map[string]json.RawMessage, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Objects reads raw as an array of objects, skipping elements that are not objects.
func Objects(raw json.RawMessage) []map[string]json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// String returns a trimmed string value, or "" for any other JSON type.
func String(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Int returns an integral JSON number within [lo, hi]. Strings, fractions and
// out-of-range values are rejected rather than coerced.
func Int(raw json.RawMessage, lo, hi int) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if math.IsNaN(f) || f != math.Trunc(f) || f < float64(lo) || f > float64(hi) {
		return 0, false
	}
	return int(f), true
}

// Float returns a JSON number within [lo, hi].
func Float(raw json.RawMessage, lo, hi float64) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < lo || f > hi {
		return 0, false
	}
	return f, true
}

// Strings returns up to limit string elements of a JSON array; non-string
// elements are skipped. limit <= 0 means no limit.
func Strings(raw json.RawMessage, limit int) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := String(item)
		if s == "" {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
