package parsing

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Strategy records how a JSON object was located in a response
type Strategy string

const (
	StrategyDirect Strategy = "direct"
	StrategyFenced Strategy = "fenced"
	StrategySpan   Strategy = "span"
	StrategyText   Strategy = "text" // no JSON; the response was used as text
)

// fencedBlockRe matches ``` fenced blocks with an optional info string
var fencedBlockRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\n?(.*?)```")

// maxSpanStarts bounds how many '{' positions the span search tries
const maxSpanStarts = 16

var errNoJSON = errors.New("no JSON object found")

// locatedJSON is a decoded JSON object and its source text
type locatedJSON struct {
	fields   map[string]json.RawMessage
	text     string
	strategy Strategy
}

// locateJSON tries a direct parse, then fenced block interiors, then balanced
// {...} spans, returning the first candidate that decodes to a JSON object.
func locateJSON(raw string) (*locatedJSON, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errNoJSON
	}

	if obj, ok := decodeObject(trimmed); ok {
		return &locatedJSON{fields: obj, text: trimmed, strategy: StrategyDirect}, nil
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(trimmed, -1) {
		inner := strings.TrimSpace(m[1])
		if obj, ok := decodeObject(inner); ok {
			return &locatedJSON{fields: obj, text: inner, strategy: StrategyFenced}, nil
		}
	}

	from := 0
	for tries := 0; tries < maxSpanStarts; tries++ {
		start := strings.IndexByte(trimmed[from:], '{')
		if start < 0 {
			break
		}
		start += from
		end := balancedEnd(trimmed, start)
		if end < 0 {
			from = start + 1
			continue
		}
		span := trimmed[start : end+1]
		if obj, ok := decodeObject(span); ok {
			return &locatedJSON{fields: obj, text: span, strategy: StrategySpan}, nil
		}
		from = start + 1
	}

	return nil, errNoJSON
}

func decodeObject(s string) (map[string]json.RawMessage, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// balancedEnd returns the index of the brace closing the one at start, skipping
// braces inside JSON strings. It returns -1 when the span never closes.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
