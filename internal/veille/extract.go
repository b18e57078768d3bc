package veille

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds the first JSON object or array embedded in text and
// decodes it into v. Markdown code fences, surrounding prose and trailing
// garbage are tolerated. It reports whether decoding succeeded.
func ExtractJSON(text string, v any) bool {
	text = stripFences(text)
	for start := 0; start < len(text); {
		i := strings.IndexAny(text[start:], "{[")
		if i < 0 {
			return false
		}
		i += start
		end := matchBracket(text, i)
		if end < 0 {
			start = i + 1
			continue
		}
		if json.Unmarshal([]byte(text[i:end+1]), v) == nil {
			return true
		}
		start = i + 1
	}
	return false
}

// stripFences returns the content of the first ``` fenced block, or text
// unchanged when there is none.
func stripFences(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	rest := text[open+3:]
	// Skip the language tag on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// matchBracket returns the index of the bracket closing the one at start,
// skipping brackets inside strings, or -1.
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// extractList decodes a JSON array from text. An object wrapping a single
// array (for example {"actualites": [...]}) is accepted too.
func extractList[T any](text string) ([]T, bool) {
	var list []T
	if ExtractJSON(text, &list) {
		return list, true
	}
	var wrapper map[string]json.RawMessage
	if !ExtractJSON(text, &wrapper) {
		return nil, false
	}
	for _, raw := range wrapper {
		if json.Unmarshal(raw, &list) == nil {
			return list, true
		}
	}
	return nil, false
}
