package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrParse marks a model response that could not be turned into the expected structure.
var ErrParse = errors.New("unparseable analysis response")

// ParseError describes why a response was rejected.
type ParseError struct {
	Reason  string
	Preview string
}

func (e *ParseError) Error() string {
	return "parse analysis: " + e.Reason
}

func (e *ParseError) Unwrap() error { return ErrParse }

func parseErrorf(raw, reason string) *ParseError {
	return &ParseError{Reason: reason, Preview: truncateRunes(raw, 200)}
}

var (
	jsonFence    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	genericFence = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractJSON pulls a JSON object out of free-form model output. It tries a
// ```json fence, then any fence, then the first balanced {...} in the text.
func ExtractJSON(text string) (string, error) {
	var candidates []string
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := genericFence.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if obj, ok := firstObject(text); ok {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if strings.HasPrefix(c, "{") && json.Valid([]byte(c)) {
			return c, nil
		}
	}
	return "", parseErrorf(text, "no json object found")
}

// firstObject scans for the first balanced top-level object, skipping braces inside strings.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
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
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(text)
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}
