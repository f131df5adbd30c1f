package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON decodes the first JSON object found in raw model output into T.
// Markdown code fences and prose around the object are ignored. A non-nil
// validate is run on the decoded value. Every failure wraps ErrInvalidOutput.
func ExtractJSON[T any](raw string, validate func(T) error) (T, error) {
	var zero T

	block := firstObject(stripFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var out T
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validate != nil {
		if err := validate(out); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}
	return out, nil
}

// stripFences drops ``` fence lines and keeps everything between them.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// firstObject returns the first balanced {...} block, honoring string
// literals and escapes, or "" when none closes.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
