package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no JSON value found in model output")

// ExtractJSON returns the first balanced JSON object or array in text that
// parses, skipping code fences and surrounding prose.
func ExtractJSON(text string) (string, error) {
	s := StripFences(text)
	for start := 0; start < len(s); start++ {
		if s[start] != '{' && s[start] != '[' {
			continue
		}
		end := matchClose(s, start)
		if end < 0 {
			continue
		}
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}

// matchClose finds the index closing the bracket at s[start], honoring
// string literals and escapes. Returns -1 when unbalanced.
func matchClose(s string, start int) int {
	var stack []byte
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// StripFences unwraps text that is exactly one ```lang ... ``` block.
// Anything else, including prose with fenced code inside, comes back
// trimmed but otherwise unchanged.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if len(s) < 6 || !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	inner := s[3 : len(s)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		inner = inner[nl+1:]
	}
	if strings.Contains(inner, "```") {
		return s
	}
	return strings.TrimSpace(inner)
}
