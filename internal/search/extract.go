package search

import (
	"errors"
	"strings"
)

// extractJSON returns the first JSON object embedded in an LLM reply.
// Markdown code fences are stripped first, then the text is scanned for a
// balanced {...} segment, ignoring braces inside string literals.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if inner, ok := stripCodeFence(s); ok {
		s = strings.TrimSpace(inner)
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			if out, ok := balancedObjectAt(s, i); ok {
				return out, nil
			}
		}
	}
	return "", errors.New("no JSON object found")
}

// stripCodeFence unwraps a leading ``` or ~~~ fenced block, tolerating a
// language tag on the opening line.
func stripCodeFence(s string) (string, bool) {
	var fence string
	switch {
	case strings.HasPrefix(s, "```"):
		fence = "```"
	case strings.HasPrefix(s, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	rest := s[len(fence):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

func balancedObjectAt(s string, start int) (string, bool) {
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
