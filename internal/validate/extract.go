package validate

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// scanState is the lexical state of the brace scanner.
type scanState int

const (
	stateOutside scanState = iota
	stateInString
	stateEscaped
)

// ExtractJSONObject returns the first JSON object embedded in generated text.
//
// The text is trimmed and unwrapped in a fixed order: a fence around the whole
// text is removed, paired <think> blocks are dropped, then the span from the
// first '{' to its balanced closing brace is returned. Braces inside string
// literals are ignored. If the object never balances, the span up to the last
// '}' is returned, and if there is no '{' at all the cleaned text is returned
// unchanged so the caller's decoder reports the error.
func ExtractJSONObject(text string) string {
	t := stripFence(strings.TrimSpace(text))
	t = strings.TrimSpace(thinkBlock.ReplaceAllString(t, ""))

	start := strings.IndexByte(t, '{')
	if start == -1 {
		return t
	}

	if end := balancedEnd(t, start); end != -1 {
		return t[start : end+1]
	}

	if last := strings.LastIndexByte(t, '}'); last > start {
		return t[start : last+1]
	}
	return t
}

// balancedEnd returns the index of the brace closing the object opened at
// start, or -1.
func balancedEnd(t string, start int) int {
	state := stateOutside
	depth := 0

	for i := start; i < len(t); i++ {
		ch := t[i]
		switch state {
		case stateEscaped:
			state = stateInString
		case stateInString:
			switch ch {
			case '\\':
				state = stateEscaped
			case '"':
				state = stateOutside
			}
		case stateOutside:
			switch ch {
			case '"':
				state = stateInString
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// stripFence removes a ``` fence that wraps the whole text, with or without
// a language tag on the opening line.
func stripFence(t string) string {
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}
	inner := t[3 : len(t)-3]
	if nl := strings.IndexByte(inner, '\n'); nl != -1 {
		tag := strings.TrimSpace(inner[:nl])
		if tag == "" || isFenceTag(tag) {
			inner = inner[nl+1:]
		}
	} else {
		inner = strings.TrimPrefix(inner, "json")
	}
	return strings.TrimSpace(inner)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
