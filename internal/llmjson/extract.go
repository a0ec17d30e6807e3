// Package llmjson pulls JSON payloads out of free-form model responses and
// decodes them with a small, bounded set of textual repairs.
package llmjson

import (
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?is)```[ \t]*(?:json)?[ \t]*\\r?\\n?(.*?)```")

// ExtractPayload returns the most likely JSON substring of a model response.
// The result is not guaranteed to parse; when nothing JSON-shaped is found
// the input is returned unchanged so the parser reports the real problem.
func ExtractPayload(text string) string {
	candidate := text
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)

	if (strings.HasPrefix(candidate, "{") && strings.HasSuffix(candidate, "}")) ||
		(strings.HasPrefix(candidate, "[") && strings.HasSuffix(candidate, "]")) {
		return candidate
	}
	if s, ok := slice(candidate, '{', '}'); ok {
		return s
	}
	if s, ok := slice(candidate, '[', ']'); ok {
		return s
	}
	if s, ok := slice(text, '{', '}'); ok {
		return s
	}
	return text
}

func slice(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	return s[start : end+1], true
}
