package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnparseable matches every *ParseError via errors.Is.
var ErrUnparseable = errors.New("could not interpret AI response")

// ParseError is terminal for one generation attempt. Message carries the
// strict parser's error for the unmodified input.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnparseable, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrUnparseable }

// ParseWithRepair decodes text strictly, then once more after stripping a
// BOM, code fences and trailing commas. Numbers decode as json.Number.
func ParseWithRepair(text string) (any, error) {
	v, err := strictDecode(text)
	if err == nil {
		return v, nil
	}
	if repaired, rerr := strictDecode(Repair(text)); rerr == nil {
		return repaired, nil
	}
	return nil, &ParseError{Message: err.Error(), Err: err}
}

// Decode is the full text pipeline: extract the payload, then parse it
// with repairs.
func Decode(text string) (any, error) {
	return ParseWithRepair(ExtractPayload(text))
}

// Repair applies the textual fixes of the second parse pass.
func Repair(text string) string {
	s := strings.TrimPrefix(text, "\uFEFF")
	s = stripFences(s)
	s = stripTrailingCommas(s)
	return strings.TrimSpace(s)
}

func strictDecode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unexpected end of JSON input")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid character after top-level value at offset %d", dec.InputOffset())
	}
	return v, nil
}

func stripFences(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(rest, "json"), "JSON"))
			rest = strings.TrimSpace(strings.TrimSuffix(rest, "```"))
			if rest == "" {
				continue
			}
			line = rest
		} else if strings.HasSuffix(trimmed, "```") {
			line = strings.TrimSuffix(trimmed, "```")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// stripTrailingCommas removes commas that are followed only by whitespace
// and a closing bracket. String literals are left untouched.
func stripTrailingCommas(s string) string {
	var b bytes.Buffer
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\r' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
