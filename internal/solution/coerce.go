package solution

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/joelkehle/circuit-architect/internal/catalog"
)

// Helpers for reading untyped decoded JSON. None of them panic; a missing
// or wrongly typed value yields the zero value of the target shape.

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// field returns the first non-blank value stored under any of keys. Null,
// whitespace strings and empty arrays or objects fall through to the next
// alias.
func field(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := obj[k]; !blank(v) {
			return v
		}
	}
	return nil
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// listAt returns the first array stored under any of keys.
func listAt(obj map[string]any, keys ...string) []any {
	for _, k := range keys {
		if l := asList(obj[k]); len(l) > 0 {
			return l
		}
	}
	return nil
}

// objectAt prefers the first non-empty object under keys, falling back to
// an empty one when that is all there is.
func objectAt(obj map[string]any, keys ...string) map[string]any {
	var empty map[string]any
	for _, k := range keys {
		o := asObject(obj[k])
		if len(o) > 0 {
			return o
		}
		if o != nil && empty == nil {
			empty = o
		}
	}
	return empty
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// text reads the first string-ish value under keys. Numbers and booleans
// are formatted; objects, arrays and blank strings move on to the next key.
func text(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

func textOr(obj map[string]any, def string, keys ...string) string {
	if s := text(obj, keys...); s != "" {
		return s
	}
	return def
}

// stringify renders one list element. Objects are reduced to their most
// descriptive text field, falling back to compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if s := text(t, "text", "name", "title", "label", "description", "value"); s != "" {
			return s
		}
		if len(t) == 0 {
			return ""
		}
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	case []any:
		parts := stringList(t)
		return strings.Join(parts, ", ")
	}
	return scalarString(v)
}

// stringList accepts an array (elements stringified, blanks dropped) or a
// single string (wrapped). Anything else is an empty list.
func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if s := stringify(el); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func listField(obj map[string]any, keys ...string) []string {
	for _, k := range keys {
		if l := stringList(obj[k]); len(l) > 0 {
			return l
		}
	}
	return []string{}
}

func positionalID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i+1)
}

func idOr(obj map[string]any, prefix string, i int, keys ...string) string {
	if s := text(obj, keys...); s != "" {
		return s
	}
	return positionalID(prefix, i)
}

func lower(v any) string {
	return strings.ToLower(scalarString(v))
}

// parseLevel maps free text such as "Medium-High" or "低" onto a level.
func parseLevel(v any) (Level, bool) {
	s := lower(v)
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "high") || strings.Contains(s, "高"):
		return LevelHigh, true
	case strings.Contains(s, "low") || strings.Contains(s, "低"):
		return LevelLow, true
	case strings.Contains(s, "med") || strings.Contains(s, "moderate") || strings.Contains(s, "中"):
		return LevelMedium, true
	}
	return "", false
}

// levelField returns the first recognizable level under keys.
func levelField(obj map[string]any, def Level, keys ...string) Level {
	for _, k := range keys {
		if l, ok := parseLevel(obj[k]); ok {
			return l
		}
	}
	return def
}

func words(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		out[w] = true
	}
	return out
}

func matchDirection(v any) catalog.Direction {
	s := lower(v)
	w := words(s)
	in := w["in"] || w["input"] || w["inputs"] || w["sink"]
	out := w["out"] || w["output"] || w["outputs"] || w["source"]
	switch {
	case strings.HasPrefix(s, "bidir") || w["bi"] || w["both"] || w["inout"] || w["io"] || (in && out):
		return catalog.DirectionBidirectional
	case out:
		return catalog.DirectionOut
	case in:
		return catalog.DirectionIn
	}
	return catalog.DirectionBidirectional
}

func matchPortKind(v any) catalog.PortKind {
	s := lower(v)
	switch {
	case strings.Contains(s, "power") || strings.Contains(s, "supply") || strings.Contains(s, "vcc") || strings.Contains(s, "rail"):
		return catalog.KindPower
	case strings.Contains(s, "bus") || strings.Contains(s, "i2c") || strings.Contains(s, "spi") ||
		strings.Contains(s, "uart") || strings.Contains(s, "usb"):
		return catalog.KindBus
	}
	return catalog.KindIO
}

func matchRelation(v any) Relation {
	s := lower(v)
	switch {
	case strings.Contains(s, "power") || strings.Contains(s, "supply"):
		return RelationPower
	case strings.Contains(s, "data") || strings.Contains(s, "signal") || strings.Contains(s, "bus") || strings.Contains(s, "comm"):
		return RelationData
	case strings.Contains(s, "control") || strings.Contains(s, "trigger") || strings.Contains(s, "enable"):
		return RelationControl
	}
	return RelationDependency
}

func matchWorkflowKind(v any) WorkflowNodeKind {
	s := lower(v)
	switch {
	case strings.Contains(s, "milestone"):
		return WorkflowMilestone
	case strings.Contains(s, "review") || strings.Contains(s, "gate") || strings.Contains(s, "approval"):
		return WorkflowReview
	}
	return WorkflowTask
}
