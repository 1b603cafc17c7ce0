// Package extract turns free-form model output into a structured object
// that always carries the keys its caller asked for.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Field declares one required key of the extracted object.
type Field struct {
	Key     string
	Default interface{}
	// FromRaw marks a free-text field. When nothing parses, it is filled
	// from the raw text instead of its default.
	FromRaw bool
}

// Result is the extracted object. Parsed is false when the fallback
// object was produced; that is a normal outcome, not an error.
type Result struct {
	Values map[string]interface{}
	Parsed bool
	Raw    string
}

// Extract never fails. Every key in fields is present in the returned
// Values whatever raw contains.
func Extract(raw string, fields []Field) Result {
	result := Result{Values: make(map[string]interface{}, len(fields)), Raw: raw}

	if parsed, ok := parseObject(raw); ok {
		for k, v := range parsed {
			result.Values[k] = v
		}
		for _, f := range fields {
			if _, exists := result.Values[f.Key]; !exists {
				result.Values[f.Key] = cloneDefault(f.Default)
			}
		}
		result.Parsed = true
		return result
	}

	trimmed := strings.TrimSpace(raw)
	for _, f := range fields {
		if f.FromRaw && trimmed != "" {
			result.Values[f.Key] = fromRaw(f.Default, trimmed)
			continue
		}
		result.Values[f.Key] = cloneDefault(f.Default)
	}
	return result
}

func parseObject(raw string) (map[string]interface{}, bool) {
	cleaned := fencePattern.ReplaceAllString(strings.TrimSpace(raw), "")
	span := extractJSON(cleaned)
	if span == "" {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(span), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// extractJSON returns the outermost first-'{' to last-'}' span.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func fromRaw(def interface{}, raw string) interface{} {
	switch def.(type) {
	case []string, []interface{}:
		return []string{raw}
	default:
		return raw
	}
}

func cloneDefault(def interface{}) interface{} {
	switch v := def.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		copy(out, v)
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	default:
		return v
	}
}
