package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// String reads key as text. Numbers and booleans are rendered; null and
// structured values report false.
func (r Result) String(key string) (string, bool) {
	switch v := r.Values[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// StringSlice reads key as a list of text. Null items are skipped and other
// scalars are rendered as text. Anything that is not a list, a bare string
// included, reports false.
func (r Result) StringSlice(key string) ([]string, bool) {
	switch v := r.Values[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch s := item.(type) {
			case nil:
				continue
			case string:
				out = append(out, s)
			default:
				out = append(out, fmt.Sprint(s))
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Float reads key as a number, accepting numeric strings such as "2".
func (r Result) Float(key string) (float64, bool) {
	switch v := r.Values[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
