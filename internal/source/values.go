package source

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// parseDate accepts epoch milliseconds (number or numeric string), compact
// YYYYMMDD strings and the common textual layouts. Results are UTC.
func parseDate(v any) *time.Time {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		if isDigits(s) {
			if len(s) == 8 {
				if t, err := time.Parse("20060102", s); err == nil {
					return &t
				}
			}
			ms, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil
			}
			t := time.UnixMilli(ms).UTC()
			return &t
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		return nil
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	t := time.UnixMilli(int64(f)).UTC()
	return &t
}

func parseAcres(v any) float64 {
	f, ok := toFloat(v)
	if !ok {
		return math.NaN()
	}
	return f
}

func parseLatest(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	default:
		switch strings.ToLower(toString(v)) {
		case "y", "yes", "true", "1", "t":
			return true
		}
		return false
	}
}

func parseYear(v any) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
