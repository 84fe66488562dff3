// Package mapping turns raw car-spec API records into catalog values. Every
// function here is total: malformed or missing input becomes a default, never
// an error.
package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces v to a float64. Strings keep only digits, sign and
// separators; a comma is the decimal separator when the string has no dot
// and a thousands separator otherwise. Anything unparsable is 0.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case json.Number:
		return parseNumeric(string(n))
	case string:
		return parseNumeric(n)
	default:
		return 0
	}
}

// ToInt is ToNumber truncated toward zero.
func ToInt(v any) int {
	return int(ToNumber(v))
}

// ToString renders v for display; nil becomes "".
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumeric(s string) float64 {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '+', r == '.', r == ',':
			return r
		}
		return -1
	}, s)
	if strings.Contains(kept, ".") {
		kept = strings.ReplaceAll(kept, ",", "")
	} else {
		kept = strings.Replace(kept, ",", ".", 1)
		kept = strings.ReplaceAll(kept, ",", "")
	}

	// Longest prefix of the form [sign]digits[.digits].
	end := 0
	if end < len(kept) && (kept[end] == '-' || kept[end] == '+') {
		end++
	}
	digits, dot := 0, false
	for end < len(kept) {
		c := kept[end]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !dot {
			dot = true
		} else {
			break
		}
		end++
	}
	if digits == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(kept[:end], "."), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}
