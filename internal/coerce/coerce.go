// Package coerce converts loosely typed JSON values (as produced by
// encoding/json into any) to the scalar types the engine stores.
//
// Saved games come from older versions and hand-edited files, so every
// conversion reports whether it produced a usable value instead of failing.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

// Number converts v to a float64 the way a loose JSON reader would:
// null is 0, booleans are 0 or 1, strings are parsed after trimming
// (an empty string is 0). ok is false for objects, arrays, unparsable
// strings and non-finite results.
func Number(v any) (f float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint32:
		f = float64(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	case interface{ Float64() (float64, error) }:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int converts v to an int. ok is false unless v is a finite whole number.
func Int(v any) (int, bool) {
	f, ok := Number(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Truthy reports the boolean value of v under loose rules: null, false,
// 0, NaN and "" are false, everything else is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// String renders v as text. Numbers use the shortest decimal form;
// nil yields "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = String(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return ""
	}
}
