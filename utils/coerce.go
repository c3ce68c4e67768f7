package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt converts a loosely-typed value to an integer. Floats are truncated,
// strings must hold a base-10 integer. Anything else (nil, booleans, decimal
// strings, NaN) is reported as not convertible.
func ToInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// int64 spans [-2^63, 2^63); 2^63 itself is exactly representable as a float64
const int64Bound = float64(1 << 63)

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || f < -int64Bound || f >= int64Bound {
		return 0, false
	}
	return int64(f), true
}

// ToFloat converts a loosely-typed value to a float64
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToText converts a scalar to its string form. nil is not convertible.
// The text "NaN" is returned as-is, but dataframe string series read it as
// a missing value, so a category literally named "NaN" ends up in the null
// group once it reaches a frame.
func ToText(v interface{}) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	default:
		return fmt.Sprint(s), true
	}
}
