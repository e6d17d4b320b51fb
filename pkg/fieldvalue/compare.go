package fieldvalue

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// ScalarEqual compares two attribute values the way a form sees them. Empty
// values (nil, blank string) are equal to each other. When either side is a
// non-string number the other side is parsed, so "2" equals 2. When either
// side is a bool the other is parsed as a bool. Strings compare exactly;
// everything else falls back to deep equality.
func ScalarEqual(a, b any) bool {
	aEmpty, bEmpty := isBlank(a), isBlank(b)
	if aEmpty || bEmpty {
		return aEmpty && bEmpty
	}

	if isNumber(a) || isNumber(b) {
		na, aok := toFloat(a)
		nb, bok := toFloat(b)
		if aok && bok {
			return na == nb
		}
		return false
	}

	if ab, ok := a.(bool); ok {
		bb, ok := toBool(b)
		return ok && ab == bb
	}
	if bb, ok := b.(bool); ok {
		ab, ok := toBool(a)
		return ok && ab == bb
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}

// ToFloat converts numeric values and numeric strings.
func ToFloat(v any) (float64, bool) {
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// ToBool converts bools and "true"/"false" style strings.
func ToBool(v any) (bool, bool) {
	return toBool(v)
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(val))
		return parsed, err == nil
	}
	return false, false
}

// SamePeerSet reports whether two id lists hold the same members, ignoring
// order and duplicates.
func SamePeerSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}
