package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValuesMatch compares two values for equality, handling different types
func ValuesMatch(actual, expected interface{}) bool {
	actual, expected = Normalize(actual), Normalize(expected)

	// Handle nil values
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	// Handle string comparison (case-insensitive)
	if actualStr, ok1 := actual.(string); ok1 {
		if expectedStr, ok2 := expected.(string); ok2 {
			return strings.EqualFold(actualStr, expectedStr)
		}
	}

	// Handle numeric comparison
	if actualNum, ok1 := ToFloat64(actual); ok1 {
		if expectedNum, ok2 := ToFloat64(expected); ok2 {
			return actualNum == expectedNum
		}
	}

	if actualBool, ok1 := actual.(bool); ok1 {
		if expectedBool, ok2 := expected.(bool); ok2 {
			return actualBool == expectedBool
		}
	}

	return false
}

// CompareValues orders two field values. Values of different kinds order
// as missing < bool < number < string < anything else; strings compare
// without case. The second result is false when a and b are of a kind that
// has no ordering between themselves (maps, slices).
func CompareValues(a, b interface{}) (int, bool) {
	a, b = Normalize(a), Normalize(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1, true
		}
		return 1, true
	}

	switch ra {
	case rankMissing:
		return 0, true
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		default:
			return 1, true
		}
	case rankNumber:
		af, _ := ToFloat64(a)
		bf, _ := ToFloat64(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	case rankString:
		return strings.Compare(strings.ToLower(a.(string)), strings.ToLower(b.(string))), true
	}
	return 0, false
}

// SameKind reports whether a and b are both present and of a kind that
// CompareValues orders meaningfully against each other.
func SameKind(a, b interface{}) bool {
	ra, rb := rank(Normalize(a)), rank(Normalize(b))
	return ra == rb && ra != rankMissing && ra != rankOther
}

const (
	rankMissing = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return rankMissing
	case bool:
		return rankBool
	case string:
		return rankString
	}
	if _, ok := ToFloat64(v); ok {
		return rankNumber
	}
	return rankOther
}

// Normalize maps values to the form they take once a document has been
// through its JSON encoding.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case uuid.UUID:
		return t.String()
	}
	return v
}

// ToFloat64 converts various numeric types to float64 for comparison
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
