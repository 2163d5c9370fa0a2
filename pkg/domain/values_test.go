package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValuesMatch(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
		match    bool
	}{
		{name: "both nil", actual: nil, expected: nil, match: true},
		{name: "one nil", actual: "x", expected: nil, match: false},
		{name: "strings fold case", actual: "New York", expected: "new york", match: true},
		{name: "int and float", actual: float64(3), expected: 3, match: true},
		{name: "uint and int64", actual: uint8(7), expected: int64(7), match: true},
		{name: "different numbers", actual: 3, expected: 4, match: false},
		{name: "bools", actual: false, expected: false, match: true},
		{name: "bool and number", actual: true, expected: 1, match: false},
		{name: "uuid and its string", actual: id.String(), expected: id, match: true},
		{name: "time and its string", actual: "2024-01-02T03:04:05Z", expected: at, match: true},
		{name: "maps never match", actual: map[string]interface{}{}, expected: map[string]interface{}{}, match: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, ValuesMatch(tt.actual, tt.expected))
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		cmp  int
		ok   bool
	}{
		{name: "numbers", a: 1, b: 2.5, cmp: -1, ok: true},
		{name: "equal numbers", a: int32(2), b: float64(2), cmp: 0, ok: true},
		{name: "strings without case", a: "b", b: "A", cmp: 1, ok: true},
		{name: "false before true", a: false, b: true, cmp: -1, ok: true},
		{name: "missing first", a: nil, b: false, cmp: -1, ok: true},
		{name: "bool before number", a: true, b: -100, cmp: -1, ok: true},
		{name: "number before string", a: 1e9, b: "0", cmp: -1, ok: true},
		{name: "string before other", a: "z", b: []interface{}{}, cmp: -1, ok: true},
		{name: "two missing", a: nil, b: nil, cmp: 0, ok: true},
		{name: "two lists", a: []interface{}{1}, b: []interface{}{2}, cmp: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, ok := CompareValues(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.cmp, cmp)

			if ok {
				reverse, _ := CompareValues(tt.b, tt.a)
				assert.Equal(t, -tt.cmp, reverse)
			}
		})
	}
}

func TestSameKind(t *testing.T) {
	assert.True(t, SameKind(1, 2.5))
	assert.True(t, SameKind("a", uuid.New()))
	assert.True(t, SameKind(true, false))
	assert.False(t, SameKind(1, "1"))
	assert.False(t, SameKind(nil, nil))
	assert.False(t, SameKind(map[string]interface{}{}, map[string]interface{}{}))
}

func TestToFloat64(t *testing.T) {
	for _, v := range []interface{}{int(4), int8(4), int16(4), int32(4), int64(4), uint(4), uint8(4), uint16(4), uint32(4), uint64(4), float32(4), float64(4)} {
		f, ok := ToFloat64(v)
		assert.True(t, ok)
		assert.Equal(t, float64(4), f)
	}
	_, ok := ToFloat64("4")
	assert.False(t, ok)
}
