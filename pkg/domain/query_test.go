package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		rows   int
		err    bool
	}{
		{name: "first page", offset: 0, rows: 10},
		{name: "deep offset", offset: 1000, rows: 1},
		{name: "negative offset", offset: -1, rows: 10, err: true},
		{name: "zero rows", offset: 0, rows: 0, err: true},
		{name: "negative rows", offset: 0, rows: -5, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NewPage(tt.offset, tt.rows)
			if tt.err {
				assert.ErrorIs(t, err, ErrRange)
				assert.ErrorIs(t, Page{Offset: tt.offset, Rows: tt.rows}.Validate(), ErrRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Page{Offset: tt.offset, Rows: tt.rows}, page)
		})
	}
}

func TestParseDirection(t *testing.T) {
	for input, expected := range map[string]Direction{
		"":           Descending,
		"desc":       Descending,
		"DESCENDING": Descending,
		"asc":        Ascending,
		" Ascending": Ascending,
	} {
		got, err := ParseDirection(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	_, err := ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrRange)
}

func TestNewSort(t *testing.T) {
	assert.Equal(t, Sort{Direction: Descending, Field: "age"}, NewSort("age"))
	assert.Equal(t, Sort{Direction: Ascending, Field: "age"}, NewSortWithDirection(Ascending, "age"))
	assert.Equal(t, Descending, NewSortWithDirection(Direction(7), "age").Direction)
	assert.Equal(t, "asc", Ascending.String())
	assert.Equal(t, "desc", Descending.String())
}

func TestParseOperator(t *testing.T) {
	for input, expected := range map[string]Operator{
		"":            Equals,
		"eq":          Equals,
		"GT":          GreaterThan,
		"lesserthan":  LesserThan,
		"in":          Within,
		"Within":      Within,
		"greaterThan": GreaterThan,
	} {
		got, err := ParseOperator(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
		assert.Equal(t, operatorNames[expected], got.String())
	}

	_, err := ParseOperator("like")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Equal(t, "operator(9)", Operator(9).String())
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		valid  bool
	}{
		{name: "equals", filter: NewFilter("name", Equals, "x"), valid: true},
		{name: "equals nil", filter: NewFilter("name", Equals, nil), valid: true},
		{name: "within slice", filter: NewFilter("age", Within, []int{1, 2}), valid: true},
		{name: "within array", filter: NewFilter("age", Within, [2]string{"a", "b"}), valid: true},
		{name: "within empty slice", filter: NewFilter("age", Within, []interface{}{}), valid: true},
		{name: "within scalar", filter: NewFilter("age", Within, 3)},
		{name: "within nil", filter: NewFilter("age", Within, nil)},
		{name: "empty field", filter: NewFilter("", Equals, 1)},
		{name: "unknown operator", filter: NewFilter("age", Operator(42), 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidFilter)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	doc := Document{
		"_id":    "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		"name":   "Alice",
		"age":    float64(30),
		"active": true,
		"tags":   []interface{}{"a"},
	}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{name: "equals ignores case", filter: NewFilter("name", Equals, "alice"), expected: true},
		{name: "equals across numeric types", filter: NewFilter("age", Equals, 30), expected: true},
		{name: "equals bool", filter: NewFilter("active", Equals, true), expected: true},
		{name: "equals nil matches missing", filter: NewFilter("missing", Equals, nil), expected: true},
		{name: "equals nil on present field", filter: NewFilter("name", Equals, nil), expected: false},
		{name: "string does not equal number", filter: NewFilter("age", Equals, "30"), expected: false},
		{name: "greater than", filter: NewFilter("age", GreaterThan, int64(29)), expected: true},
		{name: "greater than equal value", filter: NewFilter("age", GreaterThan, 30), expected: false},
		{name: "lesser than", filter: NewFilter("age", LesserThan, 31.5), expected: true},
		{name: "greater than string", filter: NewFilter("name", GreaterThan, "AARON"), expected: true},
		{name: "compare ignores other kinds", filter: NewFilter("name", GreaterThan, 1), expected: false},
		{name: "compare ignores missing", filter: NewFilter("missing", LesserThan, 1), expected: false},
		{name: "compare ignores lists", filter: NewFilter("tags", LesserThan, []interface{}{"b"}), expected: false},
		{name: "within", filter: NewFilter("name", Within, []string{"bob", "ALICE"}), expected: true},
		{name: "within no match", filter: NewFilter("name", Within, []string{"bob"}), expected: false},
		{name: "within scalar never matches", filter: NewFilter("name", Within, "Alice"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(doc))
		})
	}
}
