package domain

import (
	"fmt"
	"reflect"
	"strings"
)

// Direction is the ordering applied to a sort field
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseDirection accepts asc/ascending and desc/descending (any case).
// An empty string yields the default, Descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "", "desc", "dsc", "descending":
		return Descending, nil
	default:
		return 0, fmt.Errorf("%w: unknown sort direction %q", ErrRange, s)
	}
}

// Sort describes how a read is ordered. An empty Field leaves the ordering
// to the store, which orders by IDField.
type Sort struct {
	Direction Direction
	Field     string
}

// NewSort creates a descending sort on field
func NewSort(field string) Sort {
	return Sort{Direction: Descending, Field: field}
}

// NewSortWithDirection creates a sort with an explicit direction
func NewSortWithDirection(direction Direction, field string) Sort {
	if direction != Ascending {
		direction = Descending
	}
	return Sort{Direction: direction, Field: field}
}

// Page describes an offset-based slice of a result set
type Page struct {
	Offset int
	Rows   int
}

// NewPage validates and creates page options
func NewPage(offset, rows int) (Page, error) {
	if rows <= 0 {
		return Page{}, fmt.Errorf("%w: rows per page must be greater than 0, got %d", ErrRange, rows)
	}
	if offset < 0 {
		return Page{}, fmt.Errorf("%w: page offset cannot be negative, got %d", ErrRange, offset)
	}
	return Page{Offset: offset, Rows: rows}, nil
}

// Validate re-checks the page invariants for values built without NewPage
func (p Page) Validate() error {
	_, err := NewPage(p.Offset, p.Rows)
	return err
}

// Operator selects the predicate a Filter applies
type Operator int

const (
	Equals Operator = iota
	GreaterThan
	LesserThan
	Within
)

var operatorNames = map[Operator]string{
	Equals:      "eq",
	GreaterThan: "gt",
	LesserThan:  "lt",
	Within:      "in",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// ParseOperator maps eq/gt/lt/in (and their long names) to an Operator
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eq", "equals":
		return Equals, nil
	case "gt", "greaterthan":
		return GreaterThan, nil
	case "lt", "lesserthan", "lessthan":
		return LesserThan, nil
	case "in", "within":
		return Within, nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, s)
	}
}

// Filter restricts a read to documents whose Field satisfies Operator
// against Value. Within expects a slice-valued Value.
type Filter struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// NewFilter creates a filter triple
func NewFilter(field string, op Operator, value interface{}) Filter {
	return Filter{Field: field, Operator: op, Value: value}
}

// Validate checks that the filter can be evaluated
func (f Filter) Validate() error {
	if f.Field == "" {
		return fmt.Errorf("%w: field cannot be empty", ErrInvalidFilter)
	}
	switch f.Operator {
	case Equals, GreaterThan, LesserThan:
		return nil
	case Within:
		_, err := f.Candidates()
		return err
	default:
		return fmt.Errorf("%w: unknown operator %d", ErrInvalidFilter, int(f.Operator))
	}
}

// Candidates returns the elements of a Within value
func (f Filter) Candidates() ([]interface{}, error) {
	if f.Value == nil {
		return nil, fmt.Errorf("%w: %s expects a list value", ErrInvalidFilter, f.Operator)
	}
	rv := reflect.ValueOf(f.Value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %s expects a list value, got %T", ErrInvalidFilter, f.Operator, f.Value)
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Matches evaluates the filter against a document. Strings compare without
// case; GreaterThan and LesserThan only match values of the same kind.
func (f Filter) Matches(doc Document) bool {
	actual := doc[f.Field]
	switch f.Operator {
	case Equals:
		return ValuesMatch(actual, f.Value)
	case GreaterThan, LesserThan:
		if !SameKind(actual, f.Value) {
			return false
		}
		cmp, ok := CompareValues(actual, f.Value)
		if !ok {
			return false
		}
		if f.Operator == GreaterThan {
			return cmp > 0
		}
		return cmp < 0
	case Within:
		candidates, err := f.Candidates()
		if err != nil {
			return false
		}
		for _, candidate := range candidates {
			if ValuesMatch(actual, candidate) {
				return true
			}
		}
	}
	return false
}

// PageQuery is a single read request handed to a Store
type PageQuery struct {
	Filter *Filter
	Sort   Sort
	Page   Page
}

// PagedResult holds one page of documents and the row count ignoring paging
type PagedResult[T any] struct {
	TotalRows int64 `json:"total_rows"`
	Results   []T   `json:"results"`
}
