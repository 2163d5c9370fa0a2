package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

const defaultRows = 20

// parseValue converts a query parameter the way the filter should compare
// it: numbers and booleans are typed, anything else stays a string.
func parseValue(value string) interface{} {
	if num, err := strconv.ParseInt(value, 10, 64); err == nil {
		return num
	}
	if num, err := strconv.ParseFloat(value, 64); err == nil {
		return num
	}
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

// parseFilter reads field, op and value. It returns nil when no field is
// given. Within takes a comma separated value list.
func parseFilter(query url.Values) (*domain.Filter, error) {
	field := query.Get("field")
	if field == "" {
		return nil, nil
	}

	op := domain.Equals
	if raw := query.Get("op"); raw != "" {
		parsed, err := domain.ParseOperator(raw)
		if err != nil {
			return nil, err
		}
		op = parsed
	}

	raw := query.Get("value")
	var value interface{} = parseValue(raw)
	if op == domain.Within {
		values := []interface{}{}
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, parseValue(part))
			}
		}
		value = values
	}

	filter := domain.NewFilter(field, op, value)
	return &filter, nil
}

func parseInt(query url.Values, key string, def int) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got '%s'", domain.ErrRange, key, raw)
	}
	return n, nil
}

// parsePage reads offset and rows, defaulting to the first page
func parsePage(query url.Values) (domain.Page, error) {
	offset, err := parseInt(query, "offset", 0)
	if err != nil {
		return domain.Page{}, err
	}
	rows, err := parseInt(query, "rows", defaultRows)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.NewPage(offset, rows)
}

// parseSort reads sort and dir. Without dir the sort is descending.
func parseSort(query url.Values) (domain.Sort, error) {
	direction, err := domain.ParseDirection(query.Get("dir"))
	if err != nil {
		return domain.Sort{}, err
	}
	return domain.NewSortWithDirection(direction, query.Get("sort")), nil
}
