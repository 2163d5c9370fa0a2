package sqlstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/zeebo/xxh3"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// never matches; squirrel renders an empty Or the same way
var matchNothing = squirrel.Expr("(1=0)")

// sqlBuilder wraps squirrel to provide safe SQL generation
type sqlBuilder struct {
	sq squirrel.StatementBuilderType
}

func newSQLBuilder() *sqlBuilder {
	return &sqlBuilder{
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// column describes how a document field is read in SQL: its value and its
// JSON type name
type column struct {
	value string
	kind  string
}

// fieldColumn maps a document field onto SQL. Field names are embedded in
// the statement text, so only plain identifiers are accepted.
func fieldColumn(field string) (column, error) {
	if field == domain.IDField {
		return column{value: "id", kind: "'text'"}, nil
	}
	if !fieldNamePattern.MatchString(field) {
		return column{}, fmt.Errorf("%w: field %q must contain only alphanumeric characters and underscores", domain.ErrInvalidFilter, field)
	}
	return column{
		value: fmt.Sprintf("json_extract(data, '$.%s')", field),
		kind:  fmt.Sprintf("json_type(data, '$.%s')", field),
	}, nil
}

// equals matches the field against a single value the way
// domain.ValuesMatch does
func (c column) equals(value interface{}) squirrel.Sqlizer {
	value = domain.Normalize(value)
	switch v := value.(type) {
	case nil:
		return squirrel.Expr(fmt.Sprintf("(%s IS NULL OR %s = 'null')", c.kind, c.kind))
	case string:
		return squirrel.Expr(fmt.Sprintf("(%s = 'text' AND %s = ? COLLATE NOCASE)", c.kind, c.value), v)
	case bool:
		if v {
			return squirrel.Expr(fmt.Sprintf("%s = 'true'", c.kind))
		}
		return squirrel.Expr(fmt.Sprintf("%s = 'false'", c.kind))
	}
	if f, ok := domain.ToFloat64(value); ok {
		return squirrel.Expr(fmt.Sprintf("(%s IN ('integer', 'real') AND %s = ?)", c.kind, c.value), f)
	}
	return matchNothing
}

// compare matches values of the same kind that order before or after value
func (c column) compare(op string, value interface{}) squirrel.Sqlizer {
	value = domain.Normalize(value)
	switch v := value.(type) {
	case string:
		return squirrel.Expr(fmt.Sprintf("(%s = 'text' AND %s %s ? COLLATE NOCASE)", c.kind, c.value, op), v)
	case bool:
		b := 0
		if v {
			b = 1
		}
		return squirrel.Expr(fmt.Sprintf("(%s IN ('true', 'false') AND %s %s ?)", c.kind, c.value, op), b)
	}
	if f, ok := domain.ToFloat64(value); ok {
		return squirrel.Expr(fmt.Sprintf("(%s IN ('integer', 'real') AND %s %s ?)", c.kind, c.value, op), f)
	}
	return matchNothing
}

// buildPredicate translates a filter into a WHERE clause
func buildPredicate(filter domain.Filter) (squirrel.Sqlizer, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	col, err := fieldColumn(filter.Field)
	if err != nil {
		return nil, err
	}

	switch filter.Operator {
	case domain.Equals:
		return col.equals(filter.Value), nil
	case domain.GreaterThan:
		return col.compare(">", filter.Value), nil
	case domain.LesserThan:
		return col.compare("<", filter.Value), nil
	case domain.Within:
		candidates, err := filter.Candidates()
		if err != nil {
			return nil, err
		}
		or := squirrel.Or{}
		for _, candidate := range candidates {
			or = append(or, col.equals(candidate))
		}
		return or, nil
	}
	return nil, fmt.Errorf("%w: unknown operator %d", domain.ErrInvalidFilter, int(filter.Operator))
}

// orderBy renders the ORDER BY terms for a sort. Ties fall back to the id
// in ascending order.
func orderBy(order domain.Sort) ([]string, error) {
	field := order.Field
	if field == "" {
		field = domain.IDField
	}
	col, err := fieldColumn(field)
	if err != nil {
		return nil, err
	}
	direction := "DESC"
	if order.Direction == domain.Ascending {
		direction = "ASC"
	}
	return []string{
		fmt.Sprintf("%s COLLATE NOCASE %s", col.value, direction),
		"id ASC",
	}, nil
}

// buildWhere combines the collection scope with an optional filter
func buildWhere(collection string, filter *domain.Filter) (squirrel.Sqlizer, error) {
	where := squirrel.And{squirrel.Eq{"collection": collection}}
	if filter != nil {
		predicate, err := buildPredicate(*filter)
		if err != nil {
			return nil, err
		}
		where = append(where, predicate)
	}
	return where, nil
}

func (b *sqlBuilder) buildSelect(where squirrel.Sqlizer, orderBy []string, limit, offset uint64) (string, []interface{}, error) {
	query := b.sq.Select("data").From("documents").Where(where).OrderBy(orderBy...)
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	return query.ToSql()
}

func (b *sqlBuilder) buildSelectCount(where squirrel.Sqlizer) (string, []interface{}, error) {
	return b.sq.Select("COUNT(*)").From("documents").Where(where).ToSql()
}

// buildUpsert builds a multi-row INSERT that replaces existing documents
func (b *sqlBuilder) buildUpsert(collection string, ids []string, data [][]byte) (string, []interface{}, error) {
	if len(ids) == 0 {
		return "", nil, fmt.Errorf("no documents specified for upsert")
	}
	if len(ids) != len(data) {
		return "", nil, fmt.Errorf("id count (%d) does not match document count (%d)", len(ids), len(data))
	}
	insert := b.sq.Insert("documents").Columns("collection", "id", "data")
	for i := range ids {
		insert = insert.Values(collection, ids[i], string(data[i]))
	}
	insert = insert.Suffix("ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data")
	return insert.ToSql()
}

func (b *sqlBuilder) buildDelete(condition squirrel.Eq) (string, []interface{}, error) {
	if len(condition) == 0 {
		return "", nil, fmt.Errorf("no condition specified for delete")
	}
	return b.sq.Delete("documents").Where(condition).ToSql()
}

// indexName derives a stable SQL identifier for an index on a field of a
// collection
func indexName(collection, field string) string {
	return fmt.Sprintf("idx_doc_%016x", xxh3.HashString(collection+"\x00"+field))
}

// buildCreateIndex builds the expression index for a field. Unique indexes
// are partial indexes limited to the collection, which has to be spelled out
// as a literal.
func buildCreateIndex(collection, field string, unique bool) (string, error) {
	col, err := fieldColumn(field)
	if err != nil {
		return "", err
	}
	name := indexName(collection, field)
	if !unique {
		return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON documents(collection, %s COLLATE NOCASE)", name, col.value), nil
	}
	literal := "'" + strings.ReplaceAll(collection, "'", "''") + "'"
	return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON documents(%s COLLATE NOCASE) WHERE collection = %s",
		name, col.value, literal), nil
}
