// Package query wraps squirrel select builders with a table alias and
// provides condition builders for boolean, date-time, string and numeric
// columns.
package query

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/recordkit/pkg/identifier"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// aliasCharset keeps generated aliases valid unquoted SQL identifiers.
const aliasCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AliasLength is the length of generated aliases.
const AliasLength = 6

// Query is a SELECT over one aliased table. Conditions added with
// AndOnCondition and OrOnCondition are folded into a single expression in
// call order; Where adds independent predicates that are always ANDed.
type Query struct {
	table   string
	alias   string
	columns []string
	on      squirrel.Sqlizer
	where   []squirrel.Sqlizer
	limit   uint64
	orderBy []string

	// Creator generates aliases. Nil uses a default Creator.
	Creator *identifier.Creator
}

// New returns a Query over table.
func New(table string) *Query {
	return &Query{table: table}
}

// Table returns the queried table.
func (q *Query) Table() string {
	return q.table
}

// Alias sets the table alias. An empty alias is replaced by a random one.
func (q *Query) Alias(alias string) (*Query, error) {
	if alias == "" {
		c := q.Creator
		if c == nil {
			c = &identifier.Creator{}
		}
		generated, err := c.GenerateFromCharset(aliasCharset, AliasLength)
		if err != nil {
			return q, fmt.Errorf("generate alias: %w", err)
		}
		alias = generated
	}
	q.alias = alias
	return q, nil
}

// AliasName returns the current alias, or "" when none is set.
func (q *Query) AliasName() string {
	return q.alias
}

// ColumnName qualifies column with the alias, or with the table name while
// no alias is set.
func (q *Query) ColumnName(column string) string {
	if q.alias == "" {
		return q.table + "." + column
	}
	return q.alias + "." + column
}

// Select sets the selected columns. The default is every column.
func (q *Query) Select(columns ...string) *Query {
	q.columns = columns
	return q
}

// AndOnCondition ANDs cond onto the accumulated on-condition.
func (q *Query) AndOnCondition(cond squirrel.Sqlizer) *Query {
	if q.on == nil {
		q.on = cond
	} else {
		q.on = squirrel.And{q.on, cond}
	}
	return q
}

// OrOnCondition ORs cond onto the accumulated on-condition.
func (q *Query) OrOnCondition(cond squirrel.Sqlizer) *Query {
	if q.on == nil {
		q.on = cond
	} else {
		q.on = squirrel.Or{q.on, cond}
	}
	return q
}

// Where adds a predicate. pred may be a squirrel.Sqlizer, a map or a SQL
// string with args. A nil pred is ignored. Any other type makes ToSql fail
// with ErrInvalidPredicate.
func (q *Query) Where(pred any, args ...any) *Query {
	switch p := pred.(type) {
	case nil:
	case squirrel.Sqlizer:
		q.where = append(q.where, p)
	case string:
		q.where = append(q.where, squirrel.Expr(p, args...))
	case map[string]any:
		q.where = append(q.where, squirrel.Eq(p))
	default:
		q.where = append(q.where, invalidPredicate{pred: pred})
	}
	return q
}

// invalidPredicate defers a Where type error to ToSql.
type invalidPredicate struct{ pred any }

func (p invalidPredicate) ToSql() (string, []any, error) {
	return "", nil, fmt.Errorf("%w: got %T", types.ErrInvalidPredicate, p.pred)
}

// OrderBy adds ORDER BY clauses.
func (q *Query) OrderBy(clauses ...string) *Query {
	q.orderBy = append(q.orderBy, clauses...)
	return q
}

// Limit caps the number of rows.
func (q *Query) Limit(n uint64) *Query {
	q.limit = n
	return q
}

// Builder returns the squirrel builder for the query.
func (q *Query) Builder() squirrel.SelectBuilder {
	columns := q.columns
	if len(columns) == 0 {
		if q.alias != "" {
			columns = []string{q.alias + ".*"}
		} else {
			columns = []string{"*"}
		}
	}
	from := q.table
	if q.alias != "" {
		from += " " + q.alias
	}
	b := squirrel.Select(columns...).From(from)
	if q.on != nil {
		b = b.Where(q.on)
	}
	for _, w := range q.where {
		b = b.Where(w)
	}
	if len(q.orderBy) > 0 {
		b = b.OrderBy(q.orderBy...)
	}
	if q.limit > 0 {
		b = b.Limit(q.limit)
	}
	return b
}

// ToSql renders the query.
func (q *Query) ToSql() (string, []any, error) {
	return q.Builder().ToSql()
}

// Exists reports whether the query matches at least one row.
func (q *Query) Exists(runner squirrel.BaseRunner) (bool, error) {
	sub := q.Builder().RemoveColumns().Columns("1").Limit(1)
	var exists bool
	err := squirrel.Select().
		Column(squirrel.Expr("EXISTS(?)", sub)).
		RunWith(runner).
		QueryRow().
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return exists, nil
}
