package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// DateTimeLayout renders time.Time values in date-time conditions.
const DateTimeLayout = "2006-01-02 15:04:05"

// State selects how a condition matches: positively, negatively or with an
// explicit operator.
type State struct {
	negative bool
	op       string
}

// Positive and Negative are the boolean states.
var (
	Positive = State{}
	Negative = State{negative: true}
)

// Op returns a State comparing with operator op, e.g. "<" or "NOT IN".
func Op(op string) State {
	return State{op: strings.ToUpper(strings.TrimSpace(op))}
}

// IsOp reports whether s carries an explicit operator.
func (s State) IsOp() bool {
	return s.op != ""
}

// ConditionType decides what a builder does with its condition.
type ConditionType int

const (
	// And ANDs the condition onto the query's on-condition.
	And ConditionType = iota
	// Or ORs the condition onto the query's on-condition.
	Or
	// None only returns the condition.
	None
)

// Processor transforms a value before it is compared.
type Processor func(value any) any

// Compare builds "column op value" for a supported operator. A nil value
// with "=" or "IS" renders IS NULL; slices with "=" or "IN" render IN.
func Compare(column, op string, value any) (squirrel.Sqlizer, error) {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "=", "IN":
		return squirrel.Eq{column: value}, nil
	case "!=", "<>", "NOT IN":
		return squirrel.NotEq{column: value}, nil
	case "<":
		return squirrel.Lt{column: value}, nil
	case "<=":
		return squirrel.LtOrEq{column: value}, nil
	case ">":
		return squirrel.Gt{column: value}, nil
	case ">=":
		return squirrel.GtOrEq{column: value}, nil
	case "LIKE":
		return squirrel.Like{column: value}, nil
	case "NOT LIKE":
		return squirrel.NotLike{column: value}, nil
	case "IS":
		if value == nil {
			return squirrel.Eq{column: nil}, nil
		}
		return squirrel.Expr(column+" IS ?", value), nil
	case "IS NOT":
		if value == nil {
			return squirrel.NotEq{column: nil}, nil
		}
		return squirrel.Expr(column+" IS NOT ?", value), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedOperator, op)
}

func apply(q *Query, cond squirrel.Sqlizer, ct ConditionType) (squirrel.Sqlizer, error) {
	if q == nil {
		return cond, nil
	}
	switch ct {
	case And:
		q.AndOnCondition(cond)
	case Or:
		q.OrOnCondition(cond)
	}
	return cond, nil
}

// ByBooleanValue matches column = 1 (Positive) or column = 0 (Negative).
// An operator state compares the column with NULL, e.g. Op("IS").
func ByBooleanValue(q *Query, column string, state State, ct ConditionType) (squirrel.Sqlizer, error) {
	var cond squirrel.Sqlizer
	switch {
	case state.IsOp():
		c, err := Compare(column, state.op, nil)
		if err != nil {
			return nil, err
		}
		cond = c
	case state.negative:
		cond = squirrel.Eq{column: 0}
	default:
		cond = squirrel.Eq{column: 1}
	}
	return apply(q, cond, ct)
}

// ByDateTime matches a date-time column. A nil value tests for NULL;
// time.Time values are rendered with DateTimeLayout.
func ByDateTime(q *Query, column string, value any, state State, ct ConditionType) (squirrel.Sqlizer, error) {
	switch v := value.(type) {
	case time.Time:
		value = v.Format(DateTimeLayout)
	case *time.Time:
		if v == nil {
			value = nil
		} else {
			value = v.Format(DateTimeLayout)
		}
	}
	cond, err := scalar(column, value, state)
	if err != nil {
		return nil, err
	}
	return apply(q, cond, ct)
}

// ByStringValue matches a string column.
//   - nil: Positive matches NULL or empty, Negative matches neither.
//   - slice: each element is processed; Positive is IN, Negative NOT IN.
//   - scalar: the processed value is searched as a substring with LIKE.
func ByStringValue(q *Query, column string, value any, state State, process Processor, ct ConditionType) (squirrel.Sqlizer, error) {
	var cond squirrel.Sqlizer
	if values, ok := toSlice(value); ok {
		if process != nil {
			for i, v := range values {
				values[i] = process(v)
			}
		}
		c, err := list(column, values, state)
		if err != nil {
			return nil, err
		}
		cond = c
	} else {
		if value != nil && process != nil {
			value = process(value)
		}
		switch {
		case state.IsOp():
			c, err := Compare(column, state.op, value)
			if err != nil {
				return nil, err
			}
			cond = c
		case value == nil && state.negative:
			cond = squirrel.And{squirrel.NotEq{column: nil}, squirrel.NotEq{column: ""}}
		case value == nil:
			cond = squirrel.Or{squirrel.Eq{column: nil}, squirrel.Eq{column: ""}}
		case state.negative:
			cond = squirrel.Expr(column+` NOT LIKE ? ESCAPE '\'`, likePattern(value))
		default:
			cond = squirrel.Expr(column+` LIKE ? ESCAPE '\'`, likePattern(value))
		}
	}
	return apply(q, cond, ct)
}

// ByNumericValue matches a numeric column. For slices the processed values
// are appended to the originals, and a processor returning a slice adds
// every element.
func ByNumericValue(q *Query, column string, value any, state State, process Processor, ct ConditionType) (squirrel.Sqlizer, error) {
	var cond squirrel.Sqlizer
	if values, ok := toSlice(value); ok {
		if process != nil {
			for _, v := range values {
				p := process(v)
				if expanded, ok := toSlice(p); ok {
					values = append(values, expanded...)
				} else {
					values = append(values, p)
				}
			}
		}
		c, err := list(column, values, state)
		if err != nil {
			return nil, err
		}
		cond = c
	} else {
		if value != nil && process != nil {
			value = process(value)
		}
		c, err := scalar(column, value, state)
		if err != nil {
			return nil, err
		}
		cond = c
	}
	return apply(q, cond, ct)
}

// scalar builds equality style conditions; nil values test for NULL.
func scalar(column string, value any, state State) (squirrel.Sqlizer, error) {
	switch {
	case state.IsOp():
		return Compare(column, state.op, value)
	case state.negative:
		return squirrel.NotEq{column: value}, nil
	default:
		return squirrel.Eq{column: value}, nil
	}
}

func list(column string, values []any, state State) (squirrel.Sqlizer, error) {
	switch {
	case state.IsOp():
		return Compare(column, state.op, values)
	case state.negative:
		return squirrel.NotEq{column: values}, nil
	default:
		return squirrel.Eq{column: values}, nil
	}
}

// toSlice converts any slice or array except []byte to []any.
func toSlice(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if vs, ok := value.([]any); ok {
		return append([]any(nil), vs...), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(value any) string {
	return "%" + likeEscaper.Replace(fmt.Sprint(value)) + "%"
}
