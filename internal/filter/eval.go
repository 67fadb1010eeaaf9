package filter

import (
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row exposes column values of one record for in-process evaluation.
type Row interface {
	Column(name string) any
}

// Matches reports whether row satisfies every predicate of q.
func (q Query) Matches(row Row) bool {
	for _, p := range q.Predicates {
		if !p.Matches(row) {
			return false
		}
	}
	return true
}

// Matches evaluates p against row with SQL semantics: a NULL column never
// satisfies a comparison.
func (p Predicate) Matches(row Row) bool {
	switch p.Op {
	case OpContains:
		term := strings.ToLower(p.Value.(string))
		for _, column := range p.Columns {
			if s, ok := normalize(row.Column(column)).(string); ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	case OpIsNull:
		return normalize(row.Column(p.Columns[0])) == nil
	case OpNotNull:
		return normalize(row.Column(p.Columns[0])) != nil
	}

	v := normalize(row.Column(p.Columns[0]))
	if v == nil {
		return false
	}
	c := compareValues(v, p.Value)
	switch p.Op {
	case OpEq:
		return c == 0
	case OpGte:
		return c >= 0
	case OpLte:
		return c <= 0
	}
	return false
}

// Less orders a before b by q.Sort. NULLs sort last ascending and first
// descending, matching Postgres defaults.
func (q Query) Less(a, b Row) bool {
	for _, key := range q.Sort {
		av := normalize(a.Column(key.Column))
		bv := normalize(b.Column(key.Column))
		c := compareNullable(av, bv)
		if c == 0 {
			continue
		}
		if key.Direction == Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compareNullable(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return compareValues(a, b)
}

// normalize unwraps pointers and nullable wrappers; absent values become nil.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return *t
	case decimal.NullDecimal:
		if !t.Valid {
			return nil
		}
		return t.Decimal
	case *bool:
		if t == nil {
			return nil
		}
		return *t
	case string:
		return t
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String()
	}
	return v
}

func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Cmp(bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	return 0
}
