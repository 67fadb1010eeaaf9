package filter

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// Compile turns spec into a Query against shape. Any field, sort key or include
// outside the shape's allow-list fails with InvalidFilter.
func Compile(spec Spec, shape Shape, limits Limits) (Query, error) {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = DefaultLimits.DefaultPageSize
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = DefaultLimits.MaxPageSize
	}

	q := Query{Include: map[string]bool{}}

	if term := strings.TrimSpace(spec.Search); term != "" && len(shape.SearchColumns) > 0 {
		q.Predicates = append(q.Predicates, Predicate{
			Columns: append([]string(nil), shape.SearchColumns...),
			Op:      OpContains,
			Value:   term,
		})
	}

	for _, name := range sortedKeys(spec.Equals) {
		pred, ok, err := compileEquals(shape, name, spec.Equals[name])
		if err != nil {
			return Query{}, err
		}
		if ok {
			q.Predicates = append(q.Predicates, pred)
		}
	}

	for _, name := range sortedKeys(spec.Ranges) {
		preds, err := compileRange(shape, name, spec.Ranges[name])
		if err != nil {
			return Query{}, err
		}
		q.Predicates = append(q.Predicates, preds...)
	}

	for _, name := range sortedKeys(spec.Flags) {
		pred, ok, err := compileFlag(shape, name, spec.Flags[name])
		if err != nil {
			return Query{}, err
		}
		if ok {
			q.Predicates = append(q.Predicates, pred)
		}
	}

	sortKeys, err := compileSort(shape, spec.SortBy, spec.SortDir)
	if err != nil {
		return Query{}, err
	}
	q.Sort = sortKeys

	for _, name := range spec.Include {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !contains(shape.Includes, name) {
			return Query{}, apperrors.NewInvalidFilter(name, fmt.Sprintf("%s has no related rows named %q", shape.Entity, name))
		}
		q.Include[name] = true
	}

	q.Page = spec.Page
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = spec.PageSize
	if q.PageSize < 1 {
		q.PageSize = limits.DefaultPageSize
	}
	if q.PageSize > limits.MaxPageSize {
		q.PageSize = limits.MaxPageSize
	}
	q.Limit = q.PageSize
	q.Offset = (q.Page - 1) * q.PageSize

	return q, nil
}

func lookup(shape Shape, name string) (Field, error) {
	field, ok := shape.Fields[name]
	if !ok {
		return Field{}, apperrors.NewInvalidFilter(name, fmt.Sprintf("%s cannot be filtered by %q", shape.Entity, name))
	}
	return field, nil
}

func compileEquals(shape Shape, name string, raw any) (Predicate, bool, error) {
	field, err := lookup(shape, name)
	if err != nil {
		return Predicate{}, false, err
	}
	if isNil(raw) {
		return Predicate{}, false, nil
	}
	if field.Kind.flag() {
		return Predicate{}, false, apperrors.NewInvalidFilter(name, "use a boolean flag for this field")
	}
	value, err := coerce(field, name, raw)
	if err != nil {
		return Predicate{}, false, err
	}
	return Predicate{Columns: []string{field.Column}, Op: OpEq, Value: value}, true, nil
}

func compileRange(shape Shape, name string, r Range) ([]Predicate, error) {
	field, err := lookup(shape, name)
	if err != nil {
		return nil, err
	}
	if !field.Kind.rangeable() {
		return nil, apperrors.NewInvalidFilter(name, fmt.Sprintf("%s field does not support ranges", field.Kind))
	}

	var preds []Predicate
	var lo, hi any
	if !isNil(r.Min) {
		if lo, err = coerce(field, name, r.Min); err != nil {
			return nil, err
		}
		preds = append(preds, Predicate{Columns: []string{field.Column}, Op: OpGte, Value: lo})
	}
	if !isNil(r.Max) {
		if field.Kind == KindTime {
			hi, err = coerceTime(name, r.Max, true)
		} else {
			hi, err = coerce(field, name, r.Max)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, Predicate{Columns: []string{field.Column}, Op: OpLte, Value: hi})
	}
	if lo != nil && hi != nil && compareValues(lo, hi) > 0 {
		return nil, apperrors.NewInvalidFilter(name, "range minimum exceeds maximum")
	}
	return preds, nil
}

func compileFlag(shape Shape, name string, raw any) (Predicate, bool, error) {
	field, err := lookup(shape, name)
	if err != nil {
		return Predicate{}, false, err
	}
	if !field.Kind.flag() {
		return Predicate{}, false, apperrors.NewInvalidFilter(name, "not a boolean flag")
	}
	if isNil(raw) {
		return Predicate{}, false, nil
	}
	b, err := coerceBool(name, raw)
	if err != nil {
		return Predicate{}, false, err
	}
	if field.Kind == KindPresence {
		op := OpIsNull
		if b {
			op = OpNotNull
		}
		return Predicate{Columns: []string{field.Column}, Op: op}, true, nil
	}
	return Predicate{Columns: []string{field.Column}, Op: OpEq, Value: b}, true, nil
}

func compileSort(shape Shape, by, dir string) ([]SortKey, error) {
	by = strings.TrimSpace(by)
	direction := Asc
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "":
		if by == "" {
			direction = Desc
		}
	case "asc":
	case "desc":
		direction = Desc
	default:
		return nil, apperrors.NewInvalidFilter("sort_dir", fmt.Sprintf("unknown direction %q", dir))
	}

	column := defaultSortColumn
	if by != "" {
		field, ok := shape.Fields[by]
		if !ok || !field.Sortable {
			return nil, apperrors.NewInvalidFilter(by, fmt.Sprintf("%s cannot be sorted by %q", shape.Entity, by))
		}
		column = field.Column
	}

	keys := []SortKey{{Column: column, Direction: direction}}
	if column != tieBreakColumn {
		keys = append(keys, SortKey{Column: tieBreakColumn, Direction: Asc})
	}
	return keys, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
