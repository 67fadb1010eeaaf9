package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/shop-portal/internal/filter"
)

// ErrVersionConflict signals that the row changed since it was read.
var ErrVersionConflict = errors.New("version conflict")

// likeEscaper escapes LIKE wildcards so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders compiled predicates as a parameterised WHERE body.
// Column names come from entity shapes, never from caller input.
func whereClause(preds []filter.Predicate, args []any) (string, []any) {
	clauses := []string{"1=1"}

	for _, p := range preds {
		switch p.Op {
		case filter.OpContains:
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(p.Value.(string)))+"%")
			placeholder := fmt.Sprintf("$%d", len(args))
			ors := make([]string, 0, len(p.Columns))
			for _, column := range p.Columns {
				ors = append(ors, fmt.Sprintf("LOWER(%s) LIKE %s", column, placeholder))
			}
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		case filter.OpIsNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", p.Columns[0]))
		case filter.OpNotNull:
			clauses = append(clauses, fmt.Sprintf("%s IS NOT NULL", p.Columns[0]))
		case filter.OpEq:
			args = append(args, p.Value)
			clauses = append(clauses, fmt.Sprintf("%s = $%d", p.Columns[0], len(args)))
		case filter.OpGte:
			args = append(args, p.Value)
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", p.Columns[0], len(args)))
		case filter.OpLte:
			args = append(args, p.Value)
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", p.Columns[0], len(args)))
		}
	}

	return strings.Join(clauses, " AND "), args
}

func orderClause(keys []filter.SortKey) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key.Column, key.Direction))
	}
	if len(parts) == 0 {
		return "id ASC"
	}
	return strings.Join(parts, ", ")
}

// listStatements builds the page and count statements for one table.
func listStatements(columns, table string, q filter.Query) (string, string, []any) {
	where, args := whereClause(q.Predicates, nil)
	count := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where)
	page := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		columns, table, where, orderClause(q.Sort), q.Limit, q.Offset)
	return page, count, args
}
