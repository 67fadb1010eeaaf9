package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/filter"
)

func TestWhereClause_Operators(t *testing.T) {
	t.Parallel()

	ceiling := decimal.RequireFromString("100")
	preds := []filter.Predicate{
		{Columns: []string{"status"}, Op: filter.OpEq, Value: "CANCELLED"},
		{Columns: []string{"total_amount"}, Op: filter.OpLte, Value: ceiling},
		{Columns: []string{"notes", "subject"}, Op: filter.OpContains, Value: "50%_Off"},
		{Columns: []string{"delivered_at"}, Op: filter.OpNotNull},
	}

	where, args := whereClause(preds, nil)
	assert.Equal(t,
		`1=1 AND status = $1 AND total_amount <= $2 AND (LOWER(notes) LIKE $3 OR LOWER(subject) LIKE $3) AND delivered_at IS NOT NULL`,
		where)
	require.Len(t, args, 3)
	assert.Equal(t, "CANCELLED", args[0])
	assert.Equal(t, ceiling, args[1])
	assert.Equal(t, `%50\%\_off%`, args[2])
}

func TestListStatements_PageAndCount(t *testing.T) {
	t.Parallel()

	q := filter.Query{
		Predicates: []filter.Predicate{{Columns: []string{"status"}, Op: filter.OpEq, Value: "CANCELLED"}},
		Sort:       []filter.SortKey{{Column: "created_at", Direction: filter.Desc}, {Column: "id", Direction: filter.Asc}},
		Limit:      5,
		Offset:     5,
	}

	page, count, args := listStatements("id, status", "orders", q)
	assert.Equal(t, `SELECT id, status FROM orders WHERE 1=1 AND status = $1 ORDER BY created_at DESC, id ASC LIMIT 5 OFFSET 5`, page)
	assert.Equal(t, `SELECT COUNT(*) FROM orders WHERE 1=1 AND status = $1`, count)
	assert.Equal(t, []any{"CANCELLED"}, args)
}
