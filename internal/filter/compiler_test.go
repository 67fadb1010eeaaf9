package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

var testShape = Shape{
	Entity: "order",
	Fields: map[string]Field{
		"status":      {Column: "status", Kind: KindEnum, Values: []string{"PENDING", "CANCELLED"}, Sortable: true},
		"customer_id": {Column: "customer_id", Kind: KindString},
		"total":       {Column: "total_amount", Kind: KindDecimal, Sortable: true},
		"created_at":  {Column: "created_at", Kind: KindTime, Sortable: true},
		"delivered":   {Column: "delivered_at", Kind: KindPresence},
		"rush":        {Column: "rush", Kind: KindBool},
		"notes":       {Column: "notes", Kind: KindString},
	},
	SearchColumns: []string{"notes"},
	Includes:      []string{"items"},
}

func TestCompile_Defaults(t *testing.T) {
	t.Parallel()

	q, err := Compile(Spec{}, testShape, Limits{})
	require.NoError(t, err)

	assert.Empty(t, q.Predicates, "absent fields must not produce predicates")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.PageSize)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 10, q.Limit)
	want := []SortKey{{Column: "created_at", Direction: Desc}, {Column: "id", Direction: Asc}}
	if diff := cmp.Diff(want, q.Sort); diff != "" {
		t.Fatalf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_Pagination(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		page, size   int
		wantOffset   int
		wantPageSize int
	}{
		{"second page", 2, 5, 5, 5},
		{"third page default size", 3, 0, 20, 10},
		{"clamped", 1, 5000, 0, 100},
		{"clamped offset", 2, 5000, 100, 100},
		{"negative page treated as first", -4, 10, 0, 10},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			q, err := Compile(Spec{Page: testCase.page, PageSize: testCase.size}, testShape, DefaultLimits)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantOffset, q.Offset)
			assert.Equal(t, testCase.wantPageSize, q.Limit)
		})
	}
}

func TestCompile_SearchExpandsToContains(t *testing.T) {
	t.Parallel()

	q, err := Compile(Spec{Search: "  Bracket "}, testShape, DefaultLimits)
	require.NoError(t, err)
	require.Len(t, q.Predicates, 1)
	assert.Equal(t, Predicate{Columns: []string{"notes"}, Op: OpContains, Value: "Bracket"}, q.Predicates[0])
}

func TestCompile_RangeSingleBound(t *testing.T) {
	t.Parallel()

	q, err := Compile(Spec{Ranges: map[string]Range{"total": {Max: "100.50"}}}, testShape, DefaultLimits)
	require.NoError(t, err)
	require.Len(t, q.Predicates, 1)
	assert.Equal(t, OpLte, q.Predicates[0].Op)
	assert.True(t, q.Predicates[0].Value.(decimal.Decimal).Equal(decimal.RequireFromString("100.5")))
}

func TestCompile_RangeBothBounds(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q, err := Compile(Spec{Ranges: map[string]Range{"created_at": {Min: &from, Max: "2026-02-01"}}}, testShape, DefaultLimits)
	require.NoError(t, err)
	require.Len(t, q.Predicates, 2)
	assert.Equal(t, OpGte, q.Predicates[0].Op)
	assert.Equal(t, OpLte, q.Predicates[1].Op)
}

func TestCompile_FlagsAcceptStrings(t *testing.T) {
	t.Parallel()

	for _, raw := range []any{true, "true", " true "} {
		q, err := Compile(Spec{Flags: map[string]any{"rush": raw, "delivered": raw}}, testShape, DefaultLimits)
		require.NoError(t, err)
		require.Len(t, q.Predicates, 2)
		assert.Equal(t, Predicate{Columns: []string{"delivered_at"}, Op: OpNotNull}, q.Predicates[0])
		assert.Equal(t, Predicate{Columns: []string{"rush"}, Op: OpEq, Value: true}, q.Predicates[1])
	}

	q, err := Compile(Spec{Flags: map[string]any{"delivered": "false"}}, testShape, DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, OpIsNull, q.Predicates[0].Op)
}

func TestCompile_FlagsRejectOtherBooleanSpellings(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"TRUE", "True", "1", "0", "t", "f", "yes"} {
		_, err := Compile(Spec{Flags: map[string]any{"rush": raw}}, testShape, DefaultLimits)
		require.ErrorIs(t, err, apperrors.ErrInvalidFilter, raw)
	}
}

func TestCompile_DateOnlyUpperBoundCoversWholeDay(t *testing.T) {
	t.Parallel()

	q, err := Compile(Spec{Ranges: map[string]Range{"created_at": {Min: "2024-01-05", Max: "2024-01-05"}}}, testShape, DefaultLimits)
	require.NoError(t, err)
	require.Len(t, q.Predicates, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), q.Predicates[0].Value)
	assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 999999999, time.UTC), q.Predicates[1].Value)

	late := mapRow{"created_at": time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC)}
	assert.True(t, q.Matches(late))
	next := mapRow{"created_at": time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)}
	assert.False(t, q.Matches(next))

	q, err = Compile(Spec{Ranges: map[string]Range{"created_at": {Max: "2024-01-05T00:00:00Z"}}}, testShape, DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), q.Predicates[0].Value)
}

func TestCompile_NilOptionalValuesOmitted(t *testing.T) {
	t.Parallel()

	var status *string
	q, err := Compile(Spec{
		Equals: map[string]any{"status": status, "customer_id": ""},
		Ranges: map[string]Range{"total": {}},
		Flags:  map[string]any{"rush": nil},
	}, testShape, DefaultLimits)
	require.NoError(t, err)
	assert.Empty(t, q.Predicates)
}

func TestCompile_InvalidFilters(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		spec      Spec
		wantField string
	}{
		{"unknown sort", Spec{SortBy: "password"}, "password"},
		{"non-sortable field", Spec{SortBy: "customer_id"}, "customer_id"},
		{"bad direction", Spec{SortBy: "total", SortDir: "sideways"}, "sort_dir"},
		{"unknown equality field", Spec{Equals: map[string]any{"owner": "x"}}, "owner"},
		{"enum outside set", Spec{Equals: map[string]any{"status": "LOST"}}, "status"},
		{"range on text", Spec{Ranges: map[string]Range{"notes": {Min: "a"}}}, "notes"},
		{"inverted range", Spec{Ranges: map[string]Range{"total": {Min: "10", Max: "5"}}}, "total"},
		{"non numeric bound", Spec{Ranges: map[string]Range{"total": {Min: "ten"}}}, "total"},
		{"flag on non flag", Spec{Flags: map[string]any{"status": true}}, "status"},
		{"flag not boolean", Spec{Flags: map[string]any{"rush": "yes"}}, "rush"},
		{"unknown include", Spec{Include: []string{"payments"}}, "payments"},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := Compile(testCase.spec, testShape, DefaultLimits)
			require.ErrorIs(t, err, apperrors.ErrInvalidFilter)
			assert.Equal(t, testCase.wantField, apperrors.ToDomainError(err).Details["field"])
		})
	}
}

func TestCompile_SortAppendsTieBreak(t *testing.T) {
	t.Parallel()

	q, err := Compile(Spec{SortBy: "total", SortDir: "DESC"}, testShape, DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{"total_amount", Desc}, {"id", Asc}}, q.Sort)

	q, err = Compile(Spec{SortBy: "status"}, testShape, DefaultLimits)
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{"status", Asc}, {"id", Asc}}, q.Sort)
}

func TestCompile_IncludePassedThrough(t *testing.T) {
	t.Parallel()

	withItems, err := Compile(Spec{Include: []string{"items"}, Equals: map[string]any{"status": "PENDING"}}, testShape, DefaultLimits)
	require.NoError(t, err)
	without, err := Compile(Spec{Equals: map[string]any{"status": "PENDING"}}, testShape, DefaultLimits)
	require.NoError(t, err)

	assert.True(t, withItems.Includes("items"))
	assert.False(t, without.Includes("items"))
	assert.Equal(t, without.Predicates, withItems.Predicates, "include flags must not change predicates")
}

func TestCompile_PredicateOrderIsDeterministic(t *testing.T) {
	t.Parallel()

	spec := Spec{Equals: map[string]any{"status": "PENDING", "customer_id": "c-1", "notes": "x"}}
	first, err := Compile(spec, testShape, DefaultLimits)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Compile(spec, testShape, DefaultLimits)
		require.NoError(t, err)
		assert.Equal(t, first.Predicates, again.Predicates)
	}
}
