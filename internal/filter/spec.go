// Package filter compiles listing filters into a storage-agnostic query:
// a predicate set, a sort order with an id tie-break, and a pagination window.
package filter

// Kind is the value type of a filterable field.
type Kind int

const (
	// KindString allows equality on a text column.
	KindString Kind = iota
	// KindEnum allows equality against a closed value set.
	KindEnum
	// KindDecimal allows equality and inclusive ranges.
	KindDecimal
	// KindTime allows equality and inclusive ranges.
	KindTime
	// KindBool allows a boolean flag on a boolean column.
	KindBool
	// KindPresence allows a boolean flag meaning "column is set".
	KindPresence
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindDecimal:
		return "decimal"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	case KindPresence:
		return "presence"
	default:
		return "unknown"
	}
}

func (k Kind) rangeable() bool {
	return k == KindDecimal || k == KindTime
}

func (k Kind) flag() bool {
	return k == KindBool || k == KindPresence
}

// Field declares one allow-listed field of an entity.
type Field struct {
	Column   string
	Kind     Kind
	Values   []string
	Sortable bool
}

// Shape describes what a listing may filter, search and sort on.
type Shape struct {
	Entity        string
	Fields        map[string]Field
	SearchColumns []string
	Includes      []string
}

// Range is an inclusive bound pair. Either side may be nil.
type Range struct {
	Min any
	Max any
}

// Spec is the filter input of one listing call. Values are untyped because
// callers may arrive from a string-typed transport; Compile coerces them.
type Spec struct {
	Page     int
	PageSize int
	Search   string
	Equals   map[string]any
	Ranges   map[string]Range
	Flags    map[string]any
	SortBy   string
	SortDir  string
	Include  []string
}

// Limits bounds pagination.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits are used when a caller passes the zero Limits.
var DefaultLimits = Limits{DefaultPageSize: 10, MaxPageSize: 100}

// Op is a predicate operator.
type Op string

const (
	OpEq       Op = "eq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpContains Op = "contains"
	OpIsNull   Op = "is_null"
	OpNotNull  Op = "not_null"
)

// Predicate constrains one column, or several for OpContains (any may match).
type Predicate struct {
	Columns []string
	Op      Op
	Value   any
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortKey is one ORDER BY term.
type SortKey struct {
	Column    string
	Direction Direction
}

// Query is the compiled form handed to a record store.
type Query struct {
	Predicates []Predicate
	Sort       []SortKey
	Page       int
	PageSize   int
	Offset     int
	Limit      int
	Include    map[string]bool
}

// Includes reports whether the caller asked for the named related rows.
func (q Query) Includes(name string) bool {
	return q.Include[name]
}

const (
	defaultSortColumn = "created_at"
	tieBreakColumn    = "id"
)
