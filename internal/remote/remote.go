// Package remote defines the boundary to the data service the application
// stores its records in. Core components depend on the Service interface, not
// on a concrete client; the GORM-backed implementation in this package is the
// only production implementation.
package remote

import (
	"context"
	"errors"
)

// ErrNoRows is returned by Query when a single-record lookup matches nothing.
// Callers treat it as a normal outcome (fall back to defaults, take the
// create path), not as a failure to surface.
var ErrNoRows = errors.New("remote: no rows")

// Record is implemented by any row that can be identified across change
// notifications. models.Base provides it for every persisted model.
type Record interface {
	RecordID() string
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Filter restricts a query to rows where Column compares to Value.
type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

// Eq is shorthand for an equality filter.
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Ordering sorts query results by a column.
type Ordering struct {
	Column string
	Desc   bool
}

// QueryOptions carries the optional parts of a query.
type QueryOptions struct {
	Filters []Filter
	OrderBy *Ordering
	Limit   int
}

// ChangeKind classifies a change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change describes one row-level change on a table. OldRow is only set for
// updates, and only when the previous state was available.
type Change struct {
	Kind   ChangeKind
	Table  string
	Row    Record
	OldRow Record
}

// ChangeHandler receives change notifications for a subscribed table.
type ChangeHandler func(Change)

// Subscription is a live change-stream handle. Unsubscribe releases it;
// releasing twice is harmless.
type Subscription interface {
	Unsubscribe()
}

// Service is the remote data service the core consumes: filtered reads,
// writes, row-level change subscriptions, and the current caller identity.
type Service interface {
	// Query fills dest, which must be a pointer to a slice of rows or to a
	// single row struct. Single-row queries return ErrNoRows on no match.
	Query(ctx context.Context, table string, dest interface{}, opts QueryOptions) error

	// Insert stores a new record and fills in its generated fields.
	Insert(ctx context.Context, table string, record interface{}) error

	// Update applies the given column updates to all rows matching the
	// filters.
	Update(ctx context.Context, table string, updates map[string]interface{}, filters ...Filter) error

	// Subscribe registers a handler for changes to a table.
	Subscribe(table string, handler ChangeHandler) (Subscription, error)

	// CurrentIdentity returns the user the operation runs as, if any.
	CurrentIdentity(ctx context.Context) (string, bool)
}
