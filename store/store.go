package store

import (
	"context"
	"errors"
)

// MaxQueryLimit is the hard per-call item ceiling the backing store enforces.
// A single Query never returns more than this many records; FetchAll exists
// to retrieve larger result sets.
const MaxQueryLimit = 20

// FieldID is the name of the identifier field every Doc carries.
const FieldID = "_id"

// ErrNotFound is returned when a record addressed by id does not exist.
// Implementations must return it (possibly wrapped) for the not-found
// condition so callers can distinguish it from transport failures.
var ErrNotFound = errors.New("store: not found")

// Doc is a single schemaless record. Field values are strings, int64 numbers,
// or booleans; implementations normalize numeric values to int64.
type Doc map[string]any

// Op identifies a predicate operator.
type Op uint8

const (
	// OpEq matches fields equal to the condition value.
	OpEq Op = iota
	// OpContains matches string fields containing the condition value as a
	// case-insensitive substring.
	OpContains
)

// Cond is a single field condition.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Predicate is a conjunction of conditions. An empty predicate matches
// every record in the collection.
type Predicate []Cond

// Eq builds an equality condition.
func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

// Contains builds a case-insensitive substring condition.
func Contains(field, substr string) Cond {
	return Cond{Field: field, Op: OpContains, Value: substr}
}

// Where combines conditions into a predicate.
func Where(conds ...Cond) Predicate {
	return Predicate(conds)
}

// Ordering describes the sort order of a query result.
type Ordering struct {
	Field string
	Desc  bool
}

// QueryOptions carries the optional parts of a Query call. A zero Limit (or
// one above MaxQueryLimit) is clamped to MaxQueryLimit by implementations.
type QueryOptions struct {
	OrderBy *Ordering
	Skip    int
	Limit   int
}

// IncValue marks a field in an Update as an atomic numeric increment rather
// than an assignment.
type IncValue struct {
	Delta int64
}

// Inc returns an atomic increment of delta for use in Update field maps.
func Inc(delta int64) IncValue {
	return IncValue{Delta: delta}
}

// Store is the narrow document-database contract the catalog layer consumes.
// Collections are addressed by name; implementations must return a stable
// order for repeated queries with identical predicate and ordering, which is
// what makes skip/limit batching well defined.
type Store interface {
	// Count returns the number of records matching the predicate.
	Count(ctx context.Context, collection string, pred Predicate) (int, error)

	// Query returns matching records honoring ordering, skip and limit.
	// The result never exceeds MaxQueryLimit records.
	Query(ctx context.Context, collection string, pred Predicate, opts QueryOptions) ([]Doc, error)

	// GetByID returns the record with the given id, or ErrNotFound.
	GetByID(ctx context.Context, collection, id string) (Doc, error)

	// GetByIDs returns the records for the given ids, preserving input
	// order. Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, collection string, ids []string) ([]Doc, error)

	// Insert stores a new record and returns its generated id. A caller
	// supplied FieldID is respected when present.
	Insert(ctx context.Context, collection string, doc Doc) (string, error)

	// Update applies a partial update to the record with the given id.
	// IncValue fields are applied as atomic increments. Returns ErrNotFound
	// when the record does not exist.
	Update(ctx context.Context, collection, id string, fields Doc) error

	// Remove deletes the record with the given id, or returns ErrNotFound.
	Remove(ctx context.Context, collection, id string) error

	// RemoveWhere deletes every record matching the predicate and returns
	// how many were removed. Matching nothing is not an error.
	RemoveWhere(ctx context.Context, collection string, pred Predicate) (int, error)

	// Upsert fully replaces the record with the given id, creating it when
	// absent.
	Upsert(ctx context.Context, collection, id string, doc Doc) error
}

// String returns the string value of a field, or "" when absent or not a
// string.
func (d Doc) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Int64 returns the numeric value of a field, tolerating the integer widths
// different backends hand back.
func (d Doc) Int64(field string) int64 {
	switch v := d[field].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Clone returns a shallow copy of the document.
func (d Doc) Clone() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
