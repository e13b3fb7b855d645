// Package vecstore stores embedded transcript segments and answers top-k
// similarity queries over them.
//
// The [Index] interface defines the contract. Four backends are provided:
//
//   - [Memory]: brute-force cosine search in process memory, for tests and
//     small corpora.
//   - [Badger]: [Memory] persisted to a local BadgerDB directory.
//   - [PgVector]: PostgreSQL with the pgvector extension.
//   - [Milvus]: a Milvus collection with an HNSW index.
//
// Every backend keys records by ID with last-write-wins semantics, so
// re-upserting the same records is idempotent. Failures reaching a remote
// backend are reported as *[UnavailableError], which matches
// [ErrUnavailable] under errors.Is.
package vecstore

import (
	"context"
	"errors"
	"fmt"
)

// Index is a vector index with scalar metadata per record.
//
// All implementations must be safe for concurrent use.
type Index interface {
	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Query returns at most q.TopK records ordered by descending score.
	Query(ctx context.Context, q Query) ([]Match, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the index.
	Close() error
}

// Record is one stored vector.
type Record struct {
	ID     string
	Vector []float32

	// Metadata values must be scalars: string, bool, integer or float.
	Metadata map[string]any
}

// Query describes a top-k similarity search.
type Query struct {
	Vector []float32
	TopK   int

	// Filter restricts the search to records whose metadata equals every
	// key/value pair. A nil or empty Filter matches all records.
	Filter Filter

	// IncludeMetadata requests Match.Metadata to be populated.
	IncludeMetadata bool
}

// Match is a single result from a similarity search.
type Match struct {
	ID string

	// Score is the cosine similarity between the query and the record, in
	// [-1, 1]. Higher is more similar.
	Score float32

	// Metadata is nil unless the query asked for it.
	Metadata map[string]any
}

// Filter is a conjunction of metadata equality predicates.
type Filter map[string]any

// Matches reports whether md satisfies every predicate of f. Numbers compare
// by value regardless of their Go type.
func (f Filter) Matches(md map[string]any) bool {
	for k, want := range f {
		got, ok := md[k]
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

// Errors.
var (
	// ErrUnavailable is matched by every *UnavailableError.
	ErrUnavailable = errors.New("vecstore: index unavailable")

	// ErrInvalidRecord is returned for records with an empty ID, an empty
	// vector, a vector of the wrong dimension or non-scalar metadata.
	ErrInvalidRecord = errors.New("vecstore: invalid record")

	// ErrInvalidQuery is returned for a query with an empty vector or a
	// non-positive TopK.
	ErrInvalidQuery = errors.New("vecstore: invalid query")
)

// UnavailableError reports a backend that could not be reached or failed
// while serving a request.
type UnavailableError struct {
	Backend string // "badger", "pgvector", "milvus"
	Op      string // "upsert", "query", "delete", "count", "open"
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("vecstore: %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnavailable) true.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return &UnavailableError{Backend: backend, Op: op, Err: err}
}

// ValidateRecords checks records against ErrInvalidRecord rules. dim is the
// expected vector size; 0 accepts any non-empty vector.
func ValidateRecords(records []Record, dim int) error {
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has an empty id", ErrInvalidRecord, i)
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: record %q has an empty vector", ErrInvalidRecord, r.ID)
		}
		if dim > 0 && len(r.Vector) != dim {
			return fmt.Errorf("%w: record %q has dimension %d, want %d", ErrInvalidRecord, r.ID, len(r.Vector), dim)
		}
		for k, v := range r.Metadata {
			if !isScalar(v) {
				return fmt.Errorf("%w: record %q metadata %q is %T", ErrInvalidRecord, r.ID, k, v)
			}
		}
	}
	return nil
}

func validateQuery(q Query) error {
	if len(q.Vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidQuery)
	}
	if q.TopK <= 0 {
		return fmt.Errorf("%w: top_k %d", ErrInvalidQuery, q.TopK)
	}
	for k, v := range q.Filter {
		if !isScalar(v) {
			return fmt.Errorf("%w: filter %q is %T", ErrInvalidQuery, k, v)
		}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func scalarEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	return a == b
}
