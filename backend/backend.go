// Package backend defines the storage/index protocol recache requires of a
// concrete engine: key-value put/get/delete with TTLs, secondary index
// create/introspect/drop, and equality/text/sorted search over indexed
// fields. Nothing else is assumed about the engine.
//
// Implementations MUST be safe for concurrent use. Documents written with
// PutDocument must come back from GetDocument as the same JSON value;
// field maps written with PutFields must scan back into the same record
// shape via GetFields. A ttl <= 0 means the entry never expires, and an
// implementation MUST make sure an expired key never satisfies a later
// read (lazy deletion or active eviction, either works).
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FieldType classifies an indexed field for query purposes.
type FieldType int

const (
	// FieldTag supports exact equality lookup.
	FieldTag FieldType = iota
	// FieldText supports substring/token matching.
	FieldText
	// FieldNumeric supports sorted retrieval.
	FieldNumeric
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldNumeric:
		return "numeric"
	default:
		return "tag"
	}
}

// Field is one indexed field of a record.
type Field struct {
	Name string
	Type FieldType
}

func (f Field) String() string { return f.Name + ":" + f.Type.String() }

// IndexKind tells the engine which entry layout the index covers.
type IndexKind int

const (
	// IndexHash covers field-map (hash) entries.
	IndexHash IndexKind = iota
	// IndexJSON covers document (JSON) entries.
	IndexJSON
)

// IndexSpec is an immutable secondary index definition. Changing the field
// set of an existing index requires drop-then-recreate.
type IndexSpec struct {
	Name   string
	Prefix string // key prefix the index covers
	Kind   IndexKind
	Fields []Field
}

// MatchKind selects the query primitive.
type MatchKind int

const (
	// MatchAll matches every entry under the index prefix.
	MatchAll MatchKind = iota
	// MatchExact is equality on a FieldTag field.
	MatchExact
	// MatchText is substring/token match on a FieldText field.
	MatchText
)

// Query is a single-field search request.
type Query struct {
	Field string // empty for MatchAll
	Match MatchKind
	Term  string
}

// SearchOptions control ordering and paging.
type SearchOptions struct {
	SortBy    string // FieldNumeric field name; empty => engine-defined order
	Ascending bool
	Offset    int
	Limit     int
}

// SearchResult carries the matching primary keys only; callers resolve the
// entries themselves so a dropped index never dangles stale payloads.
type SearchResult struct {
	Total int64 // matches in the whole index, not just this page
	Keys  []string
}

// ErrUnknownIndex reports a query or drop against an index that does not
// exist on the engine.
var ErrUnknownIndex = errors.New("backend: unknown index")

// DecodeError reports that a stored payload does not match the requested
// record shape. recache treats it as a miss and self-heals the entry.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("backend: decode %q: %v", e.Key, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Backend is the full protocol. recache owns the keys it writes; external
// writers under a cache's prefix may be deleted as corrupt.
type Backend interface {
	// PutDocument stores value as one self-describing JSON document.
	PutDocument(ctx context.Context, key string, value any, ttl time.Duration) error
	// GetDocument returns the raw document, or ok=false on a miss.
	GetDocument(ctx context.Context, key string) (raw []byte, ok bool, err error)

	// PutFields stores value as a flat map of stringified scalar fields.
	PutFields(ctx context.Context, key string, value any, ttl time.Duration) error
	// GetFields scans the stored field map into dest; shape mismatches are
	// reported as *DecodeError.
	GetFields(ctx context.Context, key string, dest any) (ok bool, err error)

	// Delete removes keys and reports how many existed. Deleting an absent
	// key is a no-op, not an error.
	Delete(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists keys matching a glob pattern (used for prefix cleanup).
	Keys(ctx context.Context, pattern string) ([]string, error)

	// CreateIndex creates the index described by spec. Idempotence and
	// conflict detection are the caller's job (via IndexFields).
	CreateIndex(ctx context.Context, spec IndexSpec) error
	// IndexFields introspects an existing index; found=false if absent.
	IndexFields(ctx context.Context, name string) (fields []Field, found bool, err error)
	// DropIndex removes the lookup structure only, never the entries.
	// Returns ErrUnknownIndex if the index does not exist.
	DropIndex(ctx context.Context, name string) error
	// Search runs q against the named index. Returns ErrUnknownIndex if the
	// index does not exist.
	Search(ctx context.Context, index string, q Query, opts SearchOptions) (*SearchResult, error)

	// Close releases the engine connection.
	Close(ctx context.Context) error
}
