package recache

import (
	"context"
	"time"

	"github.com/osvaldt/recache/backend"
)

// Encoding selects the physical layout of entries. A cache instance is
// bound to exactly one encoding; encodings cannot be mixed within one key
// prefix.
type Encoding int

const (
	// EncodingDocument stores the whole record as one self-describing JSON
	// document. Required when record fields are nested/non-scalar.
	EncodingDocument Encoding = iota
	// EncodingFieldMap stores the record as a flat map of stringified
	// scalar fields. Lower overhead, but every field must be independently
	// stringifiable and nested structure is lost.
	EncodingFieldMap
)

// DefaultFindLimit bounds FindMany results and FindText pages when the
// caller passes limit <= 0.
const DefaultFindLimit = 100

// Cache is the typed engine combining the encoding strategy, the error
// guard and the index lifecycle behind save/get/delete/find operations.
//
// "Not found" is never an error: Get and FindOne report it with ok=false.
// Backend connectivity failures never surface either - reads degrade to a
// miss, writes are logged and dropped. The errors that do come back are
// the caller's own cancellation and index configuration problems
// (ErrIndexNotFound, ErrFieldNotIndexed, *IndexConflictError).
type Cache[V any] interface {
	// Save writes value under KeyPrefix+id with the cache TTL, resetting
	// any previous deadline. Indexed fields are part of the same write.
	Save(ctx context.Context, id string, value V) error
	// SaveAll writes a batch; each entry is guarded individually.
	SaveAll(ctx context.Context, values map[string]V) error
	// Get reads KeyPrefix+id. ok=false on absent, expired or undecodable
	// entries; undecodable entries are deleted on the way out.
	Get(ctx context.Context, id string) (V, bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Delete removes the entry (and with it its index membership).
	// Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
	// Clear deletes every entry under the key prefix and reports the count.
	Clear(ctx context.Context) (int64, error)

	// EnsureIndex creates the configured index if absent; a no-op when it
	// already exists with an identical field set, *IndexConflictError when
	// the field sets differ. Entries written before the index existed are
	// backfilled asynchronously by the backend.
	EnsureIndex(ctx context.Context) error
	// DropIndex removes the lookup structure, not the entries. Find
	// operations fail with ErrIndexNotFound until EnsureIndex runs again.
	DropIndex(ctx context.Context) error

	// FindOne is equality lookup on a tag field; ok=false on no match.
	FindOne(ctx context.Context, field, value string) (V, bool, error)
	// FindMany is equality lookup on a tag field. limit <= 0 means
	// DefaultFindLimit.
	FindMany(ctx context.Context, field, value string, limit int) ([]V, error)
	// FindText streams substring/token matches on a text field in
	// backend-defined relevance order. The stream is lazy, finite and
	// single-pass.
	FindText(field, query string) *Matches[V]
	// FindSorted pages entries ordered by a numeric field; ties fall back
	// to backend-defined order. limit <= 0 means DefaultFindLimit.
	FindSorted(ctx context.Context, field string, ascending bool, offset, limit int) ([]V, error)
	// Count reports how many entries the index currently covers.
	Count(ctx context.Context) (int64, error)

	Close(ctx context.Context) error
}

// Options configure a Cache. KeyPrefix and Backend are required.
type Options[V any] struct {
	// Required
	KeyPrefix string // namespacing; keys are KeyPrefix+id, e.g. "product:"
	Backend   backend.Backend

	TTL      time.Duration // per-entry expiry applied at write time; 0 => no expiry
	Encoding Encoding      // default EncodingDocument

	// Optional secondary index over this key prefix. Fields is required
	// when Index is set; its order is part of the definition.
	Index  string
	Fields []backend.Field

	Logger       Logger // nil => NopLogger
	Hooks        Hooks  // nil => NopHooks
	CloseBackend bool   // set true only if this cache exclusively owns the backend
}

// New builds a Cache from opts.
func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
