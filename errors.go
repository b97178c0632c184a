package recache

import (
	"errors"
	"fmt"

	"github.com/osvaldt/recache/backend"
)

// ErrIndexNotFound is returned by find operations when the cache has no
// index attached, or when the index was dropped and not recreated.
var ErrIndexNotFound = errors.New("recache: index not found")

// ErrFieldNotIndexed is returned when a find operation names a field that
// is not in the index definition, or not indexed with the type the
// operation requires (tag for FindOne/FindMany, text for FindText, numeric
// for FindSorted).
var ErrFieldNotIndexed = errors.New("recache: field not indexed for this operation")

// ErrSourceUnavailable matches (via errors.Is) every *SourceError, letting
// callers distinguish "could not verify" from "does not exist".
var ErrSourceUnavailable = errors.New("recache: authoritative source unavailable")

// DecodeError is re-exported for errors.As convenience.
type DecodeError = backend.DecodeError

// IndexConflictError reports an EnsureIndex against an existing index with
// a different field set. The existing index is left untouched; callers
// must DropIndex explicitly before redefining.
type IndexConflictError struct {
	Index     string
	Existing  []backend.Field
	Requested []backend.Field
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("recache: index %q already exists with fields %v (requested %v); drop it first",
		e.Index, e.Existing, e.Requested)
}

// SourceError reports a failed authoritative fetch during fallback.
type SourceError struct {
	ID  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("recache: fetch %q from authoritative source: %v", e.ID, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
