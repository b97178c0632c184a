package recache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/osvaldt/recache/backend"
)

// storage is the per-encoding strategy. A cache holds exactly one,
// selected at construction; the cache logic itself never branches on the
// encoding.
type storage[V any] interface {
	write(ctx context.Context, key string, value V, ttl time.Duration) error
	read(ctx context.Context, key string) (V, bool, error)
}

// documentStorage keeps the whole record as one self-describing JSON
// document under a single key. Nested and non-scalar fields survive
// round-trips.
type documentStorage[V any] struct {
	be backend.Backend
}

func (s documentStorage[V]) write(ctx context.Context, key string, value V, ttl time.Duration) error {
	return s.be.PutDocument(ctx, key, value, ttl)
}

func (s documentStorage[V]) read(ctx context.Context, key string) (V, bool, error) {
	var v V
	raw, ok, err := s.be.GetDocument(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, &backend.DecodeError{Key: key, Err: err}
	}
	return v, true, nil
}

// fieldmapStorage flattens the record into a hash of scalar fields,
// enabling per-field access on the backend at the cost of nested
// structure. The backend owns the stringify/scan mapping (struct `redis`
// tags for the Redis implementation).
type fieldmapStorage[V any] struct {
	be backend.Backend
}

func (s fieldmapStorage[V]) write(ctx context.Context, key string, value V, ttl time.Duration) error {
	return s.be.PutFields(ctx, key, value, ttl)
}

func (s fieldmapStorage[V]) read(ctx context.Context, key string) (V, bool, error) {
	var v V
	ok, err := s.be.GetFields(ctx, key, &v)
	if err != nil || !ok {
		return v, false, err
	}
	return v, true, nil
}
