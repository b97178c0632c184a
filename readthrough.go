package recache

import (
	"context"
	"fmt"
	"time"

	"github.com/osvaldt/recache/codec"
	"github.com/osvaldt/recache/local"
)

// Source is the authoritative-source contract the fallback protocol
// consumes. The source holds the durable, correct copy of every record;
// the cache is disposable relative to it.
type Source[V any] interface {
	// FetchByID returns (record, true, nil) when the record exists,
	// (zero, false, nil) when the source confirms it does not, and a
	// non-nil error when the source could not be reached or answered
	// outside its contract.
	FetchByID(ctx context.Context, id string) (V, bool, error)
}

// ReadThroughOptions configure a ReadThrough. Cache and Source are
// required.
type ReadThroughOptions[V any] struct {
	Cache  Cache[V]
	Source Source[V]

	// Optional in-process hot tier consulted before the backend cache.
	// Entries are serialized with LocalCodec and expire after LocalTTL.
	Local      local.Store
	LocalCodec codec.Codec[V] // nil => codec.JSON[V]
	LocalTTL   time.Duration  // 0 => 1m

	Logger Logger
	Hooks  Hooks
}

// ReadThrough coordinates the miss -> fetch -> populate -> return protocol
// on top of a Cache and a Source. The protocol is identical for every
// record kind; only the source contract and the record type vary.
type ReadThrough[V any] struct {
	cache    Cache[V]
	source   Source[V]
	hot      local.Store
	hotCodec codec.Codec[V]
	hotTTL   time.Duration
	log      Logger
	hooks    Hooks
}

func NewReadThrough[V any](opts ReadThroughOptions[V]) (*ReadThrough[V], error) {
	if opts.Cache == nil {
		return nil, fmt.Errorf("recache: cache is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("recache: source is required")
	}
	r := &ReadThrough[V]{
		cache:  opts.Cache,
		source: opts.Source,
		hot:    opts.Local,
	}
	r.log = coalesce[Logger](opts.Logger, NopLogger{})
	r.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if r.hot != nil {
		r.hotCodec = opts.LocalCodec
		if r.hotCodec == nil {
			r.hotCodec = codec.JSON[V]{}
		}
		r.hotTTL = coalesce[time.Duration](opts.LocalTTL, time.Minute)
	}
	return r, nil
}

// Get resolves id. On a cache miss with fallback enabled it fetches from
// the authoritative source, populates the cache and returns the record
// exactly as a hit would. ok=false with a nil error means the source
// confirmed the record does not exist (absence is never cached); an error
// matching ErrSourceUnavailable means it could not verify.
func (r *ReadThrough[V]) Get(ctx context.Context, id string, fallback bool) (V, bool, error) {
	var zero V

	if v, ok := r.hotGet(ctx, id); ok {
		return v, true, nil
	}

	v, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		return zero, false, err
	}
	if ok {
		r.hotSet(ctx, id, v)
		return v, true, nil
	}
	if !fallback {
		return zero, false, nil
	}

	v, ok, err = r.source.FetchByID(ctx, id)
	if err != nil {
		r.hooks.SourceError(id, err)
		r.log.Warn("authoritative fetch failed", Fields{"id": id, "err": err})
		return zero, false, &SourceError{ID: id, Err: err}
	}
	if !ok {
		return zero, false, nil
	}

	// Populate. A save failure only costs a re-fetch on the next miss, and
	// the caller's cancellation must not abort a write already in flight.
	_ = r.cache.Save(context.WithoutCancel(ctx), id, v)
	r.hotSet(ctx, id, v)
	r.hooks.FallbackHit(id)
	r.log.Debug("miss resolved from authoritative source", Fields{"id": id})
	return v, true, nil
}

// Invalidate removes id from the hot tier and the backend cache.
func (r *ReadThrough[V]) Invalidate(ctx context.Context, id string) error {
	if r.hot != nil {
		_ = r.hot.Del(ctx, id)
	}
	return r.cache.Delete(ctx, id)
}

// Close releases the hot tier. The cache and source are owned by the
// caller.
func (r *ReadThrough[V]) Close(ctx context.Context) error {
	if r.hot != nil {
		return r.hot.Close(ctx)
	}
	return nil
}

func (r *ReadThrough[V]) hotGet(ctx context.Context, id string) (V, bool) {
	var zero V
	if r.hot == nil {
		return zero, false
	}
	raw, ok, err := r.hot.Get(ctx, id)
	if err != nil || !ok {
		return zero, false
	}
	v, err := r.hotCodec.Decode(raw)
	if err != nil {
		_ = r.hot.Del(ctx, id) // drop undecodable hot entry
		return zero, false
	}
	return v, true
}

func (r *ReadThrough[V]) hotSet(ctx context.Context, id string, v V) {
	if r.hot == nil {
		return
	}
	raw, err := r.hotCodec.Encode(v)
	if err != nil {
		return
	}
	_, _ = r.hot.Set(ctx, id, raw, int64(len(raw)), r.hotTTL)
}
