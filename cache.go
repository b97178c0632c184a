package recache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/osvaldt/recache/backend"
)

// index lifecycle states. Lazy ensure runs once before the first find; an
// explicit DropIndex parks the state so finds fail with ErrIndexNotFound
// instead of silently recreating the index.
const (
	idxLazy int32 = iota
	idxReady
	idxDropped
)

type cache[V any] struct {
	prefix       string
	be           backend.Backend
	ttl          time.Duration
	enc          Encoding
	store        storage[V]
	idxName      string
	idxFields    []backend.Field
	idxState     atomic.Int32
	guard        errorGuard
	log          Logger
	hooks        Hooks
	closeBackend bool
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("recache: backend is required")
	}
	if opts.KeyPrefix == "" {
		return nil, fmt.Errorf("recache: key prefix is required")
	}
	if opts.Index != "" && len(opts.Fields) == 0 {
		return nil, fmt.Errorf("recache: index %q declared without indexed fields", opts.Index)
	}
	if opts.Index == "" && len(opts.Fields) > 0 {
		return nil, fmt.Errorf("recache: indexed fields declared without an index name")
	}

	c := &cache[V]{
		prefix:       opts.KeyPrefix,
		be:           opts.Backend,
		ttl:          opts.TTL,
		enc:          opts.Encoding,
		idxName:      opts.Index,
		idxFields:    opts.Fields,
		closeBackend: opts.CloseBackend,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.guard = errorGuard{log: c.log, hooks: c.hooks}

	switch opts.Encoding {
	case EncodingFieldMap:
		c.store = fieldmapStorage[V]{be: opts.Backend}
	default:
		c.store = documentStorage[V]{be: opts.Backend}
	}
	return c, nil
}

func (c *cache[V]) key(id string) string { return c.prefix + id }

func (c *cache[V]) Save(ctx context.Context, id string, value V) error {
	k := c.key(id)
	err := c.store.write(ctx, k, value, c.ttl)
	return c.guard.write(ctx, "save", k, err)
}

func (c *cache[V]) SaveAll(ctx context.Context, values map[string]V) error {
	for id, v := range values {
		if err := c.Save(ctx, id, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, id string) (V, bool, error) {
	return c.getKey(ctx, c.key(id))
}

// getKey reads a full storage key; find operations reuse it to resolve
// search hits.
func (c *cache[V]) getKey(ctx context.Context, k string) (V, bool, error) {
	var zero V
	v, ok, err := c.store.read(ctx, k)
	if err == nil {
		return v, ok, nil
	}

	var dec *backend.DecodeError
	if errors.As(err, &dec) {
		// stored payload does not match V; self-heal and report a miss
		_, _ = c.be.Delete(context.WithoutCancel(ctx), k)
		c.hooks.SelfHeal(k, "decode")
		c.log.Debug("dropped undecodable entry", Fields{"key": k, "err": dec.Err})
		return zero, false, nil
	}
	if gerr := c.guard.read(ctx, "get", k, err); gerr != nil {
		return zero, false, gerr
	}
	return zero, false, nil
}

func (c *cache[V]) Exists(ctx context.Context, id string) (bool, error) {
	k := c.key(id)
	ok, err := c.be.Exists(ctx, k)
	if err != nil {
		if gerr := c.guard.read(ctx, "exists", k, err); gerr != nil {
			return false, gerr
		}
		return false, nil
	}
	return ok, nil
}

func (c *cache[V]) Delete(ctx context.Context, id string) error {
	k := c.key(id)
	_, err := c.be.Delete(ctx, k)
	return c.guard.write(ctx, "delete", k, err)
}

func (c *cache[V]) Clear(ctx context.Context) (int64, error) {
	pattern := c.prefix + "*"
	keys, err := c.be.Keys(ctx, pattern)
	if err != nil {
		if gerr := c.guard.read(ctx, "clear", pattern, err); gerr != nil {
			return 0, gerr
		}
		return 0, nil
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.be.Delete(ctx, keys...)
	if err != nil {
		if gerr := c.guard.write(ctx, "clear", pattern, err); gerr != nil {
			return 0, gerr
		}
		return 0, nil
	}
	c.log.Debug("cleared prefix", Fields{"prefix": c.prefix, "removed": n})
	return n, nil
}

func (c *cache[V]) Close(ctx context.Context) error {
	if c.closeBackend {
		return c.be.Close(ctx)
	}
	return nil
}
