package recache

import (
	"context"
	"errors"

	"github.com/osvaldt/recache/backend"
)

func (c *cache[V]) indexKind() backend.IndexKind {
	if c.enc == EncodingFieldMap {
		return backend.IndexHash
	}
	return backend.IndexJSON
}

func (c *cache[V]) EnsureIndex(ctx context.Context) error {
	if c.idxName == "" {
		return ErrIndexNotFound
	}
	if c.idxState.Load() == idxReady {
		return nil
	}

	existing, found, err := c.be.IndexFields(ctx, c.idxName)
	if err != nil {
		// cannot verify; leave state as-is so a later call retries
		return c.guard.read(ctx, "index_info", c.idxName, err)
	}
	if found {
		if !fieldsEqual(existing, c.idxFields) {
			return &IndexConflictError{Index: c.idxName, Existing: existing, Requested: c.idxFields}
		}
		c.idxState.Store(idxReady)
		return nil
	}

	spec := backend.IndexSpec{
		Name:   c.idxName,
		Prefix: c.prefix,
		Kind:   c.indexKind(),
		Fields: c.idxFields,
	}
	if err := c.be.CreateIndex(ctx, spec); err != nil {
		return c.guard.write(ctx, "index_create", c.idxName, err)
	}
	c.idxState.Store(idxReady)
	c.hooks.IndexEnsured(c.idxName)
	c.log.Info("secondary index created", Fields{"index": c.idxName, "prefix": c.prefix})
	return nil
}

func (c *cache[V]) DropIndex(ctx context.Context) error {
	if c.idxName == "" {
		return ErrIndexNotFound
	}
	err := c.be.DropIndex(ctx, c.idxName)
	c.idxState.Store(idxDropped)
	if errors.Is(err, backend.ErrUnknownIndex) {
		return ErrIndexNotFound
	}
	return c.guard.write(ctx, "index_drop", c.idxName, err)
}

// ensureForQuery runs the lazy one-time ensure before a find. A dropped
// index is not recreated here; the caller must EnsureIndex explicitly.
func (c *cache[V]) ensureForQuery(ctx context.Context) error {
	switch c.idxState.Load() {
	case idxReady:
		return nil
	case idxDropped:
		return ErrIndexNotFound
	default:
		return c.EnsureIndex(ctx)
	}
}

// fieldOfType checks that a find operation targets a field the index
// actually covers with the right type.
func (c *cache[V]) fieldOfType(name string, want backend.FieldType) error {
	for _, f := range c.idxFields {
		if f.Name == name {
			if f.Type != want {
				return ErrFieldNotIndexed
			}
			return nil
		}
	}
	return ErrFieldNotIndexed
}

// search is the shared query path: validate config, lazily ensure, run the
// query, and guard backend failures down to an empty result.
func (c *cache[V]) search(ctx context.Context, q backend.Query, opts backend.SearchOptions) (*backend.SearchResult, error) {
	if c.idxName == "" {
		return nil, ErrIndexNotFound
	}
	if err := c.ensureForQuery(ctx); err != nil {
		return nil, err
	}

	res, err := c.be.Search(ctx, c.idxName, q, opts)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, backend.ErrUnknownIndex) {
		// dropped behind our back; require an explicit EnsureIndex
		c.idxState.Store(idxDropped)
		return nil, ErrIndexNotFound
	}
	if gerr := c.guard.read(ctx, "search", c.idxName, err); gerr != nil {
		return nil, gerr
	}
	return &backend.SearchResult{}, nil
}

// resolve turns search hits back into records through the bound encoding.
// Entries that expired between the search and the read are skipped.
func (c *cache[V]) resolve(ctx context.Context, keys []string) ([]V, error) {
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		v, ok, err := c.getKey(ctx, k)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *cache[V]) FindOne(ctx context.Context, field, value string) (V, bool, error) {
	var zero V
	vs, err := c.FindMany(ctx, field, value, 1)
	if err != nil || len(vs) == 0 {
		return zero, false, err
	}
	return vs[0], true, nil
}

func (c *cache[V]) FindMany(ctx context.Context, field, value string, limit int) ([]V, error) {
	if c.idxName == "" {
		return nil, ErrIndexNotFound
	}
	if err := c.fieldOfType(field, backend.FieldTag); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	res, err := c.search(ctx,
		backend.Query{Field: field, Match: backend.MatchExact, Term: value},
		backend.SearchOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, res.Keys)
}

func (c *cache[V]) FindSorted(ctx context.Context, field string, ascending bool, offset, limit int) ([]V, error) {
	if c.idxName == "" {
		return nil, ErrIndexNotFound
	}
	if err := c.fieldOfType(field, backend.FieldNumeric); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	res, err := c.search(ctx,
		backend.Query{Match: backend.MatchAll},
		backend.SearchOptions{SortBy: field, Ascending: ascending, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, res.Keys)
}

func (c *cache[V]) Count(ctx context.Context) (int64, error) {
	res, err := c.search(ctx, backend.Query{Match: backend.MatchAll}, backend.SearchOptions{Limit: 1})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (c *cache[V]) FindText(field, query string) *Matches[V] {
	m := &Matches[V]{c: c, pageSize: DefaultFindLimit}
	if c.idxName == "" {
		m.err = ErrIndexNotFound
		m.done = true
		return m
	}
	if err := c.fieldOfType(field, backend.FieldText); err != nil {
		m.err = err
		m.done = true
		return m
	}
	m.query = backend.Query{Field: field, Match: backend.MatchText, Term: query}
	return m
}

// Matches is a lazy, finite, single-pass stream of text-search results in
// backend-defined relevance order. Pages are fetched on demand:
//
//	it := cache.FindText("name", "notebook")
//	for it.Next(ctx) {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Matches[V any] struct {
	c        *cache[V]
	query    backend.Query
	pageSize int
	offset   int
	buf      []V
	pos      int
	cur      V
	done     bool
	err      error
}

// Next advances to the next match. It returns false when the stream is
// exhausted or failed; check Err afterwards.
func (m *Matches[V]) Next(ctx context.Context) bool {
	for {
		if m.err != nil {
			return false
		}
		if m.pos < len(m.buf) {
			m.cur = m.buf[m.pos]
			m.pos++
			return true
		}
		if m.done {
			return false
		}
		m.fetch(ctx)
	}
}

// Value returns the current match. Only valid after a true Next.
func (m *Matches[V]) Value() V { return m.cur }

func (m *Matches[V]) Err() error { return m.err }

func (m *Matches[V]) fetch(ctx context.Context) {
	res, err := m.c.search(ctx, m.query, backend.SearchOptions{Offset: m.offset, Limit: m.pageSize})
	if err != nil {
		m.err = err
		return
	}
	if len(res.Keys) == 0 {
		m.done = true
		m.buf, m.pos = nil, 0
		return
	}
	m.offset += len(res.Keys)
	if int64(m.offset) >= res.Total {
		m.done = true
	}
	// a page can resolve empty if every hit expired mid-scan; Next loops
	// into the following page
	m.buf, m.err = m.c.resolve(ctx, res.Keys)
	m.pos = 0
}

func fieldsEqual(a, b []backend.Field) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[backend.Field]struct{}, len(a))
	for _, f := range a {
		set[f] = struct{}{}
	}
	for _, f := range b {
		if _, ok := set[f]; !ok {
			return false
		}
	}
	return true
}
