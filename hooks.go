package recache

// Hooks are lightweight callbacks for high-signal events. Implementations
// MUST be cheap and non-blocking; the cache calls them on hot paths. Wrap
// with hooks/async when a sink can block.
type Hooks interface {
	// A backend call failed and the guard converted it to a miss / no-op.
	// op is one of: save, get, exists, delete, clear, search, index_info,
	// index_create, index_drop.
	BackendUnavailable(op, key string, err error)

	// An undecodable entry was deleted on read. reason is currently
	// always "decode".
	SelfHeal(key, reason string)

	// A secondary index was created (not found pre-existing).
	IndexEnsured(name string)

	// A cache miss was resolved from the authoritative source.
	FallbackHit(id string)

	// The authoritative fetch failed (distinct from a not-found answer).
	SourceError(id string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) BackendUnavailable(string, string, error) {}
func (NopHooks) SelfHeal(string, string)                  {}
func (NopHooks) IndexEnsured(string)                      {}
func (NopHooks) FallbackHit(string)                       {}
func (NopHooks) SourceError(string, error)                {}
