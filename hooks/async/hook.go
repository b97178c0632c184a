// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    UnavailableEvery: 10, // sample logs: ~every 10th outage event
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := recache.New[Product](recache.Options[Product]{
//	    KeyPrefix: "product:",
//	    Backend:   be,
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/osvaldt/recache"
)

type Hooks struct {
	inner recache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ recache.Hooks = (*Hooks)(nil)

func New(inner recache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) BackendUnavailable(op, key string, err error) {
	h.try(func() { h.inner.BackendUnavailable(op, key, err) })
}
func (h *Hooks) SelfHeal(key, reason string) { h.try(func() { h.inner.SelfHeal(key, reason) }) }
func (h *Hooks) IndexEnsured(name string)    { h.try(func() { h.inner.IndexEnsured(name) }) }
func (h *Hooks) FallbackHit(id string)       { h.try(func() { h.inner.FallbackHit(id) }) }
func (h *Hooks) SourceError(id string, err error) {
	h.try(func() { h.inner.SourceError(id, err) })
}
