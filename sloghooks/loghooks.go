package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/osvaldt/recache"
)

type Options struct {
	// Sampling to avoid floods when a backend flaps; 0/1 = log all.
	UnavailableEvery uint64
	SelfHealEvery    uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

// Hooks is a slog-backed recache.Hooks with sampling on the noisy events.
type Hooks struct {
	l    *slog.Logger
	opts Options

	unavailableCtr atomic.Uint64
	selfHealCtr    atomic.Uint64
}

var _ recache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) BackendUnavailable(op, key string, err error) {
	if h.l == nil || !sample(h.opts.UnavailableEvery, &h.unavailableCtr) {
		return
	}
	h.l.Warn("recache.backend_unavailable",
		"op", op,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("recache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) IndexEnsured(name string) {
	if h.l == nil {
		return
	}
	h.l.Info("recache.index_ensured", "index", name)
}

func (h *Hooks) FallbackHit(id string) {
	if h.l == nil {
		return
	}
	h.l.Debug("recache.fallback_hit", "id", h.redact(id))
}

func (h *Hooks) SourceError(id string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("recache.source_error",
		"id", h.redact(id),
		"err", err)
}
