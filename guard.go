package recache

import (
	"context"
	"errors"
)

// errorGuard converts backend connectivity/protocol failures into typed
// non-error outcomes: a failed read becomes a miss, a failed write becomes
// a logged no-op. Only the caller's own cancellation passes through, so a
// flaky backend degrades to "go to fallback" instead of hard-erroring.
type errorGuard struct {
	log   Logger
	hooks Hooks
}

// read resolves a backend read failure. The returned error is nil (the
// caller should report a miss) unless err carries the caller's
// cancellation.
func (g errorGuard) read(ctx context.Context, op, key string, err error) error {
	if err == nil {
		return nil
	}
	if cancelled(ctx, err) {
		return err
	}
	g.log.Warn("backend read failed; treating as miss", Fields{"op": op, "key": key, "err": err})
	g.hooks.BackendUnavailable(op, key, err)
	return nil
}

// write resolves a backend write failure. The entry simply stays absent or
// stale; the next read misses and refills from the authoritative source.
func (g errorGuard) write(ctx context.Context, op, key string, err error) error {
	if err == nil {
		return nil
	}
	if cancelled(ctx, err) {
		return err
	}
	g.log.Warn("backend write failed; dropping", Fields{"op": op, "key": key, "err": err})
	g.hooks.BackendUnavailable(op, key, err)
	return nil
}

func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
