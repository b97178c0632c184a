package recache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGuardSwallowsBackendFailures(t *testing.T) {
	log := &captureLogger{}
	hooks := &captureHooks{}
	g := errorGuard{log: log, hooks: hooks}
	ctx := context.Background()

	boom := errors.New("connection reset")
	if err := g.read(ctx, "get", "k1", boom); err != nil {
		t.Fatalf("read guard: %v", err)
	}
	if err := g.write(ctx, "save", "k2", boom); err != nil {
		t.Fatalf("write guard: %v", err)
	}
	if len(log.lines) != 2 {
		t.Fatalf("logged %d lines, want 2", len(log.lines))
	}
	if len(hooks.unavailable) != 2 {
		t.Fatalf("hook fired %d times, want 2", len(hooks.unavailable))
	}
}

func TestGuardNilErrorIsSilent(t *testing.T) {
	log := &captureLogger{}
	g := errorGuard{log: log, hooks: NopHooks{}}
	ctx := context.Background()

	if err := g.read(ctx, "get", "k", nil); err != nil {
		t.Fatalf("read guard: %v", err)
	}
	if err := g.write(ctx, "save", "k", nil); err != nil {
		t.Fatalf("write guard: %v", err)
	}
	if len(log.lines) != 0 {
		t.Fatalf("nil error logged: %v", log.lines)
	}
}

func TestGuardPassesThroughCancellation(t *testing.T) {
	g := errorGuard{log: NopLogger{}, hooks: NopHooks{}}

	// cancelled context, arbitrary backend error
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.read(ctx, "get", "k", errors.New("broken pipe")); err == nil {
		t.Fatal("cancelled context must pass through")
	}

	// live context, error that wraps the caller's cancellation
	ctx = context.Background()
	wrapped := errors.Join(errors.New("dial"), context.Canceled)
	if err := g.write(ctx, "save", "k", wrapped); err == nil {
		t.Fatal("context.Canceled must pass through")
	}
	if err := g.read(ctx, "get", "k", context.DeadlineExceeded); err == nil {
		t.Fatal("context.DeadlineExceeded must pass through")
	}
}

func TestGuardDeadlinePassesThrough(t *testing.T) {
	g := errorGuard{log: NopLogger{}, hooks: NopHooks{}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	if err := g.read(ctx, "get", "k", errors.New("timeout")); err == nil {
		t.Fatal("expired deadline must pass through")
	}
}
