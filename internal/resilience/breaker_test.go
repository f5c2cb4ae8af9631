package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx := context.Background()

	for range 3 {
		_ = b.Execute(ctx, func() error { return errBoom })
	}

	if err := b.Execute(ctx, func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != BreakerOpen {
		t.Errorf("expected open state, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	ctx := context.Background()

	fake := time.Now()
	b.now = func() time.Time { return fake }

	_ = b.Execute(ctx, func() error { return errBoom })
	if b.State() != BreakerOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	// Advance past the cooldown; the next call is a probe.
	fake = fake.Add(2 * time.Minute)
	if b.State() != BreakerHalfOpen {
		t.Fatalf("expected half_open, got %s", b.State())
	}

	if err := b.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	ctx := context.Background()

	fake := time.Now()
	b.now = func() time.Time { return fake }

	_ = b.Execute(ctx, func() error { return errBoom })
	fake = fake.Add(2 * time.Minute)

	_ = b.Execute(ctx, func() error { return errBoom })
	if b.State() != BreakerOpen {
		t.Errorf("expected reopened breaker, got %s", b.State())
	}
}

func TestBreaker_ContextCancelled(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := b.Execute(ctx, func() error { ran = true; return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Error("fn must not run with a cancelled context")
	}
}
