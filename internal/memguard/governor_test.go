package memguard

import (
	"context"
	"testing"
	"time"

	"glyphcache/internal/logging"
)

func newTestGovernor(ceilingMB float64, samples ...float64) *Governor {
	g := NewGovernor(Config{CeilingMB: ceilingMB, Pause: time.Millisecond}, logging.NewNop())
	i := 0
	g.sampler = func() (float64, error) {
		if i >= len(samples) {
			return samples[len(samples)-1], nil
		}
		value := samples[i]
		i++
		return value, nil
	}
	return g
}

func TestMaybeCollectBelowCeilingIsNoOp(t *testing.T) {
	g := newTestGovernor(1000, 500)

	if g.MaybeCollect(context.Background(), false) {
		t.Fatal("expected no collection below ceiling")
	}
	if g.Collections() != 0 {
		t.Fatalf("expected zero collections, got %d", g.Collections())
	}
}

func TestMaybeCollectAboveCeiling(t *testing.T) {
	g := newTestGovernor(1000, 1500, 400)

	if !g.MaybeCollect(context.Background(), false) {
		t.Fatal("expected collection above ceiling")
	}
	if g.Collections() != 1 {
		t.Fatalf("expected one collection, got %d", g.Collections())
	}
}

func TestMaybeCollectForced(t *testing.T) {
	g := newTestGovernor(1000, 10, 10)

	if !g.MaybeCollect(context.Background(), true) {
		t.Fatal("forced collection must always run")
	}
}

func TestMaybeCollectHonorsCancelledContext(t *testing.T) {
	g := NewGovernor(Config{CeilingMB: 1000, Pause: time.Hour}, logging.NewNop())
	g.sampler = func() (float64, error) { return 10, nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	g.MaybeCollect(ctx, true)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("pause ignored context cancellation, took %s", elapsed)
	}
}

func TestSampleFallsBackToHeapOnSamplerError(t *testing.T) {
	g := NewGovernor(Config{}, logging.NewNop())
	g.sampler = func() (float64, error) { return 0, context.DeadlineExceeded }

	if mb := g.Sample(); mb <= 0 {
		t.Fatalf("expected positive heap fallback sample, got %v", mb)
	}
}

func TestDefaultSamplerReportsPositiveFootprint(t *testing.T) {
	g := NewGovernor(Config{}, logging.NewNop())
	if mb := g.Sample(); mb <= 0 {
		t.Fatalf("expected positive footprint, got %v", mb)
	}
}
