package pipeline

import (
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestNextBackoffDelayClampsMultiplier(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   0.25,
		MaxDelay:     time.Second,
	}
	if got := NextBackoffDelay(cfg, 4, nil); got != 100*time.Millisecond {
		t.Fatalf("multiplier below 1 should clamp, got=%v", got)
	}
}

func TestNextBackoffDelayJitterFixedWithoutRng(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 250*time.Millisecond {
		t.Fatalf("nil rng should halve the delay, got=%v", got)
	}
}

func TestNextBackoffDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
	rng := rand.New(rand.NewSource(7))
	got := NextBackoffDelay(cfg, 2, rng)
	if got < 250*time.Millisecond || got >= 750*time.Millisecond {
		t.Fatalf("jitter out of range: %v", got)
	}
}

func TestDefaultPolicy(t *testing.T) {
	testlog.Start(t)
	p := DefaultPolicy()
	if p.StepTimeout != 60*time.Second {
		t.Fatalf("unexpected step timeout: %v", p.StepTimeout)
	}
	if p.MaxRetries != 2 {
		t.Fatalf("unexpected retry budget: %d", p.MaxRetries)
	}
	if p.Backoff.InitialDelay != 250*time.Millisecond || p.Backoff.Multiplier != 2.0 {
		t.Fatalf("unexpected backoff: %+v", p.Backoff)
	}
	if p.Backoff.MaxDelay != 5*time.Second || !p.Backoff.Jitter {
		t.Fatalf("unexpected backoff: %+v", p.Backoff)
	}
}
