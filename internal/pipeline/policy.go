package pipeline

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig defines the retry delay curve for failed step attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Policy bounds step execution: one timeout per attempt plus a retry
// budget spent only on transient failures.
type Policy struct {
	StepTimeout time.Duration
	MaxRetries  int
	Backoff     BackoffConfig
}

// DefaultPolicy returns the executor defaults used when a config file does
// not override them.
func DefaultPolicy() Policy {
	return Policy{
		StepTimeout: 60 * time.Second,
		MaxRetries:  2,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// NextBackoffDelay returns the retry delay after attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
