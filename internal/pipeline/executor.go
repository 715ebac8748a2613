// Package pipeline executes validated plans step by step. Each step's
// output payload becomes the next step's input; a failure aborts the run
// with a partial step log. Completed steps are never rolled back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/observability"
	"github.com/danmuck/loomctl/internal/plan"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

var ErrCapabilityNotRegistered = errors.New("capability not registered")

// Step status values recorded in the run's step log.
const (
	StepStatusOK     = "ok"
	StepStatusFailed = "failed"
)

// Invoker dispatches one step to whatever hosts its capability.
// Implementations classify failures as transient or permanent via
// *protocol.InvokeError; they never retry.
type Invoker interface {
	Invoke(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error)
}

// StepResult records one executed step. Step is the 1-based plan position.
type StepResult struct {
	Step       int    `json:"step"`
	Capability string `json:"capability"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Error reports a run that stopped before its final step. Steps holds the
// partial log: every completed step plus the one that failed. Attempts on
// the failed entry counts attempts actually made, zero when the step never
// started.
type Error struct {
	RunID      string
	FailedStep int
	Capability string
	Cause      error
	Steps      []StepResult
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s: step %d (%s): %v", e.RunID, e.FailedStep, e.Capability, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Result is a completed run: the final payload plus the full step log.
type Result struct {
	RunID  string
	Output protocol.Payload
	Steps  []StepResult
}

// Executor runs plans strictly in order against a fixed capability
// registry.
type Executor struct {
	reg    *registry.Registry
	inv    Invoker
	policy Policy
}

func NewExecutor(reg *registry.Registry, inv Invoker, policy Policy) *Executor {
	return &Executor{reg: reg, inv: inv, policy: policy}
}

// Execute threads the input payload through every plan step. Step i+1
// starts only after step i succeeded, consuming step i's output.
func (x *Executor) Execute(ctx context.Context, runID string, p plan.Plan, input protocol.Payload) (Result, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	steps := make([]StepResult, 0, p.Len())
	payload := input

	log.Info().Str("run_id", runID).Str("plan", p.String()).Msg("pipeline_start")
	for i, step := range p.Steps {
		index := i + 1
		select {
		case <-ctx.Done():
			steps = append(steps, StepResult{
				Step:       index,
				Capability: step.Capability,
				Status:     StepStatusFailed,
				Error:      ctx.Err().Error(),
			})
			return Result{}, &Error{RunID: runID, FailedStep: index, Capability: step.Capability, Cause: ctx.Err(), Steps: steps}
		default:
		}

		out, sr, err := x.runStep(ctx, runID, index, step, payload, rng)
		steps = append(steps, sr)
		if err != nil {
			log.Warn().
				Str("run_id", runID).
				Int("step", index).
				Str("capability", step.Capability).
				Int("attempts", sr.Attempts).
				Err(err).
				Msg("pipeline_failed")
			return Result{}, &Error{RunID: runID, FailedStep: index, Capability: step.Capability, Cause: err, Steps: steps}
		}
		payload = out
	}
	log.Info().Str("run_id", runID).Int("steps", len(steps)).Msg("pipeline_ok")
	return Result{RunID: runID, Output: payload, Steps: steps}, nil
}

// runStep drives the attempt loop for one step. Transient failures retry
// with backoff until the policy budget runs out; permanent failures abort
// on the spot.
func (x *Executor) runStep(ctx context.Context, runID string, index int, step plan.Step, in protocol.Payload, rng *rand.Rand) (protocol.Payload, StepResult, error) {
	sr := StepResult{Step: index, Capability: step.Capability, Status: StepStatusFailed}

	target, ok := x.reg.Get(step.Capability)
	if !ok {
		// the plan validator rejects these before execution; guard anyway
		err := fmt.Errorf("%w: %q", ErrCapabilityNotRegistered, step.Capability)
		sr.Error = err.Error()
		return protocol.Payload{}, sr, err
	}

	req := protocol.InvokeRequest{
		RunID:      runID,
		StepIndex:  index,
		Capability: step.Capability,
		Parameters: step.Parameters,
		Payload:    in,
	}

	maxAttempts := x.policy.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sr.Attempts = attempt
		out, err := x.attempt(ctx, target, req)
		if err == nil {
			d := time.Since(start)
			sr.Status = StepStatusOK
			sr.DurationMS = d.Milliseconds()
			observability.RecordStep(step.Capability, sr.Status, d)
			log.Debug().Str("run_id", runID).Int("step", index).Str("capability", step.Capability).Int("attempt", attempt).Msg("step_ok")
			return out, sr, nil
		}
		lastErr = err
		if !protocol.IsTransient(err) || attempt == maxAttempts {
			break
		}
		delay := NextBackoffDelay(x.policy.Backoff, attempt, rng)
		log.Warn().
			Str("run_id", runID).
			Int("step", index).
			Str("capability", step.Capability).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Err(err).
			Msg("step_retry")
		if werr := waitRetry(ctx, delay); werr != nil {
			lastErr = werr
			break
		}
	}

	d := time.Since(start)
	sr.DurationMS = d.Milliseconds()
	sr.Error = lastErr.Error()
	observability.RecordStep(step.Capability, sr.Status, d)
	return protocol.Payload{}, sr, lastErr
}

// attempt runs one invocation under the per-attempt step timeout.
func (x *Executor) attempt(ctx context.Context, target registry.Capability, req protocol.InvokeRequest) (protocol.Payload, error) {
	actx, cancel := x.attemptContext(ctx)
	defer cancel()
	return x.inv.Invoke(actx, target, req)
}

func (x *Executor) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if x.policy.StepTimeout > 0 {
		return context.WithTimeout(ctx, x.policy.StepTimeout)
	}
	return context.WithCancel(ctx)
}

func waitRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
