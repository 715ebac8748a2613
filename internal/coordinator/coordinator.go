// Package coordinator owns the plan, validate, execute loop behind a task
// request, and hosts it as an HTTP service.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/observability"
	"github.com/danmuck/loomctl/internal/oracle"
	"github.com/danmuck/loomctl/internal/pipeline"
	"github.com/danmuck/loomctl/internal/plan"
	"github.com/danmuck/loomctl/internal/protocol"
)

var ErrInvalidRunRequest = errors.New("invalid run request")

// RunRequest is one task over one input document.
type RunRequest struct {
	Task  string `json:"task"`
	Input string `json:"input"`
}

func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.Task) == "" {
		return fmt.Errorf("%w: task is required", ErrInvalidRunRequest)
	}
	if strings.TrimSpace(r.Input) == "" {
		return fmt.Errorf("%w: input is required", ErrInvalidRunRequest)
	}
	return nil
}

// RunResult is one completed run.
type RunResult struct {
	RunID     string                `json:"run_id"`
	Output    protocol.Payload      `json:"output"`
	Plan      plan.Plan             `json:"plan"`
	Steps     []pipeline.StepResult `json:"steps"`
	Replanned bool                  `json:"replanned"`
}

// Coordinator wires the planning oracle, the plan validator, and the
// pipeline executor into one run loop.
type Coordinator struct {
	planner         oracle.Planner
	validator       *plan.Validator
	exec            *pipeline.Executor
	replanOnInvalid bool
}

func New(planner oracle.Planner, validator *plan.Validator, exec *pipeline.Executor, replanOnInvalid bool) *Coordinator {
	return &Coordinator{
		planner:         planner,
		validator:       validator,
		exec:            exec,
		replanOnInvalid: replanOnInvalid,
	}
}

// Run executes one task end to end. Plan-level failures return before any
// capability runs; pipeline failures pass through with their partial step
// log intact.
func (c *Coordinator) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := req.Validate(); err != nil {
		observability.RecordRun("invalid_request")
		return RunResult{}, err
	}

	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Str("task", snippet(req.Task)).Msg("run_start")

	accepted, replanned, err := c.Propose(ctx, req.Task)
	if err != nil {
		recordProposalFailure(err)
		return RunResult{}, err
	}

	res, err := c.exec.Execute(ctx, runID, accepted, protocol.Payload{Text: req.Input})
	if err != nil {
		observability.RecordRun("pipeline_failed")
		return RunResult{}, err
	}

	observability.RecordRun("ok")
	log.Info().
		Str("run_id", runID).
		Str("plan", accepted.String()).
		Bool("replanned", replanned).
		Msg("run_ok")
	return RunResult{
		RunID:     runID,
		Output:    res.Output,
		Plan:      accepted,
		Steps:     res.Steps,
		Replanned: replanned,
	}, nil
}

// Propose asks the oracle for a plan and validates it, spending at most one
// replan round when enabled. The bool reports whether the accepted plan came
// from the second proposal.
func (c *Coordinator) Propose(ctx context.Context, task string) (plan.Plan, bool, error) {
	proposed, err := c.planner.Plan(ctx, task)
	if err != nil {
		return plan.Plan{}, false, err
	}
	proposed = oracle.FillTargetLanguage(proposed, task)

	verr := c.validator.Validate(proposed)
	if verr == nil {
		return proposed, false, nil
	}
	if !c.replanOnInvalid {
		return plan.Plan{}, false, verr
	}

	log.Warn().Str("plan", proposed.String()).Err(verr).Msg("plan_rejected")
	corrected, err := c.planner.Replan(ctx, task, proposed, verr.Error())
	if err != nil {
		return plan.Plan{}, false, err
	}
	corrected = oracle.FillTargetLanguage(corrected, task)

	if verr := c.validator.Validate(corrected); verr != nil {
		return plan.Plan{}, true, verr
	}
	return corrected, true, nil
}

func recordProposalFailure(err error) {
	if errors.Is(err, plan.ErrInvalidPlan) {
		observability.RecordRun("invalid_plan")
		return
	}
	observability.RecordRun("planning_failed")
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
