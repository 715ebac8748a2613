// Package oracle adapts an untrusted language model into a Planner. The
// model proposes step sequences as JSON; nothing it returns is trusted
// until the plan validator has passed it. The oracle never sees the input
// document, only the task, and it never invokes a capability itself.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/observability"
	"github.com/danmuck/loomctl/internal/plan"
	"github.com/danmuck/loomctl/internal/registry"
)

var ErrPlanningFailed = errors.New("planning failed")

// Planner proposes capability pipelines for a task.
type Planner interface {
	Plan(ctx context.Context, task string) (plan.Plan, error)
	Replan(ctx context.Context, task string, rejected plan.Plan, reason string) (plan.Plan, error)
}

const plannerSystem = `You plan document-processing pipelines by sequencing registered capabilities.
Respond with ONLY a JSON array, in execution order. Each element is either a
capability name string or an object {"capability": "<name>", "parameters": {...}}.
Use only capabilities from the list given. Never invent capabilities.
No explanations, no markdown fences.`

// LLMPlanner asks a chat model to sequence the registry's capabilities.
type LLMPlanner struct {
	gen llm.Generator
	reg *registry.Registry
}

var _ Planner = (*LLMPlanner)(nil)

func NewLLMPlanner(gen llm.Generator, reg *registry.Registry) *LLMPlanner {
	return &LLMPlanner{gen: gen, reg: reg}
}

// Plan proposes a pipeline for the task.
func (p *LLMPlanner) Plan(ctx context.Context, task string) (plan.Plan, error) {
	return p.propose(ctx, "plan", p.planPrompt(task), task)
}

// Replan proposes again after a rejection, feeding the validator's reason
// back to the model.
func (p *LLMPlanner) Replan(ctx context.Context, task string, rejected plan.Plan, reason string) (plan.Plan, error) {
	var b strings.Builder
	b.WriteString(p.planPrompt(task))
	fmt.Fprintf(&b, "\n\nYour previous plan [%s] was rejected: %s\nPropose a corrected plan.", rejected.String(), reason)
	return p.propose(ctx, "replan", b.String(), task)
}

func (p *LLMPlanner) propose(ctx context.Context, phase, prompt, task string) (plan.Plan, error) {
	var temp float32 // planning wants determinism
	start := time.Now()
	raw, err := p.gen.Generate(ctx, llm.GenerateRequest{
		System:      plannerSystem,
		Prompt:      prompt,
		Temperature: &temp,
	})
	if err != nil {
		observability.RecordOracleCall(phase, "error", time.Since(start))
		return plan.Plan{}, fmt.Errorf("%w: %w", ErrPlanningFailed, err)
	}
	proposed, err := ParsePlanResponse(raw)
	if err != nil {
		observability.RecordOracleCall(phase, "malformed", time.Since(start))
		log.Warn().Str("response", snippet(raw)).Err(err).Msg("oracle_malformed_plan")
		return plan.Plan{}, fmt.Errorf("%w: %w", ErrPlanningFailed, err)
	}
	observability.RecordOracleCall(phase, "ok", time.Since(start))
	log.Debug().Str("plan", proposed.String()).Msg("oracle_proposed")
	return FillTargetLanguage(proposed, task), nil
}

// planPrompt enumerates exactly the registry's capabilities so the model
// cannot be steered by a stale list.
func (p *LLMPlanner) planPrompt(task string) string {
	var b strings.Builder
	b.WriteString("Available capabilities:\n")
	for _, c := range p.reg.List() {
		fmt.Fprintf(&b, "- %s: %s (input: %s, output: %s)\n", c.Name, c.Description, c.InputShape, c.OutputShape)
	}
	b.WriteString("\nTask: ")
	b.WriteString(task)
	b.WriteString("\n\nRespond with ONLY the JSON array of steps.")
	return b.String()
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 160 {
		return s[:160] + "..."
	}
	return s
}
