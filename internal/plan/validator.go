package plan

import (
	"errors"
	"fmt"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// DefaultMaxSteps bounds plan length when the caller does not.
const DefaultMaxSteps = 8

var ErrInvalidPlan = errors.New("invalid plan")

// ErrorKind names the validation failure classes.
type ErrorKind string

const (
	KindEmptyPlan             ErrorKind = "empty_plan"
	KindTooManySteps          ErrorKind = "too_many_steps"
	KindUnknownCapability     ErrorKind = "unknown_capability"
	KindIncompatibleInput     ErrorKind = "incompatible_input"
	KindIncompatibleAdjacency ErrorKind = "incompatible_adjacency"
)

// ValidationError reports the first rule a plan breaks. StepIndex is
// 1-based; 0 means the plan as a whole.
type ValidationError struct {
	Kind       ErrorKind
	StepIndex  int
	Capability string
	Detail     string
}

func (e *ValidationError) Error() string {
	if e.StepIndex > 0 {
		return fmt.Sprintf("%s: step %d (%s): %s", e.Kind, e.StepIndex, e.Capability, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPlan }

// Validator checks plans against a capability registry.
type Validator struct {
	reg      *registry.Registry
	maxSteps int
}

// NewValidator builds a validator. maxSteps <= 0 selects DefaultMaxSteps.
func NewValidator(reg *registry.Registry, maxSteps int) *Validator {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Validator{reg: reg, maxSteps: maxSteps}
}

// MaxSteps returns the plan length limit in force.
func (v *Validator) MaxSteps() int { return v.maxSteps }

// Validate reports the first rule the plan breaks, or nil. Checks run in a
// fixed order: length bounds, capability existence in step order, first-step
// input compatibility, then each adjacent output/input pair.
func (v *Validator) Validate(p Plan) error {
	if len(p.Steps) == 0 {
		return &ValidationError{Kind: KindEmptyPlan, Detail: "plan has no steps"}
	}
	if len(p.Steps) > v.maxSteps {
		return &ValidationError{
			Kind:   KindTooManySteps,
			Detail: fmt.Sprintf("plan has %d steps, limit is %d", len(p.Steps), v.maxSteps),
		}
	}
	caps := make([]registry.Capability, len(p.Steps))
	for i, s := range p.Steps {
		c, ok := v.reg.Get(s.Capability)
		if !ok {
			return &ValidationError{
				Kind:       KindUnknownCapability,
				StepIndex:  i + 1,
				Capability: s.Capability,
				Detail:     "capability is not registered",
			}
		}
		caps[i] = c
	}
	first := caps[0]
	if !protocol.Satisfies(protocol.ShapeText, first.InputShape) {
		return &ValidationError{
			Kind:       KindIncompatibleInput,
			StepIndex:  1,
			Capability: first.Name,
			Detail:     fmt.Sprintf("consumes %q but pipelines start from %q", first.InputShape, protocol.ShapeText),
		}
	}
	for i := 1; i < len(caps); i++ {
		prev, next := caps[i-1], caps[i]
		if !protocol.Satisfies(prev.OutputShape, next.InputShape) {
			return &ValidationError{
				Kind:       KindIncompatibleAdjacency,
				StepIndex:  i + 1,
				Capability: next.Name,
				Detail: fmt.Sprintf("%s produces %q but %s consumes %q",
					prev.Name, prev.OutputShape, next.Name, next.InputShape),
			}
		}
	}
	return nil
}
