// Package plan models capability pipelines and validates them against the
// registry before anything executes. Validation is pure: no capability is
// invoked, no network is touched, and the same plan validates identically
// on every call.
package plan

import (
	"maps"
	"strings"
)

// Step is one pipeline stage: a capability name plus optional parameters
// forwarded verbatim to the handler.
type Step struct {
	Capability string            `json:"capability"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Plan is an ordered capability sequence.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	if len(p.Steps) == 0 {
		return Plan{}
	}
	steps := make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = Step{Capability: s.Capability}
		if len(s.Parameters) > 0 {
			steps[i].Parameters = make(map[string]string, len(s.Parameters))
			maps.Copy(steps[i].Parameters, s.Parameters)
		}
	}
	return Plan{Steps: steps}
}

// Len returns the number of steps.
func (p Plan) Len() int { return len(p.Steps) }

// String renders the capability sequence, e.g. "anonymizer -> summarizer".
func (p Plan) String() string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Capability
	}
	return strings.Join(names, " -> ")
}
