package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/plan"
)

var ErrMalformedPlan = errors.New("malformed plan response")

// ParsePlanResponse extracts a step sequence from raw model output. The
// model is told to answer with a bare JSON array, but real replies arrive
// fenced, wrapped in prose, or as plain capability-name strings; all of
// those parse. An empty array parses too: rejecting it is the validator's
// job, not the parser's.
func ParsePlanResponse(raw string) (plan.Plan, error) {
	body := extractArray(stripFences(raw))
	if body == "" {
		return plan.Plan{}, fmt.Errorf("%w: no JSON array in response", ErrMalformedPlan)
	}

	var steps []plan.Step
	if err := json.Unmarshal([]byte(body), &steps); err == nil {
		for i := range steps {
			steps[i].Capability = strings.TrimSpace(steps[i].Capability)
		}
		if stepsComplete(steps) {
			return plan.Plan{Steps: steps}, nil
		}
	}

	var names []string
	if err := json.Unmarshal([]byte(body), &names); err == nil {
		steps = make([]plan.Step, len(names))
		for i, name := range names {
			steps[i] = plan.Step{Capability: strings.TrimSpace(name)}
		}
		if stepsComplete(steps) {
			return plan.Plan{Steps: steps}, nil
		}
	}
	return plan.Plan{}, fmt.Errorf("%w: not a capability step array", ErrMalformedPlan)
}

func stepsComplete(steps []plan.Step) bool {
	for _, s := range steps {
		if s.Capability == "" {
			return false
		}
	}
	return true
}

// stripFences removes a surrounding markdown code fence and its info
// string, if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractArray returns the outermost JSON array in s, or "".
func extractArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
