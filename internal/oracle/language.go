package oracle

import (
	"regexp"
	"strings"

	"github.com/danmuck/loomctl/internal/plan"
)

var languageCodes = map[string]string{
	"english":  "en",
	"german":   "de",
	"french":   "fr",
	"spanish":  "es",
	"japanese": "ja",
}

var translatePattern = regexp.MustCompile(`(?i)translat\w*\s+(?:\w+\s+)*?(?:in)?to\s+([a-z]+)`)

// InferTargetLanguage recovers a "translate ... to <language>" directive
// from the task text.
func InferTargetLanguage(task string) (string, bool) {
	m := translatePattern.FindStringSubmatch(task)
	if m == nil {
		return "", false
	}
	code, ok := languageCodes[strings.ToLower(m[1])]
	return code, ok
}

// FillTargetLanguage sets target_language on translator steps that lack
// it, when the task names a known language. Pure: returns a modified clone.
func FillTargetLanguage(p plan.Plan, task string) plan.Plan {
	out := p.Clone()
	code, ok := InferTargetLanguage(task)
	if !ok {
		return out
	}
	for i, s := range out.Steps {
		if s.Capability != "translator" || s.Parameters["target_language"] != "" {
			continue
		}
		if out.Steps[i].Parameters == nil {
			out.Steps[i].Parameters = make(map[string]string, 1)
		}
		out.Steps[i].Parameters["target_language"] = code
	}
	return out
}
