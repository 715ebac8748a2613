package capability

import (
	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/registry"
)

// Builtins returns the handlers this binary ships with. The LLM-backed
// handlers share one generator; the anonymizer pair is deterministic.
func Builtins(gen llm.Generator) []Handler {
	return []Handler{
		NewSummarizer(gen),
		NewTranslator(gen),
		NewSimplifier(gen),
		NewAnonymizer(),
		NewDeanonymizer(),
	}
}

// RequiresModel reports whether a builtin needs a chat model to run. The
// anonymizer pair is deterministic; everything else generates.
func RequiresModel(name string) bool {
	switch name {
	case "anonymizer", "deanonymizer":
		return false
	default:
		return true
	}
}

// Catalog returns the registry descriptors for a handler set.
func Catalog(handlers []Handler) []registry.Capability {
	caps := make([]registry.Capability, len(handlers))
	for i, h := range handlers {
		caps[i] = h.Describe()
	}
	return caps
}
