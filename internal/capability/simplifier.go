package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

const simplifierSystem = `You rewrite technical documents for laypeople. The text you are given
may contain complex medical or technical terminology. Rewrite it, or add
explanations in parentheses, so someone without specialist background can
follow it. Focus on clarity and simplicity. Preserve the overall meaning and
context. Output ONLY the simplified text, with no preamble or explanation.`

// Simplifier rewrites jargon-heavy text in plain language.
type Simplifier struct {
	gen llm.Generator
}

var _ Handler = (*Simplifier)(nil)

func NewSimplifier(gen llm.Generator) *Simplifier { return &Simplifier{gen: gen} }

func (s *Simplifier) Name() string { return "simplifier" }

func (s *Simplifier) Describe() registry.Capability {
	return registry.Capability{
		Name:        "simplifier",
		Description: "rewrite clinical or technical text in plain language",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (s *Simplifier) Invoke(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	out := req.Payload.Clone()
	if strings.TrimSpace(out.Text) == "" {
		return out, nil
	}
	temp := float32(0.2)
	text, err := s.gen.Generate(ctx, llm.GenerateRequest{
		System:      simplifierSystem,
		Prompt:      "Text to Simplify:\n---\n" + out.Text + "\n---\n\nSimplified Text:",
		Temperature: &temp,
	})
	if err != nil {
		return protocol.Payload{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	out.Text = text
	return out, nil
}
