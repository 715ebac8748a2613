package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

const summarizerSystem = `You summarize documents. Generate a concise summary of the text you
are given. Focus on the main points and key information. Output ONLY the
summary text, with no preamble.`

// Summarizer condenses the payload text.
type Summarizer struct {
	gen llm.Generator
}

var _ Handler = (*Summarizer)(nil)

func NewSummarizer(gen llm.Generator) *Summarizer { return &Summarizer{gen: gen} }

func (s *Summarizer) Name() string { return "summarizer" }

func (s *Summarizer) Describe() registry.Capability {
	return registry.Capability{
		Name:        "summarizer",
		Description: "condense text into a concise summary of its key points",
		InputShape:  protocol.ShapeText,
		OutputShape: protocol.ShapeText,
		Target:      registry.Target{Kind: registry.TargetLocal},
	}
}

func (s *Summarizer) Invoke(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error) {
	out := req.Payload.Clone()
	if strings.TrimSpace(out.Text) == "" {
		return out, nil
	}
	temp := float32(1.0)
	text, err := s.gen.Generate(ctx, llm.GenerateRequest{
		System:      summarizerSystem,
		Prompt:      "Text to Summarize:\n---\n" + out.Text + "\n---\n\nSummary:",
		Temperature: &temp,
	})
	if err != nil {
		return protocol.Payload{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	out.Text = text
	return out, nil
}
