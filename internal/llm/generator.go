package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// GenerateRequest is one prompt exchange. Temperature, when set, overrides
// the model default for this call only.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature *float32
}

// Generator is the surface consumers depend on instead of a concrete
// chat model.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ChatGenerator adapts an eino chat model to the Generator interface.
type ChatGenerator struct {
	model model.BaseChatModel
}

var _ Generator = (*ChatGenerator)(nil)

// NewGenerator builds the chat model for cfg and wraps it.
func NewGenerator(ctx context.Context, cfg ModelConfig) (*ChatGenerator, error) {
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ChatGenerator{model: m}, nil
}

// WrapChatModel adapts an already constructed chat model.
func WrapChatModel(m model.BaseChatModel) *ChatGenerator {
	return &ChatGenerator{model: m}
}

// Generate sends the system and user messages and returns the reply text.
func (g *ChatGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	msgs := make([]*schema.Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))

	var opts []model.Option
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	out, err := g.model.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", errors.New("model returned no message")
	}
	return out.Content, nil
}
