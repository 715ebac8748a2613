package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
)

const qwenDefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// NewChatModel constructs the provider-specific chat model for cfg.
func NewChatModel(ctx context.Context, cfg ModelConfig) (model.BaseChatModel, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	apiKey := cfg.ResolveAPIKey()
	switch cfg.APIType {
	case APITypeOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      apiKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	case APITypeClaude:
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		return claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     baseURL,
			APIKey:      apiKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	case APITypeOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
		})
	case APITypeARK:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      apiKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
		})
	case APITypeQwen:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = qwenDefaultBaseURL
		}
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      apiKey,
			Model:       cfg.ModelName,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAPIType, cfg.APIType)
	}
}
