// Package llm constructs chat models from config and exposes the narrow
// Generator surface the planner and the LLM-backed capabilities consume.
package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultMaxTokens = 16 * 1024
	DefaultTimeout   = 120 * time.Second
)

var (
	ErrModelConfig        = errors.New("invalid model config")
	ErrUnsupportedAPIType = errors.New("unsupported api type")
)

// APIType selects the chat model provider.
type APIType string

const (
	APITypeOpenAI APIType = "openai"
	APITypeClaude APIType = "claude"
	APITypeOllama APIType = "ollama"
	APITypeARK    APIType = "ark"
	APITypeQwen   APIType = "qwen"
)

// ParseAPIType maps a config string onto a provider, accepting common
// aliases.
func ParseAPIType(raw string) (APIType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai", "gpt":
		return APITypeOpenAI, nil
	case "claude", "anthropic":
		return APITypeClaude, nil
	case "ollama":
		return APITypeOllama, nil
	case "ark", "doubao":
		return APITypeARK, nil
	case "qwen", "dashscope", "tongyi":
		return APITypeQwen, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAPIType, raw)
	}
}

// ModelConfig describes one chat model endpoint.
type ModelConfig struct {
	APIType     APIType
	BaseURL     string
	APIKey      string
	APIKeyEnv   string
	ModelName   string
	Temperature *float32
	MaxTokens   int
	Timeout     time.Duration
}

// WithDefaults fills MaxTokens and Timeout when unset.
func (c ModelConfig) WithDefaults() ModelConfig {
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// ResolveAPIKey returns the configured key, falling back to the
// environment variable named by APIKeyEnv.
func (c ModelConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return ""
}

// Validate checks that the config can construct a model. Hosted providers
// need a resolvable API key; ollama needs a base URL instead.
func (c ModelConfig) Validate() error {
	switch c.APIType {
	case APITypeOpenAI, APITypeClaude, APITypeOllama, APITypeARK, APITypeQwen:
	default:
		return fmt.Errorf("%w: unsupported api type %q", ErrModelConfig, c.APIType)
	}
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name required", ErrModelConfig)
	}
	if c.APIType == APITypeOllama {
		if strings.TrimSpace(c.BaseURL) == "" {
			return fmt.Errorf("%w: ollama requires base_url", ErrModelConfig)
		}
		return nil
	}
	if c.ResolveAPIKey() == "" {
		return fmt.Errorf("%w: no api key for %s (set api_key or %s)", ErrModelConfig, c.APIType, c.APIKeyEnv)
	}
	return nil
}
