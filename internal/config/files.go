package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/loomctl/internal/llm"
)

// CoordinatorFile is the on-disk shape of a loomctl coordinator config.
// Binaries overlay only the keys present in the file onto compiled
// defaults; this struct carries the full key surface.
type CoordinatorFile struct {
	CoordinatorID   string      `toml:"coordinator_id"`
	ListenAddr      string      `toml:"listen_addr"`
	CorsOrigins     []string    `toml:"cors_origins"`
	APIToken        string      `toml:"api_token"`
	RegistryPath    string      `toml:"registry_path"`
	MaxPlanSteps    int         `toml:"max_plan_steps"`
	ReplanOnInvalid bool        `toml:"replan_on_invalid"`
	Model           ModelEntry  `toml:"model"`
	Policy          PolicyEntry `toml:"policy"`
}

// CapabilityFile is the on-disk shape of a capctl node config.
type CapabilityFile struct {
	NodeID      string     `toml:"node_id"`
	ListenAddr  string     `toml:"listen_addr"`
	CorsOrigins []string   `toml:"cors_origins"`
	Capability  string     `toml:"capability"`
	Model       ModelEntry `toml:"model"`
}

// ModelEntry mirrors llm.ModelConfig in file form.
type ModelEntry struct {
	APIType     string   `toml:"api_type"`
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	APIKeyEnv   string   `toml:"api_key_env"`
	ModelName   string   `toml:"model_name"`
	Temperature *float64 `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
	TimeoutMS   int64    `toml:"timeout_ms"`
}

// PolicyEntry mirrors pipeline.Policy in file form, durations in
// milliseconds.
type PolicyEntry struct {
	StepTimeoutMS int64        `toml:"step_timeout_ms"`
	MaxRetries    int          `toml:"max_retries"`
	Backoff       BackoffEntry `toml:"backoff"`
}

// BackoffEntry mirrors pipeline.BackoffConfig in file form.
type BackoffEntry struct {
	InitialDelayMS int64   `toml:"initial_delay_ms"`
	Multiplier     float64 `toml:"multiplier"`
	MaxDelayMS     int64   `toml:"max_delay_ms"`
	Jitter         bool    `toml:"jitter"`
}

// LoadCoordinatorFile reads and validates a coordinator config file.
func LoadCoordinatorFile(path string) (CoordinatorFile, error) {
	var file CoordinatorFile
	if err := loadToml(path, &file); err != nil {
		return CoordinatorFile{}, err
	}
	if err := file.Validate(); err != nil {
		return CoordinatorFile{}, err
	}
	return file, nil
}

// LoadCapabilityFile reads and validates a capability node config file.
func LoadCapabilityFile(path string) (CapabilityFile, error) {
	var file CapabilityFile
	if err := loadToml(path, &file); err != nil {
		return CapabilityFile{}, err
	}
	if err := file.Validate(); err != nil {
		return CapabilityFile{}, err
	}
	return file, nil
}

// Validate catches the mistakes a coordinator file can carry on its own;
// anything depending on the environment (API keys) waits for startup.
func (f CoordinatorFile) Validate() error {
	if f.MaxPlanSteps < 0 {
		return fmt.Errorf("%w: max_plan_steps cannot be negative", ErrInvalidConfig)
	}
	if err := f.Model.validate(); err != nil {
		return err
	}
	return f.Policy.validate()
}

// Validate checks a capability node file.
func (f CapabilityFile) Validate() error {
	if strings.TrimSpace(f.Capability) == "" {
		return fmt.Errorf("%w: capability is required", ErrInvalidConfig)
	}
	return f.Model.validate()
}

func (e ModelEntry) validate() error {
	if api := strings.TrimSpace(e.APIType); api != "" {
		if _, err := llm.ParseAPIType(api); err != nil {
			return fmt.Errorf("%w: model: %v", ErrInvalidConfig, err)
		}
	}
	if e.MaxTokens < 0 {
		return fmt.Errorf("%w: model: max_tokens cannot be negative", ErrInvalidConfig)
	}
	if e.TimeoutMS < 0 {
		return fmt.Errorf("%w: model: timeout_ms cannot be negative", ErrInvalidConfig)
	}
	return nil
}

func (e PolicyEntry) validate() error {
	if e.StepTimeoutMS < 0 {
		return fmt.Errorf("%w: policy: step_timeout_ms cannot be negative", ErrInvalidConfig)
	}
	if e.MaxRetries < 0 {
		return fmt.Errorf("%w: policy: max_retries cannot be negative", ErrInvalidConfig)
	}
	if e.Backoff.InitialDelayMS < 0 || e.Backoff.MaxDelayMS < 0 {
		return fmt.Errorf("%w: policy: backoff delays cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ModelConfig converts the entry into a runtime model config.
func (e ModelEntry) ModelConfig() (llm.ModelConfig, error) {
	cfg := llm.ModelConfig{
		BaseURL:   strings.TrimSpace(e.BaseURL),
		APIKey:    strings.TrimSpace(e.APIKey),
		APIKeyEnv: strings.TrimSpace(e.APIKeyEnv),
		ModelName: strings.TrimSpace(e.ModelName),
		MaxTokens: e.MaxTokens,
		Timeout:   time.Duration(e.TimeoutMS) * time.Millisecond,
	}
	if api := strings.TrimSpace(e.APIType); api != "" {
		parsed, err := llm.ParseAPIType(api)
		if err != nil {
			return llm.ModelConfig{}, fmt.Errorf("%w: model: %v", ErrInvalidConfig, err)
		}
		cfg.APIType = parsed
	}
	if e.Temperature != nil {
		t := float32(*e.Temperature)
		cfg.Temperature = &t
	}
	return cfg, nil
}
