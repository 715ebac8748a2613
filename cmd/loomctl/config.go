package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/loomctl/internal/config"
	"github.com/danmuck/loomctl/internal/coordinator"
)

// resolveServiceConfig returns the compiled defaults when no config path
// was given on the command line.
func resolveServiceConfig() (coordinator.ServiceConfig, error) {
	if configPath == "" {
		return coordinator.DefaultServiceConfig(), nil
	}
	return loadServiceConfig(configPath)
}

// loadServiceConfig overlays only the keys present in the file onto the
// compiled defaults.
func loadServiceConfig(path string) (coordinator.ServiceConfig, error) {
	cfg := coordinator.DefaultServiceConfig()

	var raw config.CoordinatorFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return coordinator.ServiceConfig{}, fmt.Errorf("load coordinator config: %w", err)
	}
	if err := raw.Validate(); err != nil {
		return coordinator.ServiceConfig{}, fmt.Errorf("load coordinator config: %w", err)
	}

	if meta.IsDefined("coordinator_id") {
		cfg.CoordinatorID = strings.TrimSpace(raw.CoordinatorID)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("api_token") {
		cfg.APIToken = strings.TrimSpace(raw.APIToken)
	}
	if meta.IsDefined("registry_path") {
		cfg.RegistryPath = resolvePath(path, raw.RegistryPath)
	}
	if meta.IsDefined("max_plan_steps") {
		cfg.MaxPlanSteps = raw.MaxPlanSteps
	}
	if meta.IsDefined("replan_on_invalid") {
		cfg.ReplanOnInvalid = raw.ReplanOnInvalid
	}
	if meta.IsDefined("model") {
		model, err := raw.Model.ModelConfig()
		if err != nil {
			return coordinator.ServiceConfig{}, fmt.Errorf("load coordinator config: %w", err)
		}
		cfg.Model = model
	}
	if meta.IsDefined("policy", "step_timeout_ms") {
		cfg.Policy.StepTimeout = time.Duration(raw.Policy.StepTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("policy", "max_retries") {
		cfg.Policy.MaxRetries = raw.Policy.MaxRetries
	}
	if meta.IsDefined("policy", "backoff", "initial_delay_ms") {
		cfg.Policy.Backoff.InitialDelay = time.Duration(raw.Policy.Backoff.InitialDelayMS) * time.Millisecond
	}
	if meta.IsDefined("policy", "backoff", "multiplier") {
		cfg.Policy.Backoff.Multiplier = raw.Policy.Backoff.Multiplier
	}
	if meta.IsDefined("policy", "backoff", "max_delay_ms") {
		cfg.Policy.Backoff.MaxDelay = time.Duration(raw.Policy.Backoff.MaxDelayMS) * time.Millisecond
	}
	if meta.IsDefined("policy", "backoff", "jitter") {
		cfg.Policy.Backoff.Jitter = raw.Policy.Backoff.Jitter
	}
	return cfg, nil
}

// resolvePath resolves a config-relative path against the config file's
// directory, so registry_path works from any working directory.
func resolvePath(configFile, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(configFile), p)
}
