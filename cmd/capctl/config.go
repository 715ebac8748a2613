package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/loomctl/internal/config"
	"github.com/danmuck/loomctl/internal/llm"
)

type nodeConfig struct {
	NodeID      string
	ListenAddr  string
	CorsOrigins []string
	Capability  string
	Model       llm.ModelConfig
}

func defaultNodeConfig() nodeConfig {
	return nodeConfig{
		NodeID:     "cap.local",
		ListenAddr: ":7710",
		Capability: "summarizer",
	}
}

// loadNodeConfig overlays only the keys present in the file onto the
// compiled defaults.
func loadNodeConfig(path string) (nodeConfig, error) {
	cfg := defaultNodeConfig()

	var raw config.CapabilityFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nodeConfig{}, fmt.Errorf("load capability config: %w", err)
	}

	if meta.IsDefined("node_id") {
		cfg.NodeID = strings.TrimSpace(raw.NodeID)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("capability") {
		cfg.Capability = strings.ToLower(strings.TrimSpace(raw.Capability))
	}
	if meta.IsDefined("model") {
		model, err := raw.Model.ModelConfig()
		if err != nil {
			return nodeConfig{}, fmt.Errorf("load capability config: %w", err)
		}
		cfg.Model = model
	}

	if cfg.Capability == "" {
		return nodeConfig{}, fmt.Errorf("load capability config: capability is required")
	}
	return cfg, nil
}
