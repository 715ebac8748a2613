package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/testutil/testlog"
)

func TestLoadNodeConfigOverlaysOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
capability = "Anonymizer"
listen_addr = ":7733"
`)

	cfg, err := loadNodeConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Capability != "anonymizer" {
		t.Fatalf("capability = %q, want normalized lowercase", cfg.Capability)
	}
	if cfg.ListenAddr != ":7733" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.NodeID != defaultNodeConfig().NodeID {
		t.Fatalf("node id should keep the default, got %q", cfg.NodeID)
	}
}

func TestLoadNodeConfigModel(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
capability = "summarizer"

[model]
api_type = "ollama"
base_url = "http://localhost:11434"
model_name = "llama3.1"
`)

	cfg, err := loadNodeConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model.APIType != llm.APITypeOllama || cfg.Model.ModelName != "llama3.1" {
		t.Fatalf("model not overlaid: %+v", cfg.Model)
	}
}

func TestLoadNodeConfigRejectsEmptyCapability(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `capability = "  "`)
	if _, err := loadNodeConfig(path); err == nil {
		t.Fatalf("expected error for blank capability")
	}
}

func TestSelectHandler(t *testing.T) {
	testlog.Start(t)
	h, err := selectHandler("deanonymizer", nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if h.Name() != "deanonymizer" {
		t.Fatalf("selected %q", h.Name())
	}
	if _, err := selectHandler("paraphraser", nil); err == nil {
		t.Fatalf("expected error for unknown builtin")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
