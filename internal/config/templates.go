package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns the commented starter config for the given kind:
// "coordinator" (loomctl serve), "capability" (capctl), or "registry"
// (the capability registry file).
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "coordinator":
		return coordinatorTemplate, nil
	case "capability":
		return capabilityTemplate, nil
	case "registry":
		return registryTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// WriteTemplate writes the template for kind to path. Existing files are
// preserved unless overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const coordinatorTemplate = `# loomctl coordinator configuration
coordinator_id = "loom.local"
listen_addr = ":7700"
cors_origins = ["http://localhost:3000"]
# Bearer token required on /runs and /capabilities when set.
api_token = ""
# Path to a capability registry file. Empty serves the builtin registry.
registry_path = ""
max_plan_steps = 8
replan_on_invalid = true

[model]
# One of: openai, claude, ollama, ark, qwen.
api_type = "openai"
base_url = ""
api_key = ""
api_key_env = "OPENAI_API_KEY"
model_name = "gpt-4o-mini"
max_tokens = 16384
timeout_ms = 120000

[policy]
step_timeout_ms = 60000
max_retries = 2

[policy.backoff]
initial_delay_ms = 250
multiplier = 2.0
max_delay_ms = 5000
jitter = true
`

const capabilityTemplate = `# capctl capability node configuration
node_id = "cap.summarizer"
listen_addr = ":7710"
cors_origins = ["http://localhost:3000"]
# Builtin handler to host: summarizer, translator, simplifier,
# anonymizer, or deanonymizer.
capability = "summarizer"

[model]
api_type = "ollama"
base_url = "http://localhost:11434"
model_name = "llama3.1"
`

const registryTemplate = `# loomctl capability registry
# Each capability lists its payload shapes and an invocation target.
# Target kinds: local (in-process builtin), http (POST <base>/invoke),
# exec (JSON envelopes over stdio).

[[capabilities]]
name = "summarizer"
description = "condense text into a concise summary of its key points"
input = "text"
output = "text"

[capabilities.target]
kind = "local"

[[capabilities]]
name = "translator"
description = "translate text into a target language (parameter: target_language)"
input = "text"
output = "text"

[capabilities.target]
kind = "local"

[[capabilities]]
name = "simplifier"
description = "rewrite clinical or technical text in plain language"
input = "text"
output = "text"

[capabilities.target]
kind = "local"

[[capabilities]]
name = "anonymizer"
description = "mask personal identifiers with placeholders, keeping a substitution map"
input = "text"
output = "text+metadata"

[capabilities.target]
kind = "local"

[[capabilities]]
name = "deanonymizer"
description = "restore identifiers masked by the anonymizer from the substitution map"
input = "text+metadata"
output = "text"

[capabilities.target]
kind = "local"

# Remote node example:
# [[capabilities]]
# name = "summarizer"
# description = "condense text into a concise summary of its key points"
# input = "text"
# output = "text"
#
# [capabilities.target]
# kind = "http"
# host = "localhost"
# addr = ":7710"

# Subprocess example:
# [[capabilities]]
# name = "reverser"
# description = "reverse the payload text"
# input = "text"
# output = "text"
#
# [capabilities.target]
# kind = "exec"
# command = "/usr/local/bin/reverser"
# args = ["--stdio"]
`
