package config

import (
	"fmt"
	"strings"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

// RegistryCapabilities converts file entries into registry capabilities,
// validating each one.
func RegistryCapabilities(entries []CapabilityEntry) ([]registry.Capability, error) {
	caps := make([]registry.Capability, 0, len(entries))
	for i, entry := range entries {
		c, err := entry.capability()
		if err != nil {
			return nil, fmt.Errorf("%w: capabilities[%d] (%s): %v", ErrInvalidConfig, i, entry.Name, err)
		}
		caps = append(caps, c)
	}
	return caps, nil
}

func (e CapabilityEntry) capability() (registry.Capability, error) {
	input, err := protocol.ParseShape(e.Input)
	if err != nil {
		return registry.Capability{}, fmt.Errorf("input: %v", err)
	}
	output, err := protocol.ParseShape(e.Output)
	if err != nil {
		return registry.Capability{}, fmt.Errorf("output: %v", err)
	}
	kind, err := registry.ParseTargetKind(e.Target.Kind)
	if err != nil {
		return registry.Capability{}, err
	}

	c := registry.Capability{
		Name:        strings.TrimSpace(e.Name),
		Description: strings.TrimSpace(e.Description),
		InputShape:  input,
		OutputShape: output,
		Target: registry.Target{
			Kind:    kind,
			Host:    strings.TrimSpace(e.Target.Host),
			Addr:    strings.TrimSpace(e.Target.Addr),
			Command: strings.TrimSpace(e.Target.Command),
			Args:    append([]string(nil), e.Target.Args...),
		},
	}
	if err := c.Validate(); err != nil {
		return registry.Capability{}, err
	}
	return c, nil
}
