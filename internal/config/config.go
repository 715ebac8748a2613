// Package config holds the shared on-disk formats: the capability registry
// file consumed by the coordinator, and the TOML templates emitted by
// configgen.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

// RegistryFile is the on-disk capability registry.
type RegistryFile struct {
	Capabilities []CapabilityEntry `toml:"capabilities"`
}

// CapabilityEntry declares one capability and where it runs.
type CapabilityEntry struct {
	Name        string      `toml:"name"`
	Description string      `toml:"description"`
	Input       string      `toml:"input"`
	Output      string      `toml:"output"`
	Target      TargetEntry `toml:"target"`
}

// TargetEntry mirrors registry.Target in file form.
type TargetEntry struct {
	Kind    string   `toml:"kind"`
	Host    string   `toml:"host"`
	Addr    string   `toml:"addr"`
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// LoadRegistryFile reads and validates a capability registry file. The
// registry is immutable after startup, so every entry must convert cleanly
// before the coordinator serves a single request.
func LoadRegistryFile(path string) (RegistryFile, error) {
	var file RegistryFile
	if err := loadToml(path, &file); err != nil {
		return RegistryFile{}, err
	}
	if err := file.Validate(); err != nil {
		return RegistryFile{}, err
	}
	return file, nil
}

// Validate rejects files that cannot produce a usable registry.
func (f RegistryFile) Validate() error {
	if len(f.Capabilities) == 0 {
		return fmt.Errorf("%w: no capabilities declared", ErrInvalidConfig)
	}
	_, err := RegistryCapabilities(f.Capabilities)
	return err
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
