package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the parsed YAML structure for a registry override file:
// services: [{name, group, depends_on, replicable, start_timeout, check, unit}].
// start_timeout takes a duration string such as "30s" or "5m".
type File struct {
	Services []ServiceDescriptor `yaml:"services"`
}

// LoadFile parses a YAML registry file from the given path and builds a
// registry from it. The file replaces the built-in default fleet entirely.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry file: %w", err)
	}

	reg, err := New(file.Services)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", path, err)
	}
	return reg, nil
}

// Load returns the registry from the override file when path is non-empty,
// otherwise the built-in default fleet.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}
