package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// parseYAML overlays the keys present in the file at path. Keys that are
// absent keep their current value.
func parseYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
