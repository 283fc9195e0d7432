package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files.
// Environment variables override whatever the file sets.
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider. An empty
// filename yields the defaults plus environment overrides.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads, overlays and validates the configuration
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	config := Default()
	if y.filename != "" {
		cfgFile, err := os.ReadFile(y.filename)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(cfgFile, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", y.filename, err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// Load is shorthand for NewYAMLProvider(path).LoadConfig().
func Load(path string) (*ConfigData, error) {
	return NewYAMLProvider(path).LoadConfig()
}
