package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeatureSettings toggles an optional server component.
type FeatureSettings struct {
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description,omitempty"`
}

// FeaturesConfig holds the optional-component toggles.
type FeaturesConfig struct {
	Features map[string]*FeatureSettings `yaml:"features"`
}

// IsEnabled reports whether the named feature is switched on. Unknown
// features default to off.
func (c *FeaturesConfig) IsEnabled(name string) bool {
	if c == nil || c.Features == nil {
		return false
	}
	f, ok := c.Features[name]
	return ok && f.Enabled
}

// LoadFeaturesConfig loads config/services.yaml.
func LoadFeaturesConfig() (*FeaturesConfig, error) {
	return LoadFeaturesConfigFromPath(filepath.Join("config", "services.yaml"))
}

// LoadFeaturesConfigFromPath loads the feature toggles from a specific path.
func LoadFeaturesConfigFromPath(path string) (*FeaturesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features config: %w", err)
	}

	var cfg FeaturesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse features config: %w", err)
	}
	return &cfg, nil
}

// LoadFeaturesConfigOrDefault loads the toggles or falls back to defaults.
func LoadFeaturesConfigOrDefault() *FeaturesConfig {
	cfg, err := LoadFeaturesConfig()
	if err != nil {
		return DefaultFeaturesConfig()
	}
	return cfg
}

// DefaultFeaturesConfig enables the standard component set.
func DefaultFeaturesConfig() *FeaturesConfig {
	return &FeaturesConfig{
		Features: map[string]*FeatureSettings{
			"realtime": {
				Enabled:     true,
				Description: "Push fanout for new messages via Supabase realtime",
			},
			"system_health": {
				Enabled:     true,
				Description: "Host and process statistics on /health/system",
			},
		},
	}
}
