package chain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config describes the filter pipelines of every service exposed or consumed
// by a process. Loaded once at startup; chain rebuilds on config change go
// through a fresh Config and Builder, never through mutation of a live chain.
type Config struct {
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig is the pipeline description for one (service key, group)
// pair.
type ServiceConfig struct {
	Service string         `yaml:"service"`
	Group   string         `yaml:"group"`
	Filters []FilterConfig `yaml:"filters"`
}

// FilterConfig names one filter and its options, in pipeline order
// (outermost first).
type FilterConfig struct {
	Name    string            `yaml:"name"`
	Options map[string]string `yaml:"options"`
}

// ParseConfig decodes a YAML pipeline description.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse chain config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML pipeline description from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain config: %w", err)
	}
	return ParseConfig(data)
}

// ServiceChain returns the pipeline configured for (service, group), falling
// back to an entry with an empty group when no exact match exists.
func (c *Config) ServiceChain(service, group string) (*ServiceConfig, bool) {
	var fallback *ServiceConfig
	for i := range c.Services {
		sc := &c.Services[i]
		if sc.Service != service {
			continue
		}
		if sc.Group == group {
			return sc, true
		}
		if sc.Group == "" {
			fallback = sc
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}
