package toolchain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ToolConfig describes one tool in a backend-agnostic, declarative way, for
// hosts that want to register a batch of tools from a config file rather
// than a Go call per tool. Only the "http" backend is implemented; other
// Type values are a registration error.
type ToolConfig struct {
	Type        string         `yaml:"type"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`

	Endpoint     string            `yaml:"endpoint,omitempty"`
	Method       string            `yaml:"method,omitempty"`
	Auth         *HTTPAuthConfig   `yaml:"auth,omitempty"`
	ResponsePath string            `yaml:"response_path,omitempty"`
	ResponseMap  map[string]string `yaml:"response_map,omitempty"`
}

// HTTPAuthConfig describes how an HTTP tool authenticates its requests.
type HTTPAuthConfig struct {
	Type   string `yaml:"type"` // "bearer" or "apikey"
	APIKey string `yaml:"apikey,omitempty"`
	Header string `yaml:"header,omitempty"`
}

// LoadConfigFile reads a YAML document listing tool configs.
func LoadConfigFile(path string) ([]ToolConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool config %s: %w", path, err)
	}
	return ParseConfig(raw)
}

// ParseConfig parses a YAML document shaped as {tools: [...]}.
func ParseConfig(raw []byte) ([]ToolConfig, error) {
	var doc struct {
		Tools []ToolConfig `yaml:"tools"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse tool config: %w", err)
	}
	return doc.Tools, nil
}

// RegisterFromConfig builds and registers one tool per config into r. Only
// Type=="http" is implemented; any other type is a registration error, not
// a silently skipped entry.
func RegisterFromConfig(r *Registry, configs []ToolConfig, client *HTTPClientConfig) error {
	for _, cfg := range configs {
		if cfg.Name == "" {
			continue
		}
		switch cfg.Type {
		case "http":
			fn, err := newHTTPTool(cfg, client)
			if err != nil {
				return fmt.Errorf("tool %q: %w", cfg.Name, err)
			}
			if err := r.Register(cfg.Name, cfg.Description, cfg.Parameters, fn); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tool %q: unsupported tool type %q", cfg.Name, cfg.Type)
		}
	}
	return nil
}
