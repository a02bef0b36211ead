package mcpserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the MCP server configuration loaded from mcp.yaml.
type Config struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	Instructions string `yaml:"instructions"`
	// Tools lists the exposed tools. Empty exposes the whole catalog.
	Tools     []string                `yaml:"tools"`
	Overrides map[string]ToolOverride `yaml:"overrides"`
}

// ToolOverride replaces the catalog metadata of one tool.
type ToolOverride struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

const defaultInstructions = "Query subscription analytics: customers, products, revenue, churn, growth and plan changes. All tools are read-only."

// DefaultConfig exposes every tool under the default name.
func DefaultConfig() *Config {
	return &Config{
		Name:         "saaslens",
		Version:      "1.0.0",
		Instructions: defaultInstructions,
	}
}

// LoadConfig reads mcp.yaml. A missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses mcp.yaml from raw bytes, filling unset fields with
// defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = "saaslens"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.Instructions == "" {
		cfg.Instructions = defaultInstructions
	}
	return cfg, nil
}

func (c *Config) enabled() map[string]bool {
	if len(c.Tools) == 0 {
		return nil
	}
	m := make(map[string]bool, len(c.Tools))
	for _, t := range c.Tools {
		m[t] = true
	}
	return m
}
