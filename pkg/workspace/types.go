// Package workspace renders several diagrams listed in one workspace file,
// typically .critdiff/workspace.yaml at the root of a results directory.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigDir and ConfigFile locate the workspace file inside a directory.
const (
	ConfigDir  = ".critdiff"
	ConfigFile = "workspace.yaml"
)

// DefaultConcurrency bounds how many diagrams are rendered at once.
const DefaultConcurrency = 8

// DiagramConfig describes one diagram in the workspace.
type DiagramConfig struct {
	// Name identifies the diagram in reports (default: input file name
	// without extension)
	Name string `yaml:"name,omitempty"`

	// Input is the score document, relative to the workspace root
	Input string `yaml:"input"`

	// Outputs are image paths (.svg or .png), relative to the workspace root
	Outputs []string `yaml:"outputs,omitempty"`

	// SQLite is an optional database path for the laid out diagram
	SQLite string `yaml:"sqlite,omitempty"`

	// Enabled allows skipping a diagram without removing it (default: true)
	Enabled *bool `yaml:"enabled,omitempty"`
}

// GetName returns the diagram name, deriving it from the input when unset.
func (d DiagramConfig) GetName() string {
	if d.Name != "" {
		return d.Name
	}
	base := filepath.Base(d.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsEnabled reports whether the diagram should be rendered.
func (d DiagramConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Config is a workspace file.
type Config struct {
	Diagrams    []DiagramConfig `yaml:"diagrams"`
	Concurrency int             `yaml:"concurrency,omitempty"`
}

// Validate checks that every diagram has an input and a unique name.
func (c *Config) Validate() error {
	if len(c.Diagrams) == 0 {
		return errors.New("workspace has no diagrams")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	seen := make(map[string]int, len(c.Diagrams))
	for i, d := range c.Diagrams {
		if strings.TrimSpace(d.Input) == "" {
			return fmt.Errorf("diagram %d: input is required", i+1)
		}
		name := d.GetName()
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("diagram %d: name %q already used by diagram %d", i+1, name, prev+1)
		}
		seen[name] = i
	}
	return nil
}

// LoadConfig reads and validates a workspace file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workspace: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workspace %s: %w", path, err)
	}
	return &cfg, nil
}

// FindConfig walks up from start looking for .critdiff/workspace.yaml.
// A start that names a file is returned as is.
func FindConfig(start string) (string, error) {
	info, err := os.Stat(start)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return start, nil
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ConfigDir, ConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent", filepath.Join(ConfigDir, ConfigFile), start)
		}
		dir = parent
	}
}

// Root returns the directory workspace paths are relative to: the parent of
// .critdiff for the conventional location, else the file's own directory.
func Root(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ConfigDir {
		return filepath.Dir(dir)
	}
	return dir
}
