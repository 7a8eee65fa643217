// Package config handles loading and saving critdiff configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/critdiff/config.yaml
//
// Values in the file override built-in defaults; command-line flags override
// both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/critdiff/pkg/diagram"
)

const appName = "critdiff"

// LayoutConfig holds the vertical layout tunables of a diagram.
type LayoutConfig struct {
	ArrowVGap   float64 `yaml:"arrow_vgap"`   // Vertical gap between label rows
	LinkVOffset float64 `yaml:"link_voffset"` // Height of the lowest connector layer
	LinkVGap    float64 `yaml:"link_vgap"`    // Gap between connector layers
}

// CanvasConfig controls rendered image size and default format.
type CanvasConfig struct {
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	Format string `yaml:"format,omitempty"` // svg or png; inferred from the output path when empty
}

// OutputConfig controls where rendered files go.
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"` // Base directory for relative output paths
}

// Config is the top-level configuration for critdiff.
type Config struct {
	Layout LayoutConfig `yaml:"layout,omitempty"`
	Canvas CanvasConfig `yaml:"canvas,omitempty"`
	Output OutputConfig `yaml:"output,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	lp := diagram.DefaultLayoutParams()
	return Config{
		Layout: LayoutConfig{
			ArrowVGap:   lp.ArrowVGap,
			LinkVOffset: lp.LinkVOffset,
			LinkVGap:    lp.LinkVGap,
		},
		Canvas: CanvasConfig{
			Width:  720,
			Height: 240,
		},
	}
}

// ConfigDir returns the XDG config directory for critdiff.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Output.Dir = expandHome(cfg.Output.Dir)
	cfg.Canvas.Format = strings.ToLower(cfg.Canvas.Format)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// LayoutParams converts the layout section to diagram parameters.
func (c Config) LayoutParams() diagram.LayoutParams {
	return diagram.LayoutParams{
		ArrowVGap:   c.Layout.ArrowVGap,
		LinkVOffset: c.Layout.LinkVOffset,
		LinkVGap:    c.Layout.LinkVGap,
	}
}

// Validate reports every out-of-range value in c.
func (c Config) Validate() error {
	var errs []error
	if err := c.LayoutParams().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Canvas.Width < 0 {
		errs = append(errs, fmt.Errorf("canvas.width must be non-negative, got %d", c.Canvas.Width))
	}
	if c.Canvas.Height < 0 {
		errs = append(errs, fmt.Errorf("canvas.height must be non-negative, got %d", c.Canvas.Height))
	}
	switch c.Canvas.Format {
	case "", "svg", "png":
	default:
		errs = append(errs, fmt.Errorf("canvas.format must be svg or png, got %q", c.Canvas.Format))
	}
	return errors.Join(errs...)
}

// ResolveOutput joins relative output paths onto Output.Dir.
func (c Config) ResolveOutput(path string) string {
	path = expandHome(path)
	if c.Output.Dir == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Output.Dir, path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
