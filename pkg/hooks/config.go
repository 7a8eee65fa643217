// Package hooks runs user commands around diagram rendering.
// Hooks are configured in .critdiff/hooks.yaml next to the input document
// and run before rendering (pre-render) and after every output is written
// (post-render).
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase says when a hook runs.
type Phase string

const (
	// PreRender runs before the diagram is laid out. Failure cancels rendering.
	PreRender Phase = "pre-render"
	// PostRender runs after outputs are written. Failure is reported but
	// does not fail the render.
	PostRender Phase = "post-render"
)

// On-error policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// Hook defines a single hook.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"` // fail or continue
}

// Config holds all hooks.
type Config struct {
	Hooks ByPhase `yaml:"hooks" json:"hooks"`
}

// ByPhase organizes hooks by phase.
type ByPhase struct {
	PreRender  []Hook `yaml:"pre-render,omitempty" json:"pre-render,omitempty"`
	PostRender []Hook `yaml:"post-render,omitempty" json:"post-render,omitempty"`
}

// RenderContext is passed to hooks as environment variables.
type RenderContext struct {
	InputPath  string    // CRITDIFF_INPUT_PATH
	Outputs    []string  // CRITDIFF_OUTPUTS, joined with the OS list separator
	Methods    int       // CRITDIFF_METHODS
	Connectors int       // CRITDIFF_CONNECTORS
	Timestamp  time.Time // CRITDIFF_TIMESTAMP (RFC3339)
}

// ToEnv converts the context to environment variables.
func (c RenderContext) ToEnv() []string {
	return []string{
		"CRITDIFF_INPUT_PATH=" + c.InputPath,
		"CRITDIFF_OUTPUTS=" + strings.Join(c.Outputs, string(os.PathListSeparator)),
		"CRITDIFF_METHODS=" + strconv.Itoa(c.Methods),
		"CRITDIFF_CONNECTORS=" + strconv.Itoa(c.Connectors),
		"CRITDIFF_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// DefaultTimeout is the default hook execution timeout.
const DefaultTimeout = 30 * time.Second

// Path returns the hooks file for a project directory.
func Path(dir string) string {
	return filepath.Join(dir, ".critdiff", "hooks.yaml")
}

// Load reads the hooks file in dir. A missing file yields an empty config.
// Warnings describe hooks that were skipped.
func Load(dir string) (*Config, []string, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var warnings []string
	cfg.Hooks.PreRender, warnings = normalize(cfg.Hooks.PreRender, PreRender, warnings)
	cfg.Hooks.PostRender, warnings = normalize(cfg.Hooks.PostRender, PostRender, warnings)
	return &cfg, warnings, nil
}

// normalize applies defaults and drops hooks without a command.
func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, hook := range hooks {
		if strings.TrimSpace(hook.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if hook.Timeout <= 0 {
			hook.Timeout = DefaultTimeout
		}
		if hook.OnError == "" {
			hook.OnError = OnErrorContinue
			if phase == PreRender {
				hook.OnError = OnErrorFail
			}
		}
		if hook.Name == "" {
			hook.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, hook)
	}
	return out, warnings
}

// Empty reports whether no hooks are configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreRender)+len(c.Hooks.PostRender) == 0
}

// For returns the hooks of one phase.
func (c *Config) For(phase Phase) []Hook {
	if c == nil {
		return nil
	}
	switch phase {
	case PreRender:
		return c.Hooks.PreRender
	case PostRender:
		return c.Hooks.PostRender
	default:
		return nil
	}
}

// UnmarshalYAML accepts timeouts as durations ("10s") or bare seconds (10).
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type hookDTO struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}

	var dto hookDTO
	if err := node.Decode(&dto); err != nil {
		return err
	}

	h.Name = dto.Name
	h.Command = dto.Command
	h.Env = dto.Env
	h.OnError = dto.OnError

	if dto.Timeout != "" {
		d, err := time.ParseDuration(dto.Timeout)
		if err != nil {
			seconds, scanErr := strconv.ParseFloat(dto.Timeout, 64)
			if scanErr != nil {
				return fmt.Errorf("invalid timeout %q: %w", dto.Timeout, err)
			}
			d = time.Duration(seconds * float64(time.Second))
		}
		h.Timeout = d
	}

	switch h.OnError {
	case "", OnErrorFail, OnErrorContinue:
	default:
		return fmt.Errorf("invalid on_error %q (want %s or %s)", h.OnError, OnErrorFail, OnErrorContinue)
	}
	return nil
}
