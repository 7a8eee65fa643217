package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/critdiff/pkg/debug"
)

// Result records one hook execution.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Error    error
	Duration time.Duration
}

// Executor runs configured hooks and keeps their results.
type Executor struct {
	config *Config

	mu      sync.Mutex
	results []Result
}

// NewExecutor returns an executor for cfg.
func NewExecutor(cfg *Config) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg}
}

// Run executes the hooks of phase in order. A failing hook with on_error
// fail stops a pre-render run immediately; post-render runs always execute
// every hook and report the failures together.
func (e *Executor) Run(ctx context.Context, phase Phase, rc RenderContext) error {
	var errs []error
	for _, hook := range e.config.For(phase) {
		res := e.runHook(ctx, hook, phase, rc)
		e.mu.Lock()
		e.results = append(e.results, res)
		e.mu.Unlock()

		if res.Success || hook.OnError != OnErrorFail {
			continue
		}
		err := fmt.Errorf("%s hook %q failed: %w", phase, hook.Name, res.Error)
		if phase == PreRender {
			return err
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Executor) runHook(ctx context.Context, hook Hook, phase Phase, rc RenderContext) Result {
	ctx, cancel := context.WithTimeout(ctx, hook.Timeout)
	defer cancel()

	base := rc.ToEnv()
	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	// Background children of the shell can hold the output pipes open.
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), base...)
	for k, v := range hook.Env {
		cmd.Env = append(cmd.Env, k+"="+expand(v, base))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Hook:     hook,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", hook.Timeout)
		}
		res.Error = err
	}
	debug.Log("hook %s (%s) success=%v took %s", hook.Name, phase, res.Success, res.Duration)
	return res
}

// expand substitutes $VAR references from the render context, then from the
// process environment.
func expand(s string, base []string) string {
	return os.Expand(s, func(name string) string {
		prefix := name + "="
		for _, kv := range base {
			if strings.HasPrefix(kv, prefix) {
				return kv[len(prefix):]
			}
		}
		return os.Getenv(name)
	})
}

// Results returns the results recorded so far.
func (e *Executor) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Result, len(e.results))
	copy(out, e.results)
	return out
}

// Summary describes how many hooks succeeded and failed.
func (e *Executor) Summary() string {
	results := e.Results()
	if len(results) == 0 {
		return "hooks: none run"
	}
	var ok, failed int
	var b strings.Builder
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "\n  %s (%s): %v", r.Hook.Name, r.Phase, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, ": %s", r.Stderr)
		}
	}
	return fmt.Sprintf("hooks: %d succeeded, %d failed", ok, failed) + b.String()
}
