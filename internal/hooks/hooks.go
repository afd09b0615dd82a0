// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/forge"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// HookFailedError reports a hook script that exited non-zero.
type HookFailedError struct {
	ExitCode int
}

func (e *HookFailedError) Error() string {
	return fmt.Sprintf("hook script exited with code %d", e.ExitCode)
}

// Runner executes hook scripts. It satisfies the pipeline's HookRunner
// interface.
type Runner struct {
	Logger *log.Logger
}

// Run executes one hook script in dir. The hook's shell selects the
// interpreter; portable is the default.
func (r *Runner) Run(ctx context.Context, hook forge.Hook, dir string) error {
	if strings.TrimSpace(hook.Script) == "" {
		return errors.New("hook script is empty")
	}
	if r.Logger != nil {
		r.Logger.Debug("running hook", "shell", shellOf(hook), "dir", dir)
	}

	switch shellOf(hook) {
	case forge.HookShellNative:
		return r.runNative(ctx, hook.Script, dir)
	default:
		return r.runPortable(ctx, hook.Script, dir)
	}
}

func shellOf(hook forge.Hook) forge.HookShell {
	if hook.Shell == "" {
		return forge.HookShellPortable
	}
	return hook.Shell
}

// runNative hands the script to the platform's shell.
func (r *Runner) runNative(ctx context.Context, script, dir string) error {
	var tool *execx.Tool
	var args []string
	if runtime.GOOS == "windows" {
		t, err := execx.LookPwsh()
		if err != nil {
			return err
		}
		tool = t
		args = []string{"-NoProfile", "-NonInteractive", "-Command", script}
	} else {
		t, err := execx.LookTool("sh", "sh", "bash")
		if err != nil {
			return err
		}
		tool = t
		args = []string{"-c", script}
	}

	inv := &execx.Invocation{Tool: tool, Args: args, Dir: dir}
	res := inv.Run(ctx)
	if res.Error != nil {
		return res.Error
	}
	if !res.ExitCode.IsSuccess() {
		return &HookFailedError{ExitCode: int(res.ExitCode)}
	}
	return nil
}

// runPortable parses and runs the script in the embedded POSIX shell.
// Parsing up front turns syntax errors into immediate failures instead
// of partial executions.
func (r *Runner) runPortable(ctx context.Context, script, dir string) error {
	parser := syntax.NewParser()
	prog, err := parser.Parse(strings.NewReader(script), "hook")
	if err != nil {
		return fmt.Errorf("hook script has a syntax error: %w", err)
	}

	opts := []interp.RunnerOption{
		interp.StdIO(nil, os.Stdout, os.Stderr),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create hook interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &HookFailedError{ExitCode: int(exitStatus)}
		}
		return fmt.Errorf("hook script failed: %w", err)
	}
	return nil
}

// CheckSyntax validates a portable hook script without running it. The
// planner calls this so a broken hook fails before any step runs.
func CheckSyntax(script string) error {
	parser := syntax.NewParser()
	if _, err := parser.Parse(strings.NewReader(script), "hook"); err != nil {
		return fmt.Errorf("hook script has a syntax error: %w", err)
	}
	return nil
}

// CheckSyntax satisfies the pipeline's SyntaxChecker interface.
func (r *Runner) CheckSyntax(script string) error {
	return CheckSyntax(script)
}
