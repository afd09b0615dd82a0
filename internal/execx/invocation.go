// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

type (
	// Invocation describes a single run of an external tool.
	Invocation struct {
		// Tool is the resolved executable to run.
		Tool *Tool
		// Args are the arguments passed to the tool.
		Args []string
		// Dir is the working directory (empty means inherit).
		Dir string
		// Env holds extra environment variables (KEY=VALUE) appended to
		// the inherited environment.
		Env []string
		// Stdin is the process standard input (nil means none).
		Stdin io.Reader
		// Stdout and Stderr receive streamed output when Run is used.
		// Capture ignores them and buffers instead.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result holds the outcome of an invocation.
	Result struct {
		// ExitCode is the process exit status. Zero means success.
		ExitCode ExitCode
		// Output is captured stdout (Capture only).
		Output string
		// ErrOutput is captured stderr (Capture only).
		ErrOutput string
		// Duration is the wall-clock time the process ran.
		Duration time.Duration
		// Error is set only for infrastructure failures (tool missing,
		// context canceled), never for plain non-zero exits.
		Error error
	}
)

// Success returns true when the invocation ran and exited zero.
func (r *Result) Success() bool { return r.Error == nil && r.ExitCode.IsSuccess() }

// CommandLine returns a display string for logging the invocation.
func (inv *Invocation) CommandLine() string {
	line := inv.Tool.Path
	for _, a := range inv.Args {
		line += " " + a
	}
	return line
}

// Run executes the invocation, streaming output to the configured writers
// (defaulting to the process's own stdout/stderr).
func (inv *Invocation) Run(ctx context.Context) *Result {
	cmd := inv.command(ctx)

	if inv.Stdout != nil {
		cmd.Stdout = inv.Stdout
	} else {
		cmd.Stdout = os.Stdout
	}
	if inv.Stderr != nil {
		cmd.Stderr = inv.Stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	err := cmd.Run()
	return inv.finish(ctx, start, err, nil, nil)
}

// Capture executes the invocation and buffers stdout/stderr into the Result.
func (inv *Invocation) Capture(ctx context.Context) *Result {
	cmd := inv.command(ctx)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	return inv.finish(ctx, start, err, &stdout, &stderr)
}

// command builds the exec.Cmd for this invocation.
func (inv *Invocation) command(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, inv.Tool.Path, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	if inv.Stdin != nil {
		cmd.Stdin = inv.Stdin
	}
	return cmd
}

// finish maps the exec error into a Result, distinguishing normal non-zero
// exits from infrastructure failures.
func (inv *Invocation) finish(ctx context.Context, start time.Time, err error, stdout, stderr *bytes.Buffer) *Result {
	result := &Result{Duration: time.Since(start)}
	if stdout != nil {
		result.Output = stdout.String()
	}
	if stderr != nil {
		result.ErrOutput = stderr.String()
	}

	if err == nil {
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Context cancellation usually surfaces as a killed process;
		// report it as an infrastructure failure rather than a tool exit.
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.ExitCode = 1
			result.Error = fmt.Errorf("%s interrupted: %w", inv.Tool.Name, ctxErr)
			return result
		}
		result.ExitCode = ExitCode(exitErr.ExitCode())
		return result
	}

	result.ExitCode = 1
	result.Error = fmt.Errorf("failed to execute %s: %w", inv.Tool.Name, err)
	return result
}
