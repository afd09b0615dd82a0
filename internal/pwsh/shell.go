// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"
)

// jsonDepth bounds ConvertTo-Json recursion; PowerShell's default of 2
// truncates nested help and analyzer objects.
const jsonDepth = 6

// Shell wraps a resolved PowerShell executable.
type Shell struct {
	Tool *execx.Tool
}

// NewShell wraps a resolved pwsh/powershell tool.
func NewShell(tool *execx.Tool) *Shell {
	return &Shell{Tool: tool}
}

// Look resolves PowerShell from PATH and wraps it.
func Look() (*Shell, error) {
	tool, err := execx.LookPwsh()
	if err != nil {
		return nil, err
	}
	return NewShell(tool), nil
}

// Args returns the invocation arguments for a script.
func (s *Shell) Args(script string) []string {
	return []string{"-NoProfile", "-NonInteractive", "-Command", script}
}

// RunScript executes a script, streaming its output.
func (s *Shell) RunScript(ctx context.Context, script, dir string) *execx.Result {
	inv := &execx.Invocation{Tool: s.Tool, Args: s.Args(script), Dir: dir}
	return inv.Run(ctx)
}

// CaptureScript executes a script, buffering its output.
func (s *Shell) CaptureScript(ctx context.Context, script, dir string) *execx.Result {
	inv := &execx.Invocation{Tool: s.Tool, Args: s.Args(script), Dir: dir}
	return inv.Capture(ctx)
}

// RunJSON executes a script whose output is piped through ConvertTo-Json
// and decodes it into out. A script that prints nothing leaves out
// untouched and returns ErrNoOutput.
func (s *Shell) RunJSON(ctx context.Context, script, dir string, out any) error {
	piped := fmt.Sprintf("(%s) | ConvertTo-Json -Depth %d -Compress", script, jsonDepth)
	res := s.CaptureScript(ctx, piped, dir)
	if res.Error != nil {
		return res.Error
	}
	if !res.ExitCode.IsSuccess() {
		return &ScriptError{ExitCode: res.ExitCode, Stderr: res.ErrOutput}
	}

	output := strings.TrimSpace(res.Output)
	if output == "" {
		return ErrNoOutput
	}
	if err := json.Unmarshal([]byte(output), out); err != nil {
		return fmt.Errorf("failed to decode PowerShell JSON output: %w", err)
	}
	return nil
}

// decodeList decodes JSON that PowerShell may emit either as an array or,
// for a single element, as a bare object.
func decodeList[T any](data []byte, out *[]T) error {
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}
	var single T
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("failed to decode PowerShell JSON output: %w", err)
	}
	*out = []T{single}
	return nil
}

// RunJSONList is RunJSON for list-shaped results, tolerating the
// single-object form. ErrNoOutput maps to an empty list: PowerShell
// pipelines emit nothing for zero results.
func RunJSONList[T any](ctx context.Context, s *Shell, script, dir string, out *[]T) error {
	var raw json.RawMessage
	if err := s.RunJSON(ctx, script, dir, &raw); err != nil {
		if err == ErrNoOutput {
			*out = nil
			return nil
		}
		return err
	}
	return decodeList(raw, out)
}

// Quote escapes a value for interpolation into a single-quoted PowerShell
// string literal.
func Quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
