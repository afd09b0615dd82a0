// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/powerforge/powerforge/internal/dotnet"
	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/hooks"
	"github.com/powerforge/powerforge/internal/pwsh"
	"github.com/powerforge/powerforge/internal/registry"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code execx.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeOf extracts the failing tool's exit code from an error chain,
// so the pipeline propagates it instead of a generic 1.
func exitCodeOf(err error) execx.ExitCode {
	var toolErr *ToolExitError
	if errors.As(err, &toolErr) {
		return toolErr.ExitCode
	}
	var scriptErr *pwsh.ScriptError
	if errors.As(err, &scriptErr) {
		return scriptErr.ExitCode
	}
	var publishErr *dotnet.PublishFailedError
	if errors.As(err, &publishErr) {
		return publishErr.ExitCode
	}
	var pushErr *registry.PushRejectedError
	if errors.As(err, &pushErr) {
		return pushErr.ExitCode
	}
	var hookErr *hooks.HookFailedError
	if errors.As(err, &hookErr) {
		code := execx.ExitCode(hookErr.ExitCode)
		if code.IsValid() {
			return code
		}
	}
	return 1
}
