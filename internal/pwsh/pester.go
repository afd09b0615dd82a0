// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"context"
	"fmt"

	"github.com/powerforge/powerforge/internal/execx"
)

// Pester runs Invoke-Pester over a test directory. Pester's own exit code
// carries the failure count, which execx surfaces as a non-zero exit
// rather than an error.
func (s *Shell) Pester(ctx context.Context, testPath, dir string) *execx.Result {
	script := fmt.Sprintf(
		"Invoke-Pester -Path %s -CI -ErrorAction Stop",
		Quote(testPath))
	return s.RunScript(ctx, script, dir)
}

// ImportCheck imports a module from an installed location and returns an
// error when the import fails. Used as the post-install smoke test.
func (s *Shell) ImportCheck(ctx context.Context, moduleName string) error {
	script := fmt.Sprintf(
		"Import-Module %s -Force -ErrorAction Stop; (Get-Module %s).Version.ToString()",
		Quote(moduleName), Quote(moduleName))
	res := s.CaptureScript(ctx, script, "")
	if res.Error != nil {
		return res.Error
	}
	if !res.ExitCode.IsSuccess() {
		return fmt.Errorf("module %s failed to import: %w", moduleName,
			&ScriptError{ExitCode: res.ExitCode, Stderr: res.ErrOutput})
	}
	return nil
}
