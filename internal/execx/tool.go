// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"fmt"
	"os/exec"
)

// Tool is an external executable resolved from PATH.
type Tool struct {
	// Name is the logical tool name (e.g., "dotnet", "pwsh", "signtool").
	Name string
	// Path is the resolved absolute path to the executable.
	Path string
}

// ToolNotFoundError is returned when none of a tool's candidate binaries
// can be found on PATH.
type ToolNotFoundError struct {
	// Name is the logical tool name that was requested.
	Name string
	// Candidates lists the binary names that were tried, in order.
	Candidates []string
}

// Error implements the error interface.
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on PATH (tried: %v)", e.Name, e.Candidates)
}

// LookTool resolves a tool by trying each candidate binary name in order.
// The first candidate found on PATH wins.
func LookTool(name string, candidates ...string) (*Tool, error) {
	if len(candidates) == 0 {
		candidates = []string{name}
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &Tool{Name: name, Path: path}, nil
		}
	}
	return nil, &ToolNotFoundError{Name: name, Candidates: candidates}
}

// LookDotnet resolves the .NET SDK CLI.
func LookDotnet() (*Tool, error) {
	return LookTool("dotnet")
}

// LookPwsh resolves a PowerShell executable, preferring PowerShell 7+
// (pwsh) and falling back to Windows PowerShell.
func LookPwsh() (*Tool, error) {
	return LookTool("pwsh", "pwsh", "powershell")
}
