// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"context"
	"fmt"
	"strings"

	"github.com/powerforge/powerforge/internal/forge"
)

// Diagnostic is one PSScriptAnalyzer finding.
type Diagnostic struct {
	RuleName   string `json:"RuleName"`
	Severity   string `json:"Severity"`
	ScriptPath string `json:"ScriptPath"`
	Line       int    `json:"Line"`
	Message    string `json:"Message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d [%s] %s: %s", d.ScriptPath, d.Line, d.Severity, d.RuleName, d.Message)
}

// Analyze runs Invoke-ScriptAnalyzer recursively over path. The settings
// file is passed through when set. Requires the PSScriptAnalyzer module
// on the PowerShell side.
func (s *Shell) Analyze(ctx context.Context, path, settings string) ([]Diagnostic, error) {
	script := fmt.Sprintf("Invoke-ScriptAnalyzer -Path %s -Recurse", Quote(path))
	if settings != "" {
		script += " -Settings " + Quote(settings)
	}
	script += ` | ForEach-Object {
  [pscustomobject]@{
    RuleName = $_.RuleName
    Severity = $_.Severity.ToString()
    ScriptPath = $_.ScriptPath
    Line = $_.Line
    Message = $_.Message
  }
}`

	var diags []Diagnostic
	if err := RunJSONList(ctx, s, script, "", &diags); err != nil {
		return nil, fmt.Errorf("script analysis failed for %s: %w", path, err)
	}
	return diags, nil
}

// severityRank orders analyzer severities; higher is more severe.
// ParseError ranks with Error.
func severityRank(severity string) int {
	switch strings.ToLower(severity) {
	case "error", "parseerror":
		return 2
	case "warning":
		return 1
	default:
		return 0
	}
}

// AtOrAbove filters diagnostics to those at least as severe as the
// threshold. The result decides whether the validate step fails.
func AtOrAbove(diags []Diagnostic, threshold forge.Severity) []Diagnostic {
	min := severityRank(string(threshold))
	var out []Diagnostic
	for _, d := range diags {
		if severityRank(d.Severity) >= min {
			out = append(out, d)
		}
	}
	return out
}
