// SPDX-License-Identifier: MPL-2.0

// Package pwsh bridges into PowerShell. All PowerShell semantics stay on
// the PowerShell side: scripts run under -NoProfile -NonInteractive and
// hand results back as JSON, which this package decodes into Go values.
// Bridges exist for Test-ModuleManifest, Invoke-ScriptAnalyzer,
// Invoke-Pester and Get-Help.
package pwsh
