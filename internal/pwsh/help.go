// SPDX-License-Identifier: MPL-2.0

package pwsh

import (
	"context"
	"fmt"
)

type (
	// ParameterHelp describes one command parameter.
	ParameterHelp struct {
		Name        string `json:"Name"`
		Type        string `json:"Type"`
		Required    bool   `json:"Required"`
		Description string `json:"Description"`
	}

	// ExampleHelp is one usage example of a command.
	ExampleHelp struct {
		Title   string `json:"Title"`
		Code    string `json:"Code"`
		Remarks string `json:"Remarks"`
	}

	// CommandHelp is the help model of one exported command, as reported
	// by Get-Help. The docs generator renders these.
	CommandHelp struct {
		Name        string          `json:"Name"`
		Synopsis    string          `json:"Synopsis"`
		Description string          `json:"Description"`
		Syntax      string          `json:"Syntax"`
		Parameters  []ParameterHelp `json:"Parameters"`
		Examples    []ExampleHelp   `json:"Examples"`
	}
)

// ModuleHelp imports the module from its manifest and collects Get-Help
// output for every exported command.
func (s *Shell) ModuleHelp(ctx context.Context, manifestPath, moduleName string) ([]CommandHelp, error) {
	script := fmt.Sprintf(`Import-Module %s -Force -ErrorAction Stop
Get-Command -Module %s -CommandType Function,Cmdlet | Sort-Object Name | ForEach-Object {
  $h = Get-Help $_.Name -Full
  [pscustomobject]@{
    Name = $_.Name
    Synopsis = [string]$h.Synopsis
    Description = ($h.description | Out-String).Trim()
    Syntax = ($h.syntax | Out-String).Trim()
    Parameters = @($h.parameters.parameter | ForEach-Object {
      [pscustomobject]@{
        Name = $_.name
        Type = [string]$_.type.name
        Required = ($_.required -eq 'true')
        Description = ($_.description | Out-String).Trim()
      }
    })
    Examples = @($h.examples.example | ForEach-Object {
      [pscustomobject]@{
        Title = ($_.title -replace '-', '').Trim()
        Code = [string]$_.code
        Remarks = ($_.remarks | Out-String).Trim()
      }
    })
  }
}`, Quote(manifestPath), Quote(moduleName))

	var commands []CommandHelp
	if err := RunJSONList(ctx, s, script, "", &commands); err != nil {
		return nil, fmt.Errorf("failed to collect help for module %s: %w", moduleName, err)
	}
	return commands, nil
}
