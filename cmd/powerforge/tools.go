// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/dotnet"
	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/pwsh"
)

// resolveDotnet returns the .NET CLI, honoring the config path override.
func resolveDotnet(cfg *config.Config) (*dotnet.CLI, error) {
	if path := cfg.Tools.Dotnet; path != "" {
		return dotnet.New(&execx.Tool{Name: "dotnet", Path: string(path)}), nil
	}
	tool, err := execx.LookDotnet()
	if err != nil {
		return nil, err
	}
	return dotnet.New(tool), nil
}

// resolvePwsh returns the PowerShell bridge, honoring the config path
// override.
func resolvePwsh(cfg *config.Config) (*pwsh.Shell, error) {
	if path := cfg.Tools.Pwsh; path != "" {
		return pwsh.NewShell(&execx.Tool{Name: "pwsh", Path: string(path)}), nil
	}
	return pwsh.Look()
}

// resolveSigntool returns signtool when configured or found on PATH.
// Signing falls back to the PowerShell bridge when it returns nil.
func resolveSigntool(cfg *config.Config) *execx.Tool {
	if path := cfg.Tools.Signtool; path != "" {
		return &execx.Tool{Name: "signtool", Path: string(path)}
	}
	tool, err := execx.LookTool("signtool")
	if err != nil {
		return nil
	}
	return tool
}
