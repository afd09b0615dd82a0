// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/spf13/cobra"
)

type (
	// configToolsView mirrors the tool overrides for `--json` output.
	configToolsView struct {
		Dotnet   string `json:"dotnet,omitempty"`
		Pwsh     string `json:"pwsh,omitempty"`
		Signtool string `json:"signtool,omitempty"`
	}

	// configView is the `--json` payload of `config show`.
	configView struct {
		ConfigFile string          `json:"configFile,omitempty"`
		Tools      configToolsView `json:"tools"`
		UI         struct {
			ColorScheme string `json:"colorScheme"`
			Verbose     bool   `json:"verbose"`
			Progress    bool   `json:"progress"`
		} `json:"ui"`
		Defaults struct {
			Configuration string `json:"configuration"`
			DocsFormat    string `json:"docsFormat"`
			Repository    string `json:"repository"`
		} `json:"defaults"`
	}

	// configPaths is the `--json` payload of `config path`.
	configPaths struct {
		Directory  string `json:"directory"`
		File       string `json:"file"`
		TokenStore string `json:"tokenStore"`
	}
)

// newConfigCommand creates the `powerforge config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage powerforge configuration",
		Long: `Manage powerforge configuration.

Configuration is stored in:
  - Linux: ~/.config/powerforge/config.cue
  - macOS: ~/Library/Application Support/powerforge/config.cue
  - Windows: %APPDATA%\powerforge\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cue := config.GenerateCUE(cfg)
			if jsonOutput {
				data := struct {
					CUE string `json:"cue"`
				}{CUE: cue}
				return report.NewEnvelope("config dump", data).WriteJSON(os.Stdout)
			}
			fmt.Print(cue)
			return nil
		},
	})

	return cfgCmd
}

// configViewOf flattens the loaded config for machine output.
func configViewOf(cfg *config.Config, loadedFrom string) configView {
	view := configView{
		ConfigFile: loadedFrom,
		Tools: configToolsView{
			Dotnet:   string(cfg.Tools.Dotnet),
			Pwsh:     string(cfg.Tools.Pwsh),
			Signtool: string(cfg.Tools.Signtool),
		},
	}
	view.UI.ColorScheme = string(cfg.UI.ColorScheme)
	view.UI.Verbose = cfg.UI.Verbose
	view.UI.Progress = cfg.UI.Progress
	view.Defaults.Configuration = cfg.Defaults.Configuration
	view.Defaults.DocsFormat = string(cfg.Defaults.DocsFormat)
	view.Defaults.Repository = cfg.Defaults.Repository
	return view
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.NewEnvelope("config show", configViewOf(cfg, config.LoadedFrom())).WriteJSON(os.Stdout)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path := config.LoadedFrom(); path != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s:\n", keyStyle.Render("tools"))
	printTool := func(name string, path config.BinaryFilePath) {
		if path == "" {
			fmt.Printf("  %s: %s\n", name, SubtitleStyle.Render("(from PATH)"))
		} else {
			fmt.Printf("  %s: %s\n", name, valueStyle.Render(string(path)))
		}
	}
	printTool("dotnet", cfg.Tools.Dotnet)
	printTool("pwsh", cfg.Tools.Pwsh)
	printTool("signtool", cfg.Tools.Signtool)

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Printf("  progress: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Progress)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("defaults"))
	fmt.Printf("  configuration: %s\n", valueStyle.Render(cfg.Defaults.Configuration))
	fmt.Printf("  docs_format: %s\n", valueStyle.Render(string(cfg.Defaults.DocsFormat)))
	fmt.Printf("  repository: %s\n", valueStyle.Render(cfg.Defaults.Repository))

	return nil
}

func initConfigFile() error {
	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	if jsonOutput {
		data := struct {
			Path string `json:"path"`
		}{Path: cfgPath}
		return report.NewEnvelope("config init", data).WriteJSON(os.Stdout)
	}
	fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

// configPathsData resolves the locations `config path` reports.
func configPathsData() (configPaths, error) {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return configPaths{}, err
	}
	cfgPath, err := config.ConfigFilePath()
	if err != nil {
		return configPaths{}, err
	}
	tokensPath, err := config.TokensFilePath()
	if err != nil {
		return configPaths{}, err
	}
	return configPaths{Directory: cfgDir, File: cfgPath, TokenStore: tokensPath}, nil
}

func showConfigPath() error {
	paths, err := configPathsData()
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.NewEnvelope("config path", paths).WriteJSON(os.Stdout)
	}

	fmt.Printf("Config directory: %s\n", paths.Directory)
	fmt.Printf("Config file: %s\n", paths.File)
	fmt.Printf("Token store: %s\n", paths.TokenStore)
	return nil
}
