// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/powerforge/powerforge/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for config directory layout.
	AppName = "powerforge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// TokensFileName is the name of the persisted token store file.
	TokensFileName = "tokens.toml"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the PowerForge configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the full path of the user config file.
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// TokensFilePath returns the full path of the persisted token store.
func TokensFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, TokensFileName), nil
}

// load reads the configuration, honoring the file path override, and
// returns the merged Config plus the path of the file actually read
// (empty when defaults were used).
func load() (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("tools.dotnet", string(defaults.Tools.Dotnet))
	v.SetDefault("tools.pwsh", string(defaults.Tools.Pwsh))
	v.SetDefault("tools.signtool", string(defaults.Tools.Signtool))
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.progress", defaults.UI.Progress)
	v.SetDefault("defaults.configuration", defaults.Defaults.Configuration)
	v.SetDefault("defaults.docs_format", string(defaults.Defaults.DocsFormat))
	v.SetDefault("defaults.repository", defaults.Defaults.Repository)

	resolvedPath := ""

	// A --config flag override is used exclusively; a missing file is an error.
	if configFilePathOverride != "" {
		if !fileExists(configFilePathOverride) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(configFilePathOverride).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'powerforge config show' to see the effective configuration").
				Wrap(fmt.Errorf("config file not found: %s", configFilePathOverride)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, configFilePathOverride); err != nil {
			return nil, "", wrapParseError(err, configFilePathOverride)
		}
		resolvedPath = configFilePathOverride
	} else {
		cfgPath, err := ConfigFilePath()
		if err != nil {
			return nil, "", err
		}
		if fileExists(cfgPath) {
			if err := loadCUEIntoViper(v, cfgPath); err != nil {
				return nil, "", wrapParseError(err, cfgPath)
			}
			resolvedPath = cfgPath
		}
		// No config file means defaults, not an error.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Run 'powerforge config init' to regenerate a default config").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// wrapParseError decorates a CUE parse/validation failure with suggestions.
func wrapParseError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("invalid CUE in %s: %w", path, userValue.Err())
	}

	// Unify with the schema so unknown fields and wrong types are rejected.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default config file if it doesn't exist.
func CreateDefaultConfig() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	return writeConfigFile(cfgPath, DefaultConfig())
}

// Save writes the given configuration to the user config file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}

	return writeConfigFile(cfgPath, cfg)
}

func writeConfigFile(cfgPath string, cfg *Config) error {
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// PowerForge configuration file.\n\n")

	sb.WriteString("tools: {\n")
	if cfg.Tools.Dotnet != "" {
		sb.WriteString(fmt.Sprintf("\tdotnet: %q\n", cfg.Tools.Dotnet))
	}
	if cfg.Tools.Pwsh != "" {
		sb.WriteString(fmt.Sprintf("\tpwsh: %q\n", cfg.Tools.Pwsh))
	}
	if cfg.Tools.Signtool != "" {
		sb.WriteString(fmt.Sprintf("\tsigntool: %q\n", cfg.Tools.Signtool))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString(fmt.Sprintf("\tprogress: %v\n", cfg.UI.Progress))
	sb.WriteString("}\n")

	sb.WriteString("\ndefaults: {\n")
	sb.WriteString(fmt.Sprintf("\tconfiguration: %q\n", cfg.Defaults.Configuration))
	sb.WriteString(fmt.Sprintf("\tdocs_format: %q\n", cfg.Defaults.DocsFormat))
	sb.WriteString(fmt.Sprintf("\trepository: %q\n", cfg.Defaults.Repository))
	sb.WriteString("}\n")

	return sb.String()
}
