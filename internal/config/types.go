// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DocsFormatMarkdown generates markdown documentation only.
	DocsFormatMarkdown DocsFormat = "markdown"
	// DocsFormatHTML generates HTML documentation only.
	DocsFormatHTML DocsFormat = "html"
	// DocsFormatBoth generates both markdown and HTML documentation.
	DocsFormatBoth DocsFormat = "both"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDocsFormat is returned when a DocsFormat value is not recognized.
	ErrInvalidDocsFormat = errors.New("invalid docs format")
	// ErrInvalidBinaryFilePath is returned when a BinaryFilePath value is whitespace-only.
	ErrInvalidBinaryFilePath = errors.New("invalid binary file path")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DocsFormat specifies the default documentation output format.
	DocsFormat string

	// InvalidDocsFormatError is returned when a DocsFormat value is not
	// recognized. It wraps ErrInvalidDocsFormat for errors.Is() compatibility.
	InvalidDocsFormatError struct {
		Value DocsFormat
	}

	// BinaryFilePath is a filesystem path to an external tool executable.
	// The zero value ("") is valid and means "resolve from PATH".
	// Non-zero values must not be whitespace-only.
	BinaryFilePath string

	// InvalidBinaryFilePathError is returned when a BinaryFilePath value is
	// non-empty but whitespace-only.
	InvalidBinaryFilePathError struct {
		Value BinaryFilePath
	}

	// ToolsConfig holds path overrides for the external tools PowerForge
	// shells out to.
	ToolsConfig struct {
		// Dotnet overrides the .NET SDK CLI path.
		Dotnet BinaryFilePath `mapstructure:"dotnet"`
		// Pwsh overrides the PowerShell executable path.
		Pwsh BinaryFilePath `mapstructure:"pwsh"`
		// Signtool overrides the signtool path used for Authenticode signing.
		Signtool BinaryFilePath `mapstructure:"signtool"`
	}

	// UIConfig holds terminal output preferences.
	UIConfig struct {
		// ColorScheme selects the terminal color scheme.
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		// Verbose enables verbose output by default.
		Verbose bool `mapstructure:"verbose"`
		// Progress enables the animated progress UI during pipeline runs.
		Progress bool `mapstructure:"progress"`
	}

	// DefaultsConfig holds fallback values applied when forge.json omits them.
	DefaultsConfig struct {
		// Configuration is the default .NET build configuration.
		Configuration string `mapstructure:"configuration"`
		// DocsFormat is the default documentation output format.
		DocsFormat DocsFormat `mapstructure:"docs_format"`
		// Repository is the default publish repository URL.
		Repository string `mapstructure:"repository"`
	}

	// Config is the root PowerForge user configuration.
	Config struct {
		Tools    ToolsConfig    `mapstructure:"tools"`
		UI       UIConfig       `mapstructure:"ui"`
		Defaults DefaultsConfig `mapstructure:"defaults"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", string(e.Value))
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate returns nil if the ColorScheme is recognized.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: s}
	}
}

// Error implements the error interface.
func (e *InvalidDocsFormatError) Error() string {
	return fmt.Sprintf("invalid docs format %q (valid: markdown, html, both)", string(e.Value))
}

// Unwrap returns ErrInvalidDocsFormat for errors.Is() compatibility.
func (e *InvalidDocsFormatError) Unwrap() error { return ErrInvalidDocsFormat }

// Validate returns nil if the DocsFormat is recognized.
func (f DocsFormat) Validate() error {
	switch f {
	case DocsFormatMarkdown, DocsFormatHTML, DocsFormatBoth:
		return nil
	default:
		return &InvalidDocsFormatError{Value: f}
	}
}

// Error implements the error interface.
func (e *InvalidBinaryFilePathError) Error() string {
	return fmt.Sprintf("invalid binary file path %q (must not be whitespace-only)", string(e.Value))
}

// Unwrap returns ErrInvalidBinaryFilePath for errors.Is() compatibility.
func (e *InvalidBinaryFilePathError) Unwrap() error { return ErrInvalidBinaryFilePath }

// Validate returns nil if the BinaryFilePath is empty (auto-detect) or
// a non-whitespace path.
func (p BinaryFilePath) Validate() error {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return &InvalidBinaryFilePathError{Value: p}
	}
	return nil
}

// Validate checks the whole configuration for values the CUE schema cannot
// fully express.
func (c *Config) Validate() error {
	if err := c.UI.ColorScheme.Validate(); err != nil {
		return err
	}
	if err := c.Defaults.DocsFormat.Validate(); err != nil {
		return err
	}
	for _, p := range []BinaryFilePath{c.Tools.Dotnet, c.Tools.Pwsh, c.Tools.Signtool} {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
			Progress:    true,
		},
		Defaults: DefaultsConfig{
			Configuration: "Release",
			DocsFormat:    DocsFormatMarkdown,
			Repository:    "https://www.powershellgallery.com/api/v2",
		},
	}
}
