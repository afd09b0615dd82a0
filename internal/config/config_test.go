// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	cfg, path, err := load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty resolved path for defaults, got %q", path)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected auto color scheme, got %q", cfg.UI.ColorScheme)
	}
	if cfg.Defaults.Configuration != "Release" {
		t.Errorf("expected Release default configuration, got %q", cfg.Defaults.Configuration)
	}
	if cfg.Defaults.DocsFormat != DocsFormatMarkdown {
		t.Errorf("expected markdown default docs format, got %q", cfg.Defaults.DocsFormat)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	content := `
tools: {
	pwsh: "/opt/microsoft/powershell/7/pwsh"
}
ui: {
	verbose: true
	color_scheme: "dark"
}
defaults: {
	configuration: "Debug"
}
`
	cfgPath := filepath.Join(dir, "config.cue")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != cfgPath {
		t.Errorf("expected resolved path %q, got %q", cfgPath, path)
	}
	if cfg.Tools.Pwsh != "/opt/microsoft/powershell/7/pwsh" {
		t.Errorf("unexpected pwsh path %q", cfg.Tools.Pwsh)
	}
	if !cfg.UI.Verbose {
		t.Error("expected verbose true")
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("expected dark scheme, got %q", cfg.UI.ColorScheme)
	}
	if cfg.Defaults.Configuration != "Debug" {
		t.Errorf("expected Debug configuration, got %q", cfg.Defaults.Configuration)
	}
	// Unset fields keep defaults.
	if cfg.Defaults.DocsFormat != DocsFormatMarkdown {
		t.Errorf("expected default docs format to survive partial config, got %q", cfg.Defaults.DocsFormat)
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	content := `not_a_real_field: true`
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := load()
	if err == nil {
		t.Fatal("expected schema validation error, got nil")
	}
}

func TestLoad_RejectsBadColorScheme(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	content := `ui: {color_scheme: "purple"}`
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := load()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
}

func TestLoad_MissingOverrideFileIsError(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	SetConfigFilePathOverride("/nonexistent/powerforge-config.cue")
	t.Cleanup(Reset)

	_, _, err := load()
	if err == nil {
		t.Fatal("expected error for missing --config file, got nil")
	}
	if !strings.Contains(err.Error(), "load configuration") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	cfg := DefaultConfig()
	cfg.UI.Verbose = true
	cfg.Tools.Dotnet = "/usr/local/bin/dotnet"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, path, err := load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if path == "" {
		t.Error("expected resolved path after Save")
	}
	if !loaded.UI.Verbose {
		t.Error("expected verbose to round-trip")
	}
	if loaded.Tools.Dotnet != "/usr/local/bin/dotnet" {
		t.Errorf("expected dotnet path to round-trip, got %q", loaded.Tools.Dotnet)
	}
}

func TestCreateDefaultConfig_Idempotent(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(Reset)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second create failed: %v", err)
	}
}

func TestBinaryFilePath_Validate(t *testing.T) {
	t.Parallel()
	if err := BinaryFilePath("").Validate(); err != nil {
		t.Errorf("empty path must be valid (auto-detect), got %v", err)
	}
	if err := BinaryFilePath("/usr/bin/pwsh").Validate(); err != nil {
		t.Errorf("real path must be valid, got %v", err)
	}
	err := BinaryFilePath("   ").Validate()
	if !errors.Is(err, ErrInvalidBinaryFilePath) {
		t.Errorf("whitespace-only path must be invalid, got %v", err)
	}
}

func TestDocsFormat_Validate(t *testing.T) {
	t.Parallel()
	for _, f := range []DocsFormat{DocsFormatMarkdown, DocsFormatHTML, DocsFormatBoth} {
		if err := f.Validate(); err != nil {
			t.Errorf("%q should be valid: %v", f, err)
		}
	}
	if err := DocsFormat("pdf").Validate(); !errors.Is(err, ErrInvalidDocsFormat) {
		t.Errorf("expected ErrInvalidDocsFormat, got %v", err)
	}
}
