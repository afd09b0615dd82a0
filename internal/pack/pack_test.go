// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeModule lays out a small module source tree.
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestStage(t *testing.T) {
	t.Parallel()
	src := writeModule(t, map[string]string{
		"PSToolkit.psd1":       "@{ ModuleVersion = '1.0.0' }",
		"PSToolkit.psm1":       "function Get-Thing {}",
		"Private/helpers.ps1":  "function helper {}",
		"tests/unit.Tests.ps1": "Describe 'x' {}",
		"notes.tmp":            "scratch",
	})
	out := t.TempDir()

	stageDir, err := Stage(StageOptions{
		ModuleName: "PSToolkit",
		Version:    "1.0.0",
		SourceDir:  src,
		OutputDir:  out,
		Exclude:    []string{"tests", "*.tmp"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(out, "PSToolkit", "1.0.0"); stageDir != want {
		t.Errorf("stage dir = %q, want %q", stageDir, want)
	}
	for _, rel := range []string{"PSToolkit.psd1", "PSToolkit.psm1", "Private/helpers.ps1"} {
		if _, err := os.Stat(filepath.Join(stageDir, rel)); err != nil {
			t.Errorf("%s missing from payload: %v", rel, err)
		}
	}
	for _, rel := range []string{"tests", "notes.tmp"} {
		if _, err := os.Stat(filepath.Join(stageDir, rel)); !os.IsNotExist(err) {
			t.Errorf("%s must be excluded", rel)
		}
	}
}

func TestStage_ReplacesPreviousStaging(t *testing.T) {
	t.Parallel()
	src := writeModule(t, map[string]string{"M.psd1": "@{}"})
	out := t.TempDir()

	opts := StageOptions{ModuleName: "M", Version: "1.0.0", SourceDir: src, OutputDir: out}
	stageDir, err := Stage(opts)
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(stageDir, "stale.ps1")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Stage(opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("restaging must replace the previous payload")
	}
}

func TestStage_RejectsSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation is privileged on Windows")
	}
	src := writeModule(t, map[string]string{"M.psd1": "@{}"})
	if err := os.Symlink("/etc/hosts", filepath.Join(src, "link.ps1")); err != nil {
		t.Fatal(err)
	}

	_, err := Stage(StageOptions{ModuleName: "M", Version: "1.0.0", SourceDir: src, OutputDir: t.TempDir()})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestStage_MissingNameOrVersion(t *testing.T) {
	t.Parallel()
	if _, err := Stage(StageOptions{Version: "1.0.0"}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing name: %v", err)
	}
	if _, err := Stage(StageOptions{ModuleName: "M"}); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing version: %v", err)
	}
}

func TestValidateStaged(t *testing.T) {
	t.Parallel()

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()
		stage := writeModule(t, map[string]string{"M.psd1": "@{}", "M.psm1": ""})
		if err := ValidateStaged(stage, "M.psd1", "M", "1.0.0"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()
		stage := writeModule(t, map[string]string{"M.psm1": ""})
		err := ValidateStaged(stage, "M.psd1", "M", "1.0.0")
		if !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
		if !strings.Contains(err.Error(), "manifest") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("nested staging", func(t *testing.T) {
		t.Parallel()
		stage := writeModule(t, map[string]string{
			"M.psd1":         "@{}",
			"M/1.0.0/M.psd1": "@{}",
		})
		if err := ValidateStaged(stage, "M.psd1", "M", "1.0.0"); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
	})
}

func readZipNames(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	entries := make(map[string]string)
	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "/") {
			entries[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

func TestArchive(t *testing.T) {
	t.Parallel()
	stage := writeModule(t, map[string]string{
		"PSToolkit.psd1":      "@{ ModuleVersion = '1.2.0' }",
		"Private/helpers.ps1": "function helper {}",
	})
	out := t.TempDir()

	path, err := Archive(stage, out, "PSToolkit", "1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "PSToolkit-1.2.0.zip" {
		t.Errorf("archive name = %q", filepath.Base(path))
	}

	entries := readZipNames(t, path)
	if content, ok := entries["PSToolkit/PSToolkit.psd1"]; !ok || !strings.Contains(content, "1.2.0") {
		t.Errorf("manifest entry missing or wrong, entries = %v", keys(entries))
	}
	if _, ok := entries["PSToolkit/Private/helpers.ps1"]; !ok {
		t.Errorf("nested file missing, entries = %v", keys(entries))
	}
}

func TestWriteNupkg(t *testing.T) {
	t.Parallel()
	stage := writeModule(t, map[string]string{"PSToolkit.psd1": "@{}"})
	out := t.TempDir()

	path, err := WriteNupkg(stage, out, NuspecMeta{
		ID:      "PSToolkit",
		Version: "1.2.0",
		Authors: "dev",
	})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "PSToolkit.1.2.0.nupkg" {
		t.Errorf("nupkg name = %q", filepath.Base(path))
	}

	entries := readZipNames(t, path)
	nuspec, ok := entries["PSToolkit.nuspec"]
	if !ok {
		t.Fatalf("nuspec missing, entries = %v", keys(entries))
	}
	for _, want := range []string{"<id>PSToolkit</id>", "<version>1.2.0</version>", "PSModule"} {
		if !strings.Contains(nuspec, want) {
			t.Errorf("nuspec missing %q:\n%s", want, nuspec)
		}
	}
	if _, ok := entries["PSToolkit.psd1"]; !ok {
		t.Errorf("payload must sit at the package root, entries = %v", keys(entries))
	}
}

func TestWriteNupkg_RequiresIdentity(t *testing.T) {
	t.Parallel()
	if _, err := WriteNupkg(t.TempDir(), t.TempDir(), NuspecMeta{}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
