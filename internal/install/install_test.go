// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/powerforge/powerforge/internal/forge"
)

func stagePayload(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range map[string]string{
		"PSToolkit.psd1":      "@{ ModuleVersion = '1.0.0' }",
		"Private/helpers.ps1": "function helper {}",
	} {
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

func TestInstall(t *testing.T) {
	t.Parallel()
	stage := stagePayload(t)
	root := t.TempDir()

	target, err := Install(stage, "PSToolkit", "1.0.0", Options{Destination: root})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "PSToolkit", "1.0.0"); target != want {
		t.Errorf("target = %q, want %q", target, want)
	}
	for _, rel := range []string{"PSToolkit.psd1", "Private/helpers.ps1"} {
		if _, err := os.Stat(filepath.Join(target, rel)); err != nil {
			t.Errorf("%s not installed: %v", rel, err)
		}
	}
}

func TestInstall_ExistingVersion(t *testing.T) {
	t.Parallel()
	stage := stagePayload(t)
	root := t.TempDir()

	if _, err := Install(stage, "PSToolkit", "1.0.0", Options{Destination: root}); err != nil {
		t.Fatal(err)
	}

	_, err := Install(stage, "PSToolkit", "1.0.0", Options{Destination: root})
	var installedErr *AlreadyInstalledError
	if !errors.As(err, &installedErr) {
		t.Fatalf("expected AlreadyInstalledError, got %v", err)
	}
	if installedErr.Version != "1.0.0" {
		t.Errorf("error = %+v", installedErr)
	}
}

func TestInstall_ForceOverwrites(t *testing.T) {
	t.Parallel()
	stage := stagePayload(t)
	root := t.TempDir()

	target, err := Install(stage, "PSToolkit", "1.0.0", Options{Destination: root})
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(target, "stale.ps1")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Install(stage, "PSToolkit", "1.0.0", Options{Destination: root, Force: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("force install must replace the previous version")
	}
}

func TestInstall_MissingIdentity(t *testing.T) {
	t.Parallel()
	if _, err := Install(t.TempDir(), "", "1.0.0", Options{Destination: t.TempDir()}); err == nil {
		t.Error("missing name must error")
	}
	if _, err := Install(t.TempDir(), "M", "", Options{Destination: t.TempDir()}); err == nil {
		t.Error("missing version must error")
	}
}

func TestModulePath_Scopes(t *testing.T) {
	t.Parallel()
	current, err := ModulePath(forge.ScopeCurrentUser)
	if err != nil {
		t.Fatal(err)
	}
	if current == "" {
		t.Error("current user path empty")
	}

	all, err := ModulePath(forge.ScopeAllUsers)
	if err != nil {
		t.Fatal(err)
	}
	if all == "" || all == current {
		t.Errorf("all users path = %q, current = %q", all, current)
	}

	if _, err := ModulePath(forge.InstallScope("everyone")); err == nil {
		t.Error("unknown scope must error")
	}
}
