// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/pipeline"
)

// The planner syntax-checks portable hooks through this interface.
var _ pipeline.SyntaxChecker = (*Runner)(nil)

func TestRunner_PortableHook(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := &Runner{}

	err := r.Run(context.Background(), forge.Hook{
		Script: "echo hello > marker.txt",
		Shell:  forge.HookShellPortable,
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker.txt")); err != nil {
		t.Errorf("hook did not run in the work directory: %v", err)
	}
}

func TestRunner_PortableIsDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := &Runner{}

	if err := r.Run(context.Background(), forge.Hook{Script: "true"}, dir); err != nil {
		t.Fatal(err)
	}
}

func TestRunner_PortableExitCode(t *testing.T) {
	t.Parallel()
	r := &Runner{}
	err := r.Run(context.Background(), forge.Hook{Script: "exit 3"}, t.TempDir())

	var hookErr *HookFailedError
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected HookFailedError, got %v", err)
	}
	if hookErr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", hookErr.ExitCode)
	}
}

func TestRunner_PortableSyntaxError(t *testing.T) {
	t.Parallel()
	r := &Runner{}
	err := r.Run(context.Background(), forge.Hook{Script: "if then fi"}, t.TempDir())
	if err == nil {
		t.Fatal("expected syntax error")
	}
	var hookErr *HookFailedError
	if errors.As(err, &hookErr) {
		t.Error("a syntax error must not look like a script exit")
	}
}

func TestRunner_EmptyScript(t *testing.T) {
	t.Parallel()
	r := &Runner{}
	if err := r.Run(context.Background(), forge.Hook{Script: "   "}, t.TempDir()); err == nil {
		t.Fatal("expected error for empty script")
	}
}

func TestRunner_NativeHook(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("native hook test uses a POSIX shell")
	}
	dir := t.TempDir()
	r := &Runner{}

	err := r.Run(context.Background(), forge.Hook{
		Script: "echo native > marker.txt",
		Shell:  forge.HookShellNative,
	}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker.txt")); err != nil {
		t.Errorf("native hook did not run in the work directory: %v", err)
	}
}

func TestCheckSyntax(t *testing.T) {
	t.Parallel()
	if err := CheckSyntax("echo ok && ls"); err != nil {
		t.Errorf("valid script rejected: %v", err)
	}
	if err := CheckSyntax("for do done"); err == nil {
		t.Error("invalid script accepted")
	}

	r := &Runner{}
	if err := r.CheckSyntax("if true; then"); err == nil {
		t.Error("runner must reject an unterminated script")
	}
}
