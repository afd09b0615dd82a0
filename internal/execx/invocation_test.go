// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"context"
	"strings"
	"testing"
)

// lookShell returns a POSIX shell tool, skipping the test when none exists.
func lookShell(t *testing.T) *Tool {
	t.Helper()
	tool, err := LookTool("shell", "sh", "bash")
	if err != nil {
		t.Skipf("no shell available: %v", err)
	}
	return tool
}

func TestInvocation_Capture_Success(t *testing.T) {
	t.Parallel()
	inv := &Invocation{
		Tool: lookShell(t),
		Args: []string{"-c", "echo hello"},
	}
	result := inv.Capture(context.Background())
	if !result.Success() {
		t.Fatalf("expected success, got exit=%d err=%v", result.ExitCode, result.Error)
	}
	if strings.TrimSpace(result.Output) != "hello" {
		t.Errorf("expected output %q, got %q", "hello", result.Output)
	}
	if result.Duration <= 0 {
		t.Error("expected positive duration")
	}
}

func TestInvocation_Capture_NonZeroExit(t *testing.T) {
	t.Parallel()
	inv := &Invocation{
		Tool: lookShell(t),
		Args: []string{"-c", "exit 3"},
	}
	result := inv.Capture(context.Background())
	if result.Error != nil {
		t.Fatalf("non-zero exit must not be an infrastructure error: %v", result.Error)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if result.Success() {
		t.Error("expected Success() == false")
	}
}

func TestInvocation_Capture_Stderr(t *testing.T) {
	t.Parallel()
	inv := &Invocation{
		Tool: lookShell(t),
		Args: []string{"-c", "echo oops 1>&2"},
	}
	result := inv.Capture(context.Background())
	if strings.TrimSpace(result.ErrOutput) != "oops" {
		t.Errorf("expected stderr %q, got %q", "oops", result.ErrOutput)
	}
}

func TestInvocation_Capture_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv := &Invocation{
		Tool: lookShell(t),
		Args: []string{"-c", "sleep 10"},
	}
	result := inv.Capture(ctx)
	if result.Error == nil {
		t.Fatal("expected infrastructure error for canceled context")
	}
}

func TestInvocation_WorkDirAndEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	inv := &Invocation{
		Tool: lookShell(t),
		Args: []string{"-c", "echo $POWERFORGE_TEST_VAR && pwd"},
		Dir:  dir,
		Env:  []string{"POWERFORGE_TEST_VAR=forged"},
	}
	result := inv.Capture(context.Background())
	if !result.Success() {
		t.Fatalf("expected success, got exit=%d err=%v", result.ExitCode, result.Error)
	}
	if !strings.Contains(result.Output, "forged") {
		t.Errorf("expected env var in output, got %q", result.Output)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("expected working dir %q in output, got %q", dir, result.Output)
	}
}

func TestInvocation_CommandLine(t *testing.T) {
	t.Parallel()
	inv := &Invocation{
		Tool: &Tool{Name: "dotnet", Path: "/usr/bin/dotnet"},
		Args: []string{"build", "-c", "Release"},
	}
	want := "/usr/bin/dotnet build -c Release"
	if got := inv.CommandLine(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
