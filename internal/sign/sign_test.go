// SPDX-License-Identifier: MPL-2.0

package sign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/pwsh"
)

var defaultInclude = []string{"*.ps1", "*.psm1", "*.psd1", "*.ps1xml"}

// fakePwsh stands in for pwsh, printing stdout and exiting with exitCode.
func fakePwsh(t *testing.T, stdout string, exitCode int) *pwsh.Shell {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool fake requires a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "pwsh")
	body := fmt.Sprintf("#!/bin/sh\nprintf '%%s' %q\nexit %d\n", stdout, exitCode)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return pwsh.NewShell(&execx.Tool{Name: "pwsh", Path: script})
}

func writePayload(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCollectFiles(t *testing.T) {
	t.Parallel()
	dir := writePayload(t,
		"M.psd1", "M.psm1", "Private/helper.ps1", "types.ps1xml",
		"readme.md", "bin/tool.dll")

	files, err := CollectFiles(dir, defaultInclude)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("files = %v", files)
	}
	if !slices.IsSorted(files) {
		t.Errorf("files must be sorted: %v", files)
	}
	for _, f := range files {
		if strings.HasSuffix(f, ".md") || strings.HasSuffix(f, ".dll") {
			t.Errorf("unexpected file collected: %s", f)
		}
	}
}

func TestSign_NoIdentity(t *testing.T) {
	t.Parallel()
	s := &Signer{}
	_, err := s.Sign(context.Background(), t.TempDir(), Options{Include: defaultInclude})
	if !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestSign_NothingToSign(t *testing.T) {
	t.Parallel()
	s := &Signer{}
	_, err := s.Sign(context.Background(), writePayload(t, "readme.md"), Options{
		CertificatePath: "cert.pfx",
		Include:         defaultInclude,
	})
	if !errors.Is(err, ErrNothingToSign) {
		t.Fatalf("expected ErrNothingToSign, got %v", err)
	}
}

func TestSign_AllValid(t *testing.T) {
	t.Parallel()
	dir := writePayload(t, "M.psd1")
	s := &Signer{Shell: fakePwsh(t, `[{"Path":"M.psd1","Status":"Valid","Message":"ok"}]`, 0)}

	statuses, err := s.Sign(context.Background(), dir, Options{
		CertificatePath: "cert.pfx",
		Include:         defaultInclude,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 1 || statuses[0].Status != "Valid" {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestSign_InvalidStatusFails(t *testing.T) {
	t.Parallel()
	dir := writePayload(t, "M.psd1")
	s := &Signer{Shell: fakePwsh(t, `[{"Path":"M.psd1","Status":"HashMismatch","Message":"bad"}]`, 0)}

	_, err := s.Sign(context.Background(), dir, Options{
		CertificatePath: "cert.pfx",
		Include:         defaultInclude,
	})
	var signErr *SignFailedError
	if !errors.As(err, &signErr) {
		t.Fatalf("expected SignFailedError, got %v", err)
	}
	if len(signErr.Failures) != 1 || signErr.Failures[0].Status != "HashMismatch" {
		t.Errorf("failures = %v", signErr.Failures)
	}
}

func TestSigntoolArgs(t *testing.T) {
	t.Parallel()
	args := SigntoolArgs([]string{"a.ps1", "b.psm1"}, Options{
		CertificatePath: "cert.pfx",
		TimestampServer: "http://ts.example.com",
	})
	want := []string{"sign", "/f", "cert.pfx", "/fd", "sha256", "/tr", "http://ts.example.com", "/td", "sha256", "a.ps1", "b.psm1"}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}

	noTS := SigntoolArgs([]string{"a.ps1"}, Options{CertificatePath: "cert.pfx"})
	if slices.Contains(noTS, "/tr") {
		t.Errorf("timestamp flags must be omitted: %v", noTS)
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()
	dir := writePayload(t, "M.psd1", "M.psm1")
	s := &Signer{Shell: fakePwsh(t,
		`[{"Path":"M.psd1","Status":"Valid","Message":""},{"Path":"M.psm1","Status":"NotSigned","Message":""}]`, 0)}

	statuses, err := s.Verify(context.Background(), dir, defaultInclude)
	if err != nil {
		t.Fatalf("verify must not fail on unsigned files: %v", err)
	}
	if len(statuses) != 2 {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestVerify_NoMatchingFiles(t *testing.T) {
	t.Parallel()
	s := &Signer{}
	statuses, err := s.Verify(context.Background(), writePayload(t, "readme.md"), defaultInclude)
	if err != nil || statuses != nil {
		t.Errorf("got %v, %v", statuses, err)
	}
}
