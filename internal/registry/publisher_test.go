// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/powerforge/powerforge/internal/dotnet"
	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/forge"
)

// fakeDotnet stands in for the dotnet CLI, recording its arguments into
// argsFile and exiting with exitCode.
func fakeDotnet(t *testing.T, exitCode int) (cli *dotnet.CLI, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool fake requires a POSIX shell")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	script := filepath.Join(dir, "dotnet")
	body := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' \"$@\" > %q\nif [ %d -ne 0 ]; then echo 'Response status code does not indicate success: 403' >&2; fi\nexit %d\n",
		argsFile, exitCode, exitCode)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return dotnet.New(&execx.Tool{Name: "dotnet", Path: script}), argsFile
}

func writeArtefact(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("pkg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPublisher_PushesNupkg(t *testing.T) {
	t.Parallel()
	cli, argsFile := fakeDotnet(t, 0)
	store := testStore(t)
	if err := store.Set("psgallery", "oy2-key"); err != nil {
		t.Fatal(err)
	}

	p := &Publisher{Dotnet: cli, Tokens: store}
	repo := forge.Repository{Name: "psgallery", URL: "https://www.powershellgallery.com/api/v2", TokenName: "psgallery"}
	art := Artefact{ModuleName: "PSToolkit", Version: "1.0.0", NupkgPath: writeArtefact(t, "PSToolkit.1.0.0.nupkg")}

	if err := p.Publish(context.Background(), repo, art); err != nil {
		t.Fatal(err)
	}

	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"nuget", "push", "https://www.powershellgallery.com/api/v2/package", "oy2-key"} {
		if !strings.Contains(string(recorded), want) {
			t.Errorf("push args missing %q:\n%s", want, recorded)
		}
	}
}

func TestPublisher_RejectedPush(t *testing.T) {
	t.Parallel()
	cli, _ := fakeDotnet(t, 1)
	p := &Publisher{Dotnet: cli}
	repo := forge.Repository{Name: "feed", URL: "https://nuget.example.com/v3/index.json"}
	art := Artefact{NupkgPath: writeArtefact(t, "x.nupkg")}

	err := p.Publish(context.Background(), repo, art)
	var rejected *PushRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected PushRejectedError, got %v", err)
	}
	if rejected.Repository != "feed" || rejected.ExitCode != 1 {
		t.Errorf("rejection = %+v", rejected)
	}
	if rejected.Detail == "" {
		t.Error("expected stderr detail")
	}
}

func TestPublisher_FeedRequiresNupkg(t *testing.T) {
	t.Parallel()
	cli, _ := fakeDotnet(t, 0)
	p := &Publisher{Dotnet: cli}
	repo := forge.Repository{Name: "feed", URL: "https://nuget.example.com/v3/index.json"}

	if err := p.Publish(context.Background(), repo, Artefact{ZipPath: "x.zip"}); err == nil {
		t.Fatal("expected error when no nupkg exists for a feed push")
	}
}

func TestPublisher_MissingToken(t *testing.T) {
	t.Parallel()
	cli, _ := fakeDotnet(t, 0)
	p := &Publisher{Dotnet: cli, Tokens: testStore(t)}
	repo := forge.Repository{Name: "feed", URL: "https://nuget.example.com/v3/index.json", TokenName: "ghost"}
	art := Artefact{NupkgPath: writeArtefact(t, "x.nupkg")}

	if err := p.Publish(context.Background(), repo, art); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestPublisher_FileShareCopy(t *testing.T) {
	t.Parallel()
	share := filepath.Join(t.TempDir(), "drop")
	p := &Publisher{}
	repo := forge.Repository{Name: "share", URL: share}
	art := Artefact{NupkgPath: writeArtefact(t, "PSToolkit.1.0.0.nupkg")}

	if err := p.Publish(context.Background(), repo, art); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(share, "PSToolkit.1.0.0.nupkg")); err != nil {
		t.Errorf("artefact not copied: %v", err)
	}
}

func TestPublisher_FileShareFallsBackToZip(t *testing.T) {
	t.Parallel()
	share := filepath.Join(t.TempDir(), "drop")
	p := &Publisher{}
	repo := forge.Repository{Name: "share", URL: share}
	art := Artefact{ZipPath: writeArtefact(t, "PSToolkit-1.0.0.zip")}

	if err := p.Publish(context.Background(), repo, art); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(share, "PSToolkit-1.0.0.zip")); err != nil {
		t.Errorf("zip not copied: %v", err)
	}
}
