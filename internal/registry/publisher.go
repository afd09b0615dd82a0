// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/powerforge/powerforge/internal/dotnet"
	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/forge"

	"github.com/charmbracelet/log"
)

type (
	// Artefact is what a publish pushes: the packaged module plus its
	// identity.
	Artefact struct {
		ModuleName string
		Version    string
		// NupkgPath feeds NuGet-style destinations.
		NupkgPath string
		// ZipPath feeds file shares when no nupkg was produced.
		ZipPath string
	}

	// PushRejectedError reports a feed that refused the push.
	PushRejectedError struct {
		Repository string
		ExitCode   execx.ExitCode
		Detail     string
	}

	// Publisher pushes artefacts to classified repository endpoints.
	Publisher struct {
		Dotnet *dotnet.CLI
		Tokens *TokenStore
		Logger *log.Logger
	}
)

func (e *PushRejectedError) Error() string {
	msg := fmt.Sprintf("repository %q rejected the push (exit code %d)", e.Repository, e.ExitCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Publish pushes the artefact to one configured repository. NuGet-style
// destinations (gallery included) receive the nupkg via dotnet nuget
// push; file shares receive a plain copy.
func (p *Publisher) Publish(ctx context.Context, repo forge.Repository, art Artefact) error {
	endpoint, err := ParseRepositoryURL(repo.URL)
	if err != nil {
		return fmt.Errorf("repository %q: %w", repo.Name, err)
	}

	if p.Logger != nil {
		p.Logger.Debug("publishing artefact",
			"repository", repo.Name, "kind", endpoint.Kind, "module", art.ModuleName, "version", art.Version)
	}

	switch endpoint.Kind {
	case KindFileShare:
		return p.publishToShare(endpoint, repo, art)
	default:
		return p.publishToFeed(ctx, endpoint, repo, art)
	}
}

func (p *Publisher) publishToFeed(ctx context.Context, endpoint *Endpoint, repo forge.Repository, art Artefact) error {
	if art.NupkgPath == "" {
		return fmt.Errorf("repository %q needs a nupkg artefact; enable package.nupkg", repo.Name)
	}

	apiKey := ""
	if repo.TokenName != "" {
		if p.Tokens == nil {
			return fmt.Errorf("repository %q references token %q but no token store is configured",
				repo.Name, repo.TokenName)
		}
		key, err := p.Tokens.Get(repo.TokenName)
		if err != nil {
			return fmt.Errorf("repository %q: %w", repo.Name, err)
		}
		apiKey = key
	}

	inv := p.Dotnet.NugetPush(art.NupkgPath, endpoint.PushURL, apiKey, "")
	res := inv.Capture(ctx)
	if res.Error != nil {
		return fmt.Errorf("push to %q failed: %w", repo.Name, res.Error)
	}
	if !res.ExitCode.IsSuccess() {
		return &PushRejectedError{
			Repository: repo.Name,
			ExitCode:   res.ExitCode,
			Detail:     firstLine(res.ErrOutput),
		}
	}
	return nil
}

func (p *Publisher) publishToShare(endpoint *Endpoint, repo forge.Repository, art Artefact) error {
	src := art.NupkgPath
	if src == "" {
		src = art.ZipPath
	}
	if src == "" {
		return fmt.Errorf("repository %q: no artefact to copy", repo.Name)
	}

	if err := os.MkdirAll(endpoint.PushURL, 0o755); err != nil {
		return fmt.Errorf("failed to create share directory %s: %w", endpoint.PushURL, err)
	}

	dest := filepath.Join(endpoint.PushURL, filepath.Base(src))
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artefact: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy artefact to %s: %w", dest, err)
	}
	return out.Close()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
