// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/issue"
	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/pwsh"
	"github.com/powerforge/powerforge/internal/registry"
	"github.com/powerforge/powerforge/internal/sign"
)

// issueIDFor maps an error to its registered help page. Errors tagged at
// the error site win; well-known typed errors are classified here so
// lower layers stay free of presentation concerns.
func issueIDFor(err error) (issue.Id, bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue, true
	}

	var cycleErr *pipeline.CycleError
	if errors.As(err, &cycleErr) {
		return issue.StepDependencyCycleId, true
	}

	var notFound *execx.ToolNotFoundError
	if errors.As(err, &notFound) {
		switch notFound.Name {
		case "dotnet":
			return issue.DotnetNotFoundId, true
		case "pwsh":
			return issue.PwshNotFoundId, true
		}
	}

	var scriptErr *pwsh.ScriptError
	if errors.As(err, &scriptErr) && strings.Contains(scriptErr.Stderr, "Invoke-ScriptAnalyzer") &&
		(strings.Contains(scriptErr.Stderr, "not recognized") || strings.Contains(scriptErr.Stderr, "CommandNotFound")) {
		return issue.AnalyzerNotInstalledId, true
	}

	if errors.Is(err, sign.ErrNoIdentity) {
		return issue.SigningIdentityNotFoundId, true
	}
	if errors.Is(err, registry.ErrTokenNotFound) {
		return issue.TokenNotFoundId, true
	}
	if errors.Is(err, registry.ErrUnsupportedRepository) {
		return issue.RepositoryURLInvalidId, true
	}
	var rejected *registry.PushRejectedError
	if errors.As(err, &rejected) {
		return issue.PublishRejectedId, true
	}

	return 0, false
}

// issuePage returns the rendered help page for an error, when one is
// registered for its failure class.
func issuePage(err error) (string, bool) {
	id, ok := issueIDFor(err)
	if !ok {
		return "", false
	}
	is := issue.Get(id)
	if is == nil {
		return "", false
	}
	page, renderErr := is.Render("auto")
	if renderErr != nil {
		return "", false
	}
	return page, true
}
