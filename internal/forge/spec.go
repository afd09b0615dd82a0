// SPDX-License-Identifier: MPL-2.0

package forge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// SpecFileName is the default forge spec file name.
	SpecFileName = "forge.json"

	// SeverityError fails validation only on analyzer errors.
	SeverityError Severity = "error"
	// SeverityWarning fails validation on analyzer warnings and errors.
	SeverityWarning Severity = "warning"
	// SeverityInformation fails validation on any analyzer finding.
	SeverityInformation Severity = "information"

	// ScopeCurrentUser installs into the current user's module path.
	ScopeCurrentUser InstallScope = "currentUser"
	// ScopeAllUsers installs into the machine-wide module path.
	ScopeAllUsers InstallScope = "allUsers"

	// HookShellNative runs a hook in the system shell.
	HookShellNative HookShell = "native"
	// HookShellPortable runs a hook in the embedded POSIX shell interpreter.
	HookShellPortable HookShell = "portable"
)

// ridRegex matches .NET runtime identifiers such as "win-x64",
// "linux-musl-arm64" and "osx.13-arm64".
var ridRegex = regexp.MustCompile(`^[a-z][a-z0-9.]*(-[a-z0-9.]+)*$`)

// ErrInvalidSpec is the sentinel error wrapped by spec validation failures.
var ErrInvalidSpec = errors.New("invalid forge spec")

type (
	// Severity is the analyzer finding level that fails the validate step.
	Severity string

	// InstallScope selects the destination module path family.
	InstallScope string

	// HookShell selects the interpreter for a hook script.
	HookShell string

	// ModuleSegment identifies the PowerShell module being forged.
	ModuleSegment struct {
		// Name is the module name (e.g., "PSToolkit").
		Name string `json:"name"`
		// Path is the module source directory, relative to the spec file.
		Path string `json:"path"`
		// Manifest is the .psd1 path relative to Path. Defaults to
		// <Name>.psd1.
		Manifest string `json:"manifest,omitempty"`
		// Version overrides the manifest version for packaging/publishing.
		Version string `json:"version,omitempty"`
	}

	// BuildSegment configures compilation of companion .NET projects.
	BuildSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Projects are .csproj/.sln paths relative to the spec file.
		Projects []string `json:"projects,omitempty"`
		// Configuration is the build configuration (Release/Debug).
		Configuration string `json:"configuration,omitempty"`
		// Output is where built assemblies are copied, relative to the
		// module path. Empty keeps the SDK default output.
		Output string `json:"output,omitempty"`
		// RunTests also runs `dotnet test` for each project.
		RunTests bool `json:"runTests,omitempty"`
		// Pack also produces a NuGet package per project, written to the
		// package output directory.
		Pack bool `json:"pack,omitempty"`
	}

	// PesterSegment configures Pester test execution during validation.
	PesterSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Path is the test directory, relative to the spec file.
		Path string `json:"path,omitempty"`
	}

	// ValidateSegment configures static analysis and manifest checks.
	ValidateSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Analyze runs PSScriptAnalyzer over the module path.
		Analyze *bool `json:"analyze,omitempty"`
		// AnalyzerSettings is a PSScriptAnalyzer settings file path.
		AnalyzerSettings string `json:"analyzerSettings,omitempty"`
		// Severity is the finding level that fails the step.
		Severity Severity `json:"severity,omitempty"`
		// TestManifest runs Test-ModuleManifest against the manifest.
		TestManifest *bool `json:"testManifest,omitempty"`
		// Pester configures Pester test execution.
		Pester PesterSegment `json:"pester,omitempty"`
	}

	// DocsSegment configures help documentation export.
	DocsSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Format is "markdown", "html" or "both". Empty falls back to the
		// user config default.
		Format string `json:"format,omitempty"`
		// Output is the documentation directory, relative to the spec file.
		Output string `json:"output,omitempty"`
	}

	// PackageSegment configures artefact staging and archiving.
	PackageSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Output is the package directory, relative to the spec file.
		Output string `json:"output,omitempty"`
		// Zip produces <name>-<version>.zip.
		Zip *bool `json:"zip,omitempty"`
		// Nupkg produces a NuGet package layout for repository pushes.
		Nupkg *bool `json:"nupkg,omitempty"`
		// Exclude lists glob patterns omitted from the staged payload.
		Exclude []string `json:"exclude,omitempty"`
	}

	// SignSegment configures Authenticode signing.
	SignSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// CertificatePath is a PFX/PEM certificate file.
		CertificatePath string `json:"certificatePath,omitempty"`
		// Thumbprint selects a certificate from the user store (Windows).
		Thumbprint string `json:"thumbprint,omitempty"`
		// TimestampServer is the RFC 3161 timestamp URL.
		TimestampServer string `json:"timestampServer,omitempty"`
		// Include lists glob patterns of files to sign. Defaults to
		// PowerShell script and manifest files.
		Include []string `json:"include,omitempty"`
	}

	// Repository is a publish destination.
	Repository struct {
		// Name is the repository's unique name within the spec.
		Name string `json:"name"`
		// URL is the repository endpoint.
		URL string `json:"url"`
		// TokenName references an API key in the token store.
		TokenName string `json:"tokenName,omitempty"`
	}

	// PublishSegment configures repository pushes.
	PublishSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Repositories lists push destinations, tried in order.
		Repositories []Repository `json:"repositories,omitempty"`
	}

	// InstallSegment configures local installation of the packaged module.
	InstallSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Scope selects the destination module path family.
		Scope InstallScope `json:"scope,omitempty"`
		// Destination overrides the module path entirely.
		Destination string `json:"destination,omitempty"`
		// Force overwrites an existing installed version.
		Force bool `json:"force,omitempty"`
	}

	// DotnetPublishSegment configures multi-RID .NET publishing.
	DotnetPublishSegment struct {
		Enabled *bool `json:"enabled,omitempty"`
		// Project is the .csproj to publish.
		Project string `json:"project,omitempty"`
		// Rids lists target runtime identifiers (e.g., "win-x64").
		Rids []string `json:"rids,omitempty"`
		// Output is the publish root; each RID lands in a subdirectory.
		Output string `json:"output,omitempty"`
		// SelfContained bundles the runtime with each publish.
		SelfContained bool `json:"selfContained,omitempty"`
		// MaxParallel bounds concurrent publishes. Zero means one per RID,
		// capped at the runner's internal limit.
		MaxParallel int `json:"maxParallel,omitempty"`
		// ContinueOnError keeps publishing remaining RIDs after a failure.
		ContinueOnError bool `json:"continueOnError,omitempty"`
	}

	// DotnetSegment groups .NET-specific settings.
	DotnetSegment struct {
		Publish DotnetPublishSegment `json:"publish,omitempty"`
	}

	// Hook is a script run before or after a segment step.
	Hook struct {
		// Script is the inline script body.
		Script string `json:"script"`
		// Shell selects the interpreter. Defaults to portable.
		Shell HookShell `json:"shell,omitempty"`
	}

	// SegmentHooks holds the pre and post hooks of one segment.
	SegmentHooks struct {
		Pre  *Hook `json:"pre,omitempty"`
		Post *Hook `json:"post,omitempty"`
	}

	// Spec is the root forge.json document.
	Spec struct {
		// Path is the absolute path of the loaded spec file. Not part of
		// the JSON document.
		Path string `json:"-"`

		Module   ModuleSegment           `json:"module"`
		Build    BuildSegment            `json:"build,omitempty"`
		Validate ValidateSegment         `json:"validate,omitempty"`
		Docs     DocsSegment             `json:"docs,omitempty"`
		Package  PackageSegment          `json:"package,omitempty"`
		Sign     SignSegment             `json:"sign,omitempty"`
		Publish  PublishSegment          `json:"publish,omitempty"`
		Install  InstallSegment          `json:"install,omitempty"`
		Dotnet   DotnetSegment           `json:"dotnet,omitempty"`
		Hooks    map[string]SegmentHooks `json:"hooks,omitempty"`
	}
)

// enabled interprets the tri-state enabled gate: nil means enabled when the
// segment is present, which callers detect via the present argument.
func enabled(gate *bool, present bool) bool {
	if gate != nil {
		return *gate
	}
	return present
}

// BuildEnabled reports whether the build segment should run.
func (s *Spec) BuildEnabled() bool {
	return enabled(s.Build.Enabled, len(s.Build.Projects) > 0)
}

// ValidateEnabled reports whether the validate segment should run.
// Validation defaults to on: a pipeline without it must opt out.
func (s *Spec) ValidateEnabled() bool {
	return enabled(s.Validate.Enabled, true)
}

// AnalyzeEnabled reports whether PSScriptAnalyzer runs during validation.
func (s *Spec) AnalyzeEnabled() bool {
	return enabled(s.Validate.Analyze, true)
}

// TestManifestEnabled reports whether Test-ModuleManifest runs during validation.
func (s *Spec) TestManifestEnabled() bool {
	return enabled(s.Validate.TestManifest, true)
}

// PesterEnabled reports whether Pester tests run during validation.
func (s *Spec) PesterEnabled() bool {
	return enabled(s.Validate.Pester.Enabled, s.Validate.Pester.Path != "")
}

// DocsEnabled reports whether the docs segment should run. Configuring
// either the format or the output directory counts as opting in.
func (s *Spec) DocsEnabled() bool {
	return enabled(s.Docs.Enabled, s.Docs.Output != "" || s.Docs.Format != "")
}

// PackageEnabled reports whether the package segment should run.
// Packaging defaults to on: it is the pipeline's primary output.
func (s *Spec) PackageEnabled() bool {
	return enabled(s.Package.Enabled, true)
}

// SignEnabled reports whether the sign segment should run.
func (s *Spec) SignEnabled() bool {
	return enabled(s.Sign.Enabled, s.Sign.CertificatePath != "" || s.Sign.Thumbprint != "")
}

// PublishEnabled reports whether the publish segment should run.
func (s *Spec) PublishEnabled() bool {
	return enabled(s.Publish.Enabled, len(s.Publish.Repositories) > 0)
}

// InstallEnabled reports whether the install segment should run.
func (s *Spec) InstallEnabled() bool {
	return enabled(s.Install.Enabled, false)
}

// DotnetPublishEnabled reports whether the multi-RID .NET publish runs.
func (s *Spec) DotnetPublishEnabled() bool {
	return enabled(s.Dotnet.Publish.Enabled, s.Dotnet.Publish.Project != "")
}

// ManifestFile returns the manifest file name, defaulting to <Name>.psd1.
func (s *Spec) ManifestFile() string {
	if s.Module.Manifest != "" {
		return s.Module.Manifest
	}
	return s.Module.Name + ".psd1"
}

// SignInclude returns the signing include patterns, applying the default
// PowerShell file set when the spec omits them.
func (s *Spec) SignInclude() []string {
	if len(s.Sign.Include) > 0 {
		return s.Sign.Include
	}
	return []string{"*.ps1", "*.psm1", "*.psd1", "*.ps1xml"}
}

// validate checks constraints the CUE schema cannot express.
func (s *Spec) validate() error {
	if strings.TrimSpace(s.Module.Name) == "" {
		return fmt.Errorf("%w: module.name must not be empty", ErrInvalidSpec)
	}
	if strings.TrimSpace(s.Module.Path) == "" {
		return fmt.Errorf("%w: module.path must not be empty", ErrInvalidSpec)
	}

	if s.Validate.Severity != "" {
		switch s.Validate.Severity {
		case SeverityError, SeverityWarning, SeverityInformation:
		default:
			return fmt.Errorf("%w: validate.severity %q is not one of error, warning, information",
				ErrInvalidSpec, s.Validate.Severity)
		}
	}

	seen := make(map[string]int)
	for i, repo := range s.Publish.Repositories {
		if repo.Name == "" {
			return fmt.Errorf("%w: publish.repositories[%d]: name must not be empty", ErrInvalidSpec, i)
		}
		if repo.URL == "" {
			return fmt.Errorf("%w: publish.repositories[%d] (%s): url must not be empty", ErrInvalidSpec, i, repo.Name)
		}
		if first, dup := seen[repo.Name]; dup {
			return fmt.Errorf("%w: publish.repositories[%d]: duplicate name %q (same as [%d])",
				ErrInvalidSpec, i, repo.Name, first)
		}
		seen[repo.Name] = i
	}

	if s.DotnetPublishEnabled() {
		if s.Dotnet.Publish.Project == "" {
			return fmt.Errorf("%w: dotnet.publish.project must be set when publishing is enabled", ErrInvalidSpec)
		}
		if len(s.Dotnet.Publish.Rids) == 0 {
			return fmt.Errorf("%w: dotnet.publish.rids must list at least one runtime identifier", ErrInvalidSpec)
		}
		for _, rid := range s.Dotnet.Publish.Rids {
			if !ridRegex.MatchString(rid) {
				return fmt.Errorf("%w: dotnet.publish.rids: %q is not a valid runtime identifier", ErrInvalidSpec, rid)
			}
		}
		if s.Dotnet.Publish.MaxParallel < 0 {
			return fmt.Errorf("%w: dotnet.publish.maxParallel must not be negative", ErrInvalidSpec)
		}
	}

	for segment, hooks := range s.Hooks {
		if !knownHookSegment(segment) {
			return fmt.Errorf("%w: hooks.%s does not name a pipeline segment", ErrInvalidSpec, segment)
		}
		for _, h := range []*Hook{hooks.Pre, hooks.Post} {
			if h == nil {
				continue
			}
			if strings.TrimSpace(h.Script) == "" {
				return fmt.Errorf("%w: hooks.%s: script must not be empty", ErrInvalidSpec, segment)
			}
			switch h.Shell {
			case "", HookShellNative, HookShellPortable:
			default:
				return fmt.Errorf("%w: hooks.%s: shell %q is not one of native, portable", ErrInvalidSpec, segment, h.Shell)
			}
		}
	}

	return nil
}

// knownHookSegment reports whether name is a segment that accepts hooks.
func knownHookSegment(name string) bool {
	switch name {
	case "build", "validate", "docs", "pack", "sign", "publish", "install", "dotnet-publish":
		return true
	}
	return false
}

// Digest returns a stable SHA-256 hex digest of the spec content, used by
// checkpointing to detect spec drift between resumed runs.
func (s *Spec) Digest() string {
	// encoding/json marshals struct fields in declaration order, which
	// makes the digest deterministic for a given Spec value.
	data, err := json.Marshal(s)
	if err != nil {
		// Spec contains only marshalable types; this cannot happen.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
