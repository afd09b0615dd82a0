// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/docs"
	"github.com/powerforge/powerforge/internal/dotnet"
	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/install"
	"github.com/powerforge/powerforge/internal/issue"
	"github.com/powerforge/powerforge/internal/pack"
	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/pwsh"
	"github.com/powerforge/powerforge/internal/registry"
	"github.com/powerforge/powerforge/internal/sign"
)

// ToolExitError carries a failed tool invocation's exit code so the CLI
// can propagate it.
type ToolExitError struct {
	Tool     string
	ExitCode execx.ExitCode
	Detail   string
}

func (e *ToolExitError) Error() string {
	msg := fmt.Sprintf("%s failed with exit code %d", e.Tool, e.ExitCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// resolveVersion returns the module version for packaging: an earlier
// step's result, the spec override, or the manifest via pwsh.
func resolveVersion(ctx context.Context, sc *pipeline.StepContext) (string, error) {
	if sc.Artifacts.Version != "" {
		return sc.Artifacts.Version, nil
	}
	if v := sc.Spec.Module.Version; v != "" {
		sc.Artifacts.Version = v
		return v, nil
	}

	shell, err := resolvePwsh(sc.Config)
	if err != nil {
		return "", fmt.Errorf("cannot resolve module version: %w", err)
	}
	info, err := shell.TestManifest(ctx, sc.Spec.ManifestPath())
	if err != nil {
		return "", fmt.Errorf("cannot resolve module version: %w", err)
	}
	sc.Artifacts.Version = info.Version
	return info.Version, nil
}

func runBuild(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	cli, err := resolveDotnet(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}

	output := ""
	if spec.Build.Output != "" {
		output = filepath.Join(spec.ModuleDir(), spec.Build.Output)
	}

	for _, project := range spec.Build.Projects {
		path := spec.ResolvePath(project)
		sc.Logger.Debug("building project", "project", project)

		res := cli.Build(path, spec.Build.Configuration, output, spec.Dir()).Capture(ctx)
		if res.Error != nil {
			return pipeline.Fail(fmt.Errorf("dotnet build for %s: %w", project, res.Error))
		}
		if !res.ExitCode.IsSuccess() {
			return pipeline.FailOutput(
				&ToolExitError{Tool: "dotnet build", ExitCode: res.ExitCode, Detail: project},
				res.Output+res.ErrOutput)
		}

		if spec.Build.RunTests {
			res := cli.Test(path, spec.Build.Configuration, spec.Dir()).Capture(ctx)
			if res.Error != nil {
				return pipeline.Fail(fmt.Errorf("dotnet test for %s: %w", project, res.Error))
			}
			if !res.ExitCode.IsSuccess() {
				return pipeline.FailOutput(
					&ToolExitError{Tool: "dotnet test", ExitCode: res.ExitCode, Detail: project},
					res.Output+res.ErrOutput)
			}
		}

		if spec.Build.Pack {
			res := cli.Pack(path, spec.Build.Configuration, spec.ResolvePath(spec.Package.Output), spec.Dir()).Capture(ctx)
			if res.Error != nil {
				return pipeline.Fail(fmt.Errorf("dotnet pack for %s: %w", project, res.Error))
			}
			if !res.ExitCode.IsSuccess() {
				return pipeline.FailOutput(
					&ToolExitError{Tool: "dotnet pack", ExitCode: res.ExitCode, Detail: project},
					res.Output+res.ErrOutput)
			}
		}
	}

	return pipeline.SucceedOutput(fmt.Sprintf("built %d project(s)", len(spec.Build.Projects)))
}

func runValidate(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	shell, err := resolvePwsh(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}

	var summary []string

	if spec.TestManifestEnabled() {
		info, err := shell.TestManifest(ctx, spec.ManifestPath())
		if err != nil {
			return pipeline.Fail(issue.NewErrorContext().
				WithOperation("validate module manifest").
				WithResource(spec.ManifestPath()).
				WithIssue(issue.ManifestInvalidId).
				Wrap(err).
				BuildError())
		}
		if sc.Artifacts.Version == "" {
			if spec.Module.Version != "" {
				sc.Artifacts.Version = spec.Module.Version
			} else {
				sc.Artifacts.Version = info.Version
			}
		}
		summary = append(summary, fmt.Sprintf("manifest ok: %s %s", info.Name, info.Version))
	}

	if spec.AnalyzeEnabled() {
		diags, err := shell.Analyze(ctx, spec.ModuleDir(), spec.ResolvePath(spec.Validate.AnalyzerSettings))
		if err != nil {
			return pipeline.Fail(err)
		}
		failing := pwsh.AtOrAbove(diags, spec.Validate.Severity)
		if len(failing) > 0 {
			var b strings.Builder
			for _, d := range failing {
				b.WriteString(d.String())
				b.WriteString("\n")
			}
			return pipeline.FailOutput(
				fmt.Errorf("script analysis found %d finding(s) at or above %s", len(failing), spec.Validate.Severity),
				b.String())
		}
		summary = append(summary, fmt.Sprintf("analyzer clean (%d finding(s) below threshold)", len(diags)))
	}

	if spec.PesterEnabled() {
		testPath := spec.Validate.Pester.Path
		if testPath == "" {
			testPath = "tests"
		}
		res := shell.Pester(ctx, spec.ResolvePath(testPath), spec.Dir())
		if res.Error != nil {
			return pipeline.Fail(fmt.Errorf("pester run: %w", res.Error))
		}
		if !res.ExitCode.IsSuccess() {
			// Pester's exit code is its failing test count.
			return pipeline.Fail(&ToolExitError{
				Tool: "pester", ExitCode: res.ExitCode,
				Detail: fmt.Sprintf("%d failing test(s)", res.ExitCode),
			})
		}
		summary = append(summary, "pester tests passed")
	}

	return pipeline.SucceedOutput(strings.Join(summary, "\n"))
}

func runDocs(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	shell, err := resolvePwsh(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}

	version, err := resolveVersion(ctx, sc)
	if err != nil {
		return pipeline.Fail(err)
	}

	commands, err := shell.ModuleHelp(ctx, spec.ManifestPath(), spec.Module.Name)
	if err != nil {
		return pipeline.Fail(err)
	}

	model := docs.ModuleDocs{ModuleName: spec.Module.Name, Version: version, Commands: commands}
	output := spec.Docs.Output
	if output == "" {
		output = "docs"
	}
	outDir := spec.ResolvePath(output)

	format := config.DocsFormat(spec.Docs.Format)
	if format == "" {
		format = sc.Config.Defaults.DocsFormat
	}
	if err := format.Validate(); err != nil {
		return pipeline.Fail(err)
	}

	var written []string
	if format == config.DocsFormatMarkdown || format == config.DocsFormatBoth {
		paths, err := docs.WriteMarkdown(model, outDir)
		if err != nil {
			return pipeline.Fail(err)
		}
		written = append(written, paths...)
	}
	if format == config.DocsFormatHTML || format == config.DocsFormatBoth {
		path, err := docs.WriteHTML(model, outDir)
		if err != nil {
			return pipeline.Fail(err)
		}
		written = append(written, path)
	}

	return pipeline.SucceedOutput(fmt.Sprintf("wrote %d page(s) to %s", len(written), outDir))
}

// zipEnabled defaults on: the ZIP is the pipeline's baseline artefact.
func zipEnabled(s *forge.Spec) bool {
	return s.Package.Zip == nil || *s.Package.Zip
}

// nupkgEnabled defaults to whether the spec publishes anywhere, since
// feed pushes need the nupkg.
func nupkgEnabled(s *forge.Spec) bool {
	if s.Package.Nupkg != nil {
		return *s.Package.Nupkg
	}
	return s.PublishEnabled()
}

func runPack(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	version, err := resolveVersion(ctx, sc)
	if err != nil {
		return pipeline.Fail(err)
	}

	outDir := spec.ResolvePath(spec.Package.Output)
	stageDir, err := pack.Stage(pack.StageOptions{
		ModuleName: spec.Module.Name,
		Version:    version,
		SourceDir:  spec.ModuleDir(),
		OutputDir:  outDir,
		Exclude:    spec.Package.Exclude,
	})
	if err != nil {
		return pipeline.Fail(err)
	}
	if err := pack.ValidateStaged(stageDir, spec.ManifestFile(), spec.Module.Name, version); err != nil {
		return pipeline.Fail(err)
	}
	sc.Artifacts.StageDir = stageDir

	var produced []string
	if zipEnabled(spec) {
		zipPath, err := pack.Archive(stageDir, outDir, spec.Module.Name, version)
		if err != nil {
			return pipeline.Fail(err)
		}
		sc.Artifacts.ZipPath = zipPath
		produced = append(produced, filepath.Base(zipPath))
	}
	if nupkgEnabled(spec) {
		nupkgPath, err := pack.WriteNupkg(stageDir, outDir, pack.NuspecMeta{
			ID:          spec.Module.Name,
			Version:     version,
			Description: fmt.Sprintf("%s PowerShell module", spec.Module.Name),
		})
		if err != nil {
			return pipeline.Fail(err)
		}
		sc.Artifacts.NupkgPath = nupkgPath
		produced = append(produced, filepath.Base(nupkgPath))
	}

	if len(produced) == 0 {
		return pipeline.SucceedOutput("staged " + stageDir)
	}
	return pipeline.SucceedOutput("produced " + strings.Join(produced, ", "))
}

// recoverArtifacts fills in artefact paths from the package output when
// a resumed run skipped the pack step in this process.
func recoverArtifacts(sc *pipeline.StepContext, version string) {
	spec := sc.Spec
	outDir := spec.ResolvePath(spec.Package.Output)

	if sc.Artifacts.StageDir == "" {
		candidate := filepath.Join(outDir, spec.Module.Name, version)
		if _, err := os.Stat(candidate); err == nil {
			sc.Artifacts.StageDir = candidate
		}
	}
	if sc.Artifacts.ZipPath == "" {
		candidate := filepath.Join(outDir, fmt.Sprintf("%s-%s.zip", spec.Module.Name, version))
		if _, err := os.Stat(candidate); err == nil {
			sc.Artifacts.ZipPath = candidate
		}
	}
	if sc.Artifacts.NupkgPath == "" {
		candidate := filepath.Join(outDir, fmt.Sprintf("%s.%s.nupkg", spec.Module.Name, version))
		if _, err := os.Stat(candidate); err == nil {
			sc.Artifacts.NupkgPath = candidate
		}
	}
}

func runSign(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	version, err := resolveVersion(ctx, sc)
	if err != nil {
		return pipeline.Fail(err)
	}
	recoverArtifacts(sc, version)
	if sc.Artifacts.StageDir == "" {
		return pipeline.Failf("no staged payload to sign; run the pack step first")
	}

	shell, err := resolvePwsh(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}
	signer := &sign.Signer{Shell: shell, Signtool: resolveSigntool(sc.Config)}

	statuses, err := signer.Sign(ctx, sc.Artifacts.StageDir, sign.Options{
		CertificatePath: spec.ResolvePath(spec.Sign.CertificatePath),
		Thumbprint:      spec.Sign.Thumbprint,
		TimestampServer: spec.Sign.TimestampServer,
		Include:         spec.SignInclude(),
	})
	if err != nil {
		return pipeline.Fail(err)
	}

	return pipeline.SucceedOutput(fmt.Sprintf("signed %d file(s)", len(statuses)))
}

func runPublish(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	version, err := resolveVersion(ctx, sc)
	if err != nil {
		return pipeline.Fail(err)
	}
	recoverArtifacts(sc, version)

	cli, err := resolveDotnet(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}
	tokensPath, err := config.TokensFilePath()
	if err != nil {
		return pipeline.Fail(err)
	}
	publisher := &registry.Publisher{
		Dotnet: cli,
		Tokens: registry.NewTokenStore(tokensPath),
		Logger: sc.Logger,
	}

	art := registry.Artefact{
		ModuleName: spec.Module.Name,
		Version:    version,
		NupkgPath:  sc.Artifacts.NupkgPath,
		ZipPath:    sc.Artifacts.ZipPath,
	}

	var errs []error
	pushed := 0
	for _, repo := range spec.Publish.Repositories {
		if err := publisher.Publish(ctx, repo, art); err != nil {
			errs = append(errs, fmt.Errorf("publish to %s: %w", repo.Name, err))
			continue
		}
		pushed++
	}
	if len(errs) > 0 {
		return pipeline.Fail(errors.Join(errs...))
	}

	return pipeline.SucceedOutput(fmt.Sprintf("published to %d of %d repositories", pushed, len(spec.Publish.Repositories)))
}

func runInstall(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	version, err := resolveVersion(ctx, sc)
	if err != nil {
		return pipeline.Fail(err)
	}
	recoverArtifacts(sc, version)
	if sc.Artifacts.StageDir == "" {
		return pipeline.Failf("no staged payload to install; run the pack step first")
	}

	target, err := install.Install(sc.Artifacts.StageDir, spec.Module.Name, version, install.Options{
		Scope:       spec.Install.Scope,
		Destination: spec.ResolvePath(spec.Install.Destination),
		Force:       spec.Install.Force,
	})
	if err != nil {
		return pipeline.Fail(err)
	}

	shell, err := resolvePwsh(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}
	if err := shell.ImportCheck(ctx, spec.Module.Name); err != nil {
		return pipeline.FailOutput(fmt.Errorf("post-install import check failed: %w", err), target)
	}

	return pipeline.SucceedOutput("installed to " + target)
}

func runDotnetPublish(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult {
	spec := sc.Spec
	cli, err := resolveDotnet(sc.Config)
	if err != nil {
		return pipeline.Fail(err)
	}
	runner := &dotnet.PublishRunner{CLI: cli, Logger: sc.Logger}

	ps := spec.Dotnet.Publish
	results, err := runner.Run(ctx, dotnet.PublishSpec{
		Project:         spec.ResolvePath(ps.Project),
		Configuration:   spec.Build.Configuration,
		Rids:            ps.Rids,
		OutputRoot:      spec.ResolvePath(ps.Output),
		SelfContained:   ps.SelfContained,
		MaxParallel:     ps.MaxParallel,
		ContinueOnError: ps.ContinueOnError,
	}, spec.Dir())

	published := 0
	for _, r := range results {
		if r.Result != nil && r.Result.Success() {
			sc.Artifacts.PublishDirs[r.RID] = r.OutputDir
			published++
		}
	}
	if err != nil {
		return pipeline.FailOutput(err, fmt.Sprintf("%d of %d runtime(s) published", published, len(ps.Rids)))
	}

	return pipeline.SucceedOutput(fmt.Sprintf("published %d runtime(s)", published))
}
