// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a well-known failure class with a rendered help page.
type Id int

const (
	SpecNotFoundId Id = iota + 1
	SpecInvalidId
	DotnetNotFoundId
	PwshNotFoundId
	AnalyzerNotInstalledId
	ManifestInvalidId
	SigningIdentityNotFoundId
	TokenNotFoundId
	RepositoryURLInvalidId
	StepDependencyCycleId
	PublishRejectedId
)

// MarkdownMsg is a markdown-formatted help page body.
type MarkdownMsg string

// Issue pairs a failure class with the markdown page shown to the user.
type Issue struct {
	id    Id
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue page as styled terminal output.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	specNotFoundIssue = &Issue{
		id: SpecNotFoundId,
		mdMsg: `
# No forge spec found!

We searched for a forge.json but couldn't find one.

## Search locations (in order of precedence):
1. Path given on the command line
2. Current directory (forge.json)

## Things you can try:
- Scaffold a spec in your module directory:
~~~
$ powerforge init
~~~

- Or point at an existing spec:
~~~
$ powerforge run ./build/forge.json
~~~`,
	}

	specInvalidIssue = &Issue{
		id: SpecInvalidId,
		mdMsg: `
# Invalid forge spec!

Your forge.json failed schema validation.

## Common issues:
- Unknown field names (typos are rejected, not ignored)
- Wrong value types (e.g., a string where a list is expected)
- Missing required fields (module.name, module.path)

## Things you can try:
- Check the error message above for the exact field
- Compare against a fresh scaffold:
~~~
$ powerforge init --stdout
~~~
- Run with verbose mode for the full validation trace:
~~~
$ powerforge --verbose plan
~~~`,
	}

	dotnetNotFoundIssue = &Issue{
		id: DotnetNotFoundId,
		mdMsg: `
# .NET SDK not found!

A build, pack, or publish segment is enabled but the 'dotnet' CLI is not
on your PATH.

## Things you can try:
- Install the .NET SDK: https://dotnet.microsoft.com/download
- Verify the installation:
~~~
$ dotnet --info
~~~
- Disable the .NET segments in forge.json if this module has no compiled
  artefacts ("build": {"enabled": false})`,
	}

	pwshNotFoundIssue = &Issue{
		id: PwshNotFoundId,
		mdMsg: `
# PowerShell not found!

PowerForge needs a PowerShell executable for validation, documentation,
signing, and gallery publishing.

## Shells we look for (in order):
1. pwsh (PowerShell 7+)
2. powershell (Windows PowerShell 5.1)

## Things you can try:
- Install PowerShell 7: https://aka.ms/powershell
- Verify the installation:
~~~
$ pwsh -NoProfile -Command '$PSVersionTable.PSVersion'
~~~`,
	}

	analyzerNotInstalledIssue = &Issue{
		id: AnalyzerNotInstalledId,
		mdMsg: `
# PSScriptAnalyzer not installed!

The validate segment runs Invoke-ScriptAnalyzer, but the module is not
available in the target PowerShell.

## Things you can try:
- Install it for the current user:
~~~
$ pwsh -NoProfile -Command 'Install-Module PSScriptAnalyzer -Scope CurrentUser'
~~~
- Or disable analysis in forge.json ("validate": {"analyze": false})`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Module manifest is invalid!

Test-ModuleManifest rejected the module's .psd1 manifest.

## Common causes:
- RootModule points at a file that doesn't exist
- ModuleVersion is not a valid version string
- Exported function lists reference undefined functions

## Things you can try:
- Run the check directly for the full PowerShell error:
~~~
$ pwsh -NoProfile -Command 'Test-ModuleManifest ./MyModule.psd1'
~~~`,
	}

	signingIdentityNotFoundIssue = &Issue{
		id: SigningIdentityNotFoundId,
		mdMsg: `
# Signing identity not found!

The sign segment is enabled but no usable code-signing certificate was
found.

## Things you can try:
- Point the spec at a certificate file:
~~~json
"sign": {"certificatePath": "./certs/codesign.pfx"}
~~~
- Or reference a certificate store thumbprint:
~~~json
"sign": {"thumbprint": "ABCDEF..."}
~~~
- Or disable signing ("sign": {"enabled": false})`,
	}

	tokenNotFoundIssue = &Issue{
		id: TokenNotFoundId,
		mdMsg: `
# API token not found!

The publish segment references a token by name, but no token with that
name is stored.

## Things you can try:
- Store the token (it is kept outside the spec, in your user config dir):
~~~
$ powerforge token set psgallery
~~~
- List stored tokens:
~~~
$ powerforge token list
~~~`,
	}

	repositoryURLInvalidIssue = &Issue{
		id: RepositoryURLInvalidId,
		mdMsg: `
# Unsupported repository URL!

The publish repository URL could not be classified.

## Supported repository kinds:
- **PSGallery**: https://www.powershellgallery.com
- **NuGet v3**: any URL ending in /index.json
- **NuGet v2**: any URL containing /api/v2
- **File share**: an absolute local or UNC path

## Things you can try:
- Check the URL for typos
- For Azure Artifacts and GitHub Packages, use the v3 service index URL`,
	}

	stepDependencyCycleIssue = &Issue{
		id: StepDependencyCycleId,
		mdMsg: `
# Pipeline dependency cycle detected!

The planned steps depend on each other in a loop, so no execution order
exists.

## Common cause:
- Hook steps configured to run "after" a step that the hook's own segment
  must precede

## Things you can try:
- Review the hooks section of your forge.json
- Run 'powerforge plan --json' to inspect the declared step dependencies`,
	}

	publishRejectedIssue = &Issue{
		id: PublishRejectedId,
		mdMsg: `
# Publish rejected by the repository!

The repository refused the package push.

## Common causes:
- The version already exists (galleries are immutable)
- The API token is expired or lacks push permission
- The package id is reserved by another owner

## Things you can try:
- Bump the module version and re-run the pipeline
- Re-store the token: 'powerforge token set <name>'
- Run with verbose mode to see the full tool output`,
	}

	issues = map[Id]*Issue{
		specNotFoundIssue.Id():            specNotFoundIssue,
		specInvalidIssue.Id():             specInvalidIssue,
		dotnetNotFoundIssue.Id():          dotnetNotFoundIssue,
		pwshNotFoundIssue.Id():            pwshNotFoundIssue,
		analyzerNotInstalledIssue.Id():    analyzerNotInstalledIssue,
		manifestInvalidIssue.Id():         manifestInvalidIssue,
		signingIdentityNotFoundIssue.Id(): signingIdentityNotFoundIssue,
		tokenNotFoundIssue.Id():           tokenNotFoundIssue,
		repositoryURLInvalidIssue.Id():    repositoryURLInvalidIssue,
		stepDependencyCycleIssue.Id():     stepDependencyCycleIssue,
		publishRejectedIssue.Id():         publishRejectedIssue,
	}
)

// Values returns all registered issues.
func Values() []*Issue {
	vals := maps.Values(issues)
	slices.SortFunc(vals, func(a, b *Issue) int { return int(a.Id()) - int(b.Id()) })
	return vals
}

// Get returns the issue registered for id, or nil if none exists.
func Get(id Id) *Issue {
	return issues[id]
}
