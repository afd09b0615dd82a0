// SPDX-License-Identifier: MPL-2.0

package forge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/powerforge/powerforge/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed forge_schema.cue
var forgeSchema string

// Load reads, schema-validates, and decodes a forge spec.
// When path is empty, forge.json in the current directory is used.
func Load(path string) (*Spec, error) {
	if path == "" {
		path = SpecFileName
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve spec path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, issue.NewErrorContext().
				WithOperation("load forge spec").
				WithResource(absPath).
				WithSuggestion("Run 'powerforge init' to scaffold a forge.json").
				WithSuggestion("Or pass the spec path explicitly: powerforge run ./path/forge.json").
				WithIssue(issue.SpecNotFoundId).
				Wrap(err).
				BuildError()
		}
		return nil, fmt.Errorf("failed to read forge spec: %w", err)
	}

	spec, err := Parse(data, absPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load forge spec").
			WithResource(absPath).
			WithSuggestion("Compare against a fresh scaffold: powerforge init --stdout").
			WithSuggestion("Run with --verbose for the full validation trace").
			WithIssue(issue.SpecInvalidId).
			Wrap(err).
			BuildError()
	}

	return spec, nil
}

// Parse validates raw spec JSON against the embedded schema and decodes it.
// The filename is used for error positions and recorded as Spec.Path.
func Parse(data []byte, filename string) (*Spec, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(forgeSchema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile forge schema: %w", schemaValue.Err())
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	docValue := ctx.BuildExpr(expr)
	if docValue.Err() != nil {
		return nil, fmt.Errorf("invalid JSON: %w", docValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Spec"))
	unified := schema.Unify(docValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, fmt.Errorf("spec does not match schema: %w", err)
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec: %w", err)
	}
	spec.Path = filename

	applyDefaults(&spec)

	if err := spec.validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// applyDefaults fills zero-valued optional fields with their documented
// defaults so downstream code never re-derives them.
func applyDefaults(s *Spec) {
	if s.Module.Manifest == "" {
		s.Module.Manifest = s.Module.Name + ".psd1"
	}
	if s.Build.Configuration == "" {
		s.Build.Configuration = "Release"
	}
	if s.Validate.Severity == "" {
		s.Validate.Severity = SeverityWarning
	}
	if s.Package.Output == "" {
		s.Package.Output = "out"
	}
	if s.Install.Scope == "" {
		s.Install.Scope = ScopeCurrentUser
	}
	if s.Dotnet.Publish.Output == "" {
		s.Dotnet.Publish.Output = filepath.Join("out", "publish")
	}
}

// Dir returns the directory containing the spec file. Relative paths in
// the spec resolve against it.
func (s *Spec) Dir() string {
	return filepath.Dir(s.Path)
}

// ResolvePath resolves a spec-relative path against the spec directory.
// Absolute paths are returned unchanged.
func (s *Spec) ResolvePath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.Dir(), rel)
}

// ModuleDir returns the absolute module source directory.
func (s *Spec) ModuleDir() string {
	return s.ResolvePath(s.Module.Path)
}

// ManifestPath returns the absolute path of the module manifest.
func (s *Spec) ManifestPath() string {
	return filepath.Join(s.ModuleDir(), s.ManifestFile())
}
