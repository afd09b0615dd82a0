// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/hooks"
	"github.com/powerforge/powerforge/internal/issue"
	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/pwsh"
	"github.com/powerforge/powerforge/internal/registry"
	"github.com/powerforge/powerforge/internal/sign"

	"github.com/spf13/cobra"
)

func parseSpec(t *testing.T, body string) *forge.Spec {
	t.Helper()
	spec, err := forge.Parse([]byte(body), "forge.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return spec
}

func TestScaffoldSpec_Parses(t *testing.T) {
	t.Parallel()
	spec := parseSpec(t, scaffoldSpec("PSToolkit"))
	if spec.Module.Name != "PSToolkit" {
		t.Errorf("module name = %q", spec.Module.Name)
	}
	if !spec.ValidateEnabled() || !spec.PackageEnabled() {
		t.Error("scaffold must enable validation and packaging")
	}
	if spec.PublishEnabled() || spec.SignEnabled() {
		t.Error("scaffold must not enable publish or sign")
	}
}

func TestSegmentDefs_PlanOrder(t *testing.T) {
	t.Parallel()
	spec := parseSpec(t, `{
		"module": {"name": "M", "path": "src"},
		"sign": {"certificatePath": "cert.pfx"},
		"publish": {"repositories": [{"name": "gallery", "url": "https://www.powershellgallery.com/api/v2"}]}
	}`)

	plan, err := newPlanner().Plan(spec)
	if err != nil {
		t.Fatal(err)
	}

	pos := map[pipeline.StepID]int{}
	for i, s := range plan.Steps() {
		pos[s.ID()] = i
	}
	for _, dep := range [][2]pipeline.StepID{
		{segValidate, segPack},
		{segPack, segSign},
		{segSign, segPublish},
	} {
		before, after := dep[0], dep[1]
		if pos[before] >= pos[after] {
			t.Errorf("%s must run before %s (plan: %v)", before, after, pos)
		}
	}
}

func TestSegmentDefs_BridgesDisabledSign(t *testing.T) {
	t.Parallel()
	spec := parseSpec(t, `{
		"module": {"name": "M", "path": "src"},
		"publish": {"repositories": [{"name": "share", "url": "file:///srv/modules"}]}
	}`)

	plan, err := newPlanner().Plan(spec)
	if err != nil {
		t.Fatal(err)
	}

	for _, dep := range plan.Needs(segPublish) {
		if dep == segSign {
			t.Error("publish must not depend on the disabled sign segment")
		}
	}
	found := false
	for _, dep := range plan.Needs(segPublish) {
		if dep == segPack {
			found = true
		}
	}
	if !found {
		t.Errorf("publish needs = %v, want pack", plan.Needs(segPublish))
	}
}

func TestSegmentClosure(t *testing.T) {
	t.Parallel()
	spec := parseSpec(t, `{"module": {"name": "M", "path": "src"}}`)

	plan, err := newPlanner().Plan(spec)
	if err != nil {
		t.Fatal(err)
	}

	closure := segmentClosure(plan, segPack)
	want := []pipeline.StepID{segValidate, segPack}
	if len(closure) != len(want) {
		t.Fatalf("closure = %v, want %v", closure, want)
	}
	for i := range want {
		if closure[i] != want[i] {
			t.Fatalf("closure = %v, want %v", closure, want)
		}
	}
}

func TestExitCodeOf(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"script error", &pwsh.ScriptError{ExitCode: 3}, 3},
		{"tool error", &ToolExitError{Tool: "dotnet build", ExitCode: 1}, 1},
		{"hook error", &hooks.HookFailedError{ExitCode: 2}, 2},
		{"wrapped", errors.Join(errors.New("x"), &pwsh.ScriptError{ExitCode: 7}), 7},
		{"generic", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeOf(tt.err); int(got) != tt.want {
				t.Errorf("exitCodeOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIssueIDFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{
			name: "tagged actionable error",
			err: issue.NewErrorContext().
				WithOperation("load forge spec").
				WithIssue(issue.SpecNotFoundId).
				Wrap(errors.New("no such file")).
				BuildError(),
			want: issue.SpecNotFoundId,
		},
		{
			name: "dependency cycle",
			err:  &pipeline.CycleError{Cycle: []pipeline.StepID{segPack, segSign}},
			want: issue.StepDependencyCycleId,
		},
		{
			name: "dotnet missing",
			err:  fmt.Errorf("plan: %w", &execx.ToolNotFoundError{Name: "dotnet", Candidates: []string{"dotnet"}}),
			want: issue.DotnetNotFoundId,
		},
		{
			name: "pwsh missing",
			err:  &execx.ToolNotFoundError{Name: "pwsh", Candidates: []string{"pwsh", "powershell"}},
			want: issue.PwshNotFoundId,
		},
		{
			name: "analyzer not installed",
			err:  &pwsh.ScriptError{ExitCode: 1, Stderr: "The term 'Invoke-ScriptAnalyzer' is not recognized"},
			want: issue.AnalyzerNotInstalledId,
		},
		{
			name: "no signing identity",
			err:  fmt.Errorf("sign: %w", sign.ErrNoIdentity),
			want: issue.SigningIdentityNotFoundId,
		},
		{
			name: "token not found",
			err:  fmt.Errorf("repository psgallery: %w", registry.ErrTokenNotFound),
			want: issue.TokenNotFoundId,
		},
		{
			name: "unsupported repository url",
			err:  registry.ErrUnsupportedRepository,
			want: issue.RepositoryURLInvalidId,
		},
		{
			name: "push rejected",
			err:  &registry.PushRejectedError{Repository: "psgallery", ExitCode: 1},
			want: issue.PublishRejectedId,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := issueIDFor(tt.err)
			if !ok || got != tt.want {
				t.Errorf("issueIDFor() = (%v, %v), want (%v, true)", got, ok, tt.want)
			}
		})
	}

	t.Run("unmapped error", func(t *testing.T) {
		t.Parallel()
		if id, ok := issueIDFor(errors.New("boom")); ok {
			t.Errorf("expected no page for a generic error, got %v", id)
		}
	})
}

// Mutates command globals; must not run in parallel.
func TestRunInit_JSONEnvelope(t *testing.T) {
	prevName, prevStdout, prevJSON := initName, initStdout, jsonOutput
	t.Cleanup(func() {
		initName, initStdout, jsonOutput = prevName, prevStdout, prevJSON
	})
	initName = "PSToolkit"
	initStdout = true
	jsonOutput = true

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	if err := runInit(c, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	var env struct {
		Schema  string `json:"schema"`
		Command string `json:"command"`
		Success bool   `json:"success"`
		Data    struct {
			Module struct {
				Name string `json:"name"`
			} `json:"module"`
		} `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\n%s", err, buf.String())
	}
	if env.Schema != "powerforge/v1" {
		t.Errorf("schema = %q", env.Schema)
	}
	if env.Command != "init" || !env.Success {
		t.Errorf("command = %q, success = %v", env.Command, env.Success)
	}
	if env.Data.Module.Name != "PSToolkit" {
		t.Errorf("data.module.name = %q", env.Data.Module.Name)
	}
}

func TestToStepIDs(t *testing.T) {
	t.Parallel()
	ids := toStepIDs([]string{"pack", "sign"})
	if len(ids) != 2 || ids[0] != segPack || ids[1] != segSign {
		t.Errorf("toStepIDs = %v", ids)
	}
}
