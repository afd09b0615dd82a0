// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/powerforge/powerforge/internal/config"
	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/charmbracelet/log"
)

type (
	// StepID is the stable identity of a pipeline step. Segment steps use
	// the segment name ("build", "pack"); hook steps derive from it
	// ("build:pre", "build:post").
	StepID string

	// Step is a single unit of pipeline work.
	Step interface {
		ID() StepID
		Description() string
		Run(ctx context.Context, sc *StepContext) *StepResult
	}

	// StepContext carries the shared state every step sees. Steps run
	// sequentially, so no locking is needed around Artifacts.
	StepContext struct {
		Spec      *forge.Spec
		Config    *config.Config
		Logger    *log.Logger
		Artifacts *Artifacts
	}

	// Artifacts records what earlier steps produced for later ones:
	// pack populates the staging paths, sign reads them, publish pushes
	// them, install copies them.
	Artifacts struct {
		// Version is the module version resolved from the manifest or the
		// spec override.
		Version string
		// StageDir is the staged module payload (<out>/<name>/<version>).
		StageDir string
		// ZipPath is the packaged ZIP archive, when one was produced.
		ZipPath string
		// NupkgPath is the packaged NuGet package, when one was produced.
		NupkgPath string
		// PublishDirs maps runtime identifiers to their publish output.
		PublishDirs map[string]string
	}

	// StepResult is a step's outcome. Duration is measured by the runner.
	StepResult struct {
		Status report.Status
		// Reason explains a skip.
		Reason string
		// Output is captured tool output worth surfacing in the report.
		Output string
		Err    error
	}

	funcStep struct {
		id          StepID
		description string
		run         func(context.Context, *StepContext) *StepResult
	}
)

// NewStepContext builds a step context for one run of the given spec.
func NewStepContext(spec *forge.Spec, cfg *config.Config, logger *log.Logger) *StepContext {
	return &StepContext{
		Spec:      spec,
		Config:    cfg,
		Logger:    logger,
		Artifacts: &Artifacts{PublishDirs: make(map[string]string)},
	}
}

// Succeed returns a successful result.
func Succeed() *StepResult {
	return &StepResult{Status: report.StatusSucceeded}
}

// SucceedOutput returns a successful result carrying tool output.
func SucceedOutput(output string) *StepResult {
	return &StepResult{Status: report.StatusSucceeded, Output: output}
}

// Fail returns a failed result wrapping err.
func Fail(err error) *StepResult {
	return &StepResult{Status: report.StatusFailed, Err: err}
}

// FailOutput returns a failed result that also carries tool output.
func FailOutput(err error, output string) *StepResult {
	return &StepResult{Status: report.StatusFailed, Err: err, Output: output}
}

// Failf returns a failed result with a formatted error.
func Failf(format string, args ...any) *StepResult {
	return Fail(fmt.Errorf(format, args...))
}

// NewStep wraps a function as a Step.
func NewStep(id StepID, description string, run func(context.Context, *StepContext) *StepResult) Step {
	return &funcStep{id: id, description: description, run: run}
}

func (s *funcStep) ID() StepID          { return s.id }
func (s *funcStep) Description() string { return s.description }

func (s *funcStep) Run(ctx context.Context, sc *StepContext) *StepResult {
	return s.run(ctx, sc)
}

// Base returns the segment a step belongs to: hook steps map to their
// segment, segment steps map to themselves.
func (id StepID) Base() StepID {
	if base, _, ok := strings.Cut(string(id), ":"); ok {
		return StepID(base)
	}
	return id
}

// preHookID and postHookID name the hook steps of a segment.
func preHookID(segment StepID) StepID  { return segment + ":pre" }
func postHookID(segment StepID) StepID { return segment + ":post" }
