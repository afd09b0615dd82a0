// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"fmt"

	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/charmbracelet/log"
)

// LogReporter reports pipeline progress as plain log lines. It is the
// non-interactive fallback for CI and redirected output.
type LogReporter struct {
	Logger *log.Logger
}

// NewLogReporter wraps a logger as a pipeline.Reporter.
func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{Logger: logger}
}

// StepStarted implements pipeline.Reporter.
func (r *LogReporter) StepStarted(step pipeline.Step, index, total int) {
	r.Logger.Info(step.Description(), "step", step.ID(), "progress", progressTag(index, total))
}

// StepFinished implements pipeline.Reporter.
func (r *LogReporter) StepFinished(step pipeline.Step, rec report.StepRecord, index, total int) {
	switch rec.Status {
	case report.StatusSucceeded:
		r.Logger.Info("step succeeded", "step", step.ID(), "duration", rec.Duration)
	case report.StatusFailed:
		r.Logger.Error("step failed", "step", step.ID(), "err", rec.Error)
	case report.StatusSkipped:
		r.Logger.Warn("step skipped", "step", step.ID(), "reason", rec.Reason)
	}
}

// PipelineFinished implements pipeline.Reporter.
func (r *LogReporter) PipelineFinished(rep *report.RunReport) {
	if rep.Success {
		r.Logger.Info("pipeline succeeded", "steps", len(rep.Steps), "duration", rep.Duration())
		return
	}
	r.Logger.Error("pipeline failed", "failed", len(rep.Failed()), "duration", rep.Duration())
}

func progressTag(index, total int) string {
	return fmt.Sprintf("%d/%d", index+1, total)
}
