// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/powerforge/powerforge/internal/report"
)

type (
	// Reporter receives step-level progress callbacks during a run.
	Reporter interface {
		StepStarted(step Step, index, total int)
		StepFinished(step Step, rec report.StepRecord, index, total int)
		PipelineFinished(r *report.RunReport)
	}

	// Runner executes a plan sequentially.
	Runner struct {
		// Reporter receives progress callbacks. Optional.
		Reporter Reporter
		// FailFast aborts the whole run on the first failure instead of
		// continuing with independent steps.
		FailFast bool
		// Checkpoint persists completed steps after each success. Optional.
		Checkpoint *Checkpoint
		// Resume skips steps the checkpoint records as completed, provided
		// the checkpoint matches the spec digest.
		Resume bool
		// Command names the run in the report. Defaults to "run".
		Command string
	}

	// RunError is returned when at least one step failed. The full report
	// remains available alongside it.
	RunError struct {
		Report *report.RunReport
		// FirstErr is the first failing step's error, preserved so exit
		// codes can propagate.
		FirstErr error
	}

	nopReporter struct{}
)

func (e *RunError) Error() string {
	failed := e.Report.Failed()
	if len(failed) == 0 {
		return "pipeline failed"
	}
	return fmt.Sprintf("pipeline failed: %d step(s) failed, first %q: %s",
		len(failed), failed[0].ID, failed[0].Error)
}

func (e *RunError) Unwrap() error { return e.FirstErr }

func (nopReporter) StepStarted(Step, int, int)                  {}
func (nopReporter) StepFinished(Step, report.StepRecord, int, int) {}
func (nopReporter) PipelineFinished(*report.RunReport)          {}

// Run executes the plan against the step context and returns the
// aggregated report. Failures never abort the loop: a failed step marks
// its transitive dependents skipped while independent steps still run
// (unless FailFast is set). Context cancellation stops between steps and
// marks the rest skipped. The returned error is a *RunError when any step
// failed, the context error when the run was cancelled, and nil otherwise.
func (r *Runner) Run(ctx context.Context, plan *Plan, sc *StepContext) (*report.RunReport, error) {
	reporter := r.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	command := r.Command
	if command == "" {
		command = "run"
	}

	var digest string
	if sc != nil && sc.Spec != nil {
		digest = sc.Spec.Digest()
	}
	rep := report.New(command, digest)

	resuming := r.Resume && r.Checkpoint != nil && r.Checkpoint.Matches(digest)

	// blocked holds steps that failed or were skipped because of a
	// failure; their dependents skip too. Resume skips do not block.
	blocked := make(map[StepID]bool)
	var firstErr error
	aborted := false
	abortReason := ""

	total := plan.Len()
	for i, step := range plan.Steps() {
		id := step.ID()
		if !aborted && ctx.Err() != nil {
			aborted = true
			abortReason = "run cancelled"
		}

		rec := report.StepRecord{ID: string(id), Description: step.Description()}

		switch {
		case aborted:
			rec.Status = report.StatusSkipped
			rec.Reason = abortReason
		case resuming && r.Checkpoint.IsDone(id):
			rec.Status = report.StatusSkipped
			rec.Reason = "already completed in a previous run"
		case r.blockedBy(plan, blocked, id) != "":
			dep := r.blockedBy(plan, blocked, id)
			blocked[id] = true
			rec.Status = report.StatusSkipped
			rec.Reason = fmt.Sprintf("dependency %q did not succeed", dep)
		default:
			reporter.StepStarted(step, i, total)
			start := time.Now()
			res := runStep(ctx, step, sc)
			rec.Duration = time.Since(start)
			rec.Status = res.Status
			rec.Reason = res.Reason
			rec.Output = res.Output
			if res.Err != nil {
				rec.Error = res.Err.Error()
			}

			switch res.Status {
			case report.StatusFailed:
				blocked[id] = true
				if firstErr == nil {
					firstErr = res.Err
				}
				if r.FailFast {
					aborted = true
					abortReason = fmt.Sprintf("aborted after %q failed (fail-fast)", id)
				}
			case report.StatusSucceeded:
				if r.Checkpoint != nil {
					r.Checkpoint.MarkDone(id)
					if err := r.Checkpoint.Save(); err != nil && sc != nil && sc.Logger != nil {
						sc.Logger.Warn("failed to save checkpoint", "error", err)
					}
				}
			}
		}

		rep.Add(rec)
		reporter.StepFinished(step, rec, i, total)
	}

	rep.Finish()
	reporter.PipelineFinished(rep)

	if rep.Success && r.Checkpoint != nil {
		if err := r.Checkpoint.Clear(); err != nil && sc != nil && sc.Logger != nil {
			sc.Logger.Warn("failed to clear checkpoint", "error", err)
		}
	}

	if !rep.Success {
		return rep, &RunError{Report: rep, FirstErr: firstErr}
	}
	if ctx.Err() != nil {
		return rep, ctx.Err()
	}
	return rep, nil
}

// blockedBy returns the first direct dependency of id that is blocked, or
// empty when none is. Transitivity follows from processing steps in plan
// order: a skip marks the step blocked for its own dependents.
func (r *Runner) blockedBy(plan *Plan, blocked map[StepID]bool, id StepID) StepID {
	for _, dep := range plan.Needs(id) {
		if blocked[dep] {
			return dep
		}
	}
	return ""
}

// runStep isolates step execution so a panicking step becomes a failed
// result instead of tearing down the run.
func runStep(ctx context.Context, step Step, sc *StepContext) (res *StepResult) {
	defer func() {
		if p := recover(); p != nil {
			res = Failf("step %q panicked: %v", step.ID(), p)
		}
	}()
	res = step.Run(ctx, sc)
	if res == nil {
		res = Succeed()
	}
	return res
}
