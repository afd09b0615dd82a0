// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/issue"
	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/report"
	"github.com/powerforge/powerforge/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	runFrom     string
	runOnly     []string
	runSkip     []string
	runResume   bool
	runFailFast bool
	runDryRun   bool

	runCmd = &cobra.Command{
		Use:   "run [forge.json]",
		Short: "Run the full pipeline",
		Long: `Run the full pipeline described by a forge spec.

The spec's enabled segments are planned as an ordered sequence of steps
and executed. When a step fails, steps depending on it are skipped while
independent steps still run; --fail-fast aborts on the first failure
instead.

A failed run leaves a checkpoint next to the spec; --resume picks up
from it, skipping steps that already completed, as long as the spec has
not changed since.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specPath := ""
			if len(args) > 0 {
				specPath = args[0]
			}
			return runPipeline(cmd.Context(), specPath, func(plan *pipeline.Plan) (*pipeline.Plan, error) {
				return plan.Select(pipeline.Selection{
					From: pipeline.StepID(runFrom),
					Only: toStepIDs(runOnly),
					Skip: toStepIDs(runSkip),
				})
			}, "run")
		},
	}
)

func init() {
	runCmd.Flags().StringVar(&runFrom, "from", "", "start at the named segment, dropping everything before it")
	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "run only the named segments")
	runCmd.Flags().StringSliceVar(&runSkip, "skip", nil, "skip the named segments")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "skip steps completed in a previous run of the same spec")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "abort the run on the first failure")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the plan without executing it")
}

func toStepIDs(names []string) []pipeline.StepID {
	ids := make([]pipeline.StepID, len(names))
	for i, n := range names {
		ids[i] = pipeline.StepID(n)
	}
	return ids
}

// runPipeline loads the spec, plans, narrows the plan, and executes.
// It is shared by `run` and the per-segment commands.
func runPipeline(ctx context.Context, specPath string, narrow func(*pipeline.Plan) (*pipeline.Plan, error), command string) error {
	spec, err := forge.Load(specPath)
	if err != nil {
		return displayError(err)
	}
	cfg := loadConfig()

	plan, err := newPlanner().Plan(spec)
	if err != nil {
		return displayError(err)
	}
	plan, err = narrow(plan)
	if err != nil {
		return displayError(err)
	}
	if plan.Len() == 0 {
		return displayError(errors.New("nothing to run: every segment is disabled or deselected"))
	}

	if runDryRun {
		return renderPlan(plan, command)
	}

	checkpoint := loadOrNewCheckpoint(spec)
	runner := &pipeline.Runner{
		FailFast:   runFailFast,
		Checkpoint: checkpoint,
		Resume:     runResume,
		Command:    command,
	}
	sc := pipeline.NewStepContext(spec, cfg, logger)

	var rep *report.RunReport
	var runErr error

	if !jsonOutput && cfg.UI.Progress && isTerminal(os.Stdout) {
		program := tea.NewProgram(tui.NewModel())
		runner.Reporter = &tui.ProgramReporter{Program: program}

		done := make(chan struct{})
		go func() {
			defer close(done)
			rep, runErr = runner.Run(ctx, plan, sc)
		}()
		if _, err := program.Run(); err != nil {
			logger.Warn("progress display failed", "error", err)
		}
		<-done
	} else {
		if !jsonOutput {
			runner.Reporter = tui.NewLogReporter(logger)
		}
		rep, runErr = runner.Run(ctx, plan, sc)
	}

	if jsonOutput {
		env := report.NewEnvelope(command, rep, runErr)
		if err := env.WriteJSON(os.Stdout); err != nil {
			return err
		}
	} else if rep != nil {
		fmt.Println()
		report.Render(os.Stdout, rep)
		if runErr != nil && runResume {
			fmt.Println(SubtitleStyle.Render("Fix the failure and re-run with --resume to continue."))
		}
	}

	if runErr != nil {
		var rre *pipeline.RunError
		if errors.As(runErr, &rre) {
			if !jsonOutput {
				if page, ok := issuePage(rre.FirstErr); ok {
					fmt.Fprint(os.Stderr, page)
				}
			}
			return &ExitError{Code: exitCodeOf(rre.FirstErr), Err: runErr}
		}
		return runErr
	}
	return nil
}

// loadOrNewCheckpoint reuses an existing checkpoint of the same spec and
// starts a fresh one otherwise.
func loadOrNewCheckpoint(spec *forge.Spec) *pipeline.Checkpoint {
	digest := spec.Digest()
	checkpoint, err := pipeline.LoadCheckpoint(spec.Dir())
	if err != nil {
		logger.Warn("ignoring unreadable checkpoint", "error", err)
		checkpoint = nil
	}
	if checkpoint == nil || !checkpoint.Matches(digest) {
		checkpoint = pipeline.NewCheckpoint(spec.Dir(), digest)
	}
	return checkpoint
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// displayError renders actionable errors nicely in non-JSON mode and
// returns the error for cobra to propagate.
func displayError(err error) error {
	if err == nil {
		return nil
	}
	if jsonOutput {
		env := report.NewEnvelope(rootCmd.Name(), nil, err)
		_ = env.WriteJSON(os.Stdout)
		return &ExitError{Code: 1, Err: err}
	}
	if page, ok := issuePage(err); ok {
		// The registered help page covers the failure class; fang prints
		// the bare message.
		fmt.Fprint(os.Stderr, page)
		return &ExitError{Code: 1, Err: err}
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.HasSuggestions() {
		// Suggestions render here; fang prints the bare message.
		fmt.Fprintln(os.Stderr, ae.Format(verbose))
	}
	return &ExitError{Code: 1, Err: err}
}
