// SPDX-License-Identifier: MPL-2.0

package dotnet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// maxPublishWorkers caps concurrent publishes regardless of RID count;
// each publish is itself a heavily parallel compiler run.
const maxPublishWorkers = 4

type (
	// PublishSpec describes one multi-RID publish of a project.
	PublishSpec struct {
		// Project is the .csproj to publish.
		Project string
		// Configuration is the build configuration.
		Configuration string
		// Rids lists the target runtime identifiers.
		Rids []string
		// OutputRoot receives one subdirectory per RID.
		OutputRoot string
		// SelfContained bundles the runtime with each publish.
		SelfContained bool
		// MaxParallel bounds concurrency. Zero means one worker per RID,
		// capped internally.
		MaxParallel int
		// ContinueOnError keeps publishing remaining RIDs after a failure
		// instead of cancelling them.
		ContinueOnError bool
	}

	// RIDResult is the outcome of one RID's publish.
	RIDResult struct {
		RID       string
		OutputDir string
		Result    *execx.Result
	}

	// PublishFailedError reports one RID's publish failure.
	PublishFailedError struct {
		RID      string
		ExitCode execx.ExitCode
		Detail   string
	}

	// PublishRunner publishes a project for multiple RIDs concurrently.
	PublishRunner struct {
		CLI    *CLI
		Logger *log.Logger
	}
)

func (e *PublishFailedError) Error() string {
	msg := fmt.Sprintf("publish for %s failed with exit code %d", e.RID, e.ExitCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Run publishes the project once per RID, bounded by the spec's
// parallelism. Results come back in RID order regardless of completion
// order. Without ContinueOnError, the first failure cancels the RIDs
// still pending; their results report the cancellation. The returned
// error joins every RID failure.
func (r *PublishRunner) Run(ctx context.Context, spec PublishSpec, dir string) ([]RIDResult, error) {
	if len(spec.Rids) == 0 {
		return nil, errors.New("no runtime identifiers to publish")
	}

	workers := spec.MaxParallel
	if workers <= 0 || workers > len(spec.Rids) {
		workers = len(spec.Rids)
	}
	if workers > maxPublishWorkers {
		workers = maxPublishWorkers
	}

	results := make([]RIDResult, len(spec.Rids))

	g, runCtx := errgroup.WithContext(ctx)
	if spec.ContinueOnError {
		// Keep sibling publishes alive after a failure.
		g = new(errgroup.Group)
		runCtx = ctx
	}
	g.SetLimit(workers)

	for i, rid := range spec.Rids {
		i, rid := i, rid
		g.Go(func() error {
			if r.Logger != nil {
				r.Logger.Debug("publishing", "rid", rid, "project", spec.Project)
			}
			inv := r.CLI.Publish(spec.Project, spec.Configuration, rid, spec.OutputRoot, spec.SelfContained, dir)
			res := inv.Capture(runCtx)
			results[i] = RIDResult{
				RID:       rid,
				OutputDir: filepath.Join(spec.OutputRoot, rid),
				Result:    res,
			}
			if res.Success() {
				return nil
			}
			return &PublishFailedError{
				RID:      rid,
				ExitCode: res.ExitCode,
				Detail:   firstLine(res.ErrOutput),
			}
		})
	}

	// Wait's error is the first failure; the aggregate below reports all
	// of them, cancelled siblings included.
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Result == nil || res.Result.Success() {
			continue
		}
		if res.Result.Error != nil {
			errs = append(errs, fmt.Errorf("publish for %s: %w", res.RID, res.Result.Error))
			continue
		}
		errs = append(errs, &PublishFailedError{
			RID:      res.RID,
			ExitCode: res.Result.ExitCode,
			Detail:   firstLine(res.Result.ErrOutput),
		})
	}
	return results, errors.Join(errs...)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
