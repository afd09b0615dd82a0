// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/powerforge/powerforge/internal/docs"
	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	segmentNoDeps bool
	docsPreview   bool
)

// addSegmentCommands registers one command per pipeline segment so a
// single stage can be run directly: `powerforge pack`, `powerforge sign`.
func addSegmentCommands(root *cobra.Command) {
	segments := []struct {
		id    pipeline.StepID
		short string
	}{
		{segBuild, "Build the spec's .NET projects"},
		{segValidate, "Validate the module (manifest, analyzer, Pester)"},
		{segDocs, "Generate module documentation"},
		{segPack, "Stage and archive the module payload"},
		{segSign, "Sign the staged payload"},
		{segPublish, "Publish the packaged module"},
		{segInstall, "Install the module into a PowerShell module path"},
	}

	for _, seg := range segments {
		cmd := &cobra.Command{
			Use:   string(seg.id) + " [forge.json]",
			Short: seg.short,
			Long: seg.short + `.

Dependencies of the segment run first unless --no-deps is set.`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				specPath := ""
				if len(args) > 0 {
					specPath = args[0]
				}
				err := runPipeline(cmd.Context(), specPath, func(plan *pipeline.Plan) (*pipeline.Plan, error) {
					only := []pipeline.StepID{seg.id}
					if !segmentNoDeps {
						only = segmentClosure(plan, seg.id)
					}
					return plan.Select(pipeline.Selection{Only: only})
				}, string(seg.id))
				if err == nil && seg.id == segDocs && docsPreview && !jsonOutput {
					return previewDocs(specPath)
				}
				return err
			},
		}
		cmd.Flags().BoolVar(&segmentNoDeps, "no-deps", false, "run only this segment, without its dependencies")
		cmd.Flags().BoolVar(&runResume, "resume", false, "skip steps completed in a previous run of the same spec")
		cmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "abort the run on the first failure")
		if seg.id == segDocs {
			cmd.Flags().BoolVar(&docsPreview, "preview", false, "render the generated markdown in the terminal")
		}
		root.AddCommand(cmd)
	}
}

// previewDocs renders the generated index page after a docs run.
func previewDocs(specPath string) error {
	spec, err := forge.Load(specPath)
	if err != nil {
		return err
	}
	output := spec.Docs.Output
	if output == "" {
		output = "docs"
	}
	indexPath := filepath.Join(spec.ResolvePath(output), docs.IndexFileName)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("failed to read generated docs: %w", err)
	}
	rendered, err := docs.Preview(string(data))
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

// segmentClosure returns seg plus every segment it transitively depends
// on, in plan order.
func segmentClosure(plan *pipeline.Plan, seg pipeline.StepID) []pipeline.StepID {
	include := map[pipeline.StepID]bool{seg: true}
	for changed := true; changed; {
		changed = false
		for _, s := range plan.Steps() {
			if !include[s.ID().Base()] {
				continue
			}
			for _, dep := range plan.Needs(s.ID()) {
				if base := dep.Base(); !include[base] {
					include[base] = true
					changed = true
				}
			}
		}
	}

	var out []pipeline.StepID
	seen := map[pipeline.StepID]bool{}
	for _, s := range plan.Steps() {
		base := s.ID().Base()
		if include[base] && !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out
}
