// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/hooks"
	"github.com/powerforge/powerforge/internal/pipeline"
)

// Segment identifiers. Hook steps derive from these ("pack:pre").
const (
	segBuild         pipeline.StepID = "build"
	segValidate      pipeline.StepID = "validate"
	segDocs          pipeline.StepID = "docs"
	segPack          pipeline.StepID = "pack"
	segSign          pipeline.StepID = "sign"
	segPublish       pipeline.StepID = "publish"
	segInstall       pipeline.StepID = "install"
	segDotnetPublish pipeline.StepID = "dotnet-publish"
)

// newPlanner builds the planner over the fixed segment table.
func newPlanner() *pipeline.Planner {
	return &pipeline.Planner{
		Segments: segmentDefs(),
		Hooks:    &hooks.Runner{Logger: logger},
	}
}

// segmentDefs declares every pipeline segment, its spec gate, and its
// dependencies. Disabled dependencies are bridged by the planner, so
// "publish needs sign" degrades to "publish needs pack" when signing is
// off.
func segmentDefs() []pipeline.SegmentDef {
	return []pipeline.SegmentDef{
		{
			ID:          segBuild,
			Description: "Build .NET projects",
			Enabled:     (*forge.Spec).BuildEnabled,
			Make:        makeStep(segBuild, "Build .NET projects", runBuild),
		},
		{
			ID:          segDotnetPublish,
			Description: "Publish .NET runtimes",
			Enabled:     (*forge.Spec).DotnetPublishEnabled,
			Needs:       []pipeline.StepID{segBuild},
			Make:        makeStep(segDotnetPublish, "Publish .NET runtimes", runDotnetPublish),
		},
		{
			ID:          segValidate,
			Description: "Validate module sources",
			Enabled:     (*forge.Spec).ValidateEnabled,
			Needs:       []pipeline.StepID{segBuild},
			Make:        makeStep(segValidate, "Validate module sources", runValidate),
		},
		{
			ID:          segDocs,
			Description: "Generate documentation",
			Enabled:     (*forge.Spec).DocsEnabled,
			Needs:       []pipeline.StepID{segValidate},
			Make:        makeStep(segDocs, "Generate documentation", runDocs),
		},
		{
			ID:          segPack,
			Description: "Package the module",
			Enabled:     (*forge.Spec).PackageEnabled,
			Needs:       []pipeline.StepID{segBuild, segValidate},
			Make:        makeStep(segPack, "Package the module", runPack),
		},
		{
			ID:          segSign,
			Description: "Sign the payload",
			Enabled:     (*forge.Spec).SignEnabled,
			Needs:       []pipeline.StepID{segPack},
			Make:        makeStep(segSign, "Sign the payload", runSign),
		},
		{
			ID:          segPublish,
			Description: "Publish to repositories",
			Enabled:     (*forge.Spec).PublishEnabled,
			Needs:       []pipeline.StepID{segSign},
			Make:        makeStep(segPublish, "Publish to repositories", runPublish),
		},
		{
			ID:          segInstall,
			Description: "Install the module locally",
			Enabled:     (*forge.Spec).InstallEnabled,
			Needs:       []pipeline.StepID{segPack},
			Make:        makeStep(segInstall, "Install the module locally", runInstall),
		},
	}
}

// makeStep adapts a run function into a SegmentDef factory.
func makeStep(id pipeline.StepID, description string, run func(ctx context.Context, sc *pipeline.StepContext) *pipeline.StepResult) func(*forge.Spec) (pipeline.Step, error) {
	return func(*forge.Spec) (pipeline.Step, error) {
		return pipeline.NewStep(id, description, run), nil
	}
}
