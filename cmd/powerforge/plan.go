// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/powerforge/powerforge/internal/forge"
	"github.com/powerforge/powerforge/internal/pipeline"
	"github.com/powerforge/powerforge/internal/report"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [forge.json]",
	Short: "Show the ordered pipeline plan without running it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specPath := ""
		if len(args) > 0 {
			specPath = args[0]
		}
		spec, err := forge.Load(specPath)
		if err != nil {
			return displayError(err)
		}
		plan, err := newPlanner().Plan(spec)
		if err != nil {
			return displayError(err)
		}
		return renderPlan(plan, "plan")
	},
}

// plannedStep is the plan command's JSON shape for one step.
type plannedStep struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Needs       []string `json:"needs,omitempty"`
}

func renderPlan(plan *pipeline.Plan, command string) error {
	steps := make([]plannedStep, 0, plan.Len())
	for _, s := range plan.Steps() {
		ps := plannedStep{ID: string(s.ID()), Description: s.Description()}
		for _, dep := range plan.Needs(s.ID()) {
			ps.Needs = append(ps.Needs, string(dep))
		}
		steps = append(steps, ps)
	}

	if jsonOutput {
		return report.NewEnvelope(command, steps).WriteJSON(os.Stdout)
	}

	fmt.Println(TitleStyle.Render("Pipeline plan"))
	fmt.Println()
	for i, ps := range steps {
		line := fmt.Sprintf("%2d. %s", i+1, CmdStyle.Render(ps.ID))
		if len(ps.Needs) > 0 {
			line += SubtitleStyle.Render(" (needs " + strings.Join(ps.Needs, ", ") + ")")
		}
		fmt.Println(line)
		fmt.Println("    " + SubtitleStyle.Render(ps.Description))
	}
	return nil
}
