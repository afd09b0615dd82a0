// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/powerforge/powerforge/internal/forge"
)

// ErrInvalidPlan is the sentinel error wrapped by planning failures other
// than dependency cycles.
var ErrInvalidPlan = errors.New("invalid pipeline plan")

type (
	// SegmentDef declares one pipeline segment: when it is enabled, which
	// segments it needs, and how to build its step.
	SegmentDef struct {
		ID          StepID
		Description string
		// Enabled reports whether the spec turns this segment on.
		Enabled func(*forge.Spec) bool
		// Needs lists segments that must complete first. A disabled
		// dependency is bridged: the segment inherits the dependency's own
		// needs instead.
		Needs []StepID
		// Make builds the segment's step for the given spec.
		Make func(*forge.Spec) (Step, error)
	}

	// HookRunner executes a hook script. Implemented by internal/hooks.
	HookRunner interface {
		Run(ctx context.Context, hook forge.Hook, dir string) error
	}

	// SyntaxChecker is implemented by hook runners that can validate a
	// script without executing it. Portable hook scripts are checked at
	// plan time so a broken hook fails before any step runs.
	SyntaxChecker interface {
		CheckSyntax(script string) error
	}

	// Planner turns a spec into an ordered plan over a fixed segment table.
	Planner struct {
		Segments []SegmentDef
		// Hooks executes hook scripts. Required when the spec declares hooks.
		Hooks HookRunner
	}

	// Plan is an ordered list of steps plus their direct dependencies.
	Plan struct {
		steps []Step
		needs map[StepID][]StepID
	}

	// Selection narrows a plan for the run command's --from/--only/--skip
	// flags. Hook steps follow their segment.
	Selection struct {
		// From drops every segment ordered before the named one.
		From StepID
		// Only keeps just the named segments.
		Only []StepID
		// Skip drops the named segments.
		Skip []StepID
	}
)

// Plan builds the ordered step plan for spec. Disabled segments contribute
// no steps; segments that depend on them are re-linked to the disabled
// segment's own dependencies. Hooks declared in the spec become dedicated
// steps fencing their segment.
func (p *Planner) Plan(spec *forge.Spec) (*Plan, error) {
	defs := make(map[StepID]*SegmentDef, len(p.Segments))
	for i := range p.Segments {
		defs[p.Segments[i].ID] = &p.Segments[i]
	}

	enabled := make(map[StepID]bool, len(p.Segments))
	for _, def := range p.Segments {
		enabled[def.ID] = def.Enabled(spec)
	}

	g := newGraph()
	needs := make(map[StepID][]StepID)
	steps := make(map[StepID]Step)

	for _, def := range p.Segments {
		if !enabled[def.ID] {
			continue
		}

		step, err := def.Make(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to plan segment %q: %w", def.ID, err)
		}
		steps[def.ID] = step
		g.addNode(def.ID)

		deps, err := p.resolveNeeds(defs, enabled, def.ID, nil)
		if err != nil {
			return nil, err
		}

		segmentHooks, hasHooks := spec.Hooks[string(def.ID)]
		if hasHooks && (segmentHooks.Pre != nil || segmentHooks.Post != nil) && p.Hooks == nil {
			return nil, fmt.Errorf("%w: segment %q declares hooks but no hook runner is configured",
				ErrInvalidPlan, def.ID)
		}
		if hasHooks {
			if err := p.checkHookScripts(def.ID, segmentHooks); err != nil {
				return nil, err
			}
		}

		// entry is what upstream dependencies feed into; exit is what
		// downstream dependents wait for.
		entry := def.ID
		if hasHooks && segmentHooks.Pre != nil {
			pre := preHookID(def.ID)
			steps[pre] = p.hookStep(pre, def.ID, "pre", *segmentHooks.Pre, spec)
			g.addEdge(pre, def.ID)
			needs[def.ID] = []StepID{pre}
			entry = pre
		}
		if hasHooks && segmentHooks.Post != nil {
			post := postHookID(def.ID)
			steps[post] = p.hookStep(post, def.ID, "post", *segmentHooks.Post, spec)
			g.addEdge(def.ID, post)
			needs[post] = []StepID{def.ID}
		}

		for _, dep := range deps {
			// Dependents wait for the dependency's post hook when it has one.
			depExit := dep
			if depHooks, ok := spec.Hooks[string(dep)]; ok && depHooks.Post != nil {
				depExit = postHookID(dep)
			}
			g.addEdge(depExit, entry)
			needs[entry] = append(needs[entry], depExit)
		}
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}

	plan := &Plan{needs: needs}
	for _, id := range order {
		plan.steps = append(plan.steps, steps[id])
	}
	return plan, nil
}

// resolveNeeds returns the enabled segments that id effectively depends
// on, bridging over disabled dependencies.
func (p *Planner) resolveNeeds(defs map[StepID]*SegmentDef, enabled map[StepID]bool, id StepID, visiting []StepID) ([]StepID, error) {
	for _, v := range visiting {
		if v == id {
			return nil, &CycleError{Cycle: append(visiting, id)}
		}
	}
	def, ok := defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: segment %q depends on unknown segment", ErrInvalidPlan, id)
	}

	var out []StepID
	seen := make(map[StepID]bool)
	for _, dep := range def.Needs {
		if _, ok := defs[dep]; !ok {
			return nil, fmt.Errorf("%w: segment %q depends on unknown segment %q", ErrInvalidPlan, id, dep)
		}
		if enabled[dep] {
			if !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
			}
			continue
		}
		bridged, err := p.resolveNeeds(defs, enabled, dep, append(visiting, id))
		if err != nil {
			return nil, err
		}
		for _, b := range bridged {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out, nil
}

// checkHookScripts syntax-checks a segment's portable hook scripts when
// the hook runner supports it. Native hooks run in an external shell and
// cannot be checked here.
func (p *Planner) checkHookScripts(segment StepID, hooks forge.SegmentHooks) error {
	checker, ok := p.Hooks.(SyntaxChecker)
	if !ok {
		return nil
	}
	for _, h := range []struct {
		kind string
		hook *forge.Hook
	}{{"pre", hooks.Pre}, {"post", hooks.Post}} {
		if h.hook == nil || (h.hook.Shell != "" && h.hook.Shell != forge.HookShellPortable) {
			continue
		}
		if err := checker.CheckSyntax(h.hook.Script); err != nil {
			return fmt.Errorf("%w: %s-hook of segment %q: %v", ErrInvalidPlan, h.kind, segment, err)
		}
	}
	return nil
}

func (p *Planner) hookStep(id, segment StepID, kind string, hook forge.Hook, spec *forge.Spec) Step {
	description := fmt.Sprintf("Run %s-hook of %s", kind, segment)
	return NewStep(id, description, func(ctx context.Context, sc *StepContext) *StepResult {
		if err := p.Hooks.Run(ctx, hook, spec.Dir()); err != nil {
			return Fail(fmt.Errorf("%s-hook of %s failed: %w", kind, segment, err))
		}
		return Succeed()
	})
}

// Steps returns the plan's steps in execution order.
func (p *Plan) Steps() []Step { return p.steps }

// Len returns the number of planned steps.
func (p *Plan) Len() int { return len(p.steps) }

// Needs returns the direct dependencies of a step.
func (p *Plan) Needs(id StepID) []StepID { return p.needs[id] }

// Select narrows the plan per the selection. Steps dropped from the plan
// are also dropped from the remaining steps' dependency lists, so the
// sub-plan stands alone.
func (p *Plan) Select(sel Selection) (*Plan, error) {
	keep := make(map[StepID]bool, len(p.steps))
	for _, s := range p.steps {
		keep[s.ID()] = true
	}

	if sel.From != "" {
		if !p.hasSegment(sel.From) {
			return nil, fmt.Errorf("%w: --from segment %q is not in the plan", ErrInvalidPlan, sel.From)
		}
		before := true
		for _, s := range p.steps {
			if s.ID().Base() == sel.From {
				before = false
			}
			if before {
				keep[s.ID()] = false
			}
		}
	}

	if len(sel.Only) > 0 {
		only := make(map[StepID]bool, len(sel.Only))
		for _, id := range sel.Only {
			if !p.hasSegment(id) {
				return nil, fmt.Errorf("%w: --only segment %q is not in the plan", ErrInvalidPlan, id)
			}
			only[id] = true
		}
		for _, s := range p.steps {
			if !only[s.ID().Base()] {
				keep[s.ID()] = false
			}
		}
	}

	for _, id := range sel.Skip {
		if !p.hasSegment(id) {
			return nil, fmt.Errorf("%w: --skip segment %q is not in the plan", ErrInvalidPlan, id)
		}
		for _, s := range p.steps {
			if s.ID().Base() == id {
				keep[s.ID()] = false
			}
		}
	}

	sub := &Plan{needs: make(map[StepID][]StepID)}
	for _, s := range p.steps {
		if !keep[s.ID()] {
			continue
		}
		sub.steps = append(sub.steps, s)
		for _, dep := range p.needs[s.ID()] {
			if keep[dep] {
				sub.needs[s.ID()] = append(sub.needs[s.ID()], dep)
			}
		}
	}
	return sub, nil
}

func (p *Plan) hasSegment(id StepID) bool {
	for _, s := range p.steps {
		if s.ID().Base() == id {
			return true
		}
	}
	return false
}
