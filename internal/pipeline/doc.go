// SPDX-License-Identifier: MPL-2.0

// Package pipeline turns a forge spec into an ordered, resumable,
// progress-reportable sequence of steps and executes it.
//
// Segments declare dependencies on other segments; the planner resolves
// them over a dependency graph (disabled segments are transparently
// bridged) and orders the resulting steps with a deterministic topological
// sort. The runner executes steps sequentially, propagates failures to
// dependent steps as skips, and aggregates everything into a run report.
package pipeline
