// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates the step graph contains a dependency cycle,
	// preventing a topological ordering.
	CycleError struct {
		// Cycle contains the steps left unordered by the sort; they
		// identify the cycle even when not all of them are on it.
		Cycle []StepID
	}

	// graph is a directed graph over step IDs. An edge from A to B means
	// A must complete before B starts.
	graph struct {
		adjacency map[StepID][]StepID
		// nodes keeps insertion order so the sort is deterministic.
		nodes   []StepID
		nodeSet map[StepID]bool
	}
)

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = string(id)
	}
	return fmt.Sprintf("step dependency cycle detected: %s", strings.Join(parts, " -> "))
}

func newGraph() *graph {
	return &graph{
		adjacency: make(map[StepID][]StepID),
		nodeSet:   make(map[StepID]bool),
	}
}

func (g *graph) addNode(id StepID) {
	if g.nodeSet[id] {
		return
	}
	g.nodeSet[id] = true
	g.nodes = append(g.nodes, id)
}

// addEdge records that from must complete before to. Both nodes are added
// implicitly.
func (g *graph) addEdge(from, to StepID) {
	g.addNode(from)
	g.addNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// topologicalSort orders the graph with Kahn's algorithm. Nodes at the
// same depth keep their insertion order. Returns CycleError when no
// complete ordering exists.
func (g *graph) topologicalSort() ([]StepID, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[StepID]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]StepID, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]StepID, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []StepID
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycle = append(cycle, node)
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}

	return result, nil
}
