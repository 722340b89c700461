// Package validator checks a planner-produced DAG against the Brain's
// structural invariants before it is allowed anywhere near the arbiter or
// executor: bounded size, bounded depth, tool whitelisting, resolvable
// dependencies, acyclicity and at least one root.
package validator

import (
	"fmt"

	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/types"
)

const (
	maxNodes = 6
	maxDepth = 4
)

// Validator enforces the plan invariants against the static tool registry.
type Validator struct {
	registry *registry.Registry
	maxNodes int
	maxDepth int
}

// New builds a Validator bound to reg, using the spec's default bounds.
func New(reg *registry.Registry) *Validator {
	return &Validator{registry: reg, maxNodes: maxNodes, maxDepth: maxDepth}
}

// WithBounds overrides the default node/depth ceilings, e.g. with the
// configured limits.
func (v *Validator) WithBounds(nodes, depth int) *Validator {
	v.maxNodes = nodes
	v.maxDepth = depth
	return v
}

// Validate reports whether dag may proceed, and if not, why. It is
// deterministic and side-effect free.
func (v *Validator) Validate(dag types.PlannerDAG) (bool, string) {
	if dag.Empty() {
		return false, "plan has no steps"
	}
	if len(dag.Steps) > v.maxNodes {
		return false, fmt.Sprintf("plan has %d steps, exceeds limit of %d", len(dag.Steps), v.maxNodes)
	}

	byID := make(map[string]types.PlannerStep, len(dag.Steps))
	for _, step := range dag.Steps {
		byID[step.StepID] = step
	}

	for _, step := range dag.Steps {
		if !v.registry.Known(step.Intent.ActionID) {
			return false, fmt.Sprintf("illegal action %q in step %s", step.Intent.ActionID, step.StepID)
		}
		for _, dep := range step.Intent.DependsOn {
			if _, ok := byID[dep]; !ok {
				return false, fmt.Sprintf("step %s depends on missing step %s", step.StepID, dep)
			}
		}
	}

	roots := rootSteps(dag)
	if len(roots) == 0 {
		// Every dep was already confirmed to resolve to an existing step
		// above, so a finite graph where every step has at least one
		// dependency cannot terminate anywhere — it must loop.
		return false, "plan contains a cycle: no root step exists (every step has a dependency)"
	}

	dependents := buildDependents(dag)
	for _, root := range roots {
		if hasCycle(root.StepID, dependents, map[string]bool{}, map[string]bool{}) {
			return false, fmt.Sprintf("plan contains a cycle reachable from %s", root.StepID)
		}
	}

	depth, cyclic := longestPath(dag, byID)
	if cyclic {
		return false, "plan contains a cycle"
	}
	if depth > v.maxDepth {
		return false, fmt.Sprintf("plan depth %d exceeds limit of %d", depth, v.maxDepth)
	}

	return true, ""
}

func rootSteps(dag types.PlannerDAG) []types.PlannerStep {
	var roots []types.PlannerStep
	for _, step := range dag.Steps {
		if len(step.Intent.DependsOn) == 0 {
			roots = append(roots, step)
		}
	}
	return roots
}

// buildDependents inverts depends_on into a dep -> dependents adjacency, so
// cycle detection can walk forward from a root the way the original
// validator.py._calculate_max_depth walks from root to leaf.
func buildDependents(dag types.PlannerDAG) map[string][]string {
	dependents := make(map[string][]string, len(dag.Steps))
	for _, step := range dag.Steps {
		for _, dep := range step.Intent.DependsOn {
			dependents[dep] = append(dependents[dep], step.StepID)
		}
	}
	return dependents
}

// hasCycle walks forward from stepID along dep->dependent edges with a
// per-path visited set; revisiting a node already on the current path means
// a cycle is reachable from the root this DFS started at.
func hasCycle(stepID string, dependents map[string][]string, visited, onPath map[string]bool) bool {
	if onPath[stepID] {
		return true
	}
	if visited[stepID] {
		return false
	}
	visited[stepID] = true
	onPath[stepID] = true

	for _, next := range dependents[stepID] {
		if hasCycle(next, dependents, visited, onPath) {
			return true
		}
	}

	onPath[stepID] = false
	return false
}

// longestPath returns the longest root-to-leaf chain length, where a leaf
// is a step nothing depends on and a root is a step with no dependencies.
// It also reports whether it encountered a cycle while computing depth —
// root-reachable cycles are already caught by hasCycle above, but a cycle
// disconnected from every root (e.g. B depends on C, C depends on B, with
// neither reachable from any actual root) would otherwise recurse forever.
func longestPath(dag types.PlannerDAG, byID map[string]types.PlannerStep) (int, bool) {
	memo := map[string]int{}
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	cyclic := false

	var depthOf func(stepID string) int
	depthOf = func(stepID string) int {
		if cyclic {
			return 0
		}
		if d, ok := memo[stepID]; ok {
			return d
		}
		if state[stepID] == visiting {
			cyclic = true
			return 0
		}
		state[stepID] = visiting

		step, ok := byID[stepID]
		if !ok || len(step.Intent.DependsOn) == 0 {
			state[stepID] = done
			memo[stepID] = 1
			return 1
		}
		max := 0
		for _, dep := range step.Intent.DependsOn {
			if d := depthOf(dep); d > max {
				max = d
			}
			if cyclic {
				return 0
			}
		}
		state[stepID] = done
		memo[stepID] = max + 1
		return memo[stepID]
	}

	best := 0
	for _, step := range dag.Steps {
		if d := depthOf(step.StepID); d > best {
			best = d
		}
		if cyclic {
			return 0, true
		}
	}
	return best, false
}
