package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/types"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.New("")
	require.NoError(t, err)
	return New(reg)
}

func step(id, action string, deps ...string) types.PlannerStep {
	return types.PlannerStep{
		StepID: id,
		Intent: types.ActionIntent{ActionID: action, DependsOn: deps},
	}
}

func TestValidateEmptyDAGRejected(t *testing.T) {
	v := newTestValidator(t)
	ok, reason := v.Validate(types.PlannerDAG{})
	assert.False(t, ok)
	assert.Contains(t, reason, "no steps")
}

func TestValidateSingleStepAccepted(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{step("S1", "MEMORY_GET")}}
	ok, _ := v.Validate(dag)
	assert.True(t, ok)
}

func TestValidateUnknownToolRejected(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{step("S1", "NOT_A_REAL_TOOL")}}
	ok, reason := v.Validate(dag)
	assert.False(t, ok)
	assert.Contains(t, reason, "illegal action")
}

func TestValidateMissingDependencyRejected(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{step("S1", "RAG_SEARCH", "GHOST")}}
	ok, reason := v.Validate(dag)
	assert.False(t, ok)
	assert.Contains(t, reason, "missing step")
}

func TestValidateCycleRejected(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("A", "MEMORY_GET", "B"),
		step("B", "RAG_SEARCH", "A"),
	}}
	ok, reason := v.Validate(dag)
	assert.False(t, ok)
	assert.Contains(t, reason, "cycle")
}

func TestValidateDisconnectedCycleRejectedSafely(t *testing.T) {
	v := newTestValidator(t)
	// A is a real root, so the no-root check and the root-reachable
	// hasCycle DFS both pass it through; B<->C is a cycle disconnected
	// from any root. The validator must still reject it, not recurse
	// forever computing depth.
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("A", "MEMORY_GET"),
		step("B", "RAG_SEARCH", "C"),
		step("C", "RAG_SEARCH", "B"),
	}}
	ok, reason := v.Validate(dag)
	assert.False(t, ok)
	assert.Contains(t, reason, "cycle")
}

func TestValidateNoRootRejected(t *testing.T) {
	v := newTestValidator(t)
	// Every step depends on something, but the dependency graph loops so
	// there is no root even though it's also cyclic; check no-root path
	// directly by constructing a chain where root detection runs first.
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("A", "MEMORY_GET", "B"),
		step("B", "RAG_SEARCH", "A"),
	}}
	ok, _ := v.Validate(dag)
	assert.False(t, ok)
}

func TestValidateTooManyNodesRejected(t *testing.T) {
	v := newTestValidator(t)
	steps := make([]types.PlannerStep, 0, 7)
	for i := 0; i < 7; i++ {
		steps = append(steps, step(string(rune('A'+i)), "MEMORY_GET"))
	}
	ok, reason := v.Validate(types.PlannerDAG{Steps: steps})
	assert.False(t, ok)
	assert.Contains(t, reason, "exceeds limit")
}

func TestValidateDepthFourAccepted(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("S1", "MEMORY_GET"),
		step("S2", "RAG_SEARCH", "S1"),
		step("S3", "RAG_SEARCH", "S2"),
		step("S4", "RAG_SEARCH", "S3"),
	}}
	ok, _ := v.Validate(dag)
	assert.True(t, ok)
}

func TestValidateDepthFiveRejected(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("S1", "MEMORY_GET"),
		step("S2", "RAG_SEARCH", "S1"),
		step("S3", "RAG_SEARCH", "S2"),
		step("S4", "RAG_SEARCH", "S3"),
		step("S5", "RAG_SEARCH", "S4"),
	}}
	ok, reason := v.Validate(dag)
	assert.False(t, ok)
	assert.Contains(t, reason, "depth")
}

func TestValidateDiamondAccepted(t *testing.T) {
	v := newTestValidator(t)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		step("S1", "MEMORY_GET"),
		step("S2", "RAG_SEARCH", "S1"),
		step("S3", "FS_LIST", "S1"),
		step("S4", "FS_READ", "S2", "S3"),
	}}
	ok, _ := v.Validate(dag)
	assert.True(t, ok)
}
