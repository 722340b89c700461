package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuro-ai/brain/collaborators"
	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/types"
)

type fakeMemory struct {
	resp collaborators.ContextResponse
	err  error
}

func (f *fakeMemory) GetContext(context.Context, string) (collaborators.ContextResponse, error) {
	return f.resp, f.err
}

type fakeRAG struct {
	resp collaborators.SearchResponse
	err  error
}

func (f *fakeRAG) SearchKnowledge(context.Context, string, int) (collaborators.SearchResponse, error) {
	return f.resp, f.err
}

type fakeClient struct {
	resp        collaborators.ActionResponse
	err         error
	failUntil   int
	callCount   int
}

func (f *fakeClient) ExecuteAction(context.Context, string, map[string]string) (collaborators.ActionResponse, error) {
	f.callCount++
	if f.callCount <= f.failUntil {
		return collaborators.ActionResponse{}, errors.New("transient failure")
	}
	return f.resp, f.err
}

type fakeOps struct {
	resp collaborators.ActionResponse
	err  error
}

func (f *fakeOps) ExecuteSystemAction(context.Context, string, map[string]string) (collaborators.ActionResponse, error) {
	return f.resp, f.err
}

func newTestExecutor(t *testing.T, memory MemoryClient, rag RAGClient, client ClientExecutor, ops OpsClient) *Executor {
	t.Helper()
	reg, err := registry.New("")
	require.NoError(t, err)
	return New(reg, memory, rag, client, ops, nil, nil)
}

func allow(stepID, toolID string) types.ArbiterDecision {
	return types.ArbiterDecision{StepID: stepID, ToolID: toolID, Verdict: types.Allow}
}

func TestExecuteSingleStepAllowExecuted(t *testing.T) {
	e := newTestExecutor(t, &fakeMemory{resp: collaborators.ContextResponse{Summaries: []string{"likes go"}}}, nil, nil, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "MEMORY_GET"}},
	}}
	results := e.Execute(context.Background(), dag, []types.ArbiterDecision{allow("S1", "MEMORY_GET")})
	require.Len(t, results, 1)
	assert.Equal(t, types.Executed, results[0].Status)
}

func TestExecuteChainWithDenyPrunesBranch(t *testing.T) {
	e := newTestExecutor(t, &fakeMemory{}, nil, &fakeClient{resp: collaborators.ActionResponse{Success: true}}, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "DELETE_ALL_DISKS"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "FS_LIST", DependsOn: []string{"S1"}}},
	}}
	decisions := []types.ArbiterDecision{
		{StepID: "S1", Verdict: types.Deny, Reason: "Critical system safety violation."},
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 1)
	assert.Equal(t, types.Denied, results[0].Status)
}

func TestExecuteConfirmHaltsPipeline(t *testing.T) {
	e := newTestExecutor(t, nil, nil, &fakeClient{resp: collaborators.ActionResponse{Success: true}}, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "FS_DELETE"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "FS_LIST", DependsOn: []string{"S1"}}},
	}}
	decisions := []types.ArbiterDecision{
		{StepID: "S1", Verdict: types.Confirm, Reason: "Potentially destructive action requires manual confirmation."},
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 1)
	assert.Equal(t, types.AwaitingConfirmation, results[0].Status)
}

func TestExecuteConditionalFalseSkipsAndAdvances(t *testing.T) {
	client := &fakeClient{resp: collaborators.ActionResponse{Success: true}}
	e := newTestExecutor(t, nil, nil, client, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "FS_LIST"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "FS_READ", DependsOn: []string{"S1"}, Condition: "S1_NEVER_RAN"}},
	}}
	decisions := []types.ArbiterDecision{
		allow("S1", "FS_LIST"),
		allow("S2", "FS_READ"),
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 2)
	assert.Equal(t, types.Executed, results[0].Status)
	assert.Equal(t, types.Skipped, results[1].Status)
}

func TestExecuteConditionalTrueRuns(t *testing.T) {
	client := &fakeClient{resp: collaborators.ActionResponse{Success: true}}
	e := newTestExecutor(t, nil, nil, client, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "FS_LIST"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "FS_READ", DependsOn: []string{"S1"}, Condition: "S1"}},
	}}
	decisions := []types.ArbiterDecision{
		allow("S1", "FS_LIST"),
		allow("S2", "FS_READ"),
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 2)
	assert.Equal(t, types.Executed, results[1].Status)
}

func TestExecuteRetryThenSucceed(t *testing.T) {
	client := &fakeClient{resp: collaborators.ActionResponse{Success: true}, failUntil: 2}
	e := newTestExecutor(t, nil, nil, client, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "FS_LIST"}},
	}}
	results := e.Execute(context.Background(), dag, []types.ArbiterDecision{allow("S1", "FS_LIST")})
	require.Len(t, results, 1)
	assert.Equal(t, types.Executed, results[0].Status)
	assert.Equal(t, 3, client.callCount)
}

func TestExecuteRetryExhaustedFailsAndHalts(t *testing.T) {
	client := &fakeClient{resp: collaborators.ActionResponse{Success: true}, failUntil: 10}
	e := newTestExecutor(t, nil, nil, client, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "FS_LIST"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "MEMORY_GET", DependsOn: []string{"S1"}}},
	}}
	decisions := []types.ArbiterDecision{
		allow("S1", "FS_LIST"),
		allow("S2", "MEMORY_GET"),
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 1)
	assert.Equal(t, types.Failed, results[0].Status)
}

func TestExecuteDiamondAllSucceed(t *testing.T) {
	client := &fakeClient{resp: collaborators.ActionResponse{Success: true}}
	e := newTestExecutor(t, &fakeMemory{}, &fakeRAG{}, client, nil)
	dag := types.PlannerDAG{Steps: []types.PlannerStep{
		{StepID: "S1", Intent: types.ActionIntent{ActionID: "MEMORY_GET"}},
		{StepID: "S2", Intent: types.ActionIntent{ActionID: "RAG_SEARCH", DependsOn: []string{"S1"}}},
		{StepID: "S3", Intent: types.ActionIntent{ActionID: "FS_LIST", DependsOn: []string{"S1"}}},
		{StepID: "S4", Intent: types.ActionIntent{ActionID: "FS_READ", DependsOn: []string{"S2", "S3"}}},
	}}
	decisions := []types.ArbiterDecision{
		allow("S1", "MEMORY_GET"), allow("S2", "RAG_SEARCH"), allow("S3", "FS_LIST"), allow("S4", "FS_READ"),
	}
	results := e.Execute(context.Background(), dag, decisions)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, types.Executed, r.Status)
	}
}

func TestFormatSearchResultsMatchesSpecCasing(t *testing.T) {
	out := formatSearchResults(collaborators.SearchResponse{Results: []collaborators.SearchResult{
		{Text: "go is a language", Source: "wiki", Reliability: 0.9},
	}})
	assert.Equal(t, "go is a language (Source: wiki, Reliability: 0.90)", out)
}
