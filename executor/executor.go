// Package executor runs a validated, arbiter-evaluated PlannerDAG to
// completion: Kahn-style topological scheduling, per-step arbiter gating,
// fail-closed condition evaluation, and bounded per-step retries against
// the destination collaborator indicated by the Tool Registry.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuro-ai/brain/collaborators"
	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

// MemoryClient is the subset of collaborators.MemoryClient the executor
// dispatches MEMORY_* actions to.
type MemoryClient interface {
	GetContext(ctx context.Context, sessionID string) (collaborators.ContextResponse, error)
}

// RAGClient is the subset of collaborators.RAGClient the executor
// dispatches RAG_* actions to.
type RAGClient interface {
	SearchKnowledge(ctx context.Context, query string, topK int) (collaborators.SearchResponse, error)
}

// ClientExecutor is the subset of collaborators.ClientExecutorClient the
// executor dispatches FS_* actions to.
type ClientExecutor interface {
	ExecuteAction(ctx context.Context, actionID string, params map[string]string) (collaborators.ActionResponse, error)
}

// OpsClient is the subset of collaborators.OpsClient the executor
// dispatches ops-destination actions to.
type OpsClient interface {
	ExecuteSystemAction(ctx context.Context, actionID string, params map[string]string) (collaborators.ActionResponse, error)
}

// Executor runs one DAG per call, entirely sequentially: the spec
// requires no intra-DAG parallelism.
type Executor struct {
	registry *registry.Registry
	memory   MemoryClient
	rag      RAGClient
	client   ClientExecutor
	ops      OpsClient

	retryBudget int
	logger      logging.Logger
	telemetry   *telemetry.Provider
}

// New builds an Executor wired to the four collaborator clients.
func New(reg *registry.Registry, memory MemoryClient, rag RAGClient, client ClientExecutor, ops OpsClient, logger logging.Logger, tp *telemetry.Provider) *Executor {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Executor{
		registry:    reg,
		memory:      memory,
		rag:         rag,
		client:      client,
		ops:         ops,
		retryBudget: 2,
		logger:      logger,
		telemetry:   tp,
	}
}

type stepState struct {
	success bool
}

// Execute runs dag to completion. decisions must contain one
// ArbiterDecision per step, keyed by StepID; callers obtain this from
// arbiter.EvaluatePlan.
func (e *Executor) Execute(ctx context.Context, dag types.PlannerDAG, decisions []types.ArbiterDecision) []types.ExecutionResult {
	ctx, end := e.telemetry.StartSpan(ctx, "executor.execute")
	defer end()

	decisionByStep := make(map[string]types.ArbiterDecision, len(decisions))
	for _, d := range decisions {
		decisionByStep[d.StepID] = d
	}

	stepsByID := make(map[string]types.PlannerStep, len(dag.Steps))
	adjacency := make(map[string][]string, len(dag.Steps))
	inDegree := make(map[string]int, len(dag.Steps))
	for _, step := range dag.Steps {
		stepsByID[step.StepID] = step
		if _, ok := inDegree[step.StepID]; !ok {
			inDegree[step.StepID] = 0
		}
	}
	for _, step := range dag.Steps {
		for _, dep := range step.Intent.DependsOn {
			if _, ok := stepsByID[dep]; ok {
				adjacency[dep] = append(adjacency[dep], step.StepID)
				inDegree[step.StepID]++
			}
		}
	}

	var queue []string
	for _, step := range dag.Steps {
		if inDegree[step.StepID] == 0 {
			queue = append(queue, step.StepID)
		}
	}

	completed := make(map[string]stepState, len(dag.Steps))
	var results []types.ExecutionResult

	advance := func(stepID string) {
		for _, next := range adjacency[stepID] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		step := stepsByID[currentID]

		decision, hasDecision := decisionByStep[currentID]
		if hasDecision && decision.Verdict == types.Deny {
			result := types.ExecutionResult{
				StepID:         currentID,
				ToolID:         step.Intent.ActionID,
				Status:         types.Denied,
				DecisionReason: decision.Reason,
			}
			results = append(results, result)
			completed[currentID] = stepState{success: false}
			e.emitStatusMetric(ctx, result.Status)
			continue
		}
		if hasDecision && decision.Verdict == types.Confirm {
			result := types.ExecutionResult{
				StepID:         currentID,
				ToolID:         step.Intent.ActionID,
				Status:         types.AwaitingConfirmation,
				DecisionReason: decision.Reason,
			}
			results = append(results, result)
			e.emitStatusMetric(ctx, result.Status)
			return results
		}

		if step.Intent.Condition != "" {
			if !evaluateCondition(step.Intent.Condition, completed) {
				e.logger.DebugWithContext(ctx, "skipping step, condition false", map[string]interface{}{"step_id": currentID, "condition": step.Intent.Condition})
				completed[currentID] = stepState{success: true}
				results = append(results, types.ExecutionResult{
					StepID: currentID,
					ToolID: step.Intent.ActionID,
					Status: types.Skipped,
				})
				e.emitStatusMetric(ctx, types.Skipped)
				advance(currentID)
				continue
			}
		}

		result := e.dispatchWithRetry(ctx, step)
		results = append(results, result)
		e.emitStatusMetric(ctx, result.Status)

		if result.Status == types.Executed {
			completed[currentID] = stepState{success: true}
			advance(currentID)
			continue
		}

		completed[currentID] = stepState{success: false}
		return results
	}

	return results
}

func (e *Executor) emitStatusMetric(ctx context.Context, status types.Status) {
	e.telemetry.IncrCounter(ctx, telemetry.MetricExecutorStatuses, "count of executor terminal statuses", map[string]string{
		"status": status.String(),
	})
}

// evaluateCondition implements the fail-closed substring match: the
// condition names one or more prior step ids by substring, and is true
// iff every referenced step that has completed succeeded. If nothing
// referenced has completed yet, it is false.
func evaluateCondition(condition string, completed map[string]stepState) bool {
	referenced := false
	for stepID, state := range completed {
		if strings.Contains(condition, stepID) {
			referenced = true
			if !state.success {
				return false
			}
		}
	}
	return referenced
}

func (e *Executor) dispatchWithRetry(ctx context.Context, step types.PlannerStep) types.ExecutionResult {
	var lastErr error

	for attempt := 0; attempt <= e.retryBudget; attempt++ {
		out, err := e.dispatch(ctx, step)
		if err == nil {
			return types.ExecutionResult{
				StepID:    step.StepID,
				ToolID:    step.Intent.ActionID,
				Status:    types.Executed,
				RawOutput: out,
			}
		}
		lastErr = err
		e.logger.WarnWithContext(ctx, "step attempt failed", map[string]interface{}{
			"step_id": step.StepID, "attempt": attempt + 1, "error": err.Error(),
		})
	}

	return types.ExecutionResult{
		StepID: step.StepID,
		ToolID: step.Intent.ActionID,
		Status: types.Failed,
		Error:  fmt.Sprintf("step reached retry limit: %v", lastErr),
	}
}

// dispatch resolves the step's action to a destination via the Tool
// Registry and calls the corresponding collaborator client. This is the
// executor's only subsystem-specific branching: a tagged-enum switch
// keyed by destination, never by string prefix.
func (e *Executor) dispatch(ctx context.Context, step types.PlannerStep) (string, error) {
	entry, ok := e.registry.Lookup(step.Intent.ActionID)
	if !ok {
		return "", fmt.Errorf("unknown action: %s", step.Intent.ActionID)
	}

	switch entry.Destination {
	case registry.DestinationMemory:
		if e.memory == nil {
			return "", fmt.Errorf("no memory client configured for action: %s", step.Intent.ActionID)
		}
		resp, err := e.memory.GetContext(ctx, "default")
		if err != nil {
			return "", err
		}
		return strings.Join(resp.Summaries, "; "), nil

	case registry.DestinationRAG:
		if e.rag == nil {
			return "", fmt.Errorf("no RAG client configured for action: %s", step.Intent.ActionID)
		}
		resp, err := e.rag.SearchKnowledge(ctx, step.Description, 3)
		if err != nil {
			return "", err
		}
		return formatSearchResults(resp), nil

	case registry.DestinationClient:
		if e.client == nil {
			return "", fmt.Errorf("no client executor configured for action: %s", step.Intent.ActionID)
		}
		resp, err := e.client.ExecuteAction(ctx, step.Intent.ActionID, step.Intent.Params)
		if err != nil {
			return "", err
		}
		if !resp.Success {
			return resp.Output, fmt.Errorf("%s", resp.Error)
		}
		return resp.Output, nil

	case registry.DestinationOps:
		if e.ops == nil {
			return "", fmt.Errorf("no ops client configured for action: %s", step.Intent.ActionID)
		}
		resp, err := e.ops.ExecuteSystemAction(ctx, step.Intent.ActionID, step.Intent.Params)
		if err != nil {
			return "", err
		}
		if !resp.Success {
			return resp.Output, fmt.Errorf("%s", resp.Error)
		}
		return resp.Output, nil

	default:
		return "", fmt.Errorf("unregistered destination for action: %s", step.Intent.ActionID)
	}
}

func formatSearchResults(resp collaborators.SearchResponse) string {
	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		parts = append(parts, fmt.Sprintf("%s (Source: %s, Reliability: %.2f)", r.Text, r.Source, r.Reliability))
	}
	return strings.Join(parts, "\n")
}
