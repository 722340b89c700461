// Package arbiter is the Brain's mechanical policy enforcement layer: a
// rule-ordered check, run once per planned step, that decides whether the
// action may proceed (ALLOW), must be blocked outright (DENY), or needs a
// human in the loop (CONFIRM). Rules are evaluated in order and the first
// match wins; nothing here calls out to memory or any other collaborator.
package arbiter

import (
	"context"
	"strings"

	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

// forbidden action tokens trigger an unconditional DENY regardless of any
// other configuration. These are the Brain's hardware safeguards.
var forbidden = []string{"DELETE_ALL", "FORMAT_SYSTEM"}

// Arbiter evaluates a PlannerDAG step by step, independent of execution
// order — it has no notion of the DAG's dependency structure.
type Arbiter struct {
	telemetry *telemetry.Provider
}

// New builds an Arbiter. tp may be nil, in which case span emission is a
// no-op (see telemetry.Provider.StartSpan).
func New(tp *telemetry.Provider) *Arbiter {
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Arbiter{telemetry: tp}
}

// EvaluatePlan returns one ArbiterDecision per step, preserving step order.
func (a *Arbiter) EvaluatePlan(ctx context.Context, dag types.PlannerDAG) []types.ArbiterDecision {
	ctx, end := a.telemetry.StartSpan(ctx, "arbiter.evaluate_plan")
	defer end()

	decisions := make([]types.ArbiterDecision, 0, len(dag.Steps))
	for _, step := range dag.Steps {
		d := a.evaluateStep(step)
		decisions = append(decisions, d)
		a.telemetry.IncrCounter(ctx, telemetry.MetricArbiterVerdicts, "count of arbiter verdicts by kind", map[string]string{
			"verdict": d.Verdict.String(),
		})
	}
	return decisions
}

func (a *Arbiter) evaluateStep(step types.PlannerStep) types.ArbiterDecision {
	actionID := step.Intent.ActionID
	upper := strings.ToUpper(actionID)

	for _, token := range forbidden {
		if strings.Contains(upper, token) {
			return types.ArbiterDecision{
				StepID:     step.StepID,
				ToolID:     actionID,
				Verdict:    types.Deny,
				Confidence: 1.0,
				Reason:     "Critical system safety violation.",
			}
		}
	}

	lower := strings.ToLower(actionID)
	if strings.Contains(lower, "delete") || strings.Contains(lower, "remove") {
		return types.ArbiterDecision{
			StepID:     step.StepID,
			ToolID:     actionID,
			Verdict:    types.Confirm,
			Confidence: 0.8,
			Reason:     "Potentially destructive action requires manual confirmation.",
		}
	}

	return types.ArbiterDecision{
		StepID:     step.StepID,
		ToolID:     actionID,
		Verdict:    types.Allow,
		Confidence: 1.0,
	}
}
