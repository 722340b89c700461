// Package planner turns a classified UserMessage into a PlannerDAG: an
// LLM call constrained to JSON output, repaired and validated before it is
// trusted, falling back to a small deterministic plan whenever the model
// is unavailable or produces something the validator rejects.
package planner

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kuro-ai/brain/llmclient"
	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
	"github.com/kuro-ai/brain/validator"
)

// Planner generates DAGs from user messages, gated by a Validator before
// any plan is handed to the arbiter.
type Planner struct {
	llm       *llmclient.Client
	validator *validator.Validator
	registry  *registry.Registry
	logger    logging.Logger
	telemetry *telemetry.Provider
}

// New builds a Planner. logger/tp may be nil and default to no-ops.
func New(llm *llmclient.Client, v *validator.Validator, reg *registry.Registry, logger logging.Logger, tp *telemetry.Provider) *Planner {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Planner{llm: llm, validator: v, registry: reg, logger: logger, telemetry: tp}
}

// rawPlan mirrors the JSON schema the planner prompt asks the model for.
type rawPlan struct {
	Goal  string    `json:"goal"`
	Steps []rawStep `json:"steps"`
}

type rawStep struct {
	StepID      string            `json:"step_id"`
	ActionID    string            `json:"action_id"`
	Description string            `json:"description"`
	Params      map[string]string `json:"params"`
	DependsOn   []string          `json:"depends_on"`
}

// ExecutePlan produces a DAG for userMsg under the given intent. feedback,
// when non-empty, is a prior insufficiency note from the analyst that is
// folded into the prompt for a replanning attempt.
func (p *Planner) ExecutePlan(ctx context.Context, intent types.Intent, userMsg, feedback string) types.PlannerDAG {
	ctx, end := p.telemetry.StartSpan(ctx, "planner.execute_plan")
	defer end()

	if intent == types.Converse {
		return types.PlannerDAG{Goal: "Conversational"}
	}

	dag, ok := p.tryLLMPlan(ctx, userMsg, feedback)
	if !ok {
		p.logger.WarnWithContext(ctx, "planner falling back to deterministic plan", map[string]interface{}{"intent": intent.String()})
		return p.fallbackDAG(intent, userMsg)
	}

	if valid, reason := p.validator.Validate(dag); !valid {
		p.logger.WarnWithContext(ctx, "planner LLM output failed validation, using fallback", map[string]interface{}{"reason": reason})
		return p.fallbackDAG(intent, userMsg)
	}

	return dag
}

func (p *Planner) tryLLMPlan(ctx context.Context, userMsg, feedback string) (types.PlannerDAG, bool) {
	if p.llm == nil {
		return types.PlannerDAG{}, false
	}

	prompt := buildPrompt(p.registry.Summary(), userMsg, feedback)
	raw, err := p.llm.Generate(ctx, prompt, llmclient.Options{
		Temperature: 0,
		Stop:        []string{"[USER", "Observation:", "###"},
	})
	if err != nil {
		p.logger.WarnWithContext(ctx, "planner LLM call failed", map[string]interface{}{"error": err.Error()})
		return types.PlannerDAG{}, false
	}

	jsonStr, found := extractJSON(strings.TrimSpace(raw))
	if !found {
		return types.PlannerDAG{}, false
	}
	jsonStr = repairKeys(jsonStr)

	var parsed rawPlan
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return types.PlannerDAG{}, false
	}

	dag := types.PlannerDAG{Goal: parsed.Goal}
	if dag.Goal == "" {
		dag.Goal = "Resolved"
	}
	for i, s := range parsed.Steps {
		stepID := s.StepID
		if stepID == "" {
			stepID = stepIDFor(i)
		}
		actionID := s.ActionID
		if actionID == "" {
			actionID = "CONVERSE"
		}
		dag.Steps = append(dag.Steps, types.PlannerStep{
			StepID:      stepID,
			Description: firstNonEmpty(s.Description, "No description"),
			Intent: types.ActionIntent{
				ActionID:  actionID,
				Params:    s.Params,
				DependsOn: s.DependsOn,
			},
		})
	}

	return dag, true
}

// fallbackDAG guarantees forward progress when the LLM is unavailable or
// its output was rejected: a filesystem listing for list-like tool
// requests, otherwise a memory lookup.
func (p *Planner) fallbackDAG(intent types.Intent, userMsg string) types.PlannerDAG {
	dag := types.PlannerDAG{Goal: "Fallback Plan"}

	lower := strings.ToLower(userMsg)
	if intent == types.ToolAction && (strings.Contains(lower, "list") || strings.Contains(lower, "files")) {
		dag.Steps = append(dag.Steps, types.PlannerStep{
			StepID: "FALLBACK_LIST",
			Intent: types.ActionIntent{ActionID: "FS_LIST"},
		})
	}

	if len(dag.Steps) == 0 {
		dag.Steps = append(dag.Steps, types.PlannerStep{
			StepID: "FALLBACK_QUERY",
			Intent: types.ActionIntent{ActionID: "MEMORY_GET"},
		})
	}

	return dag
}

func stepIDFor(i int) string {
	return "S_" + strconv.Itoa(i)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
