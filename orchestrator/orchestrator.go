// Package orchestrator wires the cognition pipeline's stages — router,
// planner, arbiter, executor, analyst, memory admission and narrator —
// into the adaptive loop that serves one UserMessage per call. It owns
// no domain logic of its own: every decision is delegated to the stage
// that owns it, and this package only sequences them and accumulates
// state across replanning iterations.
package orchestrator

import (
	"context"

	"github.com/kuro-ai/brain/analyst"
	"github.com/kuro-ai/brain/arbiter"
	"github.com/kuro-ai/brain/executor"
	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/memoryadmission"
	"github.com/kuro-ai/brain/narrator"
	"github.com/kuro-ai/brain/planner"
	"github.com/kuro-ai/brain/router"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

// maxIterations bounds the adaptive planner/executor/analyst loop: one
// initial attempt plus up to two replans on insufficiency feedback.
const maxIterations = 3

const insufficiencyFeedback = "Initial search returned no high-confidence results."

// MemoryClient is the subset of the memory collaborator the orchestrator
// talks to directly: context retrieval for narration and fire-and-forget
// proposal submission after analysis.
type MemoryClient interface {
	GetContext(ctx context.Context, sessionID string) (MemoryContext, error)
	ProposeMemory(ctx context.Context, req types.MemoryProposal) error
}

// MemoryContext is the identity/preference context the memory
// collaborator returns for a session.
type MemoryContext struct {
	Summaries []string
}

// Orchestrator sequences one UserMessage through the full pipeline.
type Orchestrator struct {
	router    *router.Router
	planner   *planner.Planner
	arbiter   *arbiter.Arbiter
	executor  *executor.Executor
	analyst   *analyst.Analyst
	admission *memoryadmission.Controller
	narrator  *narrator.Narrator
	memory    MemoryClient
	logger    logging.Logger
	telemetry *telemetry.Provider
}

// New builds an Orchestrator from its constituent stages. None of the
// arguments may be nil except memory, which is optional — a nil memory
// client simply skips context retrieval and proposal dispatch.
func New(
	r *router.Router,
	p *planner.Planner,
	a *arbiter.Arbiter,
	e *executor.Executor,
	an *analyst.Analyst,
	adm *memoryadmission.Controller,
	n *narrator.Narrator,
	memory MemoryClient,
	logger logging.Logger,
	tp *telemetry.Provider,
) *Orchestrator {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Orchestrator{
		router:    r,
		planner:   p,
		arbiter:   a,
		executor:  e,
		analyst:   an,
		admission: adm,
		narrator:  n,
		memory:    memory,
		logger:    logger,
		telemetry: tp,
	}
}

// Handle runs one UserMessage through the adaptive loop described in the
// pipeline specification and returns the final BrainResponse.
func (o *Orchestrator) Handle(ctx context.Context, msg types.UserMessage) types.BrainResponse {
	ctx, end := o.telemetry.StartSpan(ctx, "orchestrator.handle")
	defer end()

	intent := o.router.Route(msg.Text)

	memCtx := o.fetchMemoryContext(ctx, msg.SessionID)

	var allResults []types.ExecutionResult
	summary := "No significant context found."
	feedback := ""

	for iter := 1; iter <= maxIterations; iter++ {
		o.telemetry.IncrCounter(ctx, telemetry.MetricPipelineIterations, "adaptive planning loop iterations", map[string]string{"intent": intent.String()})

		dag := o.planner.ExecutePlan(ctx, intent, msg.Text, feedback)
		if dag.Empty() {
			break
		}

		decisions := o.arbiter.EvaluatePlan(ctx, dag)
		results := o.executor.Execute(ctx, dag, decisions)
		allResults = append(allResults, results...)

		var needMore bool
		summary, needMore = o.analyst.Synthesize(ctx, allResults)
		if !needMore {
			break
		}
		feedback = insufficiencyFeedback
	}

	o.dispatchMemoryProposals(ctx, msg, summary)

	packet := types.ResultPacket{
		UserQuery:       msg.Text,
		Results:         allResults,
		Context:         msg.Context,
		MemorySummaries: memCtx.Summaries,
	}
	text := o.narrator.Generate(ctx, packet)

	return types.BrainResponse{Text: text, IsPartial: false}
}

func (o *Orchestrator) fetchMemoryContext(ctx context.Context, sessionID string) MemoryContext {
	if o.memory == nil {
		return MemoryContext{}
	}
	memCtx, err := o.memory.GetContext(ctx, sessionID)
	if err != nil {
		o.logger.WarnWithContext(ctx, "memory context fetch failed, continuing without it", map[string]interface{}{"error": err.Error()})
		return MemoryContext{}
	}
	return memCtx
}

// dispatchMemoryProposals evaluates msg for derivable memory facts and
// forwards each proposal to the memory collaborator. Failures are logged
// only — this stage never affects the response the user receives.
func (o *Orchestrator) dispatchMemoryProposals(ctx context.Context, msg types.UserMessage, summary string) {
	if o.admission == nil {
		return
	}
	proposals, correlationID := o.admission.Evaluate(msg)
	if len(proposals) == 0 {
		return
	}
	o.logger.InfoWithContext(ctx, "dispatching memory proposals", map[string]interface{}{
		"correlation_id": correlationID,
		"count":          len(proposals),
		"summary_tail":   summary,
	})
	if o.memory == nil {
		return
	}
	for _, p := range proposals {
		if err := o.memory.ProposeMemory(ctx, p); err != nil {
			o.logger.WarnWithContext(ctx, "memory proposal dispatch failed", map[string]interface{}{"dimension": p.Dimension, "error": err.Error()})
		}
	}
}
