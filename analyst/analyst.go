// Package analyst is the Brain's semantic analyst: it filters and
// synthesizes the executor's raw ExecutionResults into a dense,
// partitioned narrative, keeping identity facts separate from external
// enrichment so the narrator never conflates the two, and flags when a
// retrieval attempt came back empty so the orchestrator can replan.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

// Analyst partitions ExecutionResults by the destination their tool was
// routed to, via the Tool Registry.
type Analyst struct {
	registry  *registry.Registry
	telemetry *telemetry.Provider
}

// New builds an Analyst bound to reg.
func New(reg *registry.Registry, tp *telemetry.Provider) *Analyst {
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Analyst{registry: reg, telemetry: tp}
}

// Synthesize partitions results into identity, external-fact and
// system-execution sections and reports whether the plan needs another
// iteration with supplementary feedback.
func (a *Analyst) Synthesize(ctx context.Context, results []types.ExecutionResult) (summary string, needsMoreData bool) {
	_, end := a.telemetry.StartSpan(ctx, "analyst.synthesize")
	defer end()

	var identity, external, system []string
	ragAttempted := false
	ragSucceeded := false

	for _, r := range results {
		entry, ok := a.registry.Lookup(r.ToolID)
		destination := registry.Destination("")
		if ok {
			destination = entry.Destination
		}

		switch destination {
		case registry.DestinationMemory:
			if r.Status == types.Executed {
				identity = append(identity, splitBullets(r.RawOutput)...)
			}
		case registry.DestinationRAG:
			ragAttempted = true
			if r.Status == types.Executed {
				ragSucceeded = true
				external = append(external, splitBullets(r.RawOutput)...)
			}
		default:
			system = append(system, systemLine(r))
		}
	}

	needsMoreData = ragAttempted && len(external) == 0 && ragSucceeded

	var sections []string
	if len(identity) > 0 {
		sections = append(sections, "### IDENTITY & PREFERENCES\n"+strings.Join(identity, "\n"))
	}
	if len(external) > 0 {
		sections = append(sections, "### EXTERNAL ENRICHMENT (RAG)\n"+strings.Join(external, "\n"))
	}
	if len(system) > 0 {
		sections = append(sections, "### SYSTEM EXECUTION\n"+strings.Join(system, "\n"))
	}

	if len(sections) == 0 {
		return "No significant context found.", needsMoreData
	}
	return strings.Join(sections, "\n\n"), needsMoreData
}

func splitBullets(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			continue
		}
		out = append(out, "- "+l)
	}
	return out
}

func systemLine(r types.ExecutionResult) string {
	switch r.Status {
	case types.Executed:
		return fmt.Sprintf("- Action: %s", r.RawOutput)
	case types.Failed:
		return fmt.Sprintf("- Action FAILED: %s", r.Error)
	case types.Denied:
		return fmt.Sprintf("- Action DENIED: %s", r.DecisionReason)
	case types.AwaitingConfirmation:
		return fmt.Sprintf("- Action AWAITING CONFIRMATION: %s", r.DecisionReason)
	default:
		return fmt.Sprintf("- Action %s", r.Status)
	}
}
