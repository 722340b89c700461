// Package narrator is the Brain's persona layer: the only stage that
// turns a ResultPacket into prose a user reads. It never receives raw
// tool objects — only the executor's uniform ExecutionResult stream — and
// falls back to a deterministic rendering whenever the LLM is unavailable.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuro-ai/brain/llmclient"
	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

const strictSystemPreamble = `### MISSION
You are the assistant. Narrate the execution log below to the user.
STRICT RULES:
1. ONLY describe actions present in the log.
2. DO NOT explain internal logic, system modes, or terminal specifics.
3. DO NOT hypothesize about what 'could' have happened.
4. If an action was DENIED or needs CONFIRMATION, explain the reason given in the log.
5. Be brief, factual, and professional.
`

// Narrator renders a ResultPacket into a final response, in chat mode
// when the packet carries no results and task mode otherwise.
type Narrator struct {
	llm       *llmclient.Client
	logger    logging.Logger
	telemetry *telemetry.Provider
}

// New builds a Narrator. logger/tp may be nil and default to no-ops.
func New(llm *llmclient.Client, logger logging.Logger, tp *telemetry.Provider) *Narrator {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Narrator{llm: llm, logger: logger, telemetry: tp}
}

// Generate narrates packet into a user-facing response.
func (n *Narrator) Generate(ctx context.Context, packet types.ResultPacket) string {
	ctx, end := n.telemetry.StartSpan(ctx, "narrator.generate")
	defer end()

	if len(packet.Results) == 0 {
		return n.chat(ctx, packet.UserQuery, packet.MemorySummaries)
	}
	return n.narrateTask(ctx, packet)
}

func (n *Narrator) chat(ctx context.Context, query string, memorySummaries []string) string {
	if n.llm == nil {
		return "Hello. How can I help you?"
	}
	prompt := fmt.Sprintf("Respond briefly to: '%s'", query)
	if len(memorySummaries) > 0 {
		prompt += fmt.Sprintf("\n\nKnown context about the user: %s", strings.Join(memorySummaries, "; "))
	}
	resp, err := n.llm.Generate(ctx, prompt, llmclient.Options{Temperature: 0.5})
	if err != nil {
		n.logger.WarnWithContext(ctx, "narrator chat LLM call failed, using fallback", map[string]interface{}{"error": err.Error()})
		return "Hello. How can I help you?"
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "Hello. How can I help you?"
	}
	return resp
}

func (n *Narrator) narrateTask(ctx context.Context, packet types.ResultPacket) string {
	executionLog := formatExecutionLog(packet.Results)

	if n.llm == nil {
		return "LOG SUMMARY:\n" + executionLog
	}

	prompt := strictSystemPreamble + fmt.Sprintf("\n### USER QUERY\n%s\n\n### EXECUTION LOG\n%s\n", packet.UserQuery, executionLog)
	resp, err := n.llm.Generate(ctx, prompt, llmclient.Options{Temperature: 0.1})
	if err != nil {
		n.logger.WarnWithContext(ctx, "narrator task LLM call failed, using fallback", map[string]interface{}{"error": err.Error()})
		return "LOG SUMMARY:\n" + executionLog
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "LOG SUMMARY:\n" + executionLog
	}
	return resp
}

// formatExecutionLog renders one line per result: tool, status, and any
// present decision reason / output / error, omitting absent fields.
func formatExecutionLog(results []types.ExecutionResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		line := fmt.Sprintf("- Action: %s [%s]", r.ToolID, r.Status)
		if r.DecisionReason != "" {
			line += fmt.Sprintf(" | Note: %s", r.DecisionReason)
		}
		if r.RawOutput != "" {
			line += fmt.Sprintf(" | Result: %s", r.RawOutput)
		}
		if r.Error != "" {
			line += fmt.Sprintf(" | Error: %s", r.Error)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
