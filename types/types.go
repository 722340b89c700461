// Package types holds the data model shared across every stage of the
// cognition pipeline: router, planner, validator, arbiter, executor,
// analyst, memory admission and narrator.
package types

import "time"

// Intent is the coarse classification the Router assigns to a UserMessage.
type Intent int

const (
	Converse Intent = iota
	RealtimeSearch
	ToolAction
	MemoryQuery
)

func (i Intent) String() string {
	switch i {
	case Converse:
		return "CONVERSE"
	case RealtimeSearch:
		return "REALTIME_SEARCH"
	case ToolAction:
		return "TOOL_ACTION"
	case MemoryQuery:
		return "MEMORY_QUERY"
	default:
		return "UNKNOWN"
	}
}

// MessageContext carries the ambient metadata a UserMessage arrives with.
type MessageContext struct {
	Mode      string
	Location  string
	Timestamp time.Time
	Metadata  map[string]string
}

// UserMessage is the immutable input to one pipeline invocation.
type UserMessage struct {
	SessionID string
	Text      string
	Context   MessageContext
}

// ActionIntent names the tool a PlannerStep invokes, its parameters and
// its place in the DAG.
type ActionIntent struct {
	ActionID   string
	Params     map[string]string
	DependsOn  []string
	Condition  string
}

// PlannerStep is one node of a PlannerDAG.
type PlannerStep struct {
	StepID      string
	Description string
	Intent      ActionIntent
}

// PlannerDAG is the plan the Planner produces for one message.
type PlannerDAG struct {
	Goal  string
	Steps []PlannerStep
}

// Empty reports whether the DAG carries no steps — the conversational path.
func (d PlannerDAG) Empty() bool {
	return len(d.Steps) == 0
}

// Verdict is the Decision Arbiter's per-step policy outcome.
type Verdict int

const (
	Allow Verdict = iota
	Deny
	Confirm
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "ALLOW"
	case Deny:
		return "DENY"
	case Confirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

// ArbiterDecision is the policy verdict for one PlannerStep.
type ArbiterDecision struct {
	StepID     string
	ToolID     string
	Verdict    Verdict
	Confidence float64
	Reason     string
}

// Status is the terminal state an ExecutionResult reaches.
type Status int

const (
	Executed Status = iota
	Failed
	Denied
	AwaitingConfirmation
	Skipped
)

func (s Status) String() string {
	switch s {
	case Executed:
		return "EXECUTED"
	case Failed:
		return "FAILED"
	case Denied:
		return "DENIED"
	case AwaitingConfirmation:
		return "AWAITING_CONFIRMATION"
	case Skipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// ExecutionResult is the uniform, one-per-reached-step result the DAG
// Executor emits. It is the only shape the Analyst and the Narrator ever
// see — no raw tool objects cross this boundary.
type ExecutionResult struct {
	StepID         string
	ToolID         string
	Status         Status
	RawOutput      string
	Error          string
	DecisionReason string
}

// Succeeded reports whether this step's result counts as success for the
// purpose of advancing dependents and evaluating downstream conditions.
func (r ExecutionResult) Succeeded() bool {
	return r.Status == Executed || r.Status == Skipped
}

// ResultPacket is the sole input to the Narrator — the One-Way Valve.
type ResultPacket struct {
	UserQuery       string
	Results         []ExecutionResult
	Context         MessageContext
	MemorySummaries []string
}

// MemoryProposal is a derived memory-update suggestion dispatched,
// fire-and-forget, to the external memory service.
type MemoryProposal struct {
	EntityID    string
	Dimension   string
	Delta       float64
	ContextHash string
	Confidence  float64
}

// ClampConfidence clamps Confidence into [0,1] in place.
func (p *MemoryProposal) ClampConfidence() {
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
}

// BrainResponse is the outbound payload on the ChatStream RPC.
type BrainResponse struct {
	Text      string
	IsPartial bool
}
