// Package memoryadmission is the Brain's memory admission controller: a
// pattern-based extractor that decides, after each interaction, which
// derived facts are worth proposing to long-term memory. It never writes
// memory directly — it only produces MemoryProposal values the
// orchestrator forwards to the memory collaborator, fire-and-forget.
package memoryadmission

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kuro-ai/brain/types"
)

type trigger struct {
	substrings []string
	dimension  string
	delta      float64
	confidence float64
}

var triggers = []trigger{
	{substrings: []string{"i like", "i prefer"}, dimension: "preference_affinity", delta: 0.2, confidence: 0.8},
	{substrings: []string{"stop", "too much"}, dimension: "stress_buffer", delta: -0.3, confidence: 0.9},
	{substrings: []string{"at night"}, dimension: "night_mode_sensitivity", delta: 0.5, confidence: 0.7},
}

// Controller evaluates interactions for candidate memory proposals.
type Controller struct{}

// New builds a Controller. It carries no state.
func New() *Controller {
	return &Controller{}
}

// Evaluate inspects msg's lowercased text against the trigger table and
// returns zero or more MemoryProposals, each confidence-clamped to [0,1],
// plus a correlation id for this evaluation's log lines — the proposals
// themselves carry no such id, since it is not part of the memory
// subsystem's wire contract.
func (c *Controller) Evaluate(msg types.UserMessage) ([]types.MemoryProposal, string) {
	text := strings.ToLower(msg.Text)
	hash := contextHash(msg.Context)
	correlationID := uuid.New().String()

	var proposals []types.MemoryProposal
	for _, t := range triggers {
		if !matchesAny(text, t.substrings) {
			continue
		}
		p := types.MemoryProposal{
			EntityID:    "user",
			Dimension:   t.dimension,
			Delta:       t.delta,
			ContextHash: hash,
			Confidence:  t.confidence,
		}
		p.ClampConfidence()
		proposals = append(proposals, p)
	}
	return proposals, correlationID
}

func matchesAny(text string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// contextHash deterministically hashes a message's mode, location and
// metadata so the memory subsystem can dedupe proposals born of the same
// situational context.
func contextHash(ctx types.MessageContext) string {
	keys := make([]string, 0, len(ctx.Metadata))
	for k := range ctx.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(ctx.Mode))
	h.Write([]byte{0})
	h.Write([]byte(ctx.Location))
	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(ctx.Metadata[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
