// Package router implements the Brain's Intent Router: a deterministic,
// purely local keyword classifier. Unlike the source system's hybrid
// router, this is Tier 0 only — no semantic fallback LLM call — so it can
// meet the spec's microsecond latency budget and never perform network
// I/O on the hot path.
package router

import (
	"regexp"

	"github.com/kuro-ai/brain/types"
)

type trigger struct {
	pattern *regexp.Regexp
	intent  types.Intent
}

// Router classifies a message's text into one of the four Intent values
// using the first matching pattern in an ordered list.
type Router struct {
	triggers []trigger
}

// New builds a Router with the spec's default keyword set: realtime
// search, tool action, then memory query, checked in that order.
func New() *Router {
	return &Router{
		triggers: []trigger{
			{regexp.MustCompile(`(?i)\b(stock|price|market|news|weather)\b`), types.RealtimeSearch},
			{regexp.MustCompile(`(?i)\b(delete|move|open|restart|run|list|read|file|exists)\b`), types.ToolAction},
			{regexp.MustCompile(`(?i)\b(remember|history|like|feel|forgot|preference)\b`), types.MemoryQuery},
		},
	}
}

// Route returns the first matching intent, or Converse if nothing
// matches. It performs no I/O and is safe to call on every message.
func (r *Router) Route(text string) types.Intent {
	for _, t := range r.triggers {
		if t.pattern.MatchString(text) {
			return t.intent
		}
	}
	return types.Converse
}
